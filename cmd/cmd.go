// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// authCommand handles session management against the collector backend.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in with Spotify via the browser",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the login URL instead of opening a browser",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "exchange",
				Usage: "Exchange a redirect authorization code for a session",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "code"},
				},
				Action: r.AuthExchange,
			},
			{
				Name:   "status",
				Usage:  "Check current session state against the backend",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Discard the local credential",
				Action: r.AuthLogout,
			},
		},
	}
}

// playlistsCommand lists the authenticated user's playlists and their tracks.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Browse the playlist catalog",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List playlists",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.PlaylistsList,
			},
			{
				Name:  "tracks",
				Usage: "List a playlist's tracks",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (csv, json, txt)",
						Value:   "txt",
					},
				},
				Action: r.PlaylistTracks,
			},
		},
	}
}

// albumsCommand lists the authenticated user's saved albums and their tracks.
func albumsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "albums",
		Aliases: []string{"al"},
		Usage:   "Browse saved albums",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List saved albums",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.AlbumsList,
			},
			{
				Name:  "tracks",
				Usage: "List an album's tracks",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (csv, json, txt)",
						Value:   "txt",
					},
				},
				Action: r.AlbumTracks,
			},
		},
	}
}

// exportCommand requests a server-built export of the current selection.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Download selected playlists as a single file",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Select playlists and request an export",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "playlist",
						Aliases: []string{"p"},
						Usage:   "Playlist ID to include (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Include every playlist",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (csv, json, txt)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory",
					},
				},
				Action: r.ExportRun,
			},
		},
	}
}

// publicCommand handles unauthenticated single-playlist operations.
func publicCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "public",
		Usage: "Work with a public playlist by URL, no login required",
		Commands: []*cli.Command{
			{
				Name:  "info",
				Usage: "Show a public playlist and its tracks",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "url"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (csv, json, txt)",
						Value:   "txt",
					},
				},
				Action: r.PublicInfo,
			},
			{
				Name:  "get",
				Usage: "Download a public playlist export",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "url"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (csv, json, txt)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory",
					},
				},
				Action: r.PublicGet,
			},
		},
	}
}

// cacheCommand inspects and clears the local catalog cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect the local catalog cache",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show cached playlists and the latest quota snapshot",
				Action: r.CacheShow,
			},
			{
				Name:   "clear",
				Usage:  "Delete all cached catalog data",
				Action: r.CacheClear,
			},
		},
	}
}

// setupCommand handles setup operations for the database and config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize the catalog cache database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Create a config.toml from the embedded template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Where to write the config file",
						Value: "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive selection and export.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive playlist collector",
		Action:  r.TUI,
	}
}
