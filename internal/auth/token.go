package auth

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
)

// Claims holds the fields the client reads out of the credential's payload
// segment. The token is otherwise opaque.
type Claims struct {
	Exp    int64  `json:"exp"`
	UserID string `json:"user_id"`
}

// Store persists the bearer credential across process restarts.
//
// The credential is written as an [oauth2.Token] JSON document at a fixed
// path. All methods are safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	path   string
	logger *log.Logger
	now    func() time.Time
}

// NewStore creates a Store persisting to the given path.
func NewStore(path string, logger *log.Logger) *Store {
	return &Store{path: path, logger: logger, now: time.Now}
}

// Set persists a credential. A no-op if token is empty.
func (s *Store) Set(token string) error {
	if token == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}

	return nil
}

// Get returns the persisted credential, or "" if none exists.
func (s *Store) Get() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Remove clears the persisted credential. Safe to call when none exists.
func (s *Store) Remove() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}

// Valid reports whether a credential exists and its embedded expiry claim is
// strictly in the future. Decode failures fail closed.
func (s *Store) Valid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := s.read()
	if token == "" {
		return false
	}

	claims, err := DecodeClaims(token)
	if err != nil {
		if s.logger != nil {
			s.logger.Debug("token claims undecodable, treating as invalid", "error", err)
		}
		return false
	}

	return claims.Exp > s.now().Unix()
}

// UserID returns the user_id claim, or "" if no valid token exists.
func (s *Store) UserID() string {
	claims, err := DecodeClaims(s.Get())
	if err != nil {
		return ""
	}
	return claims.UserID
}

// Expiration returns the token's expiry time, or the zero time if no
// decodable token exists.
func (s *Store) Expiration() time.Time {
	claims, err := DecodeClaims(s.Get())
	if err != nil {
		return time.Time{}
	}
	return time.Unix(claims.Exp, 0)
}

// read loads the persisted access token. Callers hold s.mu.
func (s *Store) read() string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		if s.logger != nil {
			s.logger.Debug("token file unreadable", "path", s.path, "error", err)
		}
		return ""
	}

	return token.AccessToken
}

// DecodeClaims decodes the payload segment of a three-part dot-delimited
// token. Returns an error for any malformed input.
func DecodeClaims(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("expected 3 token segments, got %d", len(parts))
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		// Some issuers pad the segment
		payload, err = base64.URLEncoding.DecodeString(parts[1])
		if err != nil {
			return nil, fmt.Errorf("failed to decode token payload: %w", err)
		}
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("failed to parse token claims: %w", err)
	}

	return &claims, nil
}
