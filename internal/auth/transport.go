package auth

import (
	"net/http"

	"github.com/charmbracelet/log"
)

// Transport is an [http.RoundTripper] wiring the token store into every
// outgoing backend request.
//
// The credential is attached as an Authorization bearer header if and only
// if the store holds a valid token at send time. Any response with status
// 401 clears the stored credential and publishes [EventAuthExpired] exactly
// once per response.
type Transport struct {
	Base   http.RoundTripper
	Store  *Store
	Events *Broadcaster
	Logger *log.Logger
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// RoundTrip implements [http.RoundTripper].
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Store != nil && t.Store.Valid() {
		// RoundTrippers must not mutate the caller's request
		clone := req.Clone(req.Context())
		clone.Header.Set("Authorization", "Bearer "+t.Store.Get())
		req = clone
	}

	resp, err := t.base().RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if t.Logger != nil {
			t.Logger.Warn("credential rejected by backend, clearing", "path", req.URL.Path)
		}
		if t.Store != nil {
			if rmErr := t.Store.Remove(); rmErr != nil && t.Logger != nil {
				t.Logger.Error("failed to clear credential", "error", rmErr)
			}
		}
		if t.Events != nil {
			t.Events.Publish(EventAuthExpired)
		}
	}

	return resp, nil
}
