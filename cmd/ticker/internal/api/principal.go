package api

import (
	"errors"
	"net/http"
)

// Principal identifies the caller's session bucket. Resolution is an
// external concern: the core never parses credentials itself.
type Principal struct {
	UserID     string
	InstanceID string
}

var ErrUnauthenticated = errors.New("unauthenticated")

// PrincipalResolver yields the principal for a request or signals
// unauthenticated.
type PrincipalResolver interface {
	Resolve(r *http.Request) (Principal, error)
}

// HeaderResolver trusts identity headers injected by a fronting auth proxy.
// The default adapter for local and proxy-terminated deployments.
type HeaderResolver struct{}

func (HeaderResolver) Resolve(r *http.Request) (Principal, error) {
	p := Principal{
		UserID:     r.Header.Get("X-User-Id"),
		InstanceID: r.Header.Get("X-Instance-Id"),
	}
	if p.UserID == "" || p.InstanceID == "" {
		return Principal{}, ErrUnauthenticated
	}
	return p, nil
}
