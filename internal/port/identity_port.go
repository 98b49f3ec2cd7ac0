package port

import "net/http"

// IdentityProvider resolves the authenticated identity of a request.
// It returns domain.ErrUnauthenticated for anonymous requests.
type IdentityProvider interface {
	Identify(r *http.Request) (string, error)
}
