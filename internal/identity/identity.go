// Package identity resolves the caller behind an HTTP request from a signed
// session token, carried either as a bearer header or a session cookie.
package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/sfexams/store/internal/domain"
	"github.com/sfexams/store/internal/port"
)

const cookieName = "session"

// HMACVerifier validates tokens of the form
// "<base64url(subject)>.<base64url(hmac-sha256(subject))>". The subject is an
// opaque identity string minted by whoever signed the token.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

var _ port.IdentityProvider = (*HMACVerifier)(nil)

func (v *HMACVerifier) Identify(r *http.Request) (string, error) {
	token := bearerToken(r)
	if token == "" {
		if c, err := r.Cookie(cookieName); err == nil {
			token = c.Value
		}
	}
	if token == "" {
		return "", fmt.Errorf("no session token: %w", domain.ErrUnauthenticated)
	}

	subject, err := v.verify(token)
	if err != nil {
		return "", fmt.Errorf("v.verify: %w", err)
	}

	return subject, nil
}

// Sign mints a token for a subject, the inverse of Identify. Used by tests
// and by deployments that terminate login in the same process.
func (v *HMACVerifier) Sign(subject string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(subject)) + "." + enc.EncodeToString(v.mac(subject))
}

func (v *HMACVerifier) verify(token string) (string, error) {
	encSubject, encSig, found := strings.Cut(token, ".")
	if !found {
		return "", fmt.Errorf("malformed token: %w", domain.ErrUnauthenticated)
	}

	enc := base64.RawURLEncoding

	subject, err := enc.DecodeString(encSubject)
	if err != nil {
		return "", fmt.Errorf("subject: %w", domain.ErrUnauthenticated)
	}

	sig, err := enc.DecodeString(encSig)
	if err != nil {
		return "", fmt.Errorf("signature: %w", domain.ErrUnauthenticated)
	}

	if !hmac.Equal(sig, v.mac(string(subject))) {
		return "", fmt.Errorf("signature mismatch: %w", domain.ErrUnauthenticated)
	}

	return string(subject), nil
}

func (v *HMACVerifier) mac(subject string) []byte {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(subject))
	return mac.Sum(nil)
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, found := strings.CutPrefix(auth, "Bearer "); found {
		return token
	}
	return ""
}
