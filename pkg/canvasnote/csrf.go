package canvasnote

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
)

const csrfCookieName = "csrftoken"
const csrfHeaderName = "X-CSRFToken"

// csrfIssuer hands out double-submit CSRF tokens. A token is valid when the
// mutating request presents it both as the csrftoken cookie and in the
// X-CSRFToken header, and the issuer has seen it before. Tokens live for
// the process lifetime; the editor fetches one per page load.
type csrfIssuer struct {
	mu     sync.Mutex
	issued map[string]struct{}
}

func newCSRFIssuer() *csrfIssuer {
	return &csrfIssuer{issued: make(map[string]struct{})}
}

func (c *csrfIssuer) issue() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := hex.EncodeToString(raw)
	c.mu.Lock()
	c.issued[token] = struct{}{}
	c.mu.Unlock()
	return token, nil
}

func (c *csrfIssuer) valid(token string) bool {
	if token == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.issued[token]
	return ok
}

// handleCSRF issues a token and sets it as the csrftoken cookie. The token
// is also returned in the body for clients that cannot read cookies.
func (a *App) handleCSRF(w http.ResponseWriter, r *http.Request) {
	token, err := a.csrf.issue()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to issue CSRF token")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
}

// csrfMiddleware rejects mutating requests whose header token does not
// match a previously issued cookie token.
func (a *App) csrfMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(csrfCookieName)
		header := r.Header.Get(csrfHeaderName)
		if err != nil || cookie.Value == "" || header == "" ||
			cookie.Value != header || !a.csrf.valid(header) {
			a.log.Warn().Str("path", r.URL.Path).Msg("rejected request with bad CSRF token")
			respondError(w, http.StatusForbidden, "CSRF token missing or incorrect")
			return
		}
		next.ServeHTTP(w, r)
	})
}
