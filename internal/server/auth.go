package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"
)

const tokenCookieName = "rc_token"

func (s *Server) validToken(t string) bool {
	return t != "" && subtle.ConstantTimeCompare([]byte(t), []byte(s.token)) == 1
}

// authMiddleware accepts the token as a bearer header, a query param or a
// cookie. A valid query token on a GET is swapped for a cookie and the
// request is redirected to the same URL without it.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "" {
			bearer, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || !s.validToken(strings.TrimSpace(bearer)) {
				s.unauthorized(w, r)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		if queryToken := r.URL.Query().Get("token"); queryToken != "" {
			if !s.validToken(queryToken) {
				s.unauthorized(w, r)
				return
			}
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			http.SetCookie(w, &http.Cookie{
				Name:     tokenCookieName,
				Value:    s.token,
				Path:     "/",
				HttpOnly: true,
				MaxAge:   int(24 * time.Hour / time.Second),
				SameSite: http.SameSiteLaxMode,
			})

			newURL := *r.URL
			q := newURL.Query()
			q.Del("token")
			newURL.RawQuery = q.Encode()
			http.Redirect(w, r, newURL.String(), http.StatusFound)
			return
		}

		cookie, err := r.Cookie(tokenCookieName)
		if err != nil || !s.validToken(cookie.Value) {
			s.unauthorized(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) unauthorized(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug().Str("path", r.URL.Path).Str("remote", r.RemoteAddr).Msg("rejected dashboard request")
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}
