package middleware

import (
	"net/http"

	"github.com/Rrens/shaman-chat/internal/api/response"
	"github.com/justinas/nosurf"
	"github.com/rs/zerolog/log"
)

// CSRFHeader is the request header carrying the token on mutating requests
const CSRFHeader = nosurf.HeaderName

// CSRF protects unsafe methods with a double-submit token. The base cookie is
// HttpOnly with SameSite=Lax and is marked Secure in production.
func CSRF(production bool, authKey string) func(http.Handler) http.Handler {
	if authKey == "" {
		if production {
			log.Error().Msg("security.csrf_auth_key is not set in production")
		} else {
			log.Warn().Msg("security.csrf_auth_key is not set, using per-cookie tokens only")
		}
	}

	return func(next http.Handler) http.Handler {
		h := nosurf.New(next)
		h.SetBaseCookie(http.Cookie{
			Path:     "/",
			HttpOnly: true,
			Secure:   production,
			SameSite: http.SameSiteLaxMode,
		})
		h.SetFailureHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Warn().
				Str("path", r.URL.Path).
				Str("method", r.Method).
				AnErr("reason", nosurf.Reason(r)).
				Msg("CSRF token check failed")
			response.Forbidden(w, "invalid CSRF token")
		}))
		return h
	}
}

// CSRFToken returns the token to hand to the client for this request
func CSRFToken(r *http.Request) string {
	return nosurf.Token(r)
}
