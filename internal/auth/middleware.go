package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// JWTAuth requires a valid access token in the Authorization header.
func JWTAuth(tokens *Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				writeError(w, http.StatusUnauthorized, ReasonUnauthenticated, "missing bearer token")
				return
			}
			claims, err := tokens.Verify(strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")))
			if err != nil || claims.TokenType != TokenAccess {
				writeError(w, http.StatusUnauthorized, ReasonUnauthenticated, "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// Require runs the policy for action and stores the resulting Principal in
// the request context.
func Require(p *Policy, action Action, lg *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := FromContext(r.Context())
			d := p.Authorize(r.Context(), claims, action)
			if !d.Allowed {
				lg.Debugw("access denied", "user_id", claims.Subject, "action", action, "reason", d.Reason, "path", r.URL.Path)
				switch d.Reason {
				case ReasonUnauthenticated, ReasonIdentityNotFound:
					writeError(w, http.StatusUnauthorized, ReasonUnauthenticated, "authentication required")
				default:
					writeError(w, http.StatusForbidden, "permission_denied", "you do not have permission to perform this action")
				}
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), d.Principal)))
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg, "code": code})
}
