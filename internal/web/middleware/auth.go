package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/datadict/datadict/internal/web/auth"
	webcontext "github.com/datadict/datadict/internal/web/context"
	"github.com/datadict/datadict/internal/web/response"
)

// RequireToken demands a valid bearer token on mutating requests. Reads
// (GET, HEAD, OPTIONS) pass through unauthenticated.
func RequireToken(tokens *auth.TokenService, logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.RenderUnauthorized(w, "authorization required")
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				response.RenderUnauthorized(w, "invalid authorization format")
				return
			}

			claims, err := tokens.ValidateToken(token)
			if err != nil {
				logger.Debug("token rejected",
					zap.String("request_id", webcontext.GetRequestID(r.Context())),
					zap.Error(err),
				)
				response.RenderUnauthorized(w, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(webcontext.SetSubject(r.Context(), claims.Subject)))
		})
	}
}
