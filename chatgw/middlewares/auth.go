package middlewares

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"chatgw/chatgw/config"
	httputils "chatgw/chatgw/utils/http"
	"chatgw/chatgw/utils/logging"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	MsgMissingToken = "Missing bearer token. Use header: Authorization: Bearer <key>"
	MsgInvalidKey   = "Invalid API key"
)

// AuthMiddleware requires "Authorization: Bearer <APP_API_KEY>". The scheme
// keyword is case-insensitive; the key itself is compared verbatim.
func AuthMiddleware(cfg config.Config) func(http.Handler) http.Handler {
	apiKey := []byte(cfg.APIKey)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				reject(w, r, MsgMissingToken)
				return
			}
			if subtle.ConstantTimeCompare([]byte(token), apiKey) != 1 {
				reject(w, r, MsgInvalidKey)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the credential from an Authorization header value.
// It fails for an empty header, another scheme, or an empty credential.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

func reject(w http.ResponseWriter, r *http.Request, msg string) {
	logging.RequestLogger.Warn("unauthorized request",
		zap.String("path", r.URL.Path),
		zap.String("remote", r.RemoteAddr),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("reason", msg))
	w.Header().Set("WWW-Authenticate", "Bearer")
	httputils.WriteError(w, http.StatusUnauthorized, msg)
}
