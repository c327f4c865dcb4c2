package middlewares

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// RecoveryMiddleware recovers from panics, logs them and answers with a generic 500
func RecoveryMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("panic recovered",
						RequestIDField(r.Context()),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.Any("error", rec),
						zap.Stack("stack"),
					)

					WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// WriteJSONError writes a {"message": ...} body with the given status
func WriteJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"message":` + quote(message) + `}`))
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
