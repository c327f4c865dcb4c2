package middlewares

import (
	"errors"
	"net/http"
)

// RequestTooLargeMessage is the body of every 413 answer
const RequestTooLargeMessage = "Request body too large"

// RequestSizeLimitMiddleware caps JSON bodies at maxBytes. A declared
// Content-Length over the cap is refused before the handler runs; bodies of
// unknown length are cut off while being read, which IsBodyTooLarge reports.
// A non-positive maxBytes disables the cap.
func RequestSizeLimitMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if maxBytes <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > maxBytes {
				WriteJSONError(w, http.StatusRequestEntityTooLarge, RequestTooLargeMessage)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// IsBodyTooLarge reports whether err came from reading past the size cap
func IsBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
