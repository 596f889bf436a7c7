package handlers

import (
	"net/http"
	"runtime"

	"github.com/sirupsen/logrus"
)

// RecoverWrapper turns a panic in next into a logged 500 response.
func RecoverWrapper(logger *logrus.Entry, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				stack := make([]byte, 8*1024)
				stack = stack[:runtime.Stack(stack, false)]
				logger.WithFields(logrus.Fields{
					"event":  "panic_recovered",
					"panic":  rec,
					"path":   r.URL.Path,
					"method": r.Method,
					"stack":  string(stack),
				}).Error("panic recovered")
				WriteError(w, &APIError{Kind: KindInternal, Message: "internal server error"})
			}
		}()

		next.ServeHTTP(w, r)
	})
}
