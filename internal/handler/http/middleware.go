package http

import (
	"net/http"
	"strings"

	"github.com/babulakterfsd/gizmobuy-backend/pkg/httputil"
)

// ContentTypeJSON rejects write requests whose body is not declared as JSON.
// GET and DELETE requests pass through untouched.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					StatusCode: http.StatusUnsupportedMediaType,
					Success:    false,
					Message:    "Content-Type must be application/json",
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
