package http

import "net/http"

// NotFoundHandler answers paths outside the queue API with the same JSON
// error envelope the handlers use.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})
}
