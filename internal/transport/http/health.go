package http

import (
	stdhttp "net/http"
)

// HealthHandler reports coordinator liveness. It answers before the
// database or dispatcher are touched, so probes stay cheap.
func HealthHandler(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(stdhttp.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
