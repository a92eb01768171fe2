package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"agentlaunch/internal/logging"
	"agentlaunch/internal/services"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestID tags every request with a correlation id, echoes it in
// the response header, and logs API requests on completion.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		ctx := services.WithRequestID(r.Context(), requestID)
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(recorder, r.WithContext(ctx))

		if strings.HasPrefix(r.URL.Path, "/api/") {
			s.logger.Info("request handled",
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.Int("status", recorder.status),
				logging.Duration("duration", time.Since(start)),
				logging.String("request_id", requestID))
		}
	})
}
