package middleware

import (
	"net/http"
	"time"

	"localchef/logger"
	"localchef/utils"

	"github.com/sirupsen/logrus"
)

const RequestIDHeader = "X-Request-ID"

// SecurityHeaders applies a set of recommended HTTP security headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder remembers the status sent and drops any later WriteHeader,
// such as the one chi's Timeout issues after a handler already answered a
// timed out request.
type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.wrote {
		return
	}
	s.wrote = true
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if !s.wrote {
		s.WriteHeader(http.StatusOK)
	}
	return s.ResponseWriter.Write(b)
}

// RequestLogger tags each request with an id (reusing an inbound
// X-Request-ID), stores a request scoped entry in the context and logs the
// method, path, status and duration once the handler returns.
func RequestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = utils.GetUUID()
			}
			w.Header().Set(RequestIDHeader, id)

			entry := log.WithField("request_id", id)
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(logger.WithContext(r.Context(), entry)))

			entry.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start).String(),
				"remote":   r.RemoteAddr,
			}).Info("request")
		})
	}
}
