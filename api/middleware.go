package api

import (
	"net/http"
	"time"

	"github.com/fatali-fataliyev/finance_tracker/internal/contextutil"
	"github.com/fatali-fataliyev/finance_tracker/logging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const TraceIDHeader = "X-Trace-Id"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// traceIDFromHeader keeps a client trace id only when it is a UUID, written back in canonical
// form. Anything else is replaced so that raw header text never reaches the logs.
func traceIDFromHeader(value string) string {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// WithTracing gives every request a trace id, echoes it back and logs the outcome.
func WithTracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := traceIDFromHeader(r.Header.Get(TraceIDHeader))
		w.Header().Set(TraceIDHeader, traceID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(contextutil.WithTraceID(r.Context(), traceID)))

		entry := logging.Logger.WithFields(logrus.Fields{
			"trace_id": traceID,
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		})
		if rec.status >= http.StatusInternalServerError {
			entry.Error("request failed")
			return
		}
		entry.Info("request handled")
	})
}
