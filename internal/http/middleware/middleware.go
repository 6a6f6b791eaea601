// Package middleware holds the HTTP middleware chain: access logging
// with body capture, the malformed-JSON gate, the last-resort panic
// recoverer, and prometheus request metrics.
//
// Each middleware follows the standard func(http.Handler) http.Handler
// shape so it can be installed with chi's Use.
package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aanand-mishra/users-api/internal/utils/response"
)

// maxLoggedBody caps how much of a request body is buffered for logging
// and JSON checking. Bodies beyond the cap are not expected for this API.
const maxLoggedBody = 1 << 20 // 1 MiB

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Count of HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method and path.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// statusWriter records the status code written by downstream handlers so
// the access log and metrics can report it.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// AccessLog logs one structured record per request: method, path, status,
// duration, and — for body-carrying methods — the request body.
func AccessLog(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			body := bufferBody(r)
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			attrs := []any{
				slog.Int("status", sw.status),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Duration("duration", time.Since(start)),
			}
			if len(body) > 0 {
				attrs = append(attrs, slog.String("body", string(body)))
			}
			log.Info("request completed", attrs...)
		})
	}
}

// RejectMalformedJSON rejects body-carrying requests whose payload is not
// parsable JSON before any handler runs. The rejection is logged here,
// once, at warn; handlers never see the request.
func RejectMalformedJSON(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost || r.Method == http.MethodPut {
				body := bufferBody(r)
				if len(body) == 0 || !json.Valid(body) {
					log.Warn("malformed request payload",
						slog.Int("status", http.StatusBadRequest),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
					)
					response.WriteJSON(w, http.StatusBadRequest,
						response.GeneralError(response.MsgMalformedPayload))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Recoverer is the fallback handler: it converts any panic escaping a
// handler into a generic 500, logging the value and stack. Internal
// detail stays in the log, never in the response body.
func Recoverer(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("unhandled error",
						slog.Int("status", http.StatusInternalServerError),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.Any("panic", rec),
						slog.String("stack", string(debug.Stack())),
					)
					response.WriteJSON(w, http.StatusInternalServerError,
						response.GeneralError(response.MsgUnhandledError))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Metrics records the prometheus request counter and latency histogram.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		requestsTotal.WithLabelValues(
			r.Method, r.URL.Path, strconv.Itoa(sw.status)).Inc()
		requestDuration.WithLabelValues(
			r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

// bufferBody reads the request body into memory and replaces r.Body with
// a fresh reader over the same bytes, so downstream consumers can read
// it again.
func bufferBody(r *http.Request) []byte {
	if r.Body == nil {
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody))
	r.Body.Close()
	if err != nil {
		body = nil
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body
}
