package servermiddleware

import (
	"net/http"
	"time"

	"github.com/facebookincubator/go-belt/beltctx"
	"github.com/facebookincubator/go-belt/pkg/field"
	"github.com/facebookincubator/go-belt/tool/experimental/metrics"
	"github.com/facebookincubator/go-belt/tool/experimental/tracer"
	"github.com/facebookincubator/go-belt/tool/logger"
)

// responseRecorder counts what the handler sent, for the request-result log
// line. A nil status means the handler never called WriteHeader itself.
type responseRecorder struct {
	http.ResponseWriter

	bytesWritten int
	status       *int
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.bytesWritten += len(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = &status
	r.ResponseWriter.WriteHeader(status)
}

// LogRequests logs and traces every request and keeps the request metrics
// (total and concurrent).
//
// Should be executed only after SetupContext.
func LogRequests(
	handler func(http.ResponseWriter, *http.Request),
) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := beltctx.WithFields(r.Context(), field.Map[string]{
			"http_method": r.Method,
			"http_path":   r.URL.Path,
		})

		mtr := metrics.FromCtx(ctx)
		mtr.Count("requests").Add(1)
		inflight := mtr.Gauge("concurrentRequests")
		inflight.Add(1)
		defer inflight.Add(-1)

		logger.FromCtx(ctx).WithFields(
			field.Prefix("http_header_", field.Map[[]string](r.Header)),
		).Debug("HTTP headers")

		recorder := &responseRecorder{ResponseWriter: w}
		startedAt := time.Now()
		defer func() {
			logger.FromCtx(beltctx.WithFields(ctx, field.Map[any]{
				"totalNs":              time.Since(startedAt).Nanoseconds(),
				"response_header":      recorder.Header(),
				"response_status_code": recorder.status,
				"response_length":      recorder.bytesWritten,
			})).Debug("request result")
		}()

		span, ctx := tracer.StartChildSpanFromCtx(ctx, "requestTotal")
		defer span.Finish()

		handler(recorder, r.WithContext(ctx))
	}
}
