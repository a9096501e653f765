package servermiddleware

import (
	"net/http"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/beltctx"
	"github.com/facebookincubator/go-belt/tool/logger"
)

const (
	// HeaderLogLevel may be set by a client to raise the logging
	// verbosity for its own request.
	HeaderLogLevel = `X-Log-Level`

	// HeaderTraceID propagates trace IDs from the client; without it
	// every request gets a random one.
	HeaderTraceID = `X-Trace-Id`
)

// SetupContext wraps a handler so that every request runs with its own
// observability context: the tool belt cloned from obsBelt, trace IDs taken
// from the request (or generated), and the logging level set to
// defaultLogLevel, raisable per request through the X-Log-Level header when
// allowLogLevelOverride is set.
func SetupContext(
	handler func(http.ResponseWriter, *http.Request),
	obsBelt *belt.Belt,
	allowLogLevelOverride bool,
	defaultLogLevel logger.Level,
) func(http.ResponseWriter, *http.Request) {
	obsBelt = obsBelt.WithField("apiInterface", "http")

	return func(w http.ResponseWriter, r *http.Request) {
		logLevel := defaultLogLevel
		var levelErr error
		if allowLogLevelOverride {
			if requested := r.Header.Get(HeaderLogLevel); requested != "" {
				var override logger.Level
				if levelErr = override.Set(requested); levelErr == nil && override > logLevel {
					// verbosity can only be raised, the configured level is the floor
					logLevel = override
				}
			}
		}

		ctx := beltctx.WithBelt(r.Context(), obsBelt)
		ctx = logger.CtxWithLogger(ctx, logger.FromCtx(ctx).WithLevel(logLevel))
		ctx = beltctx.WithTraceID(ctx, requestTraceIDs(r.Header)...)
		if levelErr != nil {
			logger.FromCtx(ctx).Warnf("ignoring the %s header: %v", HeaderLogLevel, levelErr)
		}

		handler(w, r.WithContext(ctx))
	}
}

func requestTraceIDs(hdr http.Header) belt.TraceIDs {
	values := hdr.Values(HeaderTraceID)
	if len(values) == 0 {
		return belt.TraceIDs{belt.RandomTraceID()}
	}
	traceIDs := make(belt.TraceIDs, 0, len(values))
	for _, value := range values {
		traceIDs = append(traceIDs, belt.TraceID(value))
	}
	return traceIDs
}
