// Package observability wires the go-belt tool family (logging, metrics,
// tracing, error monitoring) into one context, the same way for every
// process of the firmware distribution tooling.
package observability

import (
	"context"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/beltctx"
	"github.com/facebookincubator/go-belt/tool/experimental/errmon"
	errmonlogger "github.com/facebookincubator/go-belt/tool/experimental/errmon/implementation/logger"
	"github.com/facebookincubator/go-belt/tool/experimental/metrics"
	"github.com/facebookincubator/go-belt/tool/experimental/tracer"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"

	"github.com/freifunk-luebeck/fwds/pkg/observability/hooks/logentryfingerprint"
	"github.com/freifunk-luebeck/fwds/pkg/observability/tool/logger/logrus/formatter"
)

// WithBelt returns a context derivative carrying the tool belt: a logrus
// logger with the compact formatter and log-entry fingerprinting, an error
// monitor reporting through that logger, and the default metrics and tracer
// implementations.
func WithBelt(
	ctx context.Context,
	logLevel logger.Level,
	traceIDPrefix string,
	setAsDefault bool,
) context.Context {
	ctx = logger.CtxWithLogger(ctx, newLogger().WithLevel(logLevel))
	ctx = metrics.CtxWithMetrics(ctx, metrics.Default())
	ctx = errmon.CtxWithErrorMonitor(ctx, errmonlogger.New(logger.FromCtx(ctx)))
	ctx = tracer.CtxWithTracer(ctx, tracer.Default())
	ctx = beltctx.WithFields(ctx, processFields())

	traceID := belt.RandomTraceID()
	if traceIDPrefix != "" {
		traceID = belt.TraceID(traceIDPrefix+":") + traceID
	}
	ctx = beltctx.WithTraceID(ctx, traceID)

	if setAsDefault {
		setToolsAsDefault(beltctx.Belt(ctx))
	}
	return ctx
}

func newLogger() logger.Logger {
	l := logrus.DefaultLogrusLogger()
	l.Formatter = &formatter.CompactText{}

	result := logrus.New(l)
	result = result.WithPreHooks(logentryfingerprint.PreHook{})
	result = result.WithLevel(logger.LevelTrace)
	return result
}

// setToolsAsDefault routes the package-level Default() of every tool to the
// belt's instances, so that code holding no context still logs through the
// same pipeline.
func setToolsAsDefault(b *belt.Belt) {
	belt.Default = func() *belt.Belt { return b }
	logger.Default = func() logger.Logger { return logger.FromBelt(b) }
	metrics.Default = func() metrics.Metrics { return metrics.FromBelt(b) }
	tracer.Default = func() tracer.Tracer { return tracer.FromBelt(b) }
	errmon.Default = func(*belt.Belt) errmon.ErrorMonitor { return errmon.FromBelt(b) }
}
