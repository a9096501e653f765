// Package servermiddleware is the standard middleware chain of the HTTP
// endpoints exposed by the firmware distribution services.
package servermiddleware

import (
	"net/http"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
)

// AddDefaultMiddleware wraps a handler into the recommended middleware of a
// server: it sets up the extended context, attaches the caller's identity,
// logs and measures the request and recovers panics (reporting them through
// the initialized error monitor).
//
// For description of arguments see SetupContext.
func AddDefaultMiddleware(
	handler func(http.ResponseWriter, *http.Request),
	obsBelt *belt.Belt,
	allowLogLevelOverride bool,
	defaultLogLevel logger.Level,
) func(http.ResponseWriter, *http.Request) {
	return SetupContext(RecoverPanic(LogClient(LogRequests(handler))), obsBelt, allowLogLevelOverride, defaultLogLevel)
}
