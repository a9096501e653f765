package servermiddleware

import (
	"net/http"

	"github.com/facebookincubator/go-belt/beltctx"
	"github.com/facebookincubator/go-belt/pkg/field"
)

// LogClient attaches the caller's identity to the request context: the
// remote address and the user agent. The user agent is how a device's
// autoupdater (wget/uclient-fetch) is told apart from a human with a
// browser or the CLI.
//
// Should be executed only after SetupContext.
func LogClient(
	handler func(http.ResponseWriter, *http.Request),
) func(http.ResponseWriter, *http.Request) {
	return func(response http.ResponseWriter, request *http.Request) {
		ctx := beltctx.WithFields(request.Context(), field.Map[string]{
			"remote_addr": request.RemoteAddr,
			"user_agent":  request.UserAgent(),
		})
		request = request.WithContext(ctx)
		handler(response, request)
	}
}
