package servermiddleware

import (
	"net/http"

	"github.com/facebookincubator/go-belt/tool/experimental/errmon"
)

// RecoverPanic recovers panics, reports them through the error monitor of
// the request context and answers 500. A device polling the firmware tree
// treats that as a failed download and retries on its next wakeup.
//
// Should be executed only after SetupContext.
func RecoverPanic(
	handler func(http.ResponseWriter, *http.Request),
) func(http.ResponseWriter, *http.Request) {
	return func(response http.ResponseWriter, request *http.Request) {
		defer func() {
			if event := errmon.ObserveRecoverCtx(request.Context(), recover()); event != nil {
				// If the handler already started the response this
				// triggers the superfluous-WriteHeader warning; losing
				// the 500 would be worse.
				response.WriteHeader(http.StatusInternalServerError)
			}
		}()
		handler(response, request)
	}
}
