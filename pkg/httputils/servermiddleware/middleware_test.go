package servermiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/beltctx"
	"github.com/facebookincubator/go-belt/tool/logger"
	xlogrus "github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/stretchr/testify/require"
)

func testBelt() *belt.Belt {
	ctx := logger.CtxWithLogger(
		context.Background(),
		xlogrus.Default().WithLevel(logger.LevelDebug),
	)
	return beltctx.Belt(ctx)
}

func TestAddDefaultMiddleware(t *testing.T) {
	handler := AddDefaultMiddleware(func(w http.ResponseWriter, r *http.Request) {
		// the extended context provides a working logger
		logger.FromCtx(r.Context()).Debugf("handling '%s'", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}, testBelt(), true, logger.LevelInfo)

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/firmwares/stable/sysupgrade/img.bin", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestRecoverPanic(t *testing.T) {
	handler := AddDefaultMiddleware(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}, testBelt(), false, logger.LevelInfo)

	w := httptest.NewRecorder()
	require.NotPanics(t, func() {
		handler(w, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	})
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestLogClient(t *testing.T) {
	called := false
	handler := SetupContext(LogClient(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), testBelt(), false, logger.LevelInfo)

	req := httptest.NewRequest(http.MethodGet, "/firmwares/stable/sysupgrade/img.bin", nil)
	req.Header.Set("User-Agent", "uclient-fetch")
	w := httptest.NewRecorder()
	handler(w, req)
	require.True(t, called)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestLoggingResponseWriter(t *testing.T) {
	w := httptest.NewRecorder()
	lw := &responseRecorder{ResponseWriter: w}
	lw.WriteHeader(http.StatusTeapot)
	n, err := lw.Write([]byte("short and stout"))
	require.NoError(t, err)
	require.Equal(t, 15, n)
	require.Equal(t, 15, lw.bytesWritten)
	require.NotNil(t, lw.status)
	require.Equal(t, http.StatusTeapot, *lw.status)
	require.Equal(t, http.StatusTeapot, w.Code)
}
