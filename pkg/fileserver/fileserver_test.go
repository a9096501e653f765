package fileserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/facebookincubator/go-belt/beltctx"
	"github.com/facebookincubator/go-belt/tool/logger"
	xlogrus "github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/freifunk-luebeck/fwds/pkg/firmware"
	"github.com/freifunk-luebeck/fwds/pkg/journal"
)

func testCtx() context.Context {
	return logger.CtxWithLogger(
		context.Background(),
		xlogrus.Default().WithLevel(logger.LevelDebug),
	)
}

type fakeCatalog struct {
	images []firmware.Image
}

func (c *fakeCatalog) Images() []firmware.Image {
	return c.images
}

type fakeJournal struct {
	records []journal.Record
	findErr error
}

func (j *fakeJournal) Find(ctx context.Context, filters ...journal.Filter) ([]journal.Record, error) {
	if j.findErr != nil {
		return nil, j.findErr
	}
	var records []journal.Record
	for idx := range j.records {
		if journal.Filters(filters).Match(&j.records[idx]) {
			records = append(records, j.records[idx])
		}
	}
	return records, nil
}

func newTestServer(t *testing.T, images []firmware.Image, storageRoot string, opts ...Option) *httptest.Server {
	srv := New(&fakeCatalog{images: images}, storageRoot, opts...)
	httpSrv := httptest.NewServer(srv.Handler(beltctx.Belt(testCtx()), logger.LevelDebug))
	t.Cleanup(httpSrv.Close)
	return httpSrv
}

func TestServeFirmwareTree(t *testing.T) {
	payload := []byte("this is not a real firmware image")
	imageName := "gluon-ffhl-1.2.3-tp-link-tl-wr841n-nd-v9-sysupgrade.bin"
	storageRoot := t.TempDir()

	imagePath := firmware.StoragePath(storageRoot, firmware.ReleaseChannelStable, imageName)
	require.NoError(t, os.MkdirAll(filepath.Dir(imagePath), 0o755))
	require.NoError(t, os.WriteFile(imagePath, payload, 0o644))

	httpSrv := newTestServer(t, nil, storageRoot)

	t.Run("image_download", func(t *testing.T) {
		resp, err := http.Get(httpSrv.URL + "/firmwares/stable/sysupgrade/" + imageName)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Equal(t, payload, body)
	})

	t.Run("missing_image", func(t *testing.T) {
		resp, err := http.Get(httpSrv.URL + "/firmwares/stable/sysupgrade/no-such-image.bin")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestImagesEndpoint(t *testing.T) {
	imageName := "gluon-ffhl-1.2.3-tp-link-tl-wr841n-nd-v9-sysupgrade.bin"
	storageRoot := t.TempDir()
	img, err := firmware.NewImage(imageName, firmware.ReleaseChannelStable, "http://firmware.example.org", storageRoot)
	require.NoError(t, err)

	httpSrv := newTestServer(t, []firmware.Image{img}, storageRoot)

	resp, err := http.Get(httpSrv.URL + "/v1/images")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var response imagesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
	require.Len(t, response.Images, 1)

	entry := response.Images[0]
	require.Equal(t, imageName, entry.Name)
	require.Equal(t, "1.2.3", entry.Version)
	require.Equal(t, "ffhl", entry.Organization)
	require.Equal(t, firmware.ReleaseChannelStable, entry.ReleaseChannel)
	require.Equal(t, "/firmwares/stable/sysupgrade/"+imageName, entry.DownloadURL)
}

func TestHealth(t *testing.T) {
	httpSrv := newTestServer(t, nil, t.TempDir())

	t.Run("get", func(t *testing.T) {
		resp, err := http.Get(httpSrv.URL + "/v1/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.JSONEq(t, `{"status":"ok"}`, string(body))
	})

	t.Run("post_is_rejected", func(t *testing.T) {
		resp, err := http.Post(httpSrv.URL+"/v1/health", "application/json", nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestHistoryEndpoint(t *testing.T) {
	jobID := uuid.New()
	fj := &fakeJournal{
		records: []journal.Record{
			{
				ID:        1,
				ImageName: "gluon-ffhl-1.2.3-tp-link-tl-wr841n-nd-v9-sysupgrade.bin",
				Channel:   firmware.ReleaseChannelStable,
				Attempts:  1,
				Verified:  true,
				Event:     journal.EventDownload,
			},
			{
				ID:        2,
				ImageName: "gluon-ffhl-1.2.3-tp-link-tl-wr841n-nd-v9-sysupgrade.bin",
				Channel:   firmware.ReleaseChannelStable,
				Attempts:  1,
				Verified:  true,
				Event:     journal.EventDeploy,
				JobID:     &jobID,
			},
		},
	}
	httpSrv := newTestServer(t, nil, t.TempDir(), OptionJournal{Journal: fj})

	getHistory := func(t *testing.T, query string) historyResponse {
		resp, err := http.Get(httpSrv.URL + "/v1/history" + query)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var response historyResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
		return response
	}

	t.Run("all_records", func(t *testing.T) {
		response := getHistory(t, "")
		require.Len(t, response.Records, 2)
	})

	t.Run("filter_by_event", func(t *testing.T) {
		response := getHistory(t, "?event=deploy")
		require.Len(t, response.Records, 1)
		require.NotNil(t, response.Records[0].JobID)
		require.Equal(t, jobID, *response.Records[0].JobID)
	})

	t.Run("filter_by_job", func(t *testing.T) {
		response := getHistory(t, "?job="+jobID.String())
		require.Len(t, response.Records, 1)
		require.Equal(t, int64(2), response.Records[0].ID)
	})

	t.Run("invalid_channel", func(t *testing.T) {
		resp, err := http.Get(httpSrv.URL + "/v1/history?channel=nightly")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("absent_without_journal", func(t *testing.T) {
		plainSrv := newTestServer(t, nil, t.TempDir())
		resp, err := http.Get(plainSrv.URL + "/v1/history")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestListenAndServe(t *testing.T) {
	t.Run("graceful_shutdown", func(t *testing.T) {
		ctx, cancelFn := context.WithCancel(testCtx())
		srv := New(&fakeCatalog{}, t.TempDir())

		errChan := make(chan error, 1)
		go func() {
			errChan <- srv.ListenAndServe(ctx, "127.0.0.1:0")
		}()

		time.Sleep(100 * time.Millisecond)
		cancelFn()

		select {
		case err := <-errChan:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("the server did not shut down")
		}
	})

	t.Run("listen_failure", func(t *testing.T) {
		srv := New(&fakeCatalog{}, t.TempDir())
		err := srv.ListenAndServe(testCtx(), "256.256.256.256:1")
		require.ErrorAs(t, err, &ErrServe{})
	})
}
