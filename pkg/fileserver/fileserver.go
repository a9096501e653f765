// Package fileserver is the staging file server: devices wget firmware
// images from it, operators read the catalog from it.
package fileserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/beltctx"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/gorilla/mux"

	"github.com/freifunk-luebeck/fwds/pkg/firmware"
	"github.com/freifunk-luebeck/fwds/pkg/httputils/servermiddleware"
)

const shutdownTimeout = 10 * time.Second

// FirmwarePathPrefix is where the storage tree is mounted into the URL
// space. A device downloads an image from
// <server>/firmwares/<channel>/sysupgrade/<name>, mirroring the layout of
// the upstream mirror.
const FirmwarePathPrefix = "/firmwares"

// Catalog is the read side of the image catalog. Implemented by
// *catalog.Manager.
type Catalog interface {
	Images() []firmware.Image
}

// Server serves the storage tree and a JSON view of the catalog.
type Server struct {
	cfg         config
	catalog     Catalog
	storageRoot string
}

// New returns an instance of Server serving the images known to catalog out
// of the storage tree rooted at storageRoot.
func New(catalog Catalog, storageRoot string, opts ...Option) *Server {
	return &Server{
		cfg:         getConfig(opts...),
		catalog:     catalog,
		storageRoot: storageRoot,
	}
}

// Handler returns the complete HTTP handler of the server, middleware
// included.
func (srv *Server) Handler(obsBelt *belt.Belt, logLevel logger.Level) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/v1/health", srv.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/v1/images", srv.handleImages).Methods(http.MethodGet)
	if srv.cfg.journal != nil {
		router.HandleFunc("/v1/history", srv.handleHistory).Methods(http.MethodGet)
	}
	router.PathPrefix(FirmwarePathPrefix + "/").
		Methods(http.MethodGet, http.MethodHead).
		Handler(http.StripPrefix(
			FirmwarePathPrefix+"/",
			http.FileServer(http.Dir(srv.storageRoot)),
		))

	return http.HandlerFunc(servermiddleware.AddDefaultMiddleware(
		router.ServeHTTP,
		obsBelt,
		true,
		logLevel,
	))
}

// ListenAndServe serves on bindAddr until ctx is canceled, then shuts down
// gracefully.
func (srv *Server) ListenAndServe(ctx context.Context, bindAddr string) error {
	httpSrv := &http.Server{
		Addr:    bindAddr,
		Handler: srv.Handler(beltctx.Belt(ctx), logger.FromCtx(ctx).Level()),
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- httpSrv.ListenAndServe()
	}()
	logger.FromCtx(ctx).Infof("the file server is listening on '%s'", bindAddr)

	select {
	case err := <-errChan:
		// ListenAndServe never returns nil
		return ErrServe{Err: err}
	case <-ctx.Done():
	}

	shutdownCtx, cancelFn := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelFn()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return ErrServe{Err: err}
	}
	logger.FromCtx(ctx).Infof("the file server was shut down")
	return nil
}

// imageEntry is one image in the /v1/images response.
type imageEntry struct {
	Name           string                  `json:"name"`
	Version        string                  `json:"version"`
	Organization   string                  `json:"organization"`
	ReleaseChannel firmware.ReleaseChannel `json:"release_channel"`

	// DownloadURL is the server-relative URL a device downloads the image
	// from.
	DownloadURL string `json:"download_url"`
}

// imagesResponse is the payload of /v1/images.
type imagesResponse struct {
	Images []imageEntry `json:"images"`
}

func (srv *Server) handleImages(w http.ResponseWriter, r *http.Request) {
	images := srv.catalog.Images()
	response := imagesResponse{
		Images: make([]imageEntry, 0, len(images)),
	}
	for _, img := range images {
		response.Images = append(response.Images, imageEntry{
			Name:           img.Name,
			Version:        img.Version,
			Organization:   img.Organization,
			ReleaseChannel: img.ReleaseChannel,
			DownloadURL:    firmware.DownloadURL(FirmwarePathPrefix, img.ReleaseChannel, img.Name),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.FromCtx(r.Context()).Errorf("unable to encode the image list: %v", err)
	}
}

func (srv *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
}
