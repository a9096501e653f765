// Package deploy flashes firmware images onto devices: verify the stored
// artifact, stage it on the device, run sysupgrade, wait out the reboot and
// check the device came back running the release the image was built from.
package deploy

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/facebookincubator/go-belt/beltctx"
	"github.com/facebookincubator/go-belt/tool/experimental/metrics"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/google/uuid"

	"github.com/freifunk-luebeck/fwds/pkg/downloader"
	"github.com/freifunk-luebeck/fwds/pkg/firmware"
	"github.com/freifunk-luebeck/fwds/pkg/journal"
	"github.com/freifunk-luebeck/fwds/pkg/remotectl"
	"github.com/freifunk-luebeck/fwds/pkg/unpack"
)

// Deployment describes one flash job, finished or failed.
type Deployment struct {
	// JobID identifies the job, also in the journal.
	JobID uuid.UUID

	Image firmware.Image

	// StagedAs is the path on the device the image was staged to.
	StagedAs string

	// Release is the release version the device reported after the flash,
	// empty if the deployment never got that far.
	Release string
}

// Deployer flashes firmware images onto devices.
type Deployer struct {
	cfg config
}

// New returns an instance of Deployer.
func New(opts ...Option) *Deployer {
	return &Deployer{
		cfg: getConfig(opts...),
	}
}

// Deploy runs one full deployment:
//
//	verify -> stage -> sysupgrade -> wait out the reboot -> check release
//
// expectedHash is the manifest digest of the stored artifact; when it is
// empty, the journal has to hold a verified download of the same content
// instead. Deploy owns the device connection: it connects at the start and
// reconnects after the reboot; Close stays with the caller. The outcome is
// journaled under the returned deployment's JobID.
func (d *Deployer) Deploy(
	ctx context.Context,
	ex remotectl.Executor,
	image firmware.Image,
	expectedHash string,
) (*Deployment, error) {
	deployment := &Deployment{
		JobID: uuid.New(),
		Image: image,
	}
	ctx = beltctx.WithField(ctx, "jobID", deployment.JobID.String())
	ctx = beltctx.WithField(ctx, "image", image.Name)

	imageID, err := d.run(ctx, ex, image, expectedHash, deployment)
	d.journalDeploy(ctx, deployment, imageID, expectedHash, err)
	if err != nil {
		metrics.FromCtx(ctx).Count("deploys_failed").Add(1)
		return deployment, err
	}
	metrics.FromCtx(ctx).Count("deploys_succeeded").Add(1)
	return deployment, nil
}

func (d *Deployer) run(
	ctx context.Context,
	ex remotectl.Executor,
	image firmware.Image,
	expectedHash string,
	deployment *Deployment,
) (firmware.ImageID, error) {
	log := logger.FromCtx(ctx)

	b, err := os.ReadFile(image.LocalPath)
	if err != nil {
		return firmware.ImageID{}, ErrNotVerified{Err: err, ImageName: image.Name}
	}
	imageID := firmware.NewImageIDFromImage(b)

	if err := d.ensureVerified(ctx, image, imageID, b, expectedHash); err != nil {
		return imageID, err
	}

	localPath, err := d.prepareArtifact(image)
	if err != nil {
		return imageID, ErrStage{Err: err, ImageName: image.Name}
	}

	if err := ex.Connect(ctx); err != nil {
		return imageID, err
	}

	remotePath, err := d.stage(ctx, ex, image, localPath)
	if err != nil {
		return imageID, ErrStage{Err: err, ImageName: image.Name}
	}
	deployment.StagedAs = remotePath
	log.Infof("staged '%s' as '%s'", image.Name, remotePath)

	if err := d.flash(ctx, ex, image, remotePath); err != nil {
		return imageID, err
	}

	release, err := VerifyRelease(ctx, ex, image)
	deployment.Release = release
	if err != nil {
		return imageID, err
	}
	return imageID, nil
}

// ensureVerified gates the stored artifact before it goes anywhere near a
// device: either its digest matches the manifest, or the journal holds a
// verified download of exactly this content.
func (d *Deployer) ensureVerified(
	ctx context.Context,
	image firmware.Image,
	imageID firmware.ImageID,
	b []byte,
	expectedHash string,
) error {
	if expectedHash != "" {
		if err := downloader.VerifyBytes(image.Name, b, expectedHash); err != nil {
			return ErrNotVerified{Err: err, ImageName: image.Name}
		}
		return nil
	}

	if d.cfg.journal == nil {
		return ErrNotVerified{ImageName: image.Name}
	}
	records, err := d.cfg.journal.Find(ctx,
		journal.FilterImageName(image.Name),
		journal.FilterVerified(true),
	)
	if err != nil {
		return ErrNotVerified{Err: err, ImageName: image.Name}
	}
	for idx := range records {
		if records[idx].ImageID == imageID {
			logger.FromCtx(ctx).Debugf("the journal vouches for '%s' (record %d)",
				image.Name, records[idx].ID)
			return nil
		}
	}
	return ErrNotVerified{ImageName: image.Name}
}

// prepareArtifact returns the local file to stage, unpacking it first when
// configured. Verification always runs on the stored (packed) artifact, the
// manifest digests that one.
func (d *Deployer) prepareArtifact(image firmware.Image) (string, error) {
	if !d.cfg.unpackImage {
		return image.LocalPath, nil
	}
	return unpack.File(image.LocalPath)
}

// stage brings the image file onto the device and returns its remote path.
// With a staging URL configured the device pulls the file from the staging
// file server, otherwise it is pushed over the control connection.
func (d *Deployer) stage(
	ctx context.Context,
	ex remotectl.Executor,
	image firmware.Image,
	localPath string,
) (string, error) {
	name := filepath.Base(localPath)
	remotePath := path.Join(d.cfg.stagingDir, name)

	if d.cfg.stagingURL != "" {
		fileURL := firmware.DownloadURL(d.cfg.stagingURL, image.ReleaseChannel, name)
		if err := ex.FetchFromServer(ctx, fileURL, d.cfg.stagingDir); err != nil {
			return "", err
		}
		return remotePath, nil
	}

	if err := ex.CopyFile(ctx, localPath, remotePath); err != nil {
		return "", err
	}
	return remotePath, nil
}

func (d *Deployer) flash(
	ctx context.Context,
	ex remotectl.Executor,
	image firmware.Image,
	remotePath string,
) error {
	log := logger.FromCtx(ctx)

	log.Infof("flashing '%s'", image.Name)
	if _, err := ex.RunCommand(ctx, "sysupgrade -n "+remotectl.ShellQuote(remotePath)); err != nil {
		// sysupgrade kills the control connection on its way down, an
		// aborted session is the expected outcome here
		log.Debugf("the sysupgrade session ended with: %v", err)
	}

	if err := d.waitReachability(ctx, ex, false, d.cfg.lossTimeout); err != nil {
		return ErrFlash{Err: err, ImageName: image.Name}
	}
	log.Infof("the device went down for the flash")

	if err := d.waitReachability(ctx, ex, true, d.cfg.returnTimeout); err != nil {
		return ErrFlash{Err: err, ImageName: image.Name}
	}
	log.Infof("the device is reachable again")

	// TODO: retry the reconnect, dropbear accepts TCP a moment before
	// authentication works
	if err := ex.Connect(ctx); err != nil {
		return ErrFlash{Err: err, ImageName: image.Name}
	}
	return nil
}

// waitReachability polls the device until PingReachable reports want.
func (d *Deployer) waitReachability(
	ctx context.Context,
	ex remotectl.Executor,
	want bool,
	timeout time.Duration,
) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(d.cfg.pollInterval)
	defer ticker.Stop()

	for {
		if ex.PingReachable(ctx) == want {
			return nil
		}
		if time.Now().After(deadline) {
			if want {
				return ErrNotBack{Waited: timeout}
			}
			return ErrStillReachable{Waited: timeout}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (d *Deployer) journalDeploy(
	ctx context.Context,
	deployment *Deployment,
	imageID firmware.ImageID,
	expectedHash string,
	deployErr error,
) {
	if d.cfg.journal == nil {
		return
	}
	jobID := deployment.JobID
	record := journal.Record{
		ImageID:      imageID,
		ImageName:    deployment.Image.Name,
		Channel:      deployment.Image.ReleaseChannel,
		ExpectedHash: expectedHash,
		Attempts:     1,
		Verified:     deployErr == nil,
		JobID:        &jobID,
	}
	if err := d.cfg.journal.RecordDeploy(ctx, &record); err != nil {
		logger.FromCtx(ctx).Warnf("unable to journal deployment '%s': %v", jobID, err)
	}
}
