package deploy

import (
	"context"

	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/freifunk-luebeck/fwds/pkg/firmware"
	"github.com/freifunk-luebeck/fwds/pkg/remotectl"
)

// VerifyRelease asks the device what it is running and compares that against
// the version the image was built from. The reported release is returned
// even when it does not match, so the caller can show it.
func VerifyRelease(
	ctx context.Context,
	ex remotectl.Executor,
	image firmware.Image,
) (string, error) {
	board, err := remotectl.DetectBoard(ctx, ex)
	if err != nil {
		return "", err
	}
	if board.Release != image.Version {
		return board.Release, ErrReleaseMismatch{
			ImageName: image.Name,
			Expected:  image.Version,
			Got:       board.Release,
		}
	}
	logger.FromCtx(ctx).Infof("the device reports release '%s', as expected", board.Release)
	return board.Release, nil
}
