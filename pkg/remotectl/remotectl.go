// Package remotectl executes commands on the racked devices. The only real
// implementation speaks SSH, which is the one management interface every
// supported router exposes out of the box.
package remotectl

import (
	"context"
	"strings"

	"github.com/tidwall/gjson"
)

// Executor runs commands on one remote device.
type Executor interface {
	// Connect establishes the control connection. All other methods
	// except PingReachable require a successful Connect first.
	Connect(ctx context.Context) error

	// RunCommand executes a shell command on the device and returns the
	// lines of its stdout.
	RunCommand(ctx context.Context, command string) ([]string, error)

	// CopyFile uploads a local file to the given path on the device.
	CopyFile(ctx context.Context, localPath string, remotePath string) error

	// FetchFromServer makes the device itself download fileURL into
	// remoteDir, skipping the download if the file is already there.
	FetchFromServer(ctx context.Context, fileURL string, remoteDir string) error

	// PingReachable reports whether the device currently accepts
	// control connections.
	PingReachable(ctx context.Context) bool

	// Close releases the control connection.
	Close() error
}

// Board is the device's own description of itself.
type Board struct {
	// Model is the human-readable model string, e.g.
	// "TP-LINK TL-WR841N/ND v9". It feeds the firmware catalog lookup.
	Model string

	// BoardName is the short board identifier, e.g. "tl-wr841n-v9".
	BoardName string

	// Release is the installed firmware release version.
	Release string
}

// DetectBoard asks the device for its own description:
//
//	ubus call system board
//
// and extracts the fields the firmware pipeline needs.
func DetectBoard(ctx context.Context, ex Executor) (Board, error) {
	lines, err := ex.RunCommand(ctx, "ubus call system board")
	if err != nil {
		return Board{}, ErrDetectBoard{Err: err}
	}
	raw := strings.Join(lines, "\n")

	board := Board{
		Model:     gjson.Get(raw, "model").String(),
		BoardName: gjson.Get(raw, "board_name").String(),
		Release:   gjson.Get(raw, "release.version").String(),
	}
	if board.Model == "" {
		return Board{}, ErrDetectBoard{Err: ErrNoModel{}}
	}
	return board, nil
}
