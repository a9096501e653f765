package remotectl

import (
	"context"
	"net"
	"strings"
	"testing"

	"github.com/facebookincubator/go-belt/tool/logger"
	xlogrus "github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/stretchr/testify/require"
)

func testCtx() context.Context {
	return logger.CtxWithLogger(
		context.Background(),
		xlogrus.Default().WithLevel(logger.LevelDebug),
	)
}

type fakeExecutor struct {
	commands []string
	output   []string
	err      error
}

func (ex *fakeExecutor) Connect(context.Context) error { return nil }

func (ex *fakeExecutor) RunCommand(_ context.Context, command string) ([]string, error) {
	ex.commands = append(ex.commands, command)
	return ex.output, ex.err
}

func (ex *fakeExecutor) CopyFile(context.Context, string, string) error        { return nil }
func (ex *fakeExecutor) FetchFromServer(context.Context, string, string) error { return nil }
func (ex *fakeExecutor) PingReachable(context.Context) bool                    { return true }
func (ex *fakeExecutor) Close() error                                          { return nil }

const ubusBoardOutput = `{
	"kernel": "4.4.71",
	"hostname": "ffhl-0123456789ab",
	"model": "TP-LINK TL-WR841N/ND v9",
	"board_name": "tl-wr841n-v9",
	"release": {
		"distribution": "gluon",
		"version": "1.2.3",
		"description": "Gluon 1.2.3"
	}
}`

func TestDetectBoard(t *testing.T) {
	ex := &fakeExecutor{output: strings.Split(ubusBoardOutput, "\n")}

	board, err := DetectBoard(testCtx(), ex)
	require.NoError(t, err)
	require.Equal(t, "TP-LINK TL-WR841N/ND v9", board.Model)
	require.Equal(t, "tl-wr841n-v9", board.BoardName)
	require.Equal(t, "1.2.3", board.Release)

	require.Equal(t, []string{"ubus call system board"}, ex.commands)
}

func TestDetectBoardNoModel(t *testing.T) {
	ex := &fakeExecutor{output: []string{"{}"}}
	_, err := DetectBoard(testCtx(), ex)
	var errDetect ErrDetectBoard
	require.ErrorAs(t, err, &errDetect)
}

func TestFetchCommand(t *testing.T) {
	command, err := fetchCommand(
		"http://192.168.123.1:8080/firmwares/stable/sysupgrade/gluon-ffhl-1.2.3-sysupgrade.bin",
		"/tmp",
	)
	require.NoError(t, err)
	require.Equal(t,
		"test -f '/tmp/gluon-ffhl-1.2.3-sysupgrade.bin'"+
			" || wget 'http://192.168.123.1:8080/firmwares/stable/sysupgrade/gluon-ffhl-1.2.3-sysupgrade.bin'"+
			" -P '/tmp'",
		command,
	)
}

func TestShellQuote(t *testing.T) {
	require.Equal(t, `'/tmp/o'\''brian.bin'`, ShellQuote("/tmp/o'brian.bin"))
}

func TestOutputLines(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, outputLines([]byte("a\nb\n")))
	require.Equal(t, []string{"a", "", "b"}, outputLines([]byte("a\n\nb")))
	require.Nil(t, outputLines(nil))
}

func TestPingReachable(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port

	s := NewSSH("127.0.0.1", port, "root", "root")
	require.True(t, s.PingReachable(testCtx()))

	require.NoError(t, listener.Close())
	require.False(t, s.PingReachable(testCtx()))
}

func TestRunCommandNotConnected(t *testing.T) {
	s := NewSSH("192.0.2.1", 22, "root", "root")
	_, err := s.RunCommand(testCtx(), "uptime")
	var errRun ErrRunCommand
	require.ErrorAs(t, err, &errRun)
	require.ErrorAs(t, err, &ErrNotConnected{})
}
