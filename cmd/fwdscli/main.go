package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"sort"

	"github.com/facebookincubator/go-belt/beltctx"
	"github.com/facebookincubator/go-belt/tool/experimental/errmon"
	"github.com/facebookincubator/go-belt/tool/experimental/tracer"
	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/freifunk-luebeck/fwds/cmd/fwdscli/commands/deploy"
	"github.com/freifunk-luebeck/fwds/cmd/fwdscli/commands/fetch"
	"github.com/freifunk-luebeck/fwds/cmd/fwdscli/commands/history"
	"github.com/freifunk-luebeck/fwds/cmd/fwdscli/commands/importfw"
	"github.com/freifunk-luebeck/fwds/cmd/fwdscli/commands/list"
	"github.com/freifunk-luebeck/fwds/cmd/fwdscli/commands/probe"
	"github.com/freifunk-luebeck/fwds/cmd/fwdscli/commands/resolve"
	"github.com/freifunk-luebeck/fwds/pkg/commands"
	"github.com/freifunk-luebeck/fwds/pkg/observability"
)

var verbs = map[string]commands.Command{
	"deploy":  &deploy.Command{},
	"fetch":   &fetch.Command{},
	"history": &history.Command{},
	"import":  &importfw.Command{},
	"list":    &list.Command{},
	"probe":   &probe.Command{},
	"resolve": &resolve.Command{},
}

// exitCode is applied by the outermost defer in main, so that the other
// defers still run before os.Exit.
var exitCode = 0

func usageAndFail(flagSet *flag.FlagSet) {
	flagSet.Usage()
	exitCode = 2 // what the flag package exits with on bad flags
}

type cliFlags struct {
	logLevel      logger.Level
	quiet         bool
	labConfigPath string
	tracePrefix   string
	netPprofAddr  string
}

func rootFlagSet() (*flag.FlagSet, *cliFlags) {
	f := &cliFlags{logLevel: logger.LevelWarning}

	// a dedicated FlagSet: imported packages register flags on the global
	// one, and PrintDefaults there would show them all
	flagSet := flag.NewFlagSet("fwdscli", flag.ExitOnError)
	flagSet.Var(&f.logLevel, "log-level", "logging level")
	flagSet.BoolVar(&f.quiet, "quiet", false, "suppress stdout")
	flagSet.StringVar(&f.labConfigPath, "lab-config", "",
		"path to the lab configuration file (default: ~/.fwds/lab.yaml)")
	flagSet.StringVar(&f.tracePrefix, "trace-prefix", "",
		"prepend traceID with this value; it is useful to understand which automation was responsible for this run")
	flagSet.StringVar(&f.netPprofAddr, "net-pprof-addr", "",
		"if non-empty then listens with net/http/pprof")
	flagSet.Usage = func() {
		out := flag.CommandLine.Output()
		_, _ = fmt.Fprintf(out, "syntax: fwdscli <command> [options] {arguments}\n\nPossible commands:\n")
		for _, name := range verbNames() {
			verb := verbs[name]
			_, _ = fmt.Fprintf(out, "    fwdscli %-36s %s\n",
				fmt.Sprintf("%s %s", name, verb.Usage()), verb.Description())
		}
		_, _ = fmt.Fprintf(out, "\n")
		flagSet.PrintDefaults()
	}
	return flagSet, f
}

func verbNames() []string {
	names := make([]string, 0, len(verbs))
	for name := range verbs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func main() {
	ctx, endFunc := context.WithCancel(context.Background())
	defer func() {
		// os.Exit is the only way to set the exitcode, and it skips defers,
		// so the exit itself has to live in the outermost defer. Panics are
		// still re-thrown after being reported.
		if event := errmon.ObserveRecoverCtx(ctx, recover()); event != nil {
			endFunc()
			beltctx.Flush(ctx)
			panic(event.PanicValue)
		}
		logger.FromCtx(ctx).Debugf("exitcode is %d", exitCode)
		endFunc()
		beltctx.Flush(ctx)
		os.Exit(exitCode)
	}()

	rootSet, flags := rootFlagSet()
	_ = rootSet.Parse(os.Args[1:])
	if rootSet.NArg() == 0 {
		_, _ = fmt.Fprintf(flag.CommandLine.Output(), "error: no command specified\n\n")
		usageAndFail(rootSet)
		return
	}

	ctx = observability.WithBelt(ctx, flags.logLevel, flags.tracePrefix, true)

	if flags.netPprofAddr != "" {
		go func() {
			err := http.ListenAndServe(flags.netPprofAddr, nil)
			logger.FromCtx(ctx).Errorf("unable to start listening for net/http/pprof: %v", err)
		}()
	}

	verbName := rootSet.Arg(0)
	verb := verbs[verbName]
	if verb == nil {
		_, _ = fmt.Fprintf(flag.CommandLine.Output(), "error: unknown command '%s'\n\n", verbName)
		usageAndFail(rootSet)
		return
	}

	span, ctx := tracer.StartChildSpanFromCtx(ctx, verbName)
	defer span.Finish()

	verbSet := flag.NewFlagSet(verbName, flag.ExitOnError)
	verbSet.Usage = func() {
		_, _ = fmt.Fprintf(flag.CommandLine.Output(), "syntax: fwdscli %s [options] %s\n\nOptions:\n",
			verbName, verb.Usage())
		verbSet.PrintDefaults()
		_, _ = fmt.Fprintf(flag.CommandLine.Output(), "\n")
	}
	verb.SetupFlagSet(verbSet)
	_ = verbSet.Parse(rootSet.Args()[1:])

	cfg := commands.Config{
		IsQuiet:       flags.quiet,
		LabConfigPath: flags.labConfigPath,
	}
	logger.FromCtx(ctx).Debugf("cmd: '%s'; flags: %#+v; args: %v", verbName, flags, verbSet.Args())

	reportError(verbSet, verb.Execute(ctx, cfg, verbSet.Args()))
}

// reportError maps an Execute error onto the process exitcode: an ErrArgs in
// the chain shows the usage text, a SilentError suppresses output (the verb
// reported the problem itself), the first ExitCoder sets the code, anything
// else exits with 3.
func reportError(flagSet *flag.FlagSet, err error) {
	if err == nil {
		return
	}

	exitCode = 3
	silent := false
unwind:
	for unwrapped := err; unwrapped != nil; unwrapped = errors.Unwrap(unwrapped) {
		switch typed := unwrapped.(type) {
		case commands.ErrArgs:
			_, _ = fmt.Fprintf(flag.CommandLine.Output(), "error: %v\n", typed)
			usageAndFail(flagSet)
			return
		case commands.SilentError:
			silent = true
		case commands.ExitCoder:
			exitCode = typed.ExitCode()
			break unwind
		}
	}
	if !silent {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
	}
}
