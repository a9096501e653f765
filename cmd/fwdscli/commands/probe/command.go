package probe

import (
	"context"
	"flag"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/fatih/color"

	verbhelpers "github.com/freifunk-luebeck/fwds/cmd/fwdscli/helpers"
	"github.com/freifunk-luebeck/fwds/pkg/commands"
	"github.com/freifunk-luebeck/fwds/pkg/remotectl"
)

// Command is the implementation of `commands.Command`.
type Command struct {
	verbose *bool
}

// Usage prints the syntax of arguments for this command
func (cmd Command) Usage() string {
	return "<router name>"
}

// Description explains what this verb commands to do
func (cmd Command) Description() string {
	return "connect to a racked router and report what it is running"
}

// SetupFlagSet is called to allow the command implementation
// to setup which option flags it has.
func (cmd *Command) SetupFlagSet(flag *flag.FlagSet) {
	cmd.verbose = flag.Bool("verbose", false, "dump the whole board structure instead of the summary")
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd Command) Execute(ctx context.Context, cfg commands.Config, args []string) error {
	if len(args) < 1 {
		return commands.ErrArgs{Err: fmt.Errorf("error: no router name is specified")}
	}
	if len(args) > 1 {
		return commands.ErrArgs{Err: fmt.Errorf("error: too many parameters")}
	}
	routerName := args[0]

	labCfg, err := verbhelpers.LoadLabConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("unable to load the lab config: %w", err)
	}
	router, err := labCfg.Router(routerName)
	if err != nil {
		return fmt.Errorf("unable to select the router: %w", err)
	}

	ex := verbhelpers.NewExecutor(router)
	if err := ex.Connect(ctx); err != nil {
		return fmt.Errorf("unable to connect to '%s': %w", routerName, err)
	}
	defer func() {
		if err := ex.Close(); err != nil {
			logger.FromCtx(ctx).Errorf("unable to close the connection to '%s': %v", routerName, err)
		}
	}()

	board, err := remotectl.DetectBoard(ctx, ex)
	if err != nil {
		return fmt.Errorf("unable to probe '%s': %w", routerName, err)
	}

	if cfg.IsQuiet {
		return nil
	}

	if *cmd.verbose {
		fmt.Print((&spew.ConfigState{Indent: "  "}).Sdump(board))
	} else {
		fmt.Printf("%-12s: %s\n", "model", board.Model)
		fmt.Printf("%-12s: %s\n", "board", board.BoardName)
		fmt.Printf("%-12s: %s\n", "release", board.Release)
	}

	if router.Model != "" && board.Model != router.Model {
		color.New(color.FgYellow).Printf("the inventory lists '%s' as '%s', but the device reports '%s'\n",
			routerName, router.Model, board.Model)
	} else {
		color.New(color.FgGreen).Printf("'%s' is reachable\n", routerName)
	}
	return nil
}
