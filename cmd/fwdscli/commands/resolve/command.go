package resolve

import (
	"context"
	"flag"
	"fmt"

	"github.com/fatih/color"

	verbhelpers "github.com/freifunk-luebeck/fwds/cmd/fwdscli/helpers"
	"github.com/freifunk-luebeck/fwds/pkg/commands"
	"github.com/freifunk-luebeck/fwds/pkg/firmware"
)

// Command is the implementation of `commands.Command`.
type Command struct {
	channel     firmware.ReleaseChannel
	downloadAll *bool
}

// Usage prints the syntax of arguments for this command
func (cmd Command) Usage() string {
	return "<router model>"
}

// Description explains what this verb commands to do
func (cmd Command) Description() string {
	return "resolve a router model to a stored firmware image, downloading it if needed"
}

// SetupFlagSet is called to allow the command implementation
// to setup which option flags it has.
func (cmd *Command) SetupFlagSet(flag *flag.FlagSet) {
	cmd.channel = firmware.ReleaseChannelStable
	flag.Var(&cmd.channel, "channel", "the release channel to resolve against")
	cmd.downloadAll = flag.Bool("download-all", false, "on a catalog miss, download the whole channel instead of the one matching image")
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd Command) Execute(ctx context.Context, cfg commands.Config, args []string) error {
	if len(args) < 1 {
		return commands.ErrArgs{Err: fmt.Errorf("error: no router model is specified")}
	}
	if len(args) > 1 {
		return commands.ErrArgs{Err: fmt.Errorf("error: too many parameters")}
	}
	routerModel := args[0]

	labCfg, err := verbhelpers.LoadLabConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("unable to load the lab config: %w", err)
	}

	j, err := verbhelpers.OpenJournal(ctx, labCfg)
	if err != nil {
		return fmt.Errorf("unable to open the journal: %w", err)
	}
	if j != nil {
		defer j.Close()
	}

	mgr, err := verbhelpers.NewCatalog(ctx, labCfg, j)
	if err != nil {
		return fmt.Errorf("unable to initialize the catalog: %w", err)
	}

	image, err := mgr.GetFirmware(ctx, routerModel, cmd.channel, *cmd.downloadAll)
	if err != nil {
		return fmt.Errorf("unable to resolve a firmware for '%s': %w", routerModel, err)
	}

	fmt.Printf("%s\n", image.LocalPath)
	if !cfg.IsQuiet {
		color.New(color.FgGreen).Printf("resolved '%s' to '%s' (version %s, %s channel)\n",
			routerModel, image.Name, image.Version, image.ReleaseChannel)
	}
	return nil
}
