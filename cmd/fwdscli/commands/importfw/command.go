// Package importfw implements the "import" verb. The package cannot be
// called "import", since that is a keyword in Go.
package importfw

import (
	"context"
	"flag"
	"fmt"

	verbhelpers "github.com/freifunk-luebeck/fwds/cmd/fwdscli/helpers"
	"github.com/freifunk-luebeck/fwds/pkg/commands"
	"github.com/freifunk-luebeck/fwds/pkg/firmware"
)

// Command is the implementation of `commands.Command`.
type Command struct {
	channelFlag *string
}

// Usage prints the syntax of arguments for this command
func (cmd Command) Usage() string {
	return ""
}

// Description explains what this verb commands to do
func (cmd Command) Description() string {
	return "scan the storage tree and report the images already stored"
}

// SetupFlagSet is called to allow the command implementation
// to setup which option flags it has.
func (cmd *Command) SetupFlagSet(flag *flag.FlagSet) {
	cmd.channelFlag = flag.String("channel", "", "scan only this release channel; an empty value means all channels")
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd Command) Execute(ctx context.Context, cfg commands.Config, args []string) error {
	if len(args) != 0 {
		return commands.ErrArgs{Err: fmt.Errorf("error: too many parameters")}
	}

	channels := firmware.ReleaseChannels()
	if *cmd.channelFlag != "" {
		channel := firmware.ReleaseChannel(*cmd.channelFlag)
		if !channel.IsValid() {
			return commands.ErrArgs{Err: firmware.ErrUnknownReleaseChannel{Value: *cmd.channelFlag}}
		}
		channels = []firmware.ReleaseChannel{channel}
	}

	labCfg, err := verbhelpers.LoadLabConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("unable to load the lab config: %w", err)
	}

	mgr, err := verbhelpers.NewCatalog(ctx, labCfg, nil)
	if err != nil {
		return fmt.Errorf("unable to initialize the catalog: %w", err)
	}

	total := 0
	for _, channel := range channels {
		count := mgr.ImportFirmwares(ctx, channel)
		total += count
		if !cfg.IsQuiet {
			fmt.Printf("%-12s %d images\n", channel, count)
		}
	}
	if !cfg.IsQuiet {
		fmt.Printf("total: %d images under '%s'\n", total, labCfg.Server.StorageRoot)
	}
	return nil
}
