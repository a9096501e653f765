package list

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
	channelFlag *string
}

// Usage prints the syntax of arguments for this command
func (cmd Command) Usage() string {
	return ""
}

// Description explains what this verb commands to do
func (cmd Command) Description() string {
	return "print the firmware images stored in the lab"
}

// SetupFlagSet is called to allow the command implementation
// to setup which option flags it has.
func (cmd *Command) SetupFlagSet(flag *flag.FlagSet) {
	cmd.channelFlag = flag.String("channel", "", "list only this release channel; an empty value means all channels")
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

	for _, channel := range channels {
		mgr.ImportFirmwares(ctx, channel)
	}

	images := mgr.Images()
	if len(images) == 0 {
		if !cfg.IsQuiet {
			fmt.Printf("no firmware images are stored under '%s'\n", labCfg.Server.StorageRoot)
		}
		return nil
	}

	if !cfg.IsQuiet {
		color.New(color.Bold).Printf("%-12s %-10s %-8s %s\n", "CHANNEL", "VERSION", "ORG", "IMAGE")
	}
	for _, image := range images {
		fmt.Printf("%-12s %-10s %-8s %s\n", image.ReleaseChannel, image.Version, image.Organization, image.Name)
	}
	return nil
}
