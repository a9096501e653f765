package fetch

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
	channel firmware.ReleaseChannel
	all     *bool
}

// Usage prints the syntax of arguments for this command
func (cmd Command) Usage() string {
	return "<router model>"
}

// Description explains what this verb commands to do
func (cmd Command) Description() string {
	return "download a firmware image from the mirror and verify it"
}

// SetupFlagSet is called to allow the command implementation
// to setup which option flags it has.
func (cmd *Command) SetupFlagSet(flag *flag.FlagSet) {
	cmd.channel = firmware.ReleaseChannelStable
	flag.Var(&cmd.channel, "channel", "the release channel to download from")
	cmd.all = flag.Bool("all", false, "download every image of the channel's manifest instead of one router's image")
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd Command) Execute(ctx context.Context, cfg commands.Config, args []string) error {
	if *cmd.all {
		if len(args) != 0 {
			return commands.ErrArgs{Err: fmt.Errorf("error: -all downloads the whole channel, a router model cannot be combined with it")}
		}
	} else {
		if len(args) < 1 {
			return commands.ErrArgs{Err: fmt.Errorf("error: no router model is specified")}
		}
		if len(args) > 1 {
			return commands.ErrArgs{Err: fmt.Errorf("error: too many parameters")}
		}
	}

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

	if *cmd.all {
		images, err := mgr.DownloadAllFirmwares(ctx, cmd.channel)
		if !cfg.IsQuiet {
			for _, image := range images {
				fmt.Printf("%s\n", image.LocalPath)
			}
		}
		if err != nil {
			return fmt.Errorf("unable to download the whole %s channel: %w", cmd.channel, err)
		}
		if !cfg.IsQuiet {
			color.New(color.FgGreen).Printf("downloaded and verified %d images\n", len(images))
		}
		return nil
	}

	routerModel := args[0]
	image, result, err := mgr.DownloadFirmware(ctx, routerModel, cmd.channel)
	if err != nil {
		return fmt.Errorf("unable to download a firmware for '%s': %w", routerModel, err)
	}
	if !result.Verified {
		color.New(color.FgRed).Printf("the image '%s' was stored, but %d download attempts never matched the manifest digest\n",
			image.Name, result.Attempts)
		return commands.SilentError{Err: fmt.Errorf("the downloaded image did not verify")}
	}
	if !cfg.IsQuiet {
		fmt.Printf("%s\n", image.LocalPath)
		color.New(color.FgGreen).Printf("verified after %d attempt(s); image ID hex:%s\n", result.Attempts, result.ImageID.String()[:32])
	}
	return nil
}
