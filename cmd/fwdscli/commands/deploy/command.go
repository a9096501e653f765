package deploy

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/fatih/color"

	verbhelpers "github.com/freifunk-luebeck/fwds/cmd/fwdscli/helpers"
	"github.com/freifunk-luebeck/fwds/pkg/commands"
	fwdeploy "github.com/freifunk-luebeck/fwds/pkg/deploy"
	"github.com/freifunk-luebeck/fwds/pkg/firmware"
	"github.com/freifunk-luebeck/fwds/pkg/remotectl"
	"github.com/freifunk-luebeck/fwds/pkg/routermodel"
)

// Command is the implementation of `commands.Command`.
type Command struct {
	channelFlag *string
	unpack      *bool
	pull        *bool
	force       *bool
}

// Usage prints the syntax of arguments for this command
func (cmd Command) Usage() string {
	return "<router name>"
}

// Description explains what this verb commands to do
func (cmd Command) Description() string {
	return "flash the matching firmware image onto a racked router"
}

// SetupFlagSet is called to allow the command implementation
// to setup which option flags it has.
func (cmd *Command) SetupFlagSet(flag *flag.FlagSet) {
	cmd.channelFlag = flag.String("channel", "", "the release channel to deploy from; an empty value means the router's configured channel")
	cmd.unpack = flag.Bool("unpack", false, "unpack a compressed image before staging it")
	cmd.pull = flag.Bool("pull", false, "let the device download the image from the staging file server instead of pushing it over SSH")
	cmd.force = flag.Bool("force", false, "flash even when the device reports a different model than the image is built for")
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

	channel := router.Channel
	if *cmd.channelFlag != "" {
		channel = firmware.ReleaseChannel(*cmd.channelFlag)
		if !channel.IsValid() {
			return commands.ErrArgs{Err: firmware.ErrUnknownReleaseChannel{Value: *cmd.channelFlag}}
		}
	}
	if *cmd.pull && labCfg.Server.StagingURL == "" {
		return fmt.Errorf("-pull requires 'server.staging_url' in the lab config")
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

	image, err := mgr.GetFirmware(ctx, router.Model, channel, false)
	if err != nil {
		return fmt.Errorf("unable to resolve a firmware for '%s': %w", router.Model, err)
	}

	// The digest the mirror promises for this image. Without it the
	// deployer falls back to the journal's verified-download records.
	expectedHash := ""
	entry, entryErr := mgr.ManifestEntry(ctx, router.Model, channel)
	switch {
	case entryErr != nil:
		logger.FromCtx(ctx).Warnf("no manifest entry for '%s', falling back to the journal: %v", router.Model, entryErr)
	case entry.Image.Name != image.Name:
		logger.FromCtx(ctx).Warnf("the manifest lists '%s' but the stored image is '%s', falling back to the journal",
			entry.Image.Name, image.Name)
	default:
		expectedHash = entry.ExpectedHash
	}

	ex := verbhelpers.NewExecutor(router)
	defer func() {
		if err := ex.Close(); err != nil {
			logger.FromCtx(ctx).Errorf("unable to close the connection to '%s': %v", routerName, err)
		}
	}()
	if err := ex.Connect(ctx); err != nil {
		return fmt.Errorf("unable to connect to '%s': %w", routerName, err)
	}

	if err := guardModel(ctx, ex, image); err != nil {
		if !*cmd.force {
			return fmt.Errorf("refusing to flash '%s' (use -force to override): %w", routerName, err)
		}
		color.New(color.FgYellow).Printf("flashing despite a model mismatch: %v\n", err)
	}

	opts := []fwdeploy.Option{
		fwdeploy.OptionUnpack(*cmd.unpack),
	}
	if j != nil {
		opts = append(opts, fwdeploy.OptionJournal{Journal: j})
	}
	if *cmd.pull {
		opts = append(opts, fwdeploy.OptionStagingURL(labCfg.Server.StagingURL))
	}

	deployment, err := fwdeploy.New(opts...).Deploy(ctx, ex, image, expectedHash)
	if !cfg.IsQuiet && deployment != nil {
		fmt.Printf("%-8s: %s\n", "job", deployment.JobID)
		if deployment.StagedAs != "" {
			fmt.Printf("%-8s: %s\n", "staged", deployment.StagedAs)
		}
		if deployment.Release != "" {
			fmt.Printf("%-8s: %s\n", "release", deployment.Release)
		}
	}
	if err != nil {
		return fmt.Errorf("unable to deploy '%s' to '%s': %w", image.Name, routerName, err)
	}
	if !cfg.IsQuiet {
		color.New(color.FgGreen).Printf("'%s' now runs '%s'\n", routerName, image.Name)
	}
	return nil
}

// guardModel checks that the image is built for the hardware the device
// itself reports. The inventory may lie, the device does not.
func guardModel(ctx context.Context, ex remotectl.Executor, image firmware.Image) error {
	board, err := remotectl.DetectBoard(ctx, ex)
	if err != nil {
		return err
	}
	name, version, err := routermodel.Parse(board.Model)
	if err != nil {
		return fmt.Errorf("unable to parse the device's model string '%s': %w", board.Model, err)
	}
	key := routermodel.MatchKey(name, version)
	if !strings.Contains(image.Name, key) {
		return fmt.Errorf("the device reports model '%s', the image '%s' is not built for it", board.Model, image.Name)
	}
	return nil
}
