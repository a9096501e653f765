package history

import (
	"context"
	"flag"
	"fmt"

	"github.com/fatih/color"
	"github.com/google/uuid"

	verbhelpers "github.com/freifunk-luebeck/fwds/cmd/fwdscli/helpers"
	"github.com/freifunk-luebeck/fwds/pkg/commands"
	"github.com/freifunk-luebeck/fwds/pkg/firmware"
	"github.com/freifunk-luebeck/fwds/pkg/journal"
)

// Command is the implementation of `commands.Command`.
type Command struct {
	imageFlag   *string
	channelFlag *string
	eventFlag   *string
	jobFlag     *string
}

// Usage prints the syntax of arguments for this command
func (cmd Command) Usage() string {
	return ""
}

// Description explains what this verb commands to do
func (cmd Command) Description() string {
	return "print the journal of download and deployment outcomes"
}

// SetupFlagSet is called to allow the command implementation
// to setup which option flags it has.
func (cmd *Command) SetupFlagSet(flag *flag.FlagSet) {
	cmd.imageFlag = flag.String("image", "", "show only records of this image name")
	cmd.channelFlag = flag.String("channel", "", "show only records of this release channel")
	cmd.eventFlag = flag.String("event", "", "show only records of this event kind: 'download' or 'deploy'")
	cmd.jobFlag = flag.String("job", "", "show only records of this deployment job ID")
}

func (cmd Command) filters() ([]journal.Filter, error) {
	var filters []journal.Filter
	if *cmd.imageFlag != "" {
		filters = append(filters, journal.FilterImageName(*cmd.imageFlag))
	}
	if *cmd.channelFlag != "" {
		channel := firmware.ReleaseChannel(*cmd.channelFlag)
		if !channel.IsValid() {
			return nil, firmware.ErrUnknownReleaseChannel{Value: *cmd.channelFlag}
		}
		filters = append(filters, journal.FilterChannel(channel))
	}
	if *cmd.eventFlag != "" {
		event := journal.Event(*cmd.eventFlag)
		switch event {
		case journal.EventDownload, journal.EventDeploy:
		default:
			return nil, fmt.Errorf("unknown event kind '%s', expected 'download' or 'deploy'", *cmd.eventFlag)
		}
		filters = append(filters, journal.FilterEvent(event))
	}
	if *cmd.jobFlag != "" {
		jobID, err := uuid.Parse(*cmd.jobFlag)
		if err != nil {
			return nil, fmt.Errorf("unable to parse the job ID: %w", err)
		}
		filters = append(filters, journal.FilterJobID(jobID))
	}
	return filters, nil
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd Command) Execute(ctx context.Context, cfg commands.Config, args []string) error {
	if len(args) != 0 {
		return commands.ErrArgs{Err: fmt.Errorf("error: too many parameters")}
	}

	filters, err := cmd.filters()
	if err != nil {
		return commands.ErrArgs{Err: err}
	}

	labCfg, err := verbhelpers.LoadLabConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("unable to load the lab config: %w", err)
	}

	j, err := verbhelpers.OpenJournal(ctx, labCfg)
	if err != nil {
		return fmt.Errorf("unable to open the journal: %w", err)
	}
	if j == nil {
		return fmt.Errorf("the lab config does not configure a journal database ('journal.dsn' is empty)")
	}
	defer j.Close()

	records, err := j.Find(ctx, filters...)
	if err != nil {
		return fmt.Errorf("unable to query the journal: %w", err)
	}

	if cfg.IsQuiet {
		return nil
	}
	if len(records) == 0 {
		fmt.Printf("the journal has no matching records\n")
		return nil
	}

	color.New(color.Bold).Printf("%-20s %-9s %-12s %-8s %-9s %s\n",
		"TIME", "EVENT", "CHANNEL", "ATTEMPTS", "RESULT", "IMAGE")
	for _, record := range records {
		fmt.Printf("%-20s %-9s %-12s %8d ",
			record.TS.Format("2006-01-02 15:04:05"), record.Event, record.Channel, record.Attempts)
		if record.Verified {
			color.New(color.FgGreen).Printf("%-9s", "ok")
		} else {
			color.New(color.FgRed).Printf("%-9s", "FAILED")
		}
		fmt.Printf(" %s", record.ImageName)
		if record.JobID != nil {
			fmt.Printf(" job:%s", record.JobID)
		}
		fmt.Printf("\n")
	}
	return nil
}
