// Package cli contains all business logic needed by the fibermos CLI.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"

	"go.viam.com/fibermos/logging"
)

const (
	// Flags.
	instanceFlag = "instance"
	programFlag  = "program"
	jsonFlag     = "json"
	ppJSONFlag   = "pp-json"
	dpJSONFlag   = "dp-json"
	outFlag      = "out"
	debugFlag    = "debug"
	logLevelFlag = "log-level"
	logFileFlag  = "log-file"
)

// rotation of the log file.
const (
	logFileMaxSizeMB  = 10
	logFileMaxBackups = 3
)

var instanceFlagDef = &cli.PathFlag{
	Name:     instanceFlag,
	Aliases:  []string{"i"},
	Required: true,
	Usage:    "instance describing the positioner array in `FILE`",
}

var programFlagDef = &cli.PathFlag{
	Name:     programFlag,
	Aliases:  []string{"p"},
	Required: true,
	Usage:    "motion program stored as JSON in `FILE`",
}

func newApp() *cli.App {
	var logFile *logging.FileAppender
	return &cli.App{
		Name:            "fibermos",
		Usage:           "generate and validate motion programs for fiber positioner arrays",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    debugFlag,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  logLevelFlag,
				Value: "info",
				Usage: "minimum level of the log entries written to stderr",
			},
			&cli.PathFlag{
				Name:  logFileFlag,
				Usage: "also write the log entries to `FILE`, rotated by size",
			},
		},
		Before: func(c *cli.Context) error {
			var err error
			logFile, err = setupLogger(c)
			return err
		},
		After: func(c *cli.Context) error {
			if logFile == nil {
				return nil
			}
			return logFile.Close()
		},
		Commands: []*cli.Command{
			{
				Name:      "generate",
				Usage:     "generate the depositioning program retracting every positioner outside of the safe area",
				UsageText: "fibermos generate --instance <file> [--json <file>]",
				Flags: []cli.Flag{
					instanceFlagDef,
					&cli.PathFlag{
						Name:  jsonFlag,
						Usage: "write the program as JSON to `FILE`",
					},
				},
				Action: GenerateAction,
			},
			{
				Name:      "pair",
				Usage:     "generate the positioning and depositioning programs for the target points of the instance",
				UsageText: "fibermos pair --instance <file> [--pp-json <file>] [--dp-json <file>]",
				Flags: []cli.Flag{
					instanceFlagDef,
					&cli.PathFlag{
						Name:  ppJSONFlag,
						Usage: "write the positioning program as JSON to `FILE`",
					},
					&cli.PathFlag{
						Name:  dpJSONFlag,
						Usage: "write the depositioning program as JSON to `FILE`",
					},
				},
				Action: PairAction,
			},
			{
				Name:      "validate",
				Usage:     "simulate a motion program from the starting positions of the instance",
				UsageText: "fibermos validate --instance <file> --program <file>",
				Flags:     []cli.Flag{instanceFlagDef, programFlagDef},
				Action:    ValidateAction,
			},
			{
				Name:      "stats",
				Usage:     "print duration statistics of the gestures of a motion program",
				UsageText: "fibermos stats --instance <file> --program <file>",
				Flags:     []cli.Flag{instanceFlagDef, programFlagDef},
				Action:    StatsAction,
			},
			{
				Name:      "plot",
				Usage:     "draw the arm contours of the positioners, optionally where a motion program leaves them",
				UsageText: "fibermos plot --instance <file> --out <file.png> [--program <file>]",
				Flags: []cli.Flag{
					instanceFlagDef,
					&cli.PathFlag{
						Name:     outFlag,
						Aliases:  []string{"o"},
						Required: true,
						Usage:    "write the figure to `FILE`, whose extension gives the format",
					},
					&cli.PathFlag{
						Name:    programFlag,
						Aliases: []string{"p"},
						Usage:   "execute the motion program in `FILE` first",
					},
				},
				Action: PlotAction,
			},
			{
				Name:   "schema",
				Usage:  "print the JSON schema of instance files",
				Action: SchemaAction,
			},
		},
	}
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app := newApp()
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
