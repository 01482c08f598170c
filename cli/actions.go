package cli

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/fibermos/config"
	"go.viam.com/fibermos/logging"
	"go.viam.com/fibermos/motionplan"
	"go.viam.com/fibermos/positioner"
)

// setupLogger installs the global logger of the app. The file appender it returns, if any, must
// be closed once the command is done.
func setupLogger(c *cli.Context) (*logging.FileAppender, error) {
	level, err := logging.LevelFromString(c.String(logLevelFlag))
	if err != nil {
		return nil, err
	}
	if c.Bool(debugFlag) {
		level = logging.DEBUG
	}
	logger := logging.NewBlankLogger("fibermos")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	var logFile *logging.FileAppender
	if path := c.Path(logFileFlag); path != "" {
		logFile = logging.NewFileAppender(path, logFileMaxSizeMB, logFileMaxBackups)
		logger.AddAppender(logFile)
	}
	logger.SetLevel(level)
	logging.ReplaceGlobal(logger)
	return logFile, nil
}

// array is the positioner array an action works on.
type array struct {
	inst   *config.Instance
	model  *positioner.Model
	opts   *motionplan.Options
	logger logging.Logger
}

func loadArray(c *cli.Context) (*array, error) {
	logger := logging.Global()
	inst, err := config.Read(c.Path(instanceFlag), logger)
	if err != nil {
		return nil, err
	}
	model, err := inst.BuildModel()
	if err != nil {
		return nil, err
	}
	opts, err := inst.PlannerOptions()
	if err != nil {
		return nil, err
	}
	return &array{inst: inst, model: model, opts: opts, logger: logger}, nil
}

// validate simulates mp from the current configuration of the array, which it then restores.
func (a *array) validate(mp *motionplan.MotionProgram) (*motionplan.ValidationReport, error) {
	start := a.model.Positions()
	report, err := motionplan.NewValidator(a.model, a.logger.Sublogger("validator")).Validate(mp)
	if err != nil {
		return nil, err
	}
	return report, a.model.SetPositions(start)
}

// GenerateAction generates the depositioning program of the positioners of the instance that are
// outside of the safe area.
func GenerateAction(c *cli.Context) error {
	a, err := loadArray(c)
	if err != nil {
		return err
	}
	initial := a.model.Positions()
	g := motionplan.NewGenerator(a.model, a.opts, a.logger.Sublogger("generator"))
	res, err := g.GenerateDepositioningProgram(a.model.Outsiders())
	if err != nil {
		return err
	}
	w := c.App.Writer
	printf(w, "%s", programTable(res.Program))
	printExcluded(w, res)

	if err := a.model.SetPositions(initial); err != nil {
		return err
	}
	report, err := a.validate(res.Program)
	if err != nil {
		return err
	}
	printVerdict(w, res.Program, report)

	if path := c.Path(jsonFlag); path != "" {
		if err := config.WriteProgram(path, res.Program); err != nil {
			return err
		}
		printf(w, "wrote program %s to %s", res.Program.ID, path)
	}
	return nil
}

// PairAction generates the positioning program bringing the fibers to the target points of the
// instance and the depositioning program taking them back.
func PairAction(c *cli.Context) error {
	a, err := loadArray(c)
	if err != nil {
		return err
	}
	s, err := a.inst.BuildSession(a.model, a.logger)
	if err != nil {
		return err
	}
	g := motionplan.NewGenerator(a.model, a.opts, a.logger.Sublogger("generator"))
	res, err := g.GeneratePairPPDP(s)
	if err != nil {
		return err
	}
	w := c.App.Writer
	printf(w, "positioning\n%s", programTable(res.PP))
	printf(w, "depositioning\n%s", programTable(res.DP))
	printExcluded(w, res.DepositioningResult)

	for _, out := range []struct {
		flag string
		mp   *motionplan.MotionProgram
	}{{ppJSONFlag, res.PP}, {dpJSONFlag, res.DP}} {
		path := c.Path(out.flag)
		if path == "" {
			continue
		}
		if err := config.WriteProgram(path, out.mp); err != nil {
			return err
		}
		printf(w, "wrote program %s to %s", out.mp.ID, path)
	}
	return nil
}

// ValidateAction simulates a stored motion program from the starting positions of the instance.
func ValidateAction(c *cli.Context) error {
	a, err := loadArray(c)
	if err != nil {
		return err
	}
	mp, err := config.ReadProgram(c.Path(programFlag))
	if err != nil {
		return err
	}
	report, err := a.validate(mp)
	if err != nil {
		return err
	}
	printVerdict(c.App.Writer, mp, report)
	if !report.Valid {
		return errors.Errorf("motion program %s is not valid", mp.ID)
	}
	return nil
}

// StatsAction prints duration statistics of the gestures of a stored motion program.
func StatsAction(c *cli.Context) error {
	a, err := loadArray(c)
	if err != nil {
		return err
	}
	mp, err := config.ReadProgram(c.Path(programFlag))
	if err != nil {
		return err
	}
	report, err := a.validate(mp)
	if err != nil {
		return err
	}
	w := c.App.Writer
	if !report.Valid {
		printVerdict(w, mp, report)
		return errors.Errorf("motion program %s is not valid", mp.ID)
	}
	if len(report.Durations) == 0 {
		printf(w, "program %s has no gestures", mp.ID)
		return nil
	}
	out, err := durationTable(report.Durations)
	if err != nil {
		return err
	}
	printf(w, "%s", out)
	printf(w, "simulation steps: %d", report.Steps)
	return printDurationHistogram(w, report.Durations)
}

// PlotAction draws the arm contours of the positioners of the instance, at their starting
// positions or where a stored motion program leaves them.
func PlotAction(c *cli.Context) error {
	a, err := loadArray(c)
	if err != nil {
		return err
	}
	title := "starting positions"
	if path := c.Path(programFlag); path != "" {
		mp, err := config.ReadProgram(path)
		if err != nil {
			return err
		}
		report, err := motionplan.NewValidator(a.model, a.logger.Sublogger("validator")).Validate(mp)
		if err != nil {
			return err
		}
		title = fmt.Sprintf("end of program %s", mp.ID)
		if !report.Valid {
			title = fmt.Sprintf("program %s: %v", mp.ID, report.Collision)
		}
	}
	out := c.Path(outFlag)
	if err := plotModel(a.model, title, out); err != nil {
		return errors.Wrapf(err, "cannot plot to %q", out)
	}
	printf(c.App.Writer, "wrote %s to %s", title, out)
	return nil
}

// SchemaAction prints the JSON schema of instance files.
func SchemaAction(c *cli.Context) error {
	data, err := json.MarshalIndent(config.InstanceSchema(), "", "  ")
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", data)
	return nil
}
