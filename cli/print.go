package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/samber/lo"

	"go.viam.com/fibermos/motionplan"
)

const (
	maxHistogramBins = 10
	histogramWidth   = 40
)

// printf prints a message with no prefix.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

// warningf prints a message prefixed with a bold yellow "Warning: ".
func warningf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprint(w, color.New(color.Bold, color.FgYellow).Sprint("Warning: "))
	printf(w, format, a...)
}

// programTable renders one row per instruction of mp.
func programTable(mp *motionplan.MotionProgram) string {
	t := table.NewWriter()
	t.SetTitle("motion program %s", mp.ID)
	t.AppendHeader(table.Row{"Gesture", "RP", "Instruction", "Steps", "Delay (ms)"})
	for i, ml := range mp.Lists() {
		for _, mi := range ml.Instructions() {
			args := lo.Map(mi.Args, func(a float64, _ int) string { return strconv.FormatFloat(a, 'f', -1, 64) })
			delay := ""
			if mi.Delay > 0 {
				delay = strconv.FormatFloat(mi.Delay, 'f', 3, 64)
			}
			t.AppendRow(table.Row{i, fmt.Sprintf("RP%d", mi.ID), string(mi.Name), strings.Join(args, " "), delay})
		}
		t.AppendSeparator()
	}
	t.AppendFooter(table.Row{"", "", "", "gestures", mp.Len()})
	return t.Render()
}

func printVerdict(w io.Writer, mp *motionplan.MotionProgram, report *motionplan.ValidationReport) {
	if report.Valid {
		printf(w, "program %s is %s: %d gestures, %.3f ms", mp.ID, color.GreenString("valid"),
			len(report.Durations), report.TotalDuration())
		return
	}
	printf(w, "program %s is %s: %v", mp.ID, color.RedString("not valid"), report.Collision)
}

func printExcluded(w io.Writer, res *motionplan.DepositioningResult) {
	if len(res.Collided) > 0 {
		warningf(w, "positioners already in collision were left out: %v", res.Collided)
	}
	if len(res.Obstructed) > 0 {
		warningf(w, "no way out was found for positioners %v", res.Obstructed)
	}
}

// durationTable summarizes the durations of the gestures, in ms.
func durationTable(durations []float64) (string, error) {
	data := stats.Float64Data(durations)
	total, err := data.Sum()
	if err != nil {
		return "", err
	}
	mean, err := data.Mean()
	if err != nil {
		return "", err
	}
	median, err := data.Median()
	if err != nil {
		return "", err
	}
	lowest, err := data.Min()
	if err != nil {
		return "", err
	}
	highest, err := data.Max()
	if err != nil {
		return "", err
	}
	stddev, err := data.StandardDeviation()
	if err != nil {
		return "", err
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Gestures", "Total (ms)", "Mean (ms)", "Median (ms)", "Min (ms)", "Max (ms)", "Std dev (ms)"})
	t.AppendRow(table.Row{
		len(durations),
		fmt.Sprintf("%.3f", total),
		fmt.Sprintf("%.3f", mean),
		fmt.Sprintf("%.3f", median),
		fmt.Sprintf("%.3f", lowest),
		fmt.Sprintf("%.3f", highest),
		fmt.Sprintf("%.3f", stddev),
	})
	return t.Render(), nil
}

// printDurationHistogram draws the distribution of the durations of the gestures. Nothing is
// drawn when they are all equal.
func printDurationHistogram(w io.Writer, durations []float64) error {
	if len(durations) < 2 || lo.Min(durations) == lo.Max(durations) {
		return nil
	}
	bins := min(len(durations), maxHistogramBins)
	return histogram.Fprint(w, histogram.Hist(bins, durations), histogram.Linear(histogramWidth))
}
