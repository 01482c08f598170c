package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"go.viam.com/fibermos/config"
	"go.viam.com/fibermos/motionplan"
)

const (
	pairInstance = `{"positioners": [
		{"id": 0, "x_mm": 0, "y_mm": 0, "p1": 125, "p3": 500},
		{"id": 1, "x_mm": 30, "y_mm": 0, "p1": 500, "p3": 500}
	]}`
	targetsInstance = `{"positioners": [
		{"id": 0, "x_mm": 0, "y_mm": 0, "p1": 250, "p3": 0, "target": {"x_mm": 0, "y_mm": 15}},
		{"id": 1, "x_mm": 30, "y_mm": 0, "p1": 250, "p3": 0, "target": {"x_mm": 30, "y_mm": 15}}
	]}`
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	test.That(t, os.WriteFile(path, []byte(content), 0o600), test.ShouldBeNil)
	return path
}

func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	err := NewApp(out, errOut).Run(append([]string{"fibermos"}, args...))
	return out.String(), errOut.String(), err
}

func TestGenerateValidateStats(t *testing.T) {
	dir := t.TempDir()
	instance := writeFile(t, dir, "pair.json", pairInstance)
	program := filepath.Join(dir, "dp.json")

	out, _, err := runApp(t, "generate", "--instance", instance, "--json", program)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "RP0")
	test.That(t, out, test.ShouldContainSubstring, "M2")
	test.That(t, out, test.ShouldContainSubstring, "is valid")
	test.That(t, out, test.ShouldContainSubstring, "wrote program")
	test.That(t, out, test.ShouldNotContainSubstring, "Warning")

	mp, err := config.ReadProgram(program)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mp.ReferencedIDs(), test.ShouldResemble, []int{0, 1})

	out, _, err = runApp(t, "validate", "--instance", instance, "--program", program)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, mp.ID.String()+" is valid")

	out, _, err = runApp(t, "stats", "-i", instance, "-p", program)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "MEAN (MS)")
	test.That(t, out, test.ShouldContainSubstring, "simulation steps")
}

func TestValidateRejectsCollidingProgram(t *testing.T) {
	dir := t.TempDir()
	instance := writeFile(t, dir, "pair.json", pairInstance)

	// folding RP0 straight away sweeps across the arm of RP1
	mp := motionplan.NewMotionProgram()
	ml := motionplan.NewMessageList()
	mi, err := motionplan.NewMessageInstruction(0, motionplan.M2, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ml.Add(mi), test.ShouldBeNil)
	mp.Append(ml)
	program := filepath.Join(dir, "direct.json")
	test.That(t, config.WriteProgram(program, mp), test.ShouldBeNil)

	out, _, err := runApp(t, "validate", "--instance", instance, "--program", program)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "is not valid")
	test.That(t, out, test.ShouldContainSubstring, "RP0 and RP1 collide during gesture 0")

	_, _, err = runApp(t, "stats", "--instance", instance, "--program", program)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestPair(t *testing.T) {
	dir := t.TempDir()
	instance := writeFile(t, dir, "targets.json", targetsInstance)
	pp := filepath.Join(dir, "pp.json")

	out, _, err := runApp(t, "pair", "--instance", instance, "--pp-json", pp)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "positioning")
	test.That(t, out, test.ShouldContainSubstring, "depositioning")

	mp, err := config.ReadProgram(pp)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mp.Len(), test.ShouldEqual, 1)
	test.That(t, mp.ReferencedIDs(), test.ShouldResemble, []int{0, 1})
	_, err = os.Stat(filepath.Join(dir, "dp.json"))
	test.That(t, os.IsNotExist(err), test.ShouldBeTrue)
}

func TestAppErrors(t *testing.T) {
	dir := t.TempDir()
	instance := writeFile(t, dir, "pair.json", pairInstance)

	_, _, err := runApp(t, "generate")
	test.That(t, err, test.ShouldNotBeNil)

	_, _, err = runApp(t, "--log-level", "loud", "generate", "--instance", instance)
	test.That(t, err, test.ShouldNotBeNil)

	_, _, err = runApp(t, "generate", "--instance", filepath.Join(dir, "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)

	// no target points in the instance
	_, _, err = runApp(t, "pair", "--instance", instance)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDebugLogging(t *testing.T) {
	dir := t.TempDir()
	instance := writeFile(t, dir, "pair.json", pairInstance)

	_, errOut, err := runApp(t, "--debug", "generate", "--instance", instance)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, errOut, test.ShouldContainSubstring, "DEBUG")

	_, errOut, err = runApp(t, "--log-level", "warn", "generate", "--instance", instance)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, errOut, test.ShouldBeEmpty)
}

func TestDurationTable(t *testing.T) {
	out, err := durationTable([]float64{10, 20, 30})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "60.000")
	test.That(t, out, test.ShouldContainSubstring, "20.000")

	_, err = durationTable(nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestPlot(t *testing.T) {
	dir := t.TempDir()
	instance := writeFile(t, dir, "pair.json", pairInstance)
	program := filepath.Join(dir, "dp.json")
	_, _, err := runApp(t, "generate", "--instance", instance, "--json", program)
	test.That(t, err, test.ShouldBeNil)

	for _, args := range [][]string{
		{"plot", "--instance", instance, "--out", filepath.Join(dir, "start.png")},
		{"plot", "--instance", instance, "--program", program, "-o", filepath.Join(dir, "end.svg")},
	} {
		out, _, err := runApp(t, args...)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out, test.ShouldContainSubstring, "wrote")
		info, err := os.Stat(args[len(args)-1])
		test.That(t, err, test.ShouldBeNil)
		test.That(t, info.Size(), test.ShouldBeGreaterThan, 0)
	}

	_, _, err = runApp(t, "plot", "--instance", instance, "--out", filepath.Join(dir, "figure.unknown"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSchema(t *testing.T) {
	out, _, err := runApp(t, "schema")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, `"positioners"`)
	test.That(t, out, test.ShouldContainSubstring, `"theta3_safe_rad"`)
}

func TestLogFile(t *testing.T) {
	dir := t.TempDir()
	instance := writeFile(t, dir, "pair.json", pairInstance)
	logFile := filepath.Join(dir, "fibermos.log")

	_, _, err := runApp(t, "--debug", "--log-file", logFile, "generate", "--instance", instance)
	test.That(t, err, test.ShouldBeNil)
	data, err := os.ReadFile(logFile)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldContainSubstring, "first retraction")
}
