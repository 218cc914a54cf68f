package main

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/mrsinham/blinkforge/internal/blink"
	"github.com/mrsinham/blinkforge/internal/export"
)

// testContext holds state for a single scenario
type testContext struct {
	tmpDir   string
	exitCode int
	output   string
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

func InitializeScenario(sc *godog.ScenarioContext) {
	tc := &testContext{}

	sc.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tmpDir, err := os.MkdirTemp("", "blinkforge-e2e-*")
		if err != nil {
			return ctx, err
		}
		tc.tmpDir = tmpDir
		return ctx, nil
	})

	sc.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if tc.tmpDir != "" {
			os.RemoveAll(tc.tmpDir)
		}
		return ctx, nil
	})

	sc.Step(`^a config file "([^"]*)" with:$`, tc.aConfigFileWith)
	sc.Step(`^I run blinkforge with "([^"]*)"$`, tc.iRunBlinkforgeWith)
	sc.Step(`^the exit code should be (\d+)$`, tc.theExitCodeShouldBe)
	sc.Step(`^the output should contain "([^"]*)"$`, tc.theOutputShouldContain)
	sc.Step(`^the output should contain '([^']*)'$`, tc.theOutputShouldContain)
	sc.Step(`^"([^"]*)" should exist$`, tc.shouldExist)
	sc.Step(`^"([^"]*)" should not exist$`, tc.shouldNotExist)
	sc.Step(`^the table "([^"]*)" should have (\d+) rows including the header$`, tc.tableShouldHaveRows)
	sc.Step(`^the first line of "([^"]*)" should be the localization header$`, tc.firstLineShouldBeHeader)
	sc.Step(`^the ids in "([^"]*)" should run from 1 without gaps$`, tc.idsShouldBeContiguous)
	sc.Step(`^every frame in "([^"]*)" should be congruent to 1 modulo (\d+)$`, tc.framesShouldBeCongruent)
	sc.Step(`^every localization in "([^"]*)" should lie within (\d+) nm of \((\d+), (\d+)\)$`, tc.localizationsWithinDisk)
	sc.Step(`^the tables "([^"]*)" and "([^"]*)" should be identical$`, tc.tablesShouldBeIdentical)
	sc.Step(`^the tables "([^"]*)" and "([^"]*)" should differ$`, tc.tablesShouldDiffer)
}

func (tc *testContext) path(p string) string {
	return strings.ReplaceAll(p, "{tmpdir}", tc.tmpDir)
}

func (tc *testContext) aConfigFileWith(path string, content *godog.DocString) error {
	return os.WriteFile(tc.path(path), []byte(content.Content), 0644)
}

// iRunBlinkforgeWith executes the command tree in-process, the way main does.
func (tc *testContext) iRunBlinkforgeWith(args string) error {
	cmd := newRootCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetArgs(splitArgs(tc.path(args)))

	tc.exitCode = 0
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(&output, "Error: %v\n", err)
		tc.exitCode = 1
	}
	tc.output = output.String()
	return nil
}

func (tc *testContext) theExitCodeShouldBe(expected int) error {
	if tc.exitCode != expected {
		return fmt.Errorf("expected exit code %d, got %d\nOutput:\n%s", expected, tc.exitCode, tc.output)
	}
	return nil
}

func (tc *testContext) theOutputShouldContain(expected string) error {
	expected = tc.path(expected)
	if !strings.Contains(tc.output, expected) {
		return fmt.Errorf("output does not contain %q\nOutput:\n%s", expected, tc.output)
	}
	return nil
}

func (tc *testContext) shouldExist(path string) error {
	path = tc.path(path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("path does not exist: %s", path)
	}
	return nil
}

func (tc *testContext) shouldNotExist(path string) error {
	path = tc.path(path)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("path exists: %s", path)
	}
	return nil
}

func (tc *testContext) tableShouldHaveRows(path string, rows int) error {
	data, err := os.ReadFile(tc.path(path))
	if err != nil {
		return err
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != rows {
		return fmt.Errorf("expected %d rows, got %d", rows, len(lines))
	}
	return nil
}

func (tc *testContext) firstLineShouldBeHeader(path string) error {
	data, err := os.ReadFile(tc.path(path))
	if err != nil {
		return err
	}
	first, _, _ := strings.Cut(string(data), "\n")
	if first != blink.Header {
		return fmt.Errorf("unexpected header %q", first)
	}
	return nil
}

func (tc *testContext) idsShouldBeContiguous(path string) error {
	events, err := export.ReadCSVFile(tc.path(path))
	if err != nil {
		return err
	}
	for i, e := range events {
		if e.ID != i+1 {
			return fmt.Errorf("row %d has id %d", i+1, e.ID)
		}
	}
	return nil
}

func (tc *testContext) framesShouldBeCongruent(path string, cadence int) error {
	events, err := export.ReadCSVFile(tc.path(path))
	if err != nil {
		return err
	}
	for _, e := range events {
		if (e.Frame-1)%cadence != 0 {
			return fmt.Errorf("event %d at frame %d is off the %d-frame cadence", e.ID, e.Frame, cadence)
		}
	}
	return nil
}

func (tc *testContext) localizationsWithinDisk(path string, radius, cx, cy int) error {
	events, err := export.ReadCSVFile(tc.path(path))
	if err != nil {
		return err
	}
	for _, e := range events {
		if d := math.Hypot(e.X-float64(cx), e.Y-float64(cy)); d > float64(radius)*(1+1e-12) {
			return fmt.Errorf("event %d lies %.3f nm from the center", e.ID, d)
		}
	}
	return nil
}

func (tc *testContext) tablesShouldBeIdentical(a, b string) error {
	same, err := tc.sameContent(a, b)
	if err != nil {
		return err
	}
	if !same {
		return fmt.Errorf("%s and %s differ", a, b)
	}
	return nil
}

func (tc *testContext) tablesShouldDiffer(a, b string) error {
	same, err := tc.sameContent(a, b)
	if err != nil {
		return err
	}
	if same {
		return fmt.Errorf("%s and %s are identical", a, b)
	}
	return nil
}

func (tc *testContext) sameContent(a, b string) (bool, error) {
	da, err := os.ReadFile(tc.path(a))
	if err != nil {
		return false, err
	}
	db, err := os.ReadFile(tc.path(b))
	if err != nil {
		return false, err
	}
	return bytes.Equal(da, db), nil
}

// splitArgs splits a command line string into arguments
func splitArgs(s string) []string {
	var args []string
	var current strings.Builder
	inQuote := false

	for _, r := range s {
		switch {
		case r == '\'':
			inQuote = !inQuote
		case r == ' ' && !inQuote:
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		args = append(args, current.String())
	}
	return args
}

func TestSplitArgs(t *testing.T) {
	got := splitArgs("run --output '{tmpdir}/a b.csv'  --seed 3")
	want := []string{"run", "--output", "{tmpdir}/a b.csv", "--seed", "3"}
	if len(got) != len(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("arg %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPathPlaceholder(t *testing.T) {
	tc := &testContext{tmpDir: t.TempDir()}
	if got := tc.path("{tmpdir}/x.csv"); got != filepath.Join(tc.tmpDir, "x.csv") {
		t.Errorf("unexpected path %q", got)
	}
}
