package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/pterm/pterm"

	"github.com/example/expressions/diag"
	"github.com/example/expressions/log"
	"github.com/example/expressions/testrunner"
)

// ErrTestsFailed is returned by the test command when a test failed or
// could not run.
var ErrTestsFailed = diag.NewError("tests failed")

// Test runs a directory of script tests.
type Test struct {
	Dir string `arg:"" help:"Suite directory; include files live in its harness subdirectory." type:"existingdir"`

	Filter  string        `help:"Run only tests whose path contains this text."`
	Limit   int           `help:"Run at most this many tests."`
	Timeout time.Duration `default:"5s" help:"Time limit of a single test."`
	Verbose bool          `help:"Print passed and skipped tests too." short:"v"`
}

// Run executes the test command.
func (t *Test) Run(ctx context.Context, streams Streams) error {
	report := func(tr testrunner.TestResult) {
		if !t.Verbose && (tr.Result == testrunner.Pass || tr.Result == testrunner.Skip) {
			return
		}
		line := tr.Result.String() + " " + tr.Path
		if tr.Message != "" {
			line += " " + tr.Message
		}
		fmt.Fprintln(streams.Out, line)
	}

	_, summary, err := testrunner.Run(ctx, testrunner.Config{
		Dir:     t.Dir,
		Filter:  t.Filter,
		Limit:   t.Limit,
		Timeout: t.Timeout,
		Logger:  log.Default(),
		Report:  report,
	})
	if err != nil {
		return err
	}

	printer := pterm.Success
	if !summary.OK() {
		printer = pterm.Error
	}
	fmt.Fprint(streams.Out, printer.Sprintfln(
		"%d passed, %d failed, %d skipped, %d errors of %d (%.1f%%) in %s",
		summary.Passed, summary.Failed, summary.Skipped, summary.Errors, summary.Total,
		summary.PassRate(), summary.Elapsed.Round(time.Millisecond),
	))

	if !summary.OK() {
		return ErrTestsFailed.Detail(fmt.Sprintf("%d failed, %d errors", summary.Failed, summary.Errors))
	}

	return nil
}
