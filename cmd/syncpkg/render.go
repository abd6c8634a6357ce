// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nykaa/sync-packages/internal/build"
	"github.com/nykaa/sync-packages/internal/issue"
	"github.com/nykaa/sync-packages/internal/syncer"

	"go.uber.org/multierr"
	"golang.org/x/term"
)

// renderReport prints the summary of a finished run on out and the issue
// catalog entries that explain it on errOut.
func renderReport(out, errOut io.Writer, report *syncer.Report, verbose bool) {
	if report.BuildErr != nil && (report.Outcome == syncer.Aborted || verbose) {
		if errors.Is(report.BuildErr, build.ErrToolNotFound) {
			renderIssue(errOut, issue.BuildToolNotFoundId)
		} else {
			renderIssue(errOut, issue.BuildFailedId)
		}
	}
	if report.StageErr != nil && verbose {
		renderIssue(errOut, issue.StageFailedId)
	}

	if report.Outcome != syncer.Completed {
		return
	}

	fmt.Fprint(out, renderSummary(report, verbose))

	for _, res := range report.Results {
		for _, err := range res.Errors {
			if errors.Is(err, syncer.ErrDestinationNotFound) {
				renderIssue(errOut, issue.DestinationNotFoundId)
				return
			}
		}
	}
}

// renderSummary builds the per-destination summary card. In verbose mode
// every failed package is listed with its cause.
func renderSummary(report *syncer.Report, verbose bool) string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(TitleStyle.Render("Summary"))
	sb.WriteString("\n")

	width := 0
	for _, res := range report.Results {
		width = max(width, len(res.Destination.Name))
	}

	for _, res := range report.Results {
		name := CmdStyle.Render(fmt.Sprintf("%-*s", width, res.Destination.Name))
		synced := SuccessStyle.Render(fmt.Sprintf("%d synced", res.Succeeded))
		failed := SubtitleStyle.Render(fmt.Sprintf("%d failed", res.Failed))
		if res.Failed > 0 {
			failed = ErrorStyle.Render(fmt.Sprintf("%d failed", res.Failed))
		}
		fmt.Fprintf(&sb, "  %s  %s  %s", name, synced, failed)
		if res.Failed > 0 {
			sb.WriteString(" ")
			sb.WriteString(WarningStyle.Render("(" + strings.Join(res.FailedPackages, ", ") + ")"))
		}
		sb.WriteString("\n")

		if verbose {
			for _, err := range multierr.Errors(res.Err()) {
				sb.WriteString(SubtitleStyle.Render("    • " + err.Error()))
				sb.WriteString("\n")
			}
		}
	}

	fmt.Fprintf(&sb, "\n%s %d package(s) synced, %d failed\n",
		SubtitleStyle.Render("Total:"), report.Succeeded(), report.Failed())
	return sb.String()
}

// renderIssue writes the catalog entry for id, styled for terminals and
// plain otherwise.
func renderIssue(w io.Writer, id issue.Id) {
	entry := issue.Get(id)
	if entry == nil {
		return
	}
	rendered, err := entry.Render(glamourStyle(w))
	if err != nil {
		return
	}
	fmt.Fprint(w, rendered)
}

func glamourStyle(w io.Writer) string {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "dark"
	}
	return "notty"
}
