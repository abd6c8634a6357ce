// SPDX-License-Identifier: MPL-2.0

package syncer

import (
	"fmt"

	"github.com/nykaa/sync-packages/internal/layout"

	"go.uber.org/multierr"
)

// Run outcomes.
const (
	// Completed means every selected destination was processed.
	Completed Outcome = iota
	// NoPackages means the packages directory had nothing to sync.
	NoPackages
	// NoDestination means the operator selected nothing or cancelled.
	NoDestination
	// Aborted means the operator declined to continue after a failed build.
	Aborted
)

type (
	// Outcome is how a run ended when it did not fail.
	Outcome int

	// Result is the tally of one destination.
	Result struct {
		Destination    layout.Destination
		Succeeded      int
		Failed         int
		FailedPackages []string
		// Errors maps a failed package folder to its cause.
		Errors map[string]error
	}

	// Report summarizes a run.
	Report struct {
		Outcome  Outcome
		Packages []string
		Results  []Result
		// Staged is the short status printed after staging, empty when
		// nothing was staged.
		Staged string
		// StageErr is the staging failure, which only warns.
		StageErr error
		// BuildErr is the build failure. The run continues past it only when
		// the operator agrees.
		BuildErr error
	}
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case NoPackages:
		return "no packages"
	case NoDestination:
		return "no destination"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

func newResult(dest layout.Destination) Result {
	return Result{Destination: dest, Errors: map[string]error{}}
}

func (r *Result) succeed() {
	r.Succeeded++
}

func (r *Result) fail(pkg string, err error) {
	r.Failed++
	r.FailedPackages = append(r.FailedPackages, pkg)
	r.Errors[pkg] = err
}

// Total is the number of packages attempted.
func (r Result) Total() int {
	return r.Succeeded + r.Failed
}

// Err combines the per-package errors in failure order, each prefixed with
// its package folder. It is nil when nothing failed.
func (r Result) Err() error {
	var err error
	for _, pkg := range r.FailedPackages {
		err = multierr.Append(err, fmt.Errorf("%s: %w", pkg, r.Errors[pkg]))
	}
	return err
}

// Succeeded sums successes across destinations.
func (r *Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		n += res.Succeeded
	}
	return n
}

// Failed sums failures across destinations.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		n += res.Failed
	}
	return n
}
