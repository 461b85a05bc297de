// Package batch diffs one target document against many others in parallel.
// Every document is canonicalized first, so inputs of different schemas can
// be compared field by field.
package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/StinkyLord/sbomkit/internal/compare"
	"github.com/StinkyLord/sbomkit/internal/convert"
	"github.com/StinkyLord/sbomkit/internal/model"
)

// Input is a named document.
type Input struct {
	Name     string
	Document *model.Document
}

// Result holds the comparison of the target against one other document.
// Exactly one of Comparison and Err is set.
type Result struct {
	Index      int
	Name       string
	Comparison *compare.Comparison
	Err        error
}

// Report is the outcome of an N-way diff, in input order.
type Report struct {
	Target  string
	Results []Result
}

// Conflicts is the total number of conflicts across all comparisons.
func (r *Report) Conflicts() int {
	n := 0
	for _, res := range r.Results {
		if res.Comparison != nil {
			n += len(res.Comparison.Conflicts)
		}
	}
	return n
}

// Failed lists the results whose document could not be canonicalized.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Differ runs comparisons on a bounded pool of goroutines.
type Differ struct {
	ctrl    *convert.Controller
	workers int
}

// New creates a differ. A nil controller means the default adapters; a
// non-positive worker count means one per CPU.
func New(ctrl *convert.Controller, workers int) *Differ {
	if ctrl == nil {
		ctrl = convert.NewController(nil)
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Differ{ctrl: ctrl, workers: workers}
}

// Workers is the size of the pool.
func (d *Differ) Workers() int {
	return d.workers
}

// Diff compares target against each of others. A document that fails to
// canonicalize yields a Result with Err set and does not stop the others;
// a target that fails to canonicalize, or a cancelled context, fails the
// whole run.
func (d *Differ) Diff(ctx context.Context, target Input, others []Input) (*Report, error) {
	if target.Document == nil {
		return nil, fmt.Errorf("target %s: nil document", target.Name)
	}
	canonicalTarget, err := d.ctrl.Canonicalize(target.Document)
	if err != nil {
		return nil, fmt.Errorf("target %s: %w", target.Name, err)
	}

	resultCh := make(chan Result, len(others))
	sem := make(chan struct{}, d.workers)
	var wg sync.WaitGroup

submit:
	for i, other := range others {
		select {
		case <-ctx.Done():
			break submit
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, other Input) {
			defer wg.Done()
			defer func() { <-sem }()
			resultCh <- d.diffOne(canonicalTarget, target.Name, i, other)
		}(i, other)
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]Result, len(others))
	received := 0
	for r := range resultCh {
		results[r.Index] = r
		received++
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if received != len(others) {
		return nil, errors.New("batch: lost results")
	}

	report := &Report{Target: target.Name, Results: results}
	log.Debug().
		Str("target", target.Name).
		Int("documents", len(others)).
		Int("workers", d.workers).
		Int("conflicts", report.Conflicts()).
		Msg("n-way diff finished")
	return report, nil
}

func (d *Differ) diffOne(target *model.Document, targetName string, i int, other Input) Result {
	res := Result{Index: i, Name: other.Name}
	if other.Document == nil {
		res.Err = fmt.Errorf("%s: nil document", other.Name)
		return res
	}
	canonical, err := d.ctrl.Canonicalize(other.Document)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", other.Name, err)
		log.Debug().Err(err).Str("document", other.Name).Msg("skipping document")
		return res
	}
	res.Comparison = compare.Compare(targetName, other.Name, target, canonical)
	return res
}
