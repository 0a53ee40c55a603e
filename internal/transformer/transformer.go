// Package transformer runs ordered chains of pure stages over a value (a
// table, or a struct of tables). Each stage takes the previous stage's output
// and returns the next one.
//
// A Policy decides what a failing stage does to the chain:
//
//   - Strict  : the failure is logged with the stage name and returned.
//   - Lenient : the failure is logged as a warning, the stage's input is kept
//     as its output and the chain continues.
//
// Errors wrapping ErrStructural are returned under both policies, as is a
// cancelled context. A panicking stage is recovered and treated as a failure
// of that stage.
package transformer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Storbiic/ETL-Dashboard/internal/metrics"
	"github.com/Storbiic/ETL-Dashboard/internal/runlog"
)

// ErrStructural marks input that is unusable as a whole (e.g. no columns).
var ErrStructural = errors.New("structural error")

// Structuralf returns an error wrapping ErrStructural.
func Structuralf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStructural, fmt.Sprintf(format, args...))
}

// Policy selects how stage failures are handled.
type Policy int

const (
	Strict Policy = iota
	Lenient
)

func (p Policy) String() string {
	if p == Lenient {
		return "lenient"
	}
	return "strict"
}

// Stage is one named step of a chain.
type Stage[T any] struct {
	Name string
	Run  func(ctx context.Context, in T) (T, error)
}

// Chain is an ordered list of stages.
type Chain[T any] []Stage[T]

// Options configure one Apply call.
type Options struct {
	// Component prefixes stage names in logs and labels stage metrics,
	// e.g. "parts".
	Component string
	Policy    Policy
	Log       *runlog.Log
	// Job labels the per-stage metrics.
	Job string
}

// Apply runs the stages in order and returns the final value.
func (c Chain[T]) Apply(ctx context.Context, in T, opts Options) (T, error) {
	log := opts.Log
	if log == nil {
		log = runlog.Discard()
	}
	out := in
	for _, st := range c {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		name := st.Name
		if opts.Component != "" {
			name = opts.Component + "." + st.Name
		}

		start := time.Now()
		next, err := runStage(ctx, st, out)
		elapsed := time.Since(start)

		if err == nil {
			metrics.Stage(opts.Job, opts.Component, st.Name, metrics.OutcomeOK, elapsed)
			out = next
			continue
		}
		if opts.Policy == Lenient && !errors.Is(err, ErrStructural) && !errors.Is(err, context.Canceled) {
			metrics.Stage(opts.Job, opts.Component, st.Name, metrics.OutcomeSkipped, elapsed)
			log.Warn("stage failed, keeping previous result", runlog.Fields{"stage": name, "error": err.Error()})
			continue
		}
		metrics.Stage(opts.Job, opts.Component, st.Name, metrics.OutcomeFailed, elapsed)
		log.Error("stage failed", runlog.Fields{"stage": name, "error": err.Error()})
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

func runStage[T any](ctx context.Context, st Stage[T], in T) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = in
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return st.Run(ctx, in)
}
