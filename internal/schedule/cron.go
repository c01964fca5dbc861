package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// fiveFieldParser accepts standard five-field cron expressions
// (minute hour day-of-month month day-of-week). Seconds fields and
// descriptor macros like @daily are outside the validated surface and are
// rejected by construction.
var fiveFieldParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// InvalidCronError reports a cron expression that could not be parsed. It
// carries the original expression for diagnostics.
type InvalidCronError struct {
	Expression string
	Err        error
}

// Error implements the error interface.
func (e *InvalidCronError) Error() string {
	return fmt.Sprintf("invalid cron expression %q: %v", e.Expression, e.Err)
}

// Unwrap returns the underlying parse error.
func (e *InvalidCronError) Unwrap() error {
	return e.Err
}

// Evaluator computes cron occurrences in one fixed IANA timezone. All
// templates share the organization's zone; per-template zones are not
// supported. The evaluator is stateless apart from the immutable location
// and is safe for concurrent use.
type Evaluator struct {
	loc *time.Location
}

// NewEvaluator creates an Evaluator for the given location.
// A nil location falls back to UTC.
func NewEvaluator(loc *time.Location) *Evaluator {
	if loc == nil {
		loc = time.UTC
	}
	return &Evaluator{loc: loc}
}

// Location returns the timezone the evaluator schedules in.
func (e *Evaluator) Location() *time.Location {
	return e.loc
}

// NextAfter returns the earliest instant strictly after from that matches
// the five-field cron expression, evaluated in the evaluator's timezone.
// Returns an *InvalidCronError if the expression cannot be parsed or has no
// future occurrence.
func (e *Evaluator) NextAfter(expression string, from time.Time) (time.Time, error) {
	sched, err := fiveFieldParser.Parse(expression)
	if err != nil {
		return time.Time{}, &InvalidCronError{Expression: expression, Err: err}
	}

	next := sched.Next(from.In(e.loc))
	if next.IsZero() {
		// robfig/cron gives up after a bounded search; an expression like
		// "0 0 30 2 *" never matches.
		return time.Time{}, &InvalidCronError{
			Expression: expression,
			Err:        fmt.Errorf("no future occurrence after %s", from.Format(time.RFC3339)),
		}
	}

	return next, nil
}

// ValidateExpression checks that the expression parses as five-field cron.
// Used by the administrative API before a template is persisted, so the
// scheduler's 24-hour fallback path is reserved for templates that were
// corrupted after creation rather than a routine code path.
func (e *Evaluator) ValidateExpression(expression string) error {
	if _, err := fiveFieldParser.Parse(expression); err != nil {
		return &InvalidCronError{Expression: expression, Err: err}
	}
	return nil
}
