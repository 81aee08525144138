package task

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser accepts the standard 5-field expression (minute hour
// dom month dow), matching the syntax operators expect from `cron`
// elsewhere in the ecosystem.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCron reports whether expr parses as a standard 5-field cron
// expression.
func ValidateCron(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// NextCronOccurrence resolves the next fire time for t's Cron field,
// strictly after `after`. Tasks that opt into a literal cron string
// (Task.Cron != "") bypass the At solver entirely — robfig/cron is
// the authority for their recurrence, the parallel, optional
// recurrence source described in SPEC_FULL.md's supplemental
// features.
func (t Task) NextCronOccurrence(after time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(t.Cron)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression %q: %w", t.Cron, err)
	}
	return sched.Next(after), nil
}

// UsesCron reports whether t is scheduled by a literal cron
// expression rather than an At pattern.
func (t Task) UsesCron() bool {
	return t.Cron != ""
}
