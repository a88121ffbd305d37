// Package schedule defines the daily schedules of dailyscot's scheduled actions and
// registers them on a cron scheduler
package schedule

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

// Definition represents a schedule running every day at a time of day. The time zone is
// the location of the cron scheduler it is added to
type Definition struct {
	// "At time" value in "HH:MM" 24-hour format (i.e. "10:30")
	AtTime string
}

// DailyAt returns a definition for every day at the given "HH:MM" time
func DailyAt(atTime string) Definition {
	return Definition{AtTime: atTime}
}

// String returns a human-friendly string for the Definition
func (d Definition) String() string {
	return fmt.Sprintf("Every day at %s", d.AtTime)
}

// CronSpec returns the cron expression equivalent to the Definition
func (d Definition) CronSpec() (spec string, err error) {
	at, err := time.Parse("15:04", d.AtTime)
	if err != nil {
		return "", errors.Wrapf(err, "invalid at time [%s]", d.AtTime)
	}

	return fmt.Sprintf("%d %d * * *", at.Minute(), at.Hour()), nil
}

// Add registers f on the cron scheduler according to the Definition
func Add(c *cron.Cron, d Definition, f func()) (id cron.EntryID, err error) {
	spec, err := d.CronSpec()
	if err != nil {
		return 0, err
	}

	id, err = c.AddFunc(spec, f)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to schedule [%s] with spec [%s]", d, spec)
	}

	return id, nil
}
