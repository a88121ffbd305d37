package dailyscot

import (
	"fmt"

	"github.com/alexandre-normand/dailyscot/config"
	"github.com/alexandre-normand/dailyscot/schedule"
	"github.com/robfig/cron/v3"
)

// ScheduledActionDefinition represents when a scheduled action is triggered as well
// as what it does
type ScheduledActionDefinition struct {
	schedule.Definition

	// Description of the scheduled action
	Description string

	// Action is the function that is invoked when the schedule activates. It runs on
	// the bot's work queue, never concurrently with event routing
	Action func() error
}

// String returns a friendly description of a ScheduledActionDefinition
func (a ScheduledActionDefinition) String() string {
	return fmt.Sprintf("`%s` - %s", a.Definition, a.Description)
}

// dailyScheduledActions returns the flag reset and the missed daily check, at the times configured
func (d *Dailyscot) dailyScheduledActions() []ScheduledActionDefinition {
	return []ScheduledActionDefinition{
		{
			Definition:  schedule.DailyAt(d.config.GetString(config.ResetAtKey)),
			Description: "Reset the daily answered flag",
			Action: func() error {
				d.responder.ResetDailyFlag()
				return nil
			},
		},
		{
			Definition:  schedule.DailyAt(d.config.GetString(config.MissedCheckAtKey)),
			Description: "Post a reminder if today's daily wasn't answered",
			Action:      d.responder.CheckMissedDaily,
		},
	}
}

// newActionScheduler creates the cron scheduler in the configured time location and registers all
// scheduled actions with it. Jobs only enqueue their action so they never block the cron goroutine.
// Runs missed while the process is down are skipped
func (d *Dailyscot) newActionScheduler() (c *cron.Cron, err error) {
	c = cron.New(cron.WithLocation(d.clock.loc), cron.WithLogger(cron.PrintfLogger(d.log)))

	for _, sa := range d.scheduledActions {
		sa := sa
		if _, err = schedule.Add(c, sa.Definition, func() {
			d.enqueue(func() {
				d.runScheduledAction(sa)
			})
		}); err != nil {
			return nil, err
		}

		d.log.Printf("Scheduled action %s\n", sa)
	}

	return c, nil
}

func (d *Dailyscot) runScheduledAction(sa ScheduledActionDefinition) {
	var err error
	dur := measure(func() {
		err = sa.Action()
	})

	d.routed(scheduledJobClass, dur)

	if err != nil {
		d.log.Printf("Error running scheduled action [%s] (%s error): %v\n", sa.Description, KindOf(err), err)
	}
}
