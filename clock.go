package dailyscot

import (
	"time"

	"github.com/alexandre-normand/dailyscot/store"
)

// dayClock tells the time and the current day in the configured time location
type dayClock struct {
	now func() time.Time
	loc *time.Location
}

func newDayClock(now func() time.Time, loc *time.Location) dayClock {
	if now == nil {
		now = time.Now
	}

	if loc == nil {
		loc = time.Local
	}

	return dayClock{now: now, loc: loc}
}

// today returns the current date key ("YYYY-MM-DD")
func (c dayClock) today() string {
	return c.now().In(c.loc).Format(store.DateLayout)
}
