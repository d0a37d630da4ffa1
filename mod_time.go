package glc

import (
	"time"
)

// Time tracks the frame counter and the wall time between frames.
type Time struct {
	Frame uint64
	Time  time.Time
	Dt    time.Duration
}

type TimeModule struct {
	Now func() time.Time
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	now := mod.Now
	if now == nil {
		now = time.Now
	}
	cmd.AddResources(&Time{Time: now()}, &clock{now: now})
	app.UseSystem(System(timeSystem).InStage(Prelude))
}

type clock struct {
	now func() time.Time
}

func timeSystem(t *Time, c *clock) {
	now := c.now()
	t.Frame++
	t.Dt = now.Sub(t.Time)
	t.Time = now
}
