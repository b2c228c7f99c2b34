package engine

import "time"

// Clock maps wall time onto the scene's virtual playhead. While playing,
// elapsed time tracks wall time from a movable anchor; pausing freezes the
// offset and resuming re-derives the anchor so elapsed time is continuous.
type Clock struct {
	start  time.Time
	offset time.Duration
	paused bool
}

func NewClock(now time.Time) *Clock {
	return &Clock{start: now}
}

// Elapsed returns the playhead position.
func (c *Clock) Elapsed(now time.Time) time.Duration {
	if c.paused {
		return c.offset
	}
	return now.Sub(c.start)
}

// Pause freezes the playhead.
func (c *Clock) Pause(now time.Time) {
	if !c.paused {
		c.offset = now.Sub(c.start)
		c.paused = true
	}
}

// Resume continues from the frozen position.
func (c *Clock) Resume(now time.Time) {
	if c.paused {
		c.start = now.Add(-c.offset)
		c.paused = false
	}
}

// Seek moves the playhead and leaves the clock paused; playback resumes
// explicitly.
func (c *Clock) Seek(to time.Duration) {
	c.offset = to
	c.paused = true
}

func (c *Clock) Paused() bool {
	return c.paused
}
