package engine

// TimerState is the lifecycle of a single tab countdown.
type TimerState string

const (
	TimerIdle    TimerState = "idle"
	TimerRunning TimerState = "running"
	TimerExpired TimerState = "expired"
)

type timer struct {
	allotted  int
	remaining int
	state     TimerState
}

// Clock owns one countdown per tab. At most one countdown runs at a
// time, remaining seconds never increase and expiry is terminal.
type Clock struct {
	timers  map[string]*timer
	running string
}

// NewClock creates a clock with every tab idle and remaining = allotted.
func NewClock(allotted map[string]int) *Clock {
	c := &Clock{timers: make(map[string]*timer, len(allotted))}
	for id, secs := range allotted {
		if secs < 0 {
			secs = 0
		}
		c.timers[id] = &timer{allotted: secs, remaining: secs, state: TimerIdle}
	}
	return c
}

// Start makes tabID the running countdown, freezing whatever was running.
// It returns false for unknown or expired tabs, in which case nothing runs.
func (c *Clock) Start(tabID string) bool {
	t, ok := c.timers[tabID]
	if !ok || t.state == TimerExpired {
		return false
	}
	if c.running == tabID {
		return true
	}
	c.Stop()
	t.state = TimerRunning
	c.running = tabID
	return true
}

// Stop freezes the running countdown and returns its tab id, or "" if
// nothing was running.
func (c *Clock) Stop() string {
	id := c.running
	if id == "" {
		return ""
	}
	if t := c.timers[id]; t.state == TimerRunning {
		t.state = TimerIdle
	}
	c.running = ""
	return id
}

// Tick advances the running countdown by one second. It returns the tab
// that ticked and whether that tick expired it.
func (c *Clock) Tick() (tabID string, expired bool) {
	if c.running == "" {
		return "", false
	}
	id := c.running
	t := c.timers[id]
	if t.remaining > 0 {
		t.remaining--
	}
	if t.remaining == 0 {
		t.state = TimerExpired
		c.running = ""
		return id, true
	}
	return id, false
}

// Running returns the id of the running tab, or "".
func (c *Clock) Running() string {
	return c.running
}

// Remaining returns the seconds left on tabID.
func (c *Clock) Remaining(tabID string) int {
	if t, ok := c.timers[tabID]; ok {
		return t.remaining
	}
	return 0
}

// Allotted returns the full allotment of tabID in seconds.
func (c *Clock) Allotted(tabID string) int {
	if t, ok := c.timers[tabID]; ok {
		return t.allotted
	}
	return 0
}

// Elapsed returns allotted - remaining for tabID.
func (c *Clock) Elapsed(tabID string) int {
	if t, ok := c.timers[tabID]; ok {
		return t.allotted - t.remaining
	}
	return 0
}

// State returns the timer state of tabID.
func (c *Clock) State(tabID string) TimerState {
	if t, ok := c.timers[tabID]; ok {
		return t.state
	}
	return TimerIdle
}

// TimerSnapshot is the persisted form of one countdown.
type TimerSnapshot struct {
	Remaining int        `json:"remaining"`
	State     TimerState `json:"state"`
}

func (c *Clock) snapshot() map[string]TimerSnapshot {
	out := make(map[string]TimerSnapshot, len(c.timers))
	for id, t := range c.timers {
		out[id] = TimerSnapshot{Remaining: t.remaining, State: t.state}
	}
	return out
}

// restore applies saved countdowns. Saved values can only lower the
// remaining time; nothing is left running.
func (c *Clock) restore(saved map[string]TimerSnapshot) {
	c.Stop()
	for id, s := range saved {
		t, ok := c.timers[id]
		if !ok {
			continue
		}
		if s.Remaining >= 0 && s.Remaining < t.remaining {
			t.remaining = s.Remaining
		}
		if s.State == TimerExpired {
			t.remaining = 0
			t.state = TimerExpired
			continue
		}
		t.state = TimerIdle
	}
}
