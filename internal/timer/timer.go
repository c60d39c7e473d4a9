package timer

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// RoundSeconds is the fixed countdown duration in ticks.
const RoundSeconds = 60

const tickPeriod = time.Second

// Event is emitted once per tick. Done is true on the terminal event only.
type Event struct {
	Remaining int
	Done      bool
}

// Countdown is the single round timer. Start arms a fresh countdown and
// cancels any prior one; the terminal event fires exactly once per armed
// generation, even if Stop races the final tick. Events are delivered on C
// so the session loop applies them on its own goroutine.
type Countdown struct {
	clock clockwork.Clock
	out   chan Event

	mu  sync.Mutex
	gen int
}

func New(clock clockwork.Clock) *Countdown {
	return &Countdown{
		clock: clock,
		out:   make(chan Event, RoundSeconds+1),
	}
}

func (c *Countdown) C() <-chan Event { return c.out }

// Start arms the countdown. A previous countdown still running becomes
// stale: its generation no longer matches and it exits without firing.
func (c *Countdown) Start(seconds int) {
	if seconds <= 0 {
		seconds = RoundSeconds
	}
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	go c.run(gen, seconds)
}

// Stop cancels the running countdown. Calling it after expiry, or twice, is
// a no-op.
func (c *Countdown) Stop() {
	c.mu.Lock()
	c.gen++
	c.mu.Unlock()
}

func (c *Countdown) run(gen, remaining int) {
	ticker := c.clock.NewTicker(tickPeriod)
	defer ticker.Stop()

	for remaining > 0 {
		<-ticker.Chan()
		remaining--

		c.mu.Lock()
		live := c.gen == gen
		if live && remaining == 0 {
			// Burn the generation so a later Stop cannot race a
			// second terminal fire.
			c.gen++
		}
		c.mu.Unlock()
		if !live {
			return
		}
		c.out <- Event{Remaining: remaining, Done: remaining == 0}
	}
}
