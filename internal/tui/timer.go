package tui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/levelup/internal/focus"
)

// focusTickMsg delivers one timer armed through teaClock.
type focusTickMsg struct {
	seq int
}

// focusCompletedMsg carries the result of a completion signal.
type focusCompletedMsg struct {
	outcome focus.Outcome
}

// teaClock is a focus.Clock whose timers fire as Bubble Tea messages, so
// every engine transition runs on the program's update goroutine.
type teaClock struct {
	mu      sync.Mutex
	seq     int
	pending map[int]func()
	armed   []armedTick
}

type armedTick struct {
	seq int
	d   time.Duration
}

func newTeaClock() *teaClock {
	return &teaClock{pending: make(map[int]func())}
}

func (c *teaClock) Schedule(d time.Duration, fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	seq := c.seq
	c.pending[seq] = fn
	c.armed = append(c.armed, armedTick{seq: seq, d: d})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.pending, seq)
	}
}

// fire runs the callback armed as seq unless it was cancelled since.
func (c *teaClock) fire(seq int) {
	c.mu.Lock()
	fn, ok := c.pending[seq]
	delete(c.pending, seq)
	c.mu.Unlock()
	if ok {
		fn()
	}
}

// cmds turns every timer armed since the last call into a tea.Tick.
func (c *teaClock) cmds() []tea.Cmd {
	c.mu.Lock()
	armed := c.armed
	c.armed = nil
	c.mu.Unlock()

	cmds := make([]tea.Cmd, 0, len(armed))
	for _, a := range armed {
		seq := a.seq
		cmds = append(cmds, tea.Tick(a.d, func(time.Time) tea.Msg {
			return focusTickMsg{seq: seq}
		}))
	}
	return cmds
}

func (c *teaClock) pendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// focusQueue collects what the engine hands out during a transition so the
// view can turn it into commands once the engine call returns.
type focusQueue struct {
	mu       sync.Mutex
	jobs     []func() focus.Outcome
	expiries []focus.Expiry
}

func (q *focusQueue) dispatch(job func() focus.Outcome) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
}

func (q *focusQueue) expired(x focus.Expiry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.expiries = append(q.expiries, x)
}

func (q *focusQueue) take() ([]func() focus.Outcome, []focus.Expiry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	jobs, expiries := q.jobs, q.expiries
	q.jobs, q.expiries = nil, nil
	return jobs, expiries
}
