package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sadopc/levelup/internal/focus"
)

func newFocusCmd(cfgFile *string) *cobra.Command {
	var taskID int64
	c := &cobra.Command{
		Use:   "focus",
		Short: "Run one work interval on a task without the UI",
		Long: `focus counts down one 25 minute work interval bound to a task. When it
runs out the task is marked done, the session is saved, and the command
exits. Interrupt to stop early; nothing is saved then.`,
		Example: `  levelup focus --task 12`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if taskID <= 0 {
				return errors.New("--task is required")
			}
			a, err := openApp(*cfgFile)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			live := term.IsTerminal(int(os.Stdout.Fd()))
			run, err := startFocus(ctx, a, focus.SystemClock{}, taskID, cmd.OutOrStdout(), live)
			if err != nil {
				return err
			}
			return run.wait(ctx)
		},
	}
	c.Flags().Int64VarP(&taskID, "task", "t", 0, "id of the task to focus on")
	return c
}

// focusRun is a headless focus session.
type focusRun struct {
	app    *app
	engine *focus.Engine
	task   focus.Task
	done   chan focus.Outcome
	unsub  func()

	// mu serializes writes to out between the clock goroutine and wait.
	mu      sync.Mutex
	out     io.Writer
	stopped bool
}

func startFocus(ctx context.Context, a *app, clock focus.Clock, taskID int64, out io.Writer, live bool) (*focusRun, error) {
	t, err := findTask(ctx, a.tasks, taskID)
	if err != nil {
		return nil, err
	}
	if t.Done() {
		return nil, fmt.Errorf("task %d is already done", t.ID)
	}

	r := &focusRun{
		app:  a,
		task: t,
		out:  out,
		done: make(chan focus.Outcome, 1),
	}
	r.engine = focus.New(clock, a.tasks,
		focus.WithOnExpire(r.expired),
		focus.WithOnCompletion(func(o focus.Outcome) { r.done <- o }),
		focus.WithLogger(a.logger),
	)
	if live {
		r.unsub = r.engine.Subscribe(r.draw)
	}

	fmt.Fprintf(out, "Focusing on #%d %s for %s\n", t.ID, t.Title, focus.Format(focus.WorkSeconds))
	r.engine.SelectTask(&t)
	r.engine.Start()
	return r, nil
}

// expired runs on the tick that ends the interval, before the completion
// job is dispatched.
func (r *focusRun) expired(x focus.Expiry) {
	if x.Mode != focus.ModeWork {
		return
	}
	if _, err := r.app.store.RecordExpiry(x); err != nil {
		r.app.logger.Error("record focus session", "task_id", r.task.ID, "error", err)
	}
}

func (r *focusRun) draw(s focus.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	status := "running"
	if !s.Running {
		status = "stopped"
	}
	fmt.Fprintf(r.out, "\r%-5s %s  %s  %s ", s.Mode, focus.Format(s.Remaining), status, r.task.Title)
}

// wait blocks until the completion outcome arrives or ctx is cancelled.
func (r *focusRun) wait(ctx context.Context) error {
	select {
	case o := <-r.done:
		r.stop()
		if err := r.app.store.ResolveOutcome(o); err != nil {
			r.app.logger.Error("resolve focus session", "task_id", o.TaskID, "error", err)
		}
		if !o.OK() {
			return fmt.Errorf("work interval finished but task %d was not marked done: %w", o.TaskID, o.Err)
		}
		fmt.Fprintf(r.out, "Work interval finished at %s. Task #%d marked done.\n",
			o.At.Local().Format(time.Kitchen), o.TaskID)
		return nil
	case <-ctx.Done():
		r.stop()
		fmt.Fprintf(r.out, "Stopped with %s left.\n", focus.Format(r.engine.State().Remaining))
		return nil
	}
}

// stop tears the engine down and ends the live line. Nothing is drawn
// after it returns.
func (r *focusRun) stop() {
	if r.unsub != nil {
		r.unsub()
	}
	r.engine.Close()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unsub != nil && !r.stopped {
		fmt.Fprintln(r.out)
	}
	r.stopped = true
}
