// File: internal/alarm/alarm.go

// Package alarm implements the ring-until-acknowledged alert raised once a
// booking confirmation is on screen. A controller rings, waits, and rings
// again until stopped; once stopped it is spent and can never ring again.
package alarm

import (
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/booker-cli/internal/config"
)

// Beeper emits one audible beep. Implementations should block for roughly
// the beep duration.
type Beeper interface {
	Beep(ctx context.Context, frequency int, duration time.Duration)
}

// TerminalBeeper rings the terminal bell. The frequency is advisory only;
// the bell plays whatever the terminal gives it.
type TerminalBeeper struct {
	Out io.Writer
}

// NewTerminalBeeper beeps on stdout.
func NewTerminalBeeper() *TerminalBeeper {
	return &TerminalBeeper{Out: os.Stdout}
}

func (b *TerminalBeeper) Beep(ctx context.Context, _ int, duration time.Duration) {
	io.WriteString(b.Out, "\a")
	select {
	case <-time.After(duration):
	case <-ctx.Done():
	}
}

// Controller runs the beep loop on its own goroutine: beep, wait up to the
// repeat interval for a stop, beep again. Stop is idempotent and terminal.
type Controller struct {
	cfg    config.AlarmConfig
	logger *zap.Logger
	beeper Beeper

	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewController builds an armed but silent controller. A nil beeper gets the
// terminal bell.
func NewController(cfg config.AlarmConfig, logger *zap.Logger, beeper Beeper) *Controller {
	if beeper == nil {
		beeper = NewTerminalBeeper()
	}
	return &Controller{
		cfg:    cfg,
		logger: logger.Named("alarm"),
		beeper: beeper,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins the beep loop. Calling it again, or after Stop, does nothing.
func (c *Controller) Start() {
	c.startOnce.Do(func() {
		select {
		case <-c.stopCh:
			// Stopped before it ever rang; stays silent.
			close(c.doneCh)
			return
		default:
		}
		c.started.Store(true)
		go c.run()
	})
}

func (c *Controller) run() {
	defer close(c.doneCh)

	beepCtx, cancelBeeps := context.WithCancel(context.Background())
	defer cancelBeeps()
	go func() {
		<-c.stopCh
		cancelBeeps()
	}()

	for {
		select {
		case <-c.stopCh:
			return
		default:
		}

		c.logger.Debug("Beeping.",
			zap.Int("frequency", c.cfg.BeepFrequency),
			zap.Duration("duration", c.cfg.BeepDuration))
		c.beeper.Beep(beepCtx, c.cfg.BeepFrequency, c.cfg.BeepDuration)

		select {
		case <-c.stopCh:
			return
		case <-time.After(c.cfg.RepeatInterval):
		}
	}
}

// Stop silences the alarm permanently.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
}

// Wait blocks until the alarm has been stopped and its beep loop has exited.
// Context cancellation stops the alarm and reports the context's error.
func (c *Controller) Wait(ctx context.Context) error {
	select {
	case <-c.doneCh:
		return nil
	case <-ctx.Done():
		c.Stop()
		if c.started.Load() {
			<-c.doneCh
		}
		return ctx.Err()
	}
}
