// File: internal/flow/runner.go

// Package flow drives one student through the booking workflow: poll until
// booking opens, advance through the fixed page sequence, fill forms, and
// ring the alarm once the confirmation is visible. Any step miss throws the
// whole attempt back to the start page; there is no partial-progress memory.
package flow

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/booker-cli/internal/browser"
	"github.com/xkilldash9x/booker-cli/internal/config"
	"github.com/xkilldash9x/booker-cli/internal/roster"
)

// stopAlarmBinding is the window function the page calls on double-click.
const stopAlarmBinding = "__bookerStopAlarm"

// doubleClickScript wires the first double-click on any document to the
// alarm-stop binding.
const doubleClickScript = `
(() => {
  document.addEventListener('dblclick', () => {
    if (window.` + stopAlarmBinding + `) {
      window.` + stopAlarmBinding + `();
    }
  }, { once: true });
})();
`

// Page is the slice of browser.Session the flow needs. Tests substitute a
// scripted fake.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	ClickText(ctx context.Context, texts ...string) (bool, error)
	WaitText(ctx context.Context, text string, timeout time.Duration) (bool, error)
	ClickFirstEnabled(ctx context.Context, selector string) (bool, error)
	FormControls(ctx context.Context) ([]browser.FormControl, error)
	FillControl(ctx context.Context, ctl browser.FormControl, value string) error
	FillFirst(ctx context.Context, selectors []string, value string) (bool, error)
	ExposeCallback(ctx context.Context, name string, fn func()) error
	InstallScript(ctx context.Context, script string) error
}

// Alerter is the audible alert raised on a successful booking. Stop is safe
// to call from any goroutine and more than once.
type Alerter interface {
	Start()
	Stop()
	Wait(ctx context.Context) error
}

// Runner executes the booking workflow for one student at a time.
type Runner struct {
	cfg      *config.Config
	logger   *zap.Logger
	newAlarm func() Alerter
	rand     *rand.Rand
}

// NewRunner wires a Runner. newAlarm builds a fresh Alerter per confirmation;
// alarms never re-arm, so each success gets its own.
func NewRunner(cfg *config.Config, logger *zap.Logger, newAlarm func() Alerter) *Runner {
	return &Runner{
		cfg:      cfg,
		logger:   logger.Named("flow"),
		newAlarm: newAlarm,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run takes the student from the closed-booking page all the way to an
// acknowledged confirmation. Step misses restart the whole sequence from the
// start page, without limit; only a dead context or browser session gets out.
func (r *Runner) Run(ctx context.Context, page Page, student roster.Student) error {
	log := r.logger.With(zap.String("student", student.Email))

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		log.Info("Starting booking attempt.", zap.Int("attempt", attempt))
		done, err := r.attempt(ctx, page, student, log)
		if err != nil {
			return err
		}
		if done {
			break
		}
		log.Warn("Booking attempt failed a step, restarting from the start page.",
			zap.Int("attempt", attempt))
	}

	return r.ringUntilAcknowledged(ctx, page, log)
}

// attempt runs one full pass of the sequence. A false return means a step
// missed its control and the caller should start over; errors are fatal for
// this student.
func (r *Runner) attempt(ctx context.Context, page Page, student roster.Student, log *zap.Logger) (bool, error) {
	texts := r.cfg.Booking.Texts

	if err := r.gotoStart(ctx, page, log); err != nil {
		return false, err
	}
	if err := r.pollUntilBookingOpens(ctx, page, log); err != nil {
		return false, err
	}

	steps := []struct {
		name string
		run  func() (bool, error)
	}{
		{"continue after modules", func() (bool, error) {
			return page.ClickText(ctx, texts.Continue)
		}},
		{"book for myself", func() (bool, error) {
			return page.ClickText(ctx, texts.BookForMyself)
		}},
		{"login", func() (bool, error) {
			return r.login(ctx, page, student, log)
		}},
		{"personal details", func() (bool, error) {
			return r.fillPersonalDetails(ctx, page, student, log)
		}},
		{"continue after details", func() (bool, error) {
			return page.ClickText(ctx, texts.Continue)
		}},
		{"place order", func() (bool, error) {
			return page.ClickText(ctx, texts.OrderSubjectToChange)
		}},
		{"confirmation visible", func() (bool, error) {
			return page.WaitText(ctx, texts.Confirmation, r.cfg.Booking.ConfirmationTimeout)
		}},
	}

	for _, step := range steps {
		ok, err := step.run()
		if err != nil {
			return false, err
		}
		if !ok {
			log.Warn("Step did not find its control.",
				zap.String("step", step.name), zap.String("result", "fail"))
			return false, nil
		}
		log.Info("Step completed.", zap.String("step", step.name), zap.String("result", "pass"))
	}
	return true, nil
}

// gotoStart navigates to the start page and clears any consent overlay.
func (r *Runner) gotoStart(ctx context.Context, page Page, log *zap.Logger) error {
	log.Info("Navigating to start page.", zap.String("url", r.cfg.Booking.StartURL))
	if err := page.Navigate(ctx, r.cfg.Booking.StartURL); err != nil {
		return err
	}
	r.dismissConsent(ctx, page, log)
	return nil
}

// dismissConsent clicks the consent overlay away, preferring acceptance,
// then denial, then just opening settings. All misses are fine; the overlay
// is not always present.
func (r *Runner) dismissConsent(ctx context.Context, page Page, log *zap.Logger) {
	texts := r.cfg.Booking.Texts

	if ok, err := page.ClickText(ctx, texts.PrivacyAccept, "accept"); err == nil && ok {
		log.Debug("Consent overlay accepted.")
		return
	}
	if ok, err := page.ClickText(ctx, texts.PrivacyDeny); err == nil && ok {
		log.Debug("Consent overlay denied.")
		return
	}
	if ok, err := page.ClickText(ctx, texts.PrivacySettings); err == nil && ok {
		log.Debug("Consent settings opened.")
	}
}

// pollUntilBookingOpens reloads the page on a short random cadence until the
// module-selection control appears and is clicked. The loop has no exit of
// its own; only success or context cancellation ends it.
func (r *Runner) pollUntilBookingOpens(ctx context.Context, page Page, log *zap.Logger) error {
	log.Info("Polling until booking opens.")
	for iteration := 1; ; iteration++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		found, err := page.ClickText(ctx, r.cfg.Booking.Texts.SelectModules)
		if err != nil {
			return err
		}
		if found {
			log.Info("Module selection clicked.", zap.Int("iteration", iteration))
			return nil
		}

		// No primary control yet; any enabled exam button counts too.
		found, err = page.ClickFirstEnabled(ctx, r.cfg.Booking.FallbackButtonSelector)
		if err != nil {
			return err
		}
		if found {
			log.Info("Enabled exam button clicked as fallback.", zap.Int("iteration", iteration))
			return nil
		}

		delay := time.Duration(r.rand.Int63n(int64(r.cfg.Booking.MaxRefreshDelay)))
		log.Debug("Booking still closed, reloading.",
			zap.Int("iteration", iteration), zap.Duration("delay", delay))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		if err := page.Reload(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("Reload failed, polling again.",
				zap.String("result", "reload_err"), zap.Error(err))
			continue
		}
		log.Debug("Page reloaded.", zap.String("result", "reload_ok"))
		r.dismissConsent(ctx, page, log)
	}
}

// emailSelectors and passwordSelectors are guesses at the login form's
// shape, tried in order.
var (
	emailSelectors    = []string{"input[type=email]", "#email", "input[name=email]"}
	passwordSelectors = []string{"input[type=password]", "#password", "input[name=password]"}
)

// login fills the credential fields and submits. The email field is the
// anchor: without it there is no point submitting. A missing password field
// is tolerated, matching forms that reveal it after the email.
func (r *Runner) login(ctx context.Context, page Page, student roster.Student, log *zap.Logger) (bool, error) {
	filledEmail, err := page.FillFirst(ctx, emailSelectors, student.Email)
	if err != nil {
		return false, err
	}
	if !filledEmail {
		log.Warn("No email field found on login page.")
		return false, nil
	}

	filledPassword, err := page.FillFirst(ctx, passwordSelectors, student.Password)
	if err != nil {
		return false, err
	}
	if !filledPassword {
		log.Warn("No password field found, submitting anyway.")
	}

	return page.ClickText(ctx, r.cfg.Booking.Texts.Login, "login", "sign in", "log-in")
}

// fillPersonalDetails scans every form control on the page and fills the
// ones whose attributes contain a known keyword fragment. Individual fill
// failures are logged and skipped; the step only fails if the continue
// control is absent afterwards.
func (r *Runner) fillPersonalDetails(ctx context.Context, page Page, student roster.Student, log *zap.Logger) (bool, error) {
	mapping := DetailMapping(student)

	controls, err := page.FormControls(ctx)
	if err != nil {
		return false, err
	}

	for _, ctl := range controls {
		fv, ok := MatchDetailValue(ctl.Attrs, mapping)
		if !ok {
			continue
		}
		if err := page.FillControl(ctx, ctl, fv.Value); err != nil {
			log.Warn("Failed to fill a detail field, skipping it.",
				zap.String("keyword", fv.Keyword), zap.Error(err))
			continue
		}
		log.Debug("Filled detail field.", zap.String("keyword", fv.Keyword))
	}

	return page.ClickText(ctx, r.cfg.Booking.Texts.Continue)
}

// ringUntilAcknowledged starts the alarm and blocks until someone
// double-clicks the page or the context dies. The alarm is disposable: once
// stopped it never rings again.
func (r *Runner) ringUntilAcknowledged(ctx context.Context, page Page, log *zap.Logger) error {
	alert := r.newAlarm()

	if err := page.ExposeCallback(ctx, stopAlarmBinding, func() {
		log.Info("Double-click received, stopping alarm.")
		alert.Stop()
	}); err != nil {
		return err
	}
	if err := page.InstallScript(ctx, doubleClickScript); err != nil {
		return err
	}

	alert.Start()
	log.Info("Alarm ringing, waiting for double-click acknowledgment.")
	if err := alert.Wait(ctx); err != nil {
		return err
	}
	log.Info("Alarm acknowledged.")
	return nil
}
