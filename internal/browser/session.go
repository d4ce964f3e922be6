// File: internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/booker-cli/internal/config"
)

// Session is one isolated browser tab driving a single student's booking
// attempt. All waits are bounded by the configured step timeout; a miss is
// reported as found=false rather than an error, so callers can distinguish
// "control not on this page" from a dead session.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
	cfg    *config.Config

	onClose   func()
	closeOnce sync.Once
}

// newSession opens a fresh tab off the allocator context.
func newSession(allocatorCtx context.Context, cfg *config.Config, logger *zap.Logger) (*Session, error) {
	sessionID := uuid.New().String()

	ctx, cancel := chromedp.NewContext(allocatorCtx)

	s := &Session{
		id:     sessionID,
		ctx:    ctx,
		cancel: cancel,
		logger: logger.Named("session").With(zap.String("session_id", sessionID)),
		cfg:    cfg,
	}

	// Materialize the tab and size the viewport before first navigation.
	if err := chromedp.Run(ctx,
		chromedp.EmulateViewport(int64(cfg.Browser.ViewportWidth), int64(cfg.Browser.ViewportHeight)),
	); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create browser tab: %w", err)
	}

	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Context returns the session's lifecycle context.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Close tears down the tab.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.logger.Debug("Closing browser session.")
		s.cancel()
		if s.onClose != nil {
			s.onClose()
		}
	})
}

// Navigate loads a URL and waits for the document to be ready.
func (s *Session) Navigate(ctx context.Context, url string) error {
	opCtx, opCancel := CombineContext(s.ctx, ctx)
	defer opCancel()

	navTimeout := s.cfg.Browser.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = 90 * time.Second
	}
	navCtx, navCancel := context.WithTimeout(opCtx, navTimeout)
	defer navCancel()

	if err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		if navCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("navigation timed out after %s: %w", navTimeout, err)
		}
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// Reload refreshes the current page and waits for the document to be ready.
func (s *Session) Reload(ctx context.Context) error {
	opCtx, opCancel := CombineContext(s.ctx, ctx)
	defer opCancel()

	navTimeout := s.cfg.Browser.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = 90 * time.Second
	}
	navCtx, navCancel := context.WithTimeout(opCtx, navTimeout)
	defer navCancel()

	if err := chromedp.Run(navCtx,
		chromedp.Reload(),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("reload failed: %w", err)
	}
	return nil
}

// ClickText locates a control by case-insensitive label text and clicks it.
// Candidate labels are tried in order; for each, button-like elements are
// preferred over generic text nodes. Returns found=false when none of the
// candidates became visible within the step timeout.
func (s *Session) ClickText(ctx context.Context, texts ...string) (bool, error) {
	for _, text := range texts {
		if text == "" {
			continue
		}
		for _, xp := range []string{ButtonTextXPath(text), AnyTextXPath(text)} {
			found, err := s.clickXPath(ctx, xp)
			if err != nil {
				return false, err
			}
			if found {
				s.settle(ctx)
				return true, nil
			}
		}
	}
	return false, nil
}

// clickXPath waits for the expression to match a visible node and clicks it.
func (s *Session) clickXPath(ctx context.Context, xp string) (bool, error) {
	opCtx, opCancel := CombineContext(s.ctx, ctx)
	defer opCancel()

	stepCtx, stepCancel := context.WithTimeout(opCtx, s.cfg.Booking.StepTimeout)
	defer stepCancel()

	if err := chromedp.Run(stepCtx, chromedp.WaitVisible(xp, chromedp.BySearch)); err != nil {
		if opCtx.Err() != nil {
			return false, opCtx.Err()
		}
		// Timed out waiting; the control is simply not here.
		return false, nil
	}

	// Best-effort scroll; failure must not abort the click.
	scrollCtx, scrollCancel := context.WithTimeout(opCtx, 2*time.Second)
	if err := chromedp.Run(scrollCtx, chromedp.ScrollIntoView(xp, chromedp.BySearch)); err != nil {
		s.logger.Debug("Scroll into view failed, clicking anyway.", zap.Error(err))
	}
	scrollCancel()

	clickCtx, clickCancel := context.WithTimeout(opCtx, s.cfg.Booking.StepTimeout)
	defer clickCancel()
	if err := chromedp.Run(clickCtx, chromedp.Click(xp, chromedp.BySearch)); err != nil {
		if opCtx.Err() != nil {
			return false, opCtx.Err()
		}
		s.logger.Debug("Click failed after element was visible.", zap.Error(err))
		return false, nil
	}
	return true, nil
}

// WaitText waits up to the given timeout for the text to become visible.
func (s *Session) WaitText(ctx context.Context, text string, timeout time.Duration) (bool, error) {
	opCtx, opCancel := CombineContext(s.ctx, ctx)
	defer opCancel()

	waitCtx, waitCancel := context.WithTimeout(opCtx, timeout)
	defer waitCancel()

	if err := chromedp.Run(waitCtx, chromedp.WaitVisible(AnyTextXPath(text), chromedp.BySearch)); err != nil {
		if opCtx.Err() != nil {
			return false, opCtx.Err()
		}
		return false, nil
	}
	return true, nil
}

// ClickFirstEnabled scans the selector for the first element without a
// disabled attribute and clicks it. Returns found=false when every match is
// disabled or there are no matches.
func (s *Session) ClickFirstEnabled(ctx context.Context, selector string) (bool, error) {
	opCtx, opCancel := CombineContext(s.ctx, ctx)
	defer opCancel()

	queryCtx, queryCancel := context.WithTimeout(opCtx, s.cfg.Booking.StepTimeout)
	defer queryCancel()

	var nodes []*cdp.Node
	if err := chromedp.Run(queryCtx,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	); err != nil {
		if opCtx.Err() != nil {
			return false, opCtx.Err()
		}
		return false, nil
	}

	for _, node := range nodes {
		attrs := attributeMap(node)
		if isDisabled(node, attrs) {
			continue
		}
		if err := s.clickNode(opCtx, node); err != nil {
			s.logger.Debug("Fallback button click failed, trying next.", zap.Error(err))
			continue
		}
		s.settle(ctx)
		return true, nil
	}
	return false, nil
}

// clickNode clicks an exact node by briefly tagging it with a unique
// attribute. This stays reliable even if the DOM shifts between the query
// and the click.
func (s *Session) clickNode(ctx context.Context, node *cdp.Node) error {
	tempID := fmt.Sprintf("booker-click-%d", time.Now().UnixNano())
	const attributeName = "data-booker-id"
	selector := fmt.Sprintf(`[%s="%s"]`, attributeName, tempID)

	tagCtx, tagCancel := context.WithTimeout(ctx, s.cfg.Booking.StepTimeout)
	defer tagCancel()

	err := chromedp.Run(tagCtx,
		chromedp.SetAttributeValue([]cdp.NodeID{node.NodeID}, attributeName, tempID, chromedp.ByNodeID),
	)
	if err != nil {
		return fmt.Errorf("failed to tag element for click (might be stale): %w", err)
	}
	defer s.cleanupTagAttribute(ctx, selector, attributeName)

	return chromedp.Run(tagCtx,
		chromedp.ScrollIntoView(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	)
}

// cleanupTagAttribute removes the temporary tag so the DOM is left clean.
// It runs on a detached context: a click that navigated away cancels the
// original context, but the cleanup should still get its chance.
func (s *Session) cleanupTagAttribute(ctx context.Context, selector, attributeName string) {
	if chromedp.FromContext(ctx) == nil {
		return
	}
	detachedCtx := valueOnlyContext{ctx}
	taskCtx, cancelTask := context.WithTimeout(detachedCtx, 2*time.Second)
	defer cancelTask()

	jsCleanup := fmt.Sprintf(`document.querySelector('%s')?.removeAttribute('%s')`, selector, attributeName)
	err := chromedp.Run(taskCtx, chromedp.Evaluate(jsCleanup, nil))
	if err != nil && taskCtx.Err() == nil {
		s.logger.Debug("Failed to execute cleanup JS, element might have already disappeared.",
			zap.String("selector", selector), zap.Error(err))
	}
}

// FormControl is one input/select/textarea found on the current page.
type FormControl struct {
	Node  *cdp.Node
	Tag   string
	Attrs map[string]string
}

// FormControls lists all fillable elements on the current page.
func (s *Session) FormControls(ctx context.Context) ([]FormControl, error) {
	opCtx, opCancel := CombineContext(s.ctx, ctx)
	defer opCancel()

	queryCtx, queryCancel := context.WithTimeout(opCtx, s.cfg.Booking.StepTimeout)
	defer queryCancel()

	var nodes []*cdp.Node
	if err := chromedp.Run(queryCtx,
		chromedp.Nodes("input, select, textarea", &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	); err != nil {
		if opCtx.Err() != nil {
			return nil, opCtx.Err()
		}
		return nil, fmt.Errorf("form control query failed: %w", err)
	}

	controls := make([]FormControl, 0, len(nodes))
	for _, node := range nodes {
		controls = append(controls, FormControl{
			Node:  node,
			Tag:   strings.ToLower(node.NodeName),
			Attrs: attributeMap(node),
		})
	}
	return controls, nil
}

// FillControl writes a value into a form control. Select elements pick the
// option whose label or value matches; everything else gets the value set
// directly.
func (s *Session) FillControl(ctx context.Context, ctl FormControl, value string) error {
	opCtx, opCancel := CombineContext(s.ctx, ctx)
	defer opCancel()

	tempID := fmt.Sprintf("booker-fill-%d", time.Now().UnixNano())
	const attributeName = "data-booker-id"
	selector := fmt.Sprintf(`[%s="%s"]`, attributeName, tempID)

	fillCtx, fillCancel := context.WithTimeout(opCtx, s.cfg.Booking.StepTimeout)
	defer fillCancel()

	err := chromedp.Run(fillCtx,
		chromedp.SetAttributeValue([]cdp.NodeID{ctl.Node.NodeID}, attributeName, tempID, chromedp.ByNodeID),
	)
	if err != nil {
		return fmt.Errorf("failed to tag element for fill (might be stale): %w", err)
	}
	defer s.cleanupTagAttribute(opCtx, selector, attributeName)

	if ctl.Tag == "select" {
		optValue, ok := selectOptionValue(ctl.Node, value)
		if !ok {
			return fmt.Errorf("no option matching %q in select element", value)
		}
		return chromedp.Run(fillCtx, chromedp.SetValue(selector, optValue, chromedp.ByQuery))
	}

	return chromedp.Run(fillCtx, chromedp.SetValue(selector, value, chromedp.ByQuery))
}

// FillFirst tries candidate CSS selectors in order and sets the value on the
// first one present. Returns found=false when none match.
func (s *Session) FillFirst(ctx context.Context, selectors []string, value string) (bool, error) {
	opCtx, opCancel := CombineContext(s.ctx, ctx)
	defer opCancel()

	for _, sel := range selectors {
		queryCtx, queryCancel := context.WithTimeout(opCtx, s.cfg.Booking.StepTimeout)
		var nodes []*cdp.Node
		err := chromedp.Run(queryCtx,
			chromedp.Nodes(sel, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
		)
		queryCancel()
		if err != nil {
			if opCtx.Err() != nil {
				return false, opCtx.Err()
			}
			// An invalid selector guess is just a miss.
			continue
		}
		if len(nodes) == 0 {
			continue
		}

		fillCtx, fillCancel := context.WithTimeout(opCtx, s.cfg.Booking.StepTimeout)
		err = chromedp.Run(fillCtx, chromedp.SetValue(sel, value, chromedp.ByQuery))
		fillCancel()
		if err != nil {
			if opCtx.Err() != nil {
				return false, opCtx.Err()
			}
			s.logger.Debug("Fill failed on present element.", zap.String("selector", sel), zap.Error(err))
			continue
		}
		return true, nil
	}
	return false, nil
}

// selectOptionValue resolves the value attribute of the option whose label or
// value matches, case-insensitively.
func selectOptionValue(selectNode *cdp.Node, wanted string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(wanted))
	for _, child := range selectNode.Children {
		if strings.ToUpper(child.NodeName) != "OPTION" {
			continue
		}
		attrs := attributeMap(child)
		label := strings.ToLower(strings.TrimSpace(nodeInnerText(child)))
		value := attrs["value"]
		if value == "" {
			value = strings.TrimSpace(nodeInnerText(child))
		}
		if label == needle || strings.ToLower(value) == needle {
			return value, true
		}
	}
	return "", false
}

// settle gives the page a short pause after an interaction.
func (s *Session) settle(ctx context.Context) {
	wait := s.cfg.Booking.StepWait
	if wait <= 0 {
		return
	}
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	case <-s.ctx.Done():
	}
}

// valueOnlyContext wraps a context but strips its cancellation and deadline,
// for cleanup tasks that should outlive a cancelled parent.
type valueOnlyContext struct {
	context.Context
}

func (valueOnlyContext) Deadline() (deadline time.Time, ok bool) { return }
func (valueOnlyContext) Done() <-chan struct{}                   { return nil }
func (valueOnlyContext) Err() error                              { return nil }

// CombineContext creates a context cancelled when either parent is cancelled.
func CombineContext(parentCtx, secondaryCtx context.Context) (context.Context, context.CancelFunc) {
	combinedCtx, cancel := context.WithCancel(parentCtx)

	go func() {
		select {
		case <-secondaryCtx.Done():
			cancel()
		case <-combinedCtx.Done():
		}
	}()

	return combinedCtx, cancel
}
