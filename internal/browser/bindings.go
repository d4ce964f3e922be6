// File: internal/browser/bindings.go
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ExposeCallback registers a named function on the page's window object that
// invokes fn in Go when called from JavaScript. The binding survives
// navigations within this session.
func (s *Session) ExposeCallback(ctx context.Context, name string, fn func()) error {
	opCtx, opCancel := CombineContext(s.ctx, ctx)
	defer opCancel()

	if err := chromedp.Run(opCtx, runtime.AddBinding(name)); err != nil {
		return fmt.Errorf("failed to add binding %q: %w", name, err)
	}

	chromedp.ListenTarget(s.ctx, func(ev interface{}) {
		if bindingEv, ok := ev.(*runtime.EventBindingCalled); ok && bindingEv.Name == name {
			s.logger.Debug("Page binding invoked.", zap.String("binding", name))
			go fn()
		}
	})
	return nil
}

// InstallScript evaluates the script in the current document and arranges for
// it to run again in every future document of this session. Both are needed:
// the persistent registration alone only takes effect after the next
// navigation.
func (s *Session) InstallScript(ctx context.Context, script string) error {
	opCtx, opCancel := CombineContext(s.ctx, ctx)
	defer opCancel()

	err := chromedp.Run(opCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx)
		return err
	}))
	if err != nil {
		return fmt.Errorf("failed to register persistent script: %w", err)
	}

	if err := chromedp.Run(opCtx, chromedp.Evaluate(script, nil)); err != nil {
		// The current document may reject the script (e.g. about:blank CSP);
		// the persistent registration still covers subsequent pages.
		s.logger.Debug("Immediate script evaluation failed.", zap.Error(err))
	}
	return nil
}
