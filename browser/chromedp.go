package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/sirupsen/logrus"
)

// ChromedpOptions configures the DevTools backend.
type ChromedpOptions struct {
	ExecPath     string // empty uses the chrome found on PATH
	Headless     bool
	ImplicitWait time.Duration
}

// ChromedpLauncher owns one Chrome process; each session is a new tab.
type ChromedpLauncher struct {
	allocCtx     context.Context
	cancelAlloc  context.CancelFunc
	browserCtx   context.Context
	cancelBrowse context.CancelFunc
	implicitWait time.Duration
	log          logrus.FieldLogger
}

// NewChromedpLauncher starts Chrome and waits until it accepts tabs.
func NewChromedpLauncher(opts ChromedpOptions, log logrus.FieldLogger) (*ChromedpLauncher, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("start-maximized", true),
		chromedp.WindowSize(1920, 1080),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, cancelBrowse := chromedp.NewContext(allocCtx)

	// The first Run starts the browser process.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowse()
		cancelAlloc()
		return nil, fmt.Errorf("starting chrome: %w", err)
	}

	log.WithField("backend", "chromedp").Info("Browser backend ready")
	return &ChromedpLauncher{
		allocCtx:     allocCtx,
		cancelAlloc:  cancelAlloc,
		browserCtx:   browserCtx,
		cancelBrowse: cancelBrowse,
		implicitWait: opts.ImplicitWait,
		log:          log,
	}, nil
}

func (l *ChromedpLauncher) NewSession() (Session, error) {
	ctx, cancel := chromedp.NewContext(l.browserCtx)
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("opening tab: %w", err)
	}
	return &chromedpSession{ctx: ctx, cancel: cancel, implicitWait: l.implicitWait}, nil
}

func (l *ChromedpLauncher) Stop() error {
	l.log.WithField("backend", "chromedp").Info("Stopping chrome")
	l.cancelBrowse()
	l.cancelAlloc()
	return nil
}

type chromedpSession struct {
	ctx          context.Context
	cancel       context.CancelFunc
	implicitWait time.Duration
}

// Navigate blocks until the load event fired, the equivalent of the
// "normal" page-load strategy.
func (s *chromedpSession) Navigate(url string) error {
	return chromedp.Run(s.ctx, chromedp.Navigate(url))
}

func (s *chromedpSession) FindElement(loc Locator) (Element, error) {
	nodes, err := s.nodes(loc, s.implicitWait > 0)
	if err != nil {
		return nil, notFound(loc, err)
	}
	if len(nodes) == 0 {
		return nil, notFound(loc, nil)
	}
	return &chromedpElement{s: s, node: nodes[0]}, nil
}

func (s *chromedpSession) FindElements(loc Locator) ([]Element, error) {
	nodes, err := s.nodes(loc, false)
	if err != nil {
		return nil, fmt.Errorf("finding %s: %w", loc, err)
	}
	out := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &chromedpElement{s: s, node: n})
	}
	return out, nil
}

// nodes queries the current document. With wait set it polls until at least
// one node matches or the implicit wait runs out.
func (s *chromedpSession) nodes(loc Locator, wait bool) ([]*cdp.Node, error) {
	by := chromedp.ByQueryAll
	if loc.By == ByXPath {
		by = chromedp.BySearch
	}
	opts := []chromedp.QueryOption{by}

	ctx := s.ctx
	if wait {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, s.implicitWait)
		defer cancel()
	} else {
		opts = append(opts, chromedp.AtLeast(0))
	}

	var nodes []*cdp.Node
	if err := chromedp.Run(ctx, chromedp.Nodes(loc.Selector(), &nodes, opts...)); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (s *chromedpSession) MaximizeWindow() error {
	return chromedp.Run(s.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		windowID, _, err := cdpbrowser.GetWindowForTarget().Do(ctx)
		if err != nil {
			return err
		}
		return cdpbrowser.SetWindowBounds(windowID, &cdpbrowser.Bounds{
			WindowState: cdpbrowser.WindowStateMaximized,
		}).Do(ctx)
	}))
}

func (s *chromedpSession) Screenshot() ([]byte, error) {
	var buf []byte
	if err := chromedp.Run(s.ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

// Close shuts the tab.
func (s *chromedpSession) Close() error {
	s.cancel()
	return nil
}

type chromedpElement struct {
	s    *chromedpSession
	node *cdp.Node
}

func (e *chromedpElement) ids() []cdp.NodeID {
	return []cdp.NodeID{e.node.NodeID}
}

// SendKeys types into the node. The WebDriver Enter code point is mapped to
// the DevTools key.
func (e *chromedpElement) SendKeys(keys string) error {
	keys = strings.ReplaceAll(keys, EnterKey, kb.Enter)
	return chromedp.Run(e.s.ctx, chromedp.SendKeys(e.ids(), keys, chromedp.ByNodeID))
}

// Click dispatches a mouse click. Options inside a closed select cannot be
// clicked with the mouse, so they are selected through the DOM instead.
func (e *chromedpElement) Click() error {
	if strings.EqualFold(e.node.NodeName, "option") {
		return e.call(`function() {
			this.selected = true;
			this.parentElement.dispatchEvent(new Event("change", {bubbles: true}));
		}`, nil)
	}
	return chromedp.Run(e.s.ctx, chromedp.Click(e.ids(), chromedp.ByNodeID))
}

func (e *chromedpElement) Text() (string, error) {
	var text string
	err := e.call(`function() { return this.innerText; }`, &text)
	return strings.TrimSpace(text), err
}

// Attribute mirrors the WebDriver semantics: boolean properties read as
// "true" or "", everything else as the attribute value.
func (e *chromedpElement) Attribute(name string) (string, error) {
	switch name {
	case "selected", "checked", "disabled":
		var set bool
		if err := e.call(fmt.Sprintf(`function() { return !!this[%q]; }`, name), &set); err != nil {
			return "", err
		}
		if set {
			return "true", nil
		}
		return "", nil
	}
	var value string
	err := e.call(fmt.Sprintf(`function() { return this.getAttribute(%q) || ""; }`, name), &value)
	return value, err
}

func (e *chromedpElement) IsDisplayed() (bool, error) {
	var visible bool
	err := e.call(`function() {
		const r = this.getBoundingClientRect();
		const st = window.getComputedStyle(this);
		return r.width > 0 && r.height > 0 && st.visibility !== "hidden" && st.display !== "none";
	}`, &visible)
	return visible, err
}

func (e *chromedpElement) IsEnabled() (bool, error) {
	var enabled bool
	err := e.call(`function() { return !this.disabled; }`, &enabled)
	return enabled, err
}

// call runs fn with the node bound to this and decodes the returned value
// into out when out is non-nil.
func (e *chromedpElement) call(fn string, out interface{}) error {
	return chromedp.Run(e.s.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(e.node.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		res, exc, err := runtime.CallFunctionOn(fn).
			WithObjectID(obj.ObjectID).
			WithReturnByValue(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return fmt.Errorf("script error: %s", exc.Text)
		}
		if out == nil || res == nil || len(res.Value) == 0 {
			return nil
		}
		return json.Unmarshal([]byte(res.Value), out)
	}))
}
