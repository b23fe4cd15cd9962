package browser

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// NewLimiter returns a limiter allowing perSecond browser actions, or nil
// (unthrottled) when perSecond is zero. One limiter is shared by every
// session in the process.
func NewLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// Instrument wraps s so every navigation and interaction is logged and, when
// limiter is non-nil, waits for a token first.
func Instrument(s Session, limiter *rate.Limiter, log logrus.FieldLogger) Session {
	return &instrumented{s: s, limiter: limiter, log: log}
}

type instrumented struct {
	s       Session
	limiter *rate.Limiter
	log     logrus.FieldLogger
}

func (i *instrumented) wait() error {
	if i.limiter == nil {
		return nil
	}
	return i.limiter.Wait(context.Background())
}

func (i *instrumented) trace(action string, fields logrus.Fields, start time.Time, err error) {
	entry := i.log.WithFields(fields).WithFields(logrus.Fields{
		"action":  action,
		"elapsed": time.Since(start).String(),
	})
	if err != nil {
		entry.WithError(err).Warn("Browser action failed")
		return
	}
	entry.Debug("Browser action")
}

func (i *instrumented) Navigate(url string) error {
	if err := i.wait(); err != nil {
		return err
	}
	start := time.Now()
	err := i.s.Navigate(url)
	i.trace("navigate", logrus.Fields{"url": url}, start, err)
	return err
}

func (i *instrumented) FindElement(loc Locator) (Element, error) {
	start := time.Now()
	el, err := i.s.FindElement(loc)
	i.trace("find_element", logrus.Fields{"locator": loc.String()}, start, err)
	if err != nil {
		return nil, err
	}
	return &instrumentedElement{el: el, loc: loc, parent: i}, nil
}

func (i *instrumented) FindElements(loc Locator) ([]Element, error) {
	start := time.Now()
	els, err := i.s.FindElements(loc)
	i.trace("find_elements", logrus.Fields{"locator": loc.String(), "count": len(els)}, start, err)
	if err != nil {
		return nil, err
	}
	out := make([]Element, len(els))
	for n, el := range els {
		out[n] = &instrumentedElement{el: el, loc: loc, parent: i}
	}
	return out, nil
}

func (i *instrumented) MaximizeWindow() error {
	start := time.Now()
	err := i.s.MaximizeWindow()
	i.trace("maximize", nil, start, err)
	return err
}

func (i *instrumented) Screenshot() ([]byte, error) {
	return i.s.Screenshot()
}

func (i *instrumented) Close() error {
	start := time.Now()
	err := i.s.Close()
	i.trace("close", nil, start, err)
	return err
}

type instrumentedElement struct {
	el     Element
	loc    Locator
	parent *instrumented
}

func (e *instrumentedElement) SendKeys(keys string) error {
	if err := e.parent.wait(); err != nil {
		return err
	}
	start := time.Now()
	err := e.el.SendKeys(keys)
	e.parent.trace("send_keys", logrus.Fields{"locator": e.loc.String(), "keys": printableKeys(keys)}, start, err)
	return err
}

func (e *instrumentedElement) Click() error {
	if err := e.parent.wait(); err != nil {
		return err
	}
	start := time.Now()
	err := e.el.Click()
	e.parent.trace("click", logrus.Fields{"locator": e.loc.String()}, start, err)
	return err
}

func (e *instrumentedElement) Text() (string, error) { return e.el.Text() }
func (e *instrumentedElement) Attribute(name string) (string, error) { return e.el.Attribute(name) }
func (e *instrumentedElement) IsDisplayed() (bool, error) { return e.el.IsDisplayed() }
func (e *instrumentedElement) IsEnabled() (bool, error) { return e.el.IsEnabled() }

// printableKeys renders WebDriver key code points readably in logs.
func printableKeys(keys string) string {
	return strings.ReplaceAll(keys, EnterKey, "<enter>")
}
