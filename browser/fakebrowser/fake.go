// Package fakebrowser is an in-memory browser.Session for unit tests. Pages
// are scripted as a set of locator→elements bindings; element callbacks can
// swap the bindings to simulate navigation.
package fakebrowser

import (
	"errors"
	"sync"

	"cardsearch-e2e/browser"
)

// Session implements browser.Session over a scripted document.
type Session struct {
	mu        sync.Mutex
	elements  map[browser.Locator][]*Element
	Visited   []string
	Maximized bool
	Closed    bool

	// OnNavigate, when set, is called after a navigation is recorded.
	OnNavigate func(s *Session, url string)
	// NavigateErr makes Navigate fail.
	NavigateErr error
}

func NewSession() *Session {
	return &Session{elements: map[browser.Locator][]*Element{}}
}

// Set binds loc to els, replacing what was there.
func (s *Session) Set(loc browser.Locator, els ...*Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elements[loc] = els
}

// Reset clears every binding, like loading a blank document.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elements = map[browser.Locator][]*Element{}
}

func (s *Session) Navigate(url string) error {
	if s.NavigateErr != nil {
		return s.NavigateErr
	}
	s.mu.Lock()
	s.Visited = append(s.Visited, url)
	s.mu.Unlock()
	if s.OnNavigate != nil {
		s.OnNavigate(s, url)
	}
	return nil
}

func (s *Session) FindElement(loc browser.Locator) (browser.Element, error) {
	els, _ := s.FindElements(loc)
	if len(els) == 0 {
		return nil, errors.Join(browser.ErrElementNotFound, errors.New(loc.String()))
	}
	return els[0], nil
}

func (s *Session) FindElements(loc browser.Locator) ([]browser.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]browser.Element, 0, len(s.elements[loc]))
	for _, el := range s.elements[loc] {
		el.session = s
		out = append(out, el)
	}
	return out, nil
}

func (s *Session) MaximizeWindow() error {
	s.Maximized = true
	return nil
}

func (s *Session) Screenshot() ([]byte, error) {
	return []byte("\x89PNG fake"), nil
}

func (s *Session) Close() error {
	s.Closed = true
	return nil
}

// Element is a scripted node.
type Element struct {
	Name     string
	Content  string
	Attrs    map[string]string
	Hidden   bool
	Disabled bool

	Typed  []string
	Clicks int

	// OnClick and OnKeys run after the interaction is recorded and may
	// rebind the session to simulate a page change.
	OnClick func(s *Session)
	OnKeys  func(s *Session, keys string)

	session *Session
}

// Text builds an element whose visible text is content.
func Text(content string) *Element {
	return &Element{Content: content}
}

func (e *Element) SendKeys(keys string) error {
	e.Typed = append(e.Typed, keys)
	if e.OnKeys != nil {
		e.OnKeys(e.session, keys)
	}
	return nil
}

func (e *Element) Click() error {
	e.Clicks++
	if e.OnClick != nil {
		e.OnClick(e.session)
	}
	return nil
}

func (e *Element) Text() (string, error) { return e.Content, nil }

func (e *Element) Attribute(name string) (string, error) {
	return e.Attrs[name], nil
}

func (e *Element) IsDisplayed() (bool, error) { return !e.Hidden, nil }

func (e *Element) IsEnabled() (bool, error) { return !e.Disabled, nil }

// Launcher hands out prepared sessions in order.
type Launcher struct {
	mu       sync.Mutex
	Sessions []*Session
	Opened   int
	Stopped  bool
	// Prepare, when set, scripts each new session before it is returned.
	Prepare func(*Session)
	Err     error
}

func (l *Launcher) NewSession() (browser.Session, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	s := NewSession()
	if l.Prepare != nil {
		l.Prepare(s)
	}
	l.Sessions = append(l.Sessions, s)
	l.Opened++
	return s, nil
}

func (l *Launcher) Stop() error {
	l.Stopped = true
	return nil
}
