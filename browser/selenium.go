package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
)

// SeleniumOptions configures the WebDriver backend.
type SeleniumOptions struct {
	DriverPath   string
	Port         int
	RemoteURL    string // skip starting chromedriver and use this hub
	Headless     bool
	ImplicitWait time.Duration
}

// SeleniumLauncher owns one chromedriver process and opens a fresh
// WebDriver session per test.
type SeleniumLauncher struct {
	service      *selenium.Service
	url          string
	caps         selenium.Capabilities
	implicitWait time.Duration
	log          logrus.FieldLogger
}

// NewSeleniumLauncher starts chromedriver on opts.Port, or attaches to
// opts.RemoteURL when set.
func NewSeleniumLauncher(opts SeleniumOptions, log logrus.FieldLogger) (*SeleniumLauncher, error) {
	l := &SeleniumLauncher{
		url:          opts.RemoteURL,
		caps:         chromeCapabilities(opts.Headless),
		implicitWait: opts.ImplicitWait,
		log:          log,
	}

	if l.url == "" {
		service, err := selenium.NewChromeDriverService(opts.DriverPath, opts.Port)
		if err != nil {
			return nil, fmt.Errorf("starting chromedriver %s on port %d: %w", opts.DriverPath, opts.Port, err)
		}
		l.service = service
		l.url = fmt.Sprintf("http://localhost:%d/wd/hub", opts.Port)
	}

	log.WithFields(logrus.Fields{
		"backend": "selenium",
		"url":     l.url,
	}).Info("Browser backend ready")
	return l, nil
}

func chromeCapabilities(headless bool) selenium.Capabilities {
	caps := selenium.Capabilities{
		"browserName":      "chrome",
		"pageLoadStrategy": "normal",
	}
	args := []string{"--no-sandbox", "--disable-dev-shm-usage"}
	if headless {
		args = append(args, "--headless=new", "--window-size=1920,1080")
	}
	caps.AddChrome(chrome.Capabilities{Args: args})
	return caps
}

func (l *SeleniumLauncher) NewSession() (Session, error) {
	wd, err := selenium.NewRemote(l.caps, l.url)
	if err != nil {
		return nil, fmt.Errorf("opening WebDriver session: %w", err)
	}
	if l.implicitWait > 0 {
		if err := wd.SetImplicitWaitTimeout(l.implicitWait); err != nil {
			_ = wd.Quit()
			return nil, fmt.Errorf("setting implicit wait: %w", err)
		}
	}
	return &seleniumSession{wd: wd}, nil
}

// Stop shuts chromedriver down. Sessions must be closed first.
func (l *SeleniumLauncher) Stop() error {
	if l.service == nil {
		return nil
	}
	l.log.WithField("backend", "selenium").Info("Stopping chromedriver")
	return l.service.Stop()
}

type seleniumSession struct {
	wd selenium.WebDriver
}

func (s *seleniumSession) Navigate(url string) error {
	return s.wd.Get(url)
}

func (s *seleniumSession) FindElement(loc Locator) (Element, error) {
	el, err := s.wd.FindElement(string(loc.By), loc.Value)
	if err != nil {
		if isNoSuchElement(err) {
			return nil, notFound(loc, nil)
		}
		return nil, fmt.Errorf("finding %s: %w", loc, err)
	}
	return seleniumElement{el}, nil
}

func (s *seleniumSession) FindElements(loc Locator) ([]Element, error) {
	els, err := s.wd.FindElements(string(loc.By), loc.Value)
	if err != nil {
		if isNoSuchElement(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding %s: %w", loc, err)
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, seleniumElement{el})
	}
	return out, nil
}

func (s *seleniumSession) MaximizeWindow() error {
	return s.wd.MaximizeWindow("")
}

func (s *seleniumSession) Screenshot() ([]byte, error) {
	return s.wd.Screenshot()
}

// Close ends the WebDriver session, which also closes its window.
func (s *seleniumSession) Close() error {
	return s.wd.Quit()
}

func isNoSuchElement(err error) bool {
	var serr *selenium.Error
	return errors.As(err, &serr) && serr.Err == "no such element"
}

type seleniumElement struct {
	el selenium.WebElement
}

func (e seleniumElement) SendKeys(keys string) error { return e.el.SendKeys(keys) }
func (e seleniumElement) Click() error { return e.el.Click() }
func (e seleniumElement) Text() (string, error) { return e.el.Text() }
func (e seleniumElement) IsDisplayed() (bool, error) { return e.el.IsDisplayed() }
func (e seleniumElement) IsEnabled() (bool, error) { return e.el.IsEnabled() }

func (e seleniumElement) Attribute(name string) (string, error) {
	return e.el.GetAttribute(name)
}
