// Package e2e holds the browser scenarios for the card-search site and the
// harness that gives each of them a fresh, isolated browser session.
package e2e

import (
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"cardsearch-e2e/browser"
	"cardsearch-e2e/config"
	"cardsearch-e2e/fixture"
	"cardsearch-e2e/runlog"
	"cardsearch-e2e/searchpage"
)

// TB is the part of testing.TB the harness uses.
type TB interface {
	Helper()
	Name() string
	Failed() bool
	Cleanup(func())
	Logf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

// Harness opens one browser session per test and guarantees its release.
// It is safe for use by parallel tests.
type Harness struct {
	Launcher     browser.Launcher
	BaseURL      string
	Limiter      *rate.Limiter
	Log          logrus.FieldLogger
	Journal      *runlog.Journal
	ArtifactsDir string

	shutdown []func()
}

// NewHarness starts the configured backend and, for the local target, the
// in-process fixture site.
func NewHarness(cfg *config.Config) (*Harness, error) {
	logger := runlog.NewLogger(cfg.LogLevel, nil)
	h := &Harness{
		BaseURL:      cfg.BaseURL,
		Limiter:      browser.NewLimiter(cfg.ActionRate),
		Log:          logger,
		ArtifactsDir: cfg.ArtifactsDir,
	}

	if cfg.JournalPath != "" {
		j, err := runlog.OpenJournal(cfg.JournalPath)
		if err != nil {
			return nil, err
		}
		logger.AddHook(&runlog.DBHook{Journal: j})
		h.Journal = j
		h.shutdown = append(h.shutdown, func() { _ = j.Close() })
	}

	if cfg.IsLocal() {
		url, stop, err := startFixture(logger)
		if err != nil {
			h.Shutdown()
			return nil, err
		}
		h.BaseURL = url
		h.shutdown = append(h.shutdown, stop)
	}

	launcher, err := browser.Launch(cfg, logger)
	if err != nil {
		h.Shutdown()
		return nil, err
	}
	h.useLauncher(launcher)

	logger.WithFields(logrus.Fields{
		"target":  h.BaseURL,
		"backend": cfg.Backend,
	}).Info("Harness ready")
	return h, nil
}

func startFixture(log logrus.FieldLogger) (string, func(), error) {
	dir, err := os.MkdirTemp("", "cardsearch-fixture-")
	if err != nil {
		return "", nil, err
	}
	store, err := fixture.OpenStore(filepath.Join(dir, "cards.db"))
	if err != nil {
		_ = os.RemoveAll(dir)
		return "", nil, err
	}
	srv := httptest.NewServer(fixture.NewServer(store, log, fixture.Options{}).Handler())
	stop := func() {
		srv.Close()
		_ = store.Close()
		_ = os.RemoveAll(dir)
	}
	return srv.URL + "/", stop, nil
}

// useLauncher makes l the session source and stops it on Shutdown.
func (h *Harness) useLauncher(l browser.Launcher) {
	h.Launcher = l
	h.shutdown = append(h.shutdown, func() {
		if err := l.Stop(); err != nil {
			h.Log.WithError(err).Warn("Stopping browser backend")
		}
	})
}

// Shutdown releases everything NewHarness started, newest first.
func (h *Harness) Shutdown() {
	for i := len(h.shutdown) - 1; i >= 0; i-- {
		h.shutdown[i]()
	}
	h.shutdown = nil
}

// Open is the per-test setup: it opens a maximized session on the target,
// locates the search input and registers the teardown. The returned page is
// the test's own context; nothing is shared with other tests.
func (h *Harness) Open(t TB) *searchpage.Page {
	t.Helper()
	start := time.Now()
	log := h.Log.WithField("scenario", t.Name())

	raw, err := h.Launcher.NewSession()
	if err != nil {
		t.Fatalf("opening browser session: %v", err)
		return nil
	}
	session := browser.Instrument(raw, h.Limiter, log)
	t.Cleanup(func() { h.teardown(t, session, log, start) })

	page, err := searchpage.Open(session, h.BaseURL)
	if err != nil {
		t.Fatalf("setting up search page: %v", err)
		return nil
	}
	return page
}

// teardown runs on every exit path of the test, failed or not.
func (h *Harness) teardown(t TB, s browser.Session, log logrus.FieldLogger, start time.Time) {
	failed := t.Failed()

	var shot string
	if failed && h.ArtifactsDir != "" {
		path, err := h.saveScreenshot(t.Name(), s)
		if err != nil {
			t.Logf("screenshot: %v", err)
		} else {
			shot = path
			t.Logf("screenshot saved to %s", path)
		}
	}

	if err := s.Close(); err != nil {
		t.Logf("closing browser session: %v", err)
	}

	log.WithFields(logrus.Fields{
		"passed":   !failed,
		"duration": time.Since(start).String(),
	}).Info("Scenario finished")

	if h.Journal != nil {
		err := h.Journal.Record(runlog.ScenarioResult{
			Name:       t.Name(),
			Target:     h.BaseURL,
			Passed:     !failed,
			Duration:   time.Since(start),
			Screenshot: shot,
		})
		if err != nil {
			t.Logf("journal: %v", err)
		}
	}
}

var fileNameCleaner = strings.NewReplacer("/", "_", `\`, "_", " ", "_", ":", "_")

func (h *Harness) saveScreenshot(name string, s browser.Session) (string, error) {
	png, err := s.Screenshot()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(h.ArtifactsDir, "screenshots")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%d.png", fileNameCleaner.Replace(name), time.Now().Unix()))
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
