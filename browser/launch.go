package browser

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"cardsearch-e2e/config"
)

// Launch starts the backend named by cfg.Backend.
func Launch(cfg *config.Config, log logrus.FieldLogger) (Launcher, error) {
	switch cfg.Backend {
	case config.BackendSelenium:
		return NewSeleniumLauncher(SeleniumOptions{
			DriverPath:   cfg.ChromeDriverPath,
			Port:         cfg.DriverPort,
			RemoteURL:    cfg.WebDriverURL,
			Headless:     cfg.Headless,
			ImplicitWait: cfg.ImplicitWait,
		}, log)
	case config.BackendChromedp:
		return NewChromedpLauncher(ChromedpOptions{
			Headless:     cfg.Headless,
			ImplicitWait: cfg.ImplicitWait,
		}, log)
	default:
		return nil, fmt.Errorf("unknown browser backend %q", cfg.Backend)
	}
}
