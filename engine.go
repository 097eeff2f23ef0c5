package takkencrawler

import (
	"time"
)

const (
	PlayWrightEngine = "playwright"
	RodEngine        = "rod"
)

// Engine holds the browser knobs. Zero values in an override keep the default.
type Engine struct {
	Adapter                string // playwright, rod
	BrowserType            string // chromium, firefox, webkit (playwright only)
	Headless               *bool
	ForceInstallPlaywright bool
	UserAgent              string
	BlockResources         bool
	BlockedURLs            []string
	Args                   []string
	Timeout                time.Duration
}

func getDefaultEngine() Engine {
	return Engine{
		Adapter:        PlayWrightEngine,
		BrowserType:    "chromium",
		Headless:       boolPtr(false),
		BlockResources: false,
		BlockedURLs: []string{
			"www.googletagmanager.com",
			"google-analytics.com",
		},
		Args:    []string{"--no-sandbox"},
		Timeout: 30 * time.Second,
	}
}

func overrideEngineDefaults(defaultEngine *Engine, eng *Engine) {
	if eng.Adapter != "" {
		defaultEngine.Adapter = eng.Adapter
	}
	if eng.BrowserType != "" {
		defaultEngine.BrowserType = eng.BrowserType
	}
	if eng.Headless != nil {
		defaultEngine.Headless = eng.Headless
	}
	if eng.ForceInstallPlaywright {
		defaultEngine.ForceInstallPlaywright = eng.ForceInstallPlaywright
	}
	if eng.UserAgent != "" {
		defaultEngine.UserAgent = eng.UserAgent
	}
	if eng.BlockResources {
		defaultEngine.BlockResources = eng.BlockResources
	}
	if len(eng.Args) > 0 {
		defaultEngine.Args = eng.Args
	}
	if eng.Timeout > 0 {
		defaultEngine.Timeout = eng.Timeout
	}
	defaultEngine.BlockedURLs = append(defaultEngine.BlockedURLs, eng.BlockedURLs...)
}

// WithHeadless returns a copy of the config with the headless toggle set.
func (c Config) WithHeadless(headless bool) Config {
	c.Engine.Headless = boolPtr(headless)
	return c
}

func (e Engine) isHeadless() bool {
	return e.Headless != nil && *e.Headless
}
