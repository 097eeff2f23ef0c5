package takkencrawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

type pwBrowser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	engine  Engine
	logger  *Logger
}

// newPlaywrightBrowser starts Playwright and opens a single page.
func newPlaywrightBrowser(engine Engine, logger *Logger) (*pwBrowser, error) {
	if engine.ForceInstallPlaywright {
		logger.Info("Force Installing Playwright!")
		if err := playwright.Install(); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launchOptions := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(engine.isHeadless()),
	}
	if len(engine.Args) > 0 {
		launchOptions.Args = engine.Args
	}

	var browser playwright.Browser
	switch engine.BrowserType {
	case "chromium", "":
		browser, err = pw.Chromium.Launch(launchOptions)
	case "firefox":
		browser, err = pw.Firefox.Launch(launchOptions)
	case "webkit":
		browser, err = pw.WebKit.Launch(launchOptions)
	default:
		_ = pw.Stop()
		return nil, fmt.Errorf("unsupported browser type: %s", engine.BrowserType)
	}
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	pageOptions := playwright.BrowserNewPageOptions{}
	if engine.UserAgent != "" {
		pageOptions.UserAgent = playwright.String(engine.UserAgent)
	}
	page, err := browser.NewPage(pageOptions)
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if engine.BlockResources {
		err := page.Route("**/*", func(route playwright.Route) {
			req := route.Request()
			if shouldBlockResource(engine, req.ResourceType(), req.URL()) {
				_ = route.Abort()
			} else {
				_ = route.Continue()
			}
		})
		if err != nil {
			_ = browser.Close()
			_ = pw.Stop()
			return nil, fmt.Errorf("failed to set up request interception: %w", err)
		}
	}

	return &pwBrowser{pw: pw, browser: browser, page: page, engine: engine, logger: logger}, nil
}

func msFloat(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

func pwError(op string, err error) error {
	return navigationError(op, err, errors.Is(err, playwright.ErrTimeout))
}

func (b *pwBrowser) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res, err := b.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   msFloat(b.engine.Timeout),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return pwError("goto "+url, err)
	}
	if res != nil && !res.Ok() {
		return fmt.Errorf("failed to load page: %d %s", res.Status(), res.StatusText())
	}
	return nil
}

func (b *pwBrowser) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	html, err := b.page.Content()
	if err != nil {
		return "", pwError("content", err)
	}
	return html, nil
}

func (b *pwBrowser) Evaluate(ctx context.Context, script string, arg interface{}) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		result interface{}
		err    error
	)
	if arg == nil {
		result, err = b.page.Evaluate(script)
	} else {
		result, err = b.page.Evaluate(script, arg)
	}
	if err != nil {
		return nil, pwError("evaluate", err)
	}
	return result, nil
}

func (b *pwBrowser) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: msFloat(timeout),
	})
	return pwError("wait for "+selector, err)
}

func (b *pwBrowser) WaitForFunction(ctx context.Context, script string, arg interface{}, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.page.WaitForFunction(script, arg, playwright.PageWaitForFunctionOptions{
		Timeout: msFloat(timeout),
	})
	return pwError("wait for condition", err)
}

func (b *pwBrowser) WaitForLoad(ctx context.Context, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: msFloat(timeout),
	})
	return pwError("wait for load", err)
}

func (b *pwBrowser) Click(ctx context.Context, selector string, index int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.page.Locator(selector).Nth(index).Click(playwright.LocatorClickOptions{
		Timeout: msFloat(b.engine.Timeout),
	})
	return pwError(fmt.Sprintf("click %s[%d]", selector, index), err)
}

func (b *pwBrowser) ClickText(ctx context.Context, selector, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.page.Locator(selector, playwright.PageLocatorOptions{HasText: text}).First().Click(playwright.LocatorClickOptions{
		Timeout: msFloat(b.engine.Timeout),
	})
	return pwError(fmt.Sprintf("click %s %q", selector, text), err)
}

func (b *pwBrowser) SelectOption(ctx context.Context, selector string, option SelectBy, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	loc := b.page.Locator(selector)
	err := loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: msFloat(timeout),
	})
	if err != nil {
		return pwError("wait for "+selector, err)
	}

	values := playwright.SelectOptionValues{}
	if option.Label != "" {
		values.Labels = &[]string{option.Label}
	} else {
		values.Values = &[]string{option.Value}
	}
	_, err = loc.SelectOption(values)
	return pwError("select "+selector, err)
}

func (b *pwBrowser) GoBack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.page.GoBack(playwright.PageGoBackOptions{
		Timeout: msFloat(b.engine.Timeout),
	})
	return pwError("go back", err)
}

func (b *pwBrowser) Close() error {
	var errs []error
	if err := b.page.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := b.browser.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := b.pw.Stop(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
