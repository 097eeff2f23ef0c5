package takkencrawler

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

type rodBrowser struct {
	browser *rod.Browser
	page    *rod.Page
	engine  Engine
	logger  *Logger
}

// newRodBrowser launches a local Chromium through the Rod launcher.
func newRodBrowser(engine Engine, logger *Logger) (*rodBrowser, error) {
	l := launcher.New().Headless(engine.isHeadless()).NoSandbox(true)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	if engine.UserAgent != "" {
		err = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: engine.UserAgent})
		if err != nil {
			_ = browser.Close()
			return nil, fmt.Errorf("error setting user agent: %w", err)
		}
	}

	return &rodBrowser{browser: browser, page: page, engine: engine, logger: logger}, nil
}

func rodError(op string, err error) error {
	return navigationError(op, err, errors.Is(err, context.DeadlineExceeded))
}

// within scopes the page to ctx and the given timeout.
func (b *rodBrowser) within(ctx context.Context, timeout time.Duration) *rod.Page {
	return b.page.Context(ctx).Timeout(timeout)
}

func (b *rodBrowser) Goto(ctx context.Context, url string) error {
	p := b.within(ctx, b.engine.Timeout)
	if err := p.Navigate(url); err != nil {
		return rodError("goto "+url, err)
	}
	return rodError("wait for load", p.WaitLoad())
}

func (b *rodBrowser) Content(ctx context.Context) (string, error) {
	html, err := b.within(ctx, b.engine.Timeout).HTML()
	if err != nil {
		return "", rodError("content", err)
	}
	return html, nil
}

func (b *rodBrowser) Evaluate(ctx context.Context, script string, arg interface{}) (interface{}, error) {
	var args []interface{}
	if arg != nil {
		args = append(args, arg)
	}
	res, err := b.within(ctx, b.engine.Timeout).Eval(script, args...)
	if err != nil {
		return nil, rodError("evaluate", err)
	}
	return res.Value.Val(), nil
}

func (b *rodBrowser) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	_, err := b.within(ctx, timeout).Element(selector)
	return rodError("wait for "+selector, err)
}

func (b *rodBrowser) WaitForFunction(ctx context.Context, script string, arg interface{}, timeout time.Duration) error {
	err := b.within(ctx, timeout).Wait(rod.Eval(script, arg))
	return rodError("wait for condition", err)
}

func (b *rodBrowser) WaitForLoad(ctx context.Context, timeout time.Duration) error {
	err := b.within(ctx, timeout).WaitStable(500 * time.Millisecond)
	return rodError("wait for load", err)
}

func (b *rodBrowser) Click(ctx context.Context, selector string, index int) error {
	elements, err := b.within(ctx, b.engine.Timeout).Elements(selector)
	if err != nil {
		return rodError("find "+selector, err)
	}
	if index < 0 || index >= len(elements) {
		return fmt.Errorf("click %s[%d]: %w: %d matches", selector, index, ErrUnexpectedLayout, len(elements))
	}
	err = elements[index].Click(proto.InputMouseButtonLeft, 1)
	return rodError(fmt.Sprintf("click %s[%d]", selector, index), err)
}

func (b *rodBrowser) ClickText(ctx context.Context, selector, text string) error {
	el, err := b.within(ctx, b.engine.Timeout).ElementR(selector, regexp.QuoteMeta(text))
	if err != nil {
		return rodError(fmt.Sprintf("find %s %q", selector, text), err)
	}
	err = el.Click(proto.InputMouseButtonLeft, 1)
	return rodError(fmt.Sprintf("click %s %q", selector, text), err)
}

func (b *rodBrowser) SelectOption(ctx context.Context, selector string, option SelectBy, timeout time.Duration) error {
	el, err := b.within(ctx, timeout).Element(selector)
	if err != nil {
		return rodError("find "+selector, err)
	}
	if err := el.WaitVisible(); err != nil {
		return rodError("wait for "+selector, err)
	}
	if option.Label != "" {
		err = el.Select([]string{option.Label}, true, rod.SelectorTypeText)
	} else {
		err = el.Select([]string{fmt.Sprintf(`[value="%s"]`, option.Value)}, true, rod.SelectorTypeCSSSector)
	}
	return rodError("select "+selector, err)
}

func (b *rodBrowser) GoBack(ctx context.Context) error {
	err := b.within(ctx, b.engine.Timeout).NavigateBack()
	return rodError("go back", err)
}

func (b *rodBrowser) Close() error {
	return b.browser.Close()
}
