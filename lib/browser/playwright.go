package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"vfsbot/lib/telemetry"

	"github.com/playwright-community/playwright-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = telemetry.Tracer("vfsbot.lib.browser")

// DefaultTimeout bounds individual element operations.
const DefaultTimeout = time.Second * 30

// Install downloads the playwright driver plus the browser build for the
// given engine. Meant for first-time setup.
func Install(engine Engine) error {
	return playwright.Install(&playwright.RunOptions{
		Browsers: []string{string(engine)},
	})
}

// PlaywrightLauncher drives real browsers through the playwright driver.
// The zero value is ready to use.
type PlaywrightLauncher struct{}

func (PlaywrightLauncher) Launch(ctx context.Context, opts Options) (Session, error) {
	ctx, span := tracer.Start(ctx, "playwright:Launch", trace.WithAttributes(
		attribute.String("engine", string(opts.Engine)),
		attribute.Bool("headless", opts.Headless),
	))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to start playwright driver")
		return nil, fmt.Errorf("start playwright driver: %w", err)
	}

	var engine playwright.BrowserType
	switch opts.Engine {
	case EngineChromium:
		engine = pw.Chromium
	case EngineWebkit:
		engine = pw.WebKit
	default:
		engine = pw.Firefox
	}

	b, err := engine.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		pw.Stop()
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to launch browser")
		return nil, fmt.Errorf("launch %s: %w", opts.Engine, err)
	}

	page, err := b.NewPage()
	if err != nil {
		b.Close()
		pw.Stop()
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open page")
		return nil, fmt.Errorf("open page: %w", err)
	}

	return &playwrightSession{
		pw:      pw,
		browser: b,
		page:    &playwrightPage{page: page},
	}, nil
}

type playwrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    *playwrightPage

	closeOnce sync.Once
	closeErr  error
}

func (s *playwrightSession) Page() Page {
	return s.page
}

func (s *playwrightSession) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if err := s.page.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop driver: %w", err))
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

// playwrightPage adapts a playwright page to the Page interface. The
// underlying client is not context-aware, so each operation checks for
// cancellation up front and relies on playwright's own timeouts while in
// flight.
type playwrightPage struct {
	page playwright.Page
}

func wrapTimeout(err error) error {
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

func (p *playwrightPage) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
	})
	return wrapTimeout(err)
}

func (p *playwrightPage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// First: selectors like ".date-available" legitimately match many
	// elements, waiting is satisfied by any of them showing up
	return wrapTimeout(p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	}))
}

func (p *playwrightPage) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return wrapTimeout(p.page.Locator(selector).Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(float64(DefaultTimeout.Milliseconds())),
	}))
}

func (p *playwrightPage) ClickButton(ctx context.Context, name string) error {
	return p.Click(ctx, ButtonSelector(name))
}

func (p *playwrightPage) TryClickButton(ctx context.Context, name string, timeout time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	err := p.page.Locator(ButtonSelector(name)).Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if errors.Is(err, playwright.ErrTimeout) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *playwrightPage) Fill(ctx context.Context, selector string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return wrapTimeout(p.page.Locator(selector).Fill(value, playwright.LocatorFillOptions{
		Timeout: playwright.Float(float64(DefaultTimeout.Milliseconds())),
	}))
}

func (p *playwrightPage) SelectByLabel(ctx context.Context, label string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.GetByLabel(label).SelectOption(playwright.SelectOptionValues{
		Values: &[]string{value},
	}, playwright.LocatorSelectOptionOptions{
		Timeout: playwright.Float(float64(DefaultTimeout.Milliseconds())),
	})
	return wrapTimeout(err)
}

func (p *playwrightPage) InnerText(ctx context.Context, selector string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := p.page.Locator(selector).InnerText(playwright.LocatorInnerTextOptions{
		Timeout: playwright.Float(float64(DefaultTimeout.Milliseconds())),
	})
	return text, wrapTimeout(err)
}

func (p *playwrightPage) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.page.Content()
}

func (p *playwrightPage) Sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
