package browser

import (
	"fmt"
	"io"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/reedipher/teatime/internal/logger"
)

// Session is one live browser: a Playwright driver, a Chromium process, a
// context, and a single page. Close releases everything in reverse order and
// is safe to call twice.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	closed  bool
}

// NewSession installs the Playwright driver if needed, launches Chromium,
// and opens a page. On any failure everything already created is released
// before the error is returned.
func NewSession(opts Options) (*Session, error) {
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}

	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	if err := playwright.Install(runOpts); err != nil {
		return nil, fmt.Errorf("installing playwright driver: %w", err)
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}

	br, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	ctx, err := br.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: ViewportWidth, Height: ViewportHeight},
	})
	if err != nil {
		br.Close()
		pw.Stop()
		return nil, fmt.Errorf("creating browser context: %w", err)
	}

	page, err := ctx.NewPage()
	if err != nil {
		ctx.Close()
		br.Close()
		pw.Stop()
		return nil, fmt.Errorf("creating page: %w", err)
	}
	page.SetDefaultTimeout(float64(opts.Timeout.Milliseconds()))

	logger.Info("Browser session started", logger.Fields{
		"headless": opts.Headless,
		"timeout":  opts.Timeout.String(),
	})

	return &Session{pw: pw, browser: br, context: ctx, page: page}, nil
}

// Page returns the session's live page.
func (s *Session) Page() Page {
	return (*livePage)(s)
}

// Close releases the page, context, browser, and driver. Errors during
// teardown are logged, not returned; the session is unusable either way.
func (s *Session) Close() {
	if s == nil || s.closed {
		return
	}
	s.closed = true

	if err := s.context.Close(); err != nil {
		logger.Warn("Closing browser context", logger.Fields{"error": err.Error()})
	}
	if err := s.browser.Close(); err != nil {
		logger.Warn("Closing browser", logger.Fields{"error": err.Error()})
	}
	if err := s.pw.Stop(); err != nil {
		logger.Warn("Stopping playwright", logger.Fields{"error": err.Error()})
	}
	logger.Info("Browser session closed", nil)
}

// livePage adapts the Playwright page to the Page interface.
type livePage Session

func (p *livePage) URL() string {
	return p.page.URL()
}

func (p *livePage) Goto(url string, waitUntil string) error {
	opts := playwright.PageGotoOptions{}
	if waitUntil != "" {
		state := playwright.WaitUntilState(waitUntil)
		opts.WaitUntil = &state
	}
	if _, err := p.page.Goto(url, opts); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

func (p *livePage) WaitForLoadState(state string, timeout time.Duration) error {
	loadState := playwright.LoadState(state)
	return p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   &loadState,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

func (p *livePage) WaitForSelector(selector string, timeout time.Duration) error {
	visible := playwright.WaitForSelectorStateVisible
	_, err := p.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   visible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("waiting for %s: %w", selector, err)
	}
	return nil
}

func (p *livePage) Fill(selector, value string) error {
	if err := p.page.Fill(selector, value); err != nil {
		return fmt.Errorf("filling %s: %w", selector, err)
	}
	return nil
}

func (p *livePage) Click(selector string) error {
	if err := p.page.Click(selector); err != nil {
		return fmt.Errorf("clicking %s: %w", selector, err)
	}
	return nil
}

func (p *livePage) SelectOption(selector, value string) error {
	_, err := p.page.SelectOption(selector, playwright.SelectOptionValues{
		Values: &[]string{value},
	})
	if err != nil {
		return fmt.Errorf("selecting %q in %s: %w", value, selector, err)
	}
	return nil
}

func (p *livePage) Evaluate(js string) (interface{}, error) {
	return p.page.Evaluate(js)
}

func (p *livePage) Content() (string, error) {
	return p.page.Content()
}

func (p *livePage) Screenshot() ([]byte, error) {
	return p.page.Screenshot()
}
