// Package browser owns the Playwright browser lifecycle for a booking run.
//
// A run holds exactly one Session: one browser process, one context, one
// page. The Page interface is the narrow surface the rest of the system
// drives; reading happens via Content() snapshots (parsed with goquery
// elsewhere), acting happens via selector-addressed operations. Every exit
// path must release the session; Close is safe to call more than once.
package browser

import "time"

// Load states for navigation and settling waits
const (
	WaitDOMContentLoaded = "domcontentloaded"
	WaitLoad             = "load"
	WaitNetworkIdle      = "networkidle"
)

// Page is the live page a run drives. Implementations: the Playwright
// session, and in-memory fakes in tests.
type Page interface {
	// URL returns the current page URL.
	URL() string

	// Goto navigates to url and waits for the given load state.
	Goto(url string, waitUntil string) error

	// WaitForLoadState waits until the page reaches the given load state.
	// A timeout here is returned as an error; callers decide whether it is
	// fatal or a tolerable "proceed anyway".
	WaitForLoadState(state string, timeout time.Duration) error

	// WaitForSelector waits until the element is visible.
	WaitForSelector(selector string, timeout time.Duration) error

	// Fill sets the value of an input element.
	Fill(selector, value string) error

	// Click clicks an element.
	Click(selector string) error

	// SelectOption chooses an option value in a select element.
	SelectOption(selector, value string) error

	// Evaluate runs a JavaScript expression in the page.
	Evaluate(js string) (interface{}, error)

	// Content returns the full rendered HTML of the page.
	Content() (string, error)

	// Screenshot captures the current viewport as PNG bytes.
	Screenshot() ([]byte, error)
}

// Options configures a new session
type Options struct {
	Headless bool
	// Timeout is the default per-operation timeout.
	Timeout time.Duration
}

// Viewport dimensions used for every session. Fixed so screenshots stay
// comparable across runs.
const (
	ViewportWidth  = 1280
	ViewportHeight = 720
)

// DefaultTimeout is the per-operation default when Options.Timeout is zero.
const DefaultTimeout = 30 * time.Second
