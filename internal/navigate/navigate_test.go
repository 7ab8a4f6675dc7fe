package navigate

import (
	"errors"
	"testing"
	"time"
)

// sitePage simulates navigation outcomes keyed by URL
type sitePage struct {
	url      string
	content  string
	gotoErr  map[string]error
	landedAt map[string]string // overrides final URL after a Goto
	visits   []string
	clicks   []string
	evals    []string
}

func (p *sitePage) URL() string { return p.url }

func (p *sitePage) Goto(url string, _ string) error {
	p.visits = append(p.visits, url)
	if err := p.gotoErr[url]; err != nil {
		return err
	}
	if landed, ok := p.landedAt[url]; ok {
		p.url = landed
	} else {
		p.url = url
	}
	return nil
}

func (p *sitePage) WaitForLoadState(string, time.Duration) error { return nil }
func (p *sitePage) WaitForSelector(string, time.Duration) error  { return nil }
func (p *sitePage) Fill(string, string) error                    { return nil }

func (p *sitePage) Click(selector string) error {
	p.clicks = append(p.clicks, selector)
	return nil
}

func (p *sitePage) SelectOption(string, string) error { return nil }

func (p *sitePage) Evaluate(js string) (interface{}, error) {
	p.evals = append(p.evals, js)
	return nil, nil
}

func (p *sitePage) Content() (string, error)    { return p.content, nil }
func (p *sitePage) Screenshot() ([]byte, error) { return []byte("png"), nil }

func TestURLBuilding(t *testing.T) {
	n := New("https://customer-cc36.clubcaddie.com", "cbfdabab", nil)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{
			name: "schedule",
			got:  n.ScheduleURL("2026-09-06"),
			want: "https://customer-cc36.clubcaddie.com/TeeSheet/view/cbfdabab/sheet?date=2026-09-06",
		},
		{
			name: "booking",
			got:  n.BookingURL("2026-09-06"),
			want: "https://customer-cc36.clubcaddie.com/TeeTimes/view/cbfdabab/slots?date=09%2F06%2F2026&player=1&ratetype=any",
		},
		{
			name: "alternate booking",
			got:  n.AlternateBookingURL("2026-09-06"),
			want: "https://customer-cc36.clubcaddie.com/TeeTimes/booking/cbfdabab/slots?date=09%2F06%2F2026&player=1&ratetype=any",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestURLDate_FallbackForUnparsableDate(t *testing.T) {
	if got := urlDate("not-a-date"); got != "notadate" {
		t.Errorf("urlDate fallback = %q, want dashes stripped", got)
	}
}

func TestGotoSchedule(t *testing.T) {
	n := New("https://customer-cc36.clubcaddie.com", "cbfdabab", nil)
	page := &sitePage{}

	if err := n.GotoSchedule(page, "2026-09-06"); err != nil {
		t.Fatalf("GotoSchedule() error = %v", err)
	}
	if len(page.visits) != 1 || page.visits[0] != n.ScheduleURL("2026-09-06") {
		t.Errorf("visits = %v", page.visits)
	}
}

func TestGotoSchedule_NavigationErrorIsReturned(t *testing.T) {
	n := New("https://customer-cc36.clubcaddie.com", "cbfdabab", nil)
	url := n.ScheduleURL("2026-09-06")
	page := &sitePage{gotoErr: map[string]error{url: errors.New("net::ERR_CONNECTION_REFUSED")}}

	if err := n.GotoSchedule(page, "2026-09-06"); err == nil {
		t.Fatal("GotoSchedule() error = nil, want navigation error")
	}
}

func TestGotoBookingView_DirectURLWins(t *testing.T) {
	n := New("https://customer-cc36.clubcaddie.com", "cbfdabab", nil)
	page := &sitePage{}

	if err := n.GotoBookingView(page, "2026-09-06"); err != nil {
		t.Fatalf("GotoBookingView() error = %v", err)
	}
	if len(page.visits) != 1 {
		t.Errorf("visits = %v, want only the direct URL", page.visits)
	}
}

func TestGotoBookingView_FallsBackToAlternateURL(t *testing.T) {
	n := New("https://customer-cc36.clubcaddie.com", "cbfdabab", nil)
	direct := n.BookingURL("2026-09-06")
	page := &sitePage{
		// Direct URL bounces back to the tee sheet
		landedAt: map[string]string{direct: "https://customer-cc36.clubcaddie.com/TeeSheet/view/cbfdabab/sheet"},
	}

	if err := n.GotoBookingView(page, "2026-09-06"); err != nil {
		t.Fatalf("GotoBookingView() error = %v", err)
	}
	if len(page.visits) != 2 {
		t.Fatalf("visits = %v, want direct then alternate", page.visits)
	}
	if page.visits[1] != n.AlternateBookingURL("2026-09-06") {
		t.Errorf("second visit = %q", page.visits[1])
	}
}

func TestGotoBookingView_MemberLinkFallback(t *testing.T) {
	n := New("https://customer-cc36.clubcaddie.com", "cbfdabab", nil)
	direct := n.BookingURL("2026-09-06")
	alternate := n.AlternateBookingURL("2026-09-06")
	teeSheet := "https://customer-cc36.clubcaddie.com/TeeSheet/view/cbfdabab/sheet"

	page := &sitePage{
		landedAt: map[string]string{direct: teeSheet, alternate: teeSheet},
		content: `<html><body>
			<div id="sidebar"><a href="/book">Book a Member Tee Time</a></div>
		</body></html>`,
	}

	if err := n.GotoBookingView(page, "2026-09-06"); err != nil {
		t.Fatalf("GotoBookingView() error = %v", err)
	}
	if len(page.clicks) != 1 {
		t.Fatalf("clicks = %v, want the member booking link", page.clicks)
	}
}

func TestGotoBookingView_FormSubmitFallback(t *testing.T) {
	n := New("https://customer-cc36.clubcaddie.com", "cbfdabab", nil)
	direct := n.BookingURL("2026-09-06")
	alternate := n.AlternateBookingURL("2026-09-06")
	teeSheet := "https://customer-cc36.clubcaddie.com/TeeSheet/view/cbfdabab/sheet"

	page := &sitePage{
		landedAt: map[string]string{direct: teeSheet, alternate: teeSheet},
		content: `<html><body>
			<form id="TeeSheetForm0" action="/TeeTimes/booking/cbfdabab">
				<button id="go" type="submit">Book</button>
			</form>
		</body></html>`,
	}

	if err := n.GotoBookingView(page, "2026-09-06"); err != nil {
		t.Fatalf("GotoBookingView() error = %v", err)
	}
	if len(page.clicks) != 1 || page.clicks[0] != "#go" {
		t.Errorf("clicks = %v, want [#go]", page.clicks)
	}
}

func TestGotoBookingView_ScriptSubmitWhenNoControl(t *testing.T) {
	n := New("https://customer-cc36.clubcaddie.com", "cbfdabab", nil)
	direct := n.BookingURL("2026-09-06")
	alternate := n.AlternateBookingURL("2026-09-06")
	teeSheet := "https://customer-cc36.clubcaddie.com/TeeSheet/view/cbfdabab/sheet"

	page := &sitePage{
		landedAt: map[string]string{direct: teeSheet, alternate: teeSheet},
		content: `<html><body>
			<form id="TeeSheetForm0" action="/TeeTimes/booking/cbfdabab"></form>
		</body></html>`,
	}

	if err := n.GotoBookingView(page, "2026-09-06"); err != nil {
		t.Fatalf("GotoBookingView() error = %v", err)
	}
	if len(page.evals) != 1 {
		t.Fatalf("evals = %v, want one script submit", page.evals)
	}
	if page.evals[0] != `document.getElementById("TeeSheetForm0").submit()` {
		t.Errorf("eval = %q", page.evals[0])
	}
}

func TestGotoBookingView_AllStrategiesExhausted(t *testing.T) {
	n := New("https://customer-cc36.clubcaddie.com", "cbfdabab", nil)
	direct := n.BookingURL("2026-09-06")
	alternate := n.AlternateBookingURL("2026-09-06")
	teeSheet := "https://customer-cc36.clubcaddie.com/TeeSheet/view/cbfdabab/sheet"

	page := &sitePage{
		landedAt: map[string]string{direct: teeSheet, alternate: teeSheet},
		content:  `<html><body><p>Nothing here</p></body></html>`,
	}

	err := n.GotoBookingView(page, "2026-09-06")
	if !errors.Is(err, ErrBookingViewUnreachable) {
		t.Fatalf("GotoBookingView() error = %v, want ErrBookingViewUnreachable", err)
	}
}
