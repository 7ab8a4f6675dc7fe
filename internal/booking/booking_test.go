package booking

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/reedipher/teatime/internal/browser"
	"github.com/reedipher/teatime/internal/slots"
)

// actionPage records every state-changing call made against it
type actionPage struct {
	url     string
	content string
	clicks  []string
	fills   map[string]string
	selects map[string]string
	evals   []string
}

func newActionPage(url, content string) *actionPage {
	return &actionPage{
		url:     url,
		content: content,
		fills:   make(map[string]string),
		selects: make(map[string]string),
	}
}

func (p *actionPage) URL() string { return p.url }

func (p *actionPage) Goto(url string, _ string) error {
	p.url = url
	return nil
}

func (p *actionPage) WaitForLoadState(string, time.Duration) error { return nil }
func (p *actionPage) WaitForSelector(string, time.Duration) error  { return nil }

func (p *actionPage) Fill(selector, value string) error {
	p.fills[selector] = value
	return nil
}

func (p *actionPage) Click(selector string) error {
	p.clicks = append(p.clicks, selector)
	return nil
}

func (p *actionPage) SelectOption(selector, value string) error {
	p.selects[selector] = value
	return nil
}

func (p *actionPage) Evaluate(js string) (interface{}, error) {
	p.evals = append(p.evals, js)
	return nil, nil
}

func (p *actionPage) Content() (string, error)    { return p.content, nil }
func (p *actionPage) Screenshot() ([]byte, error) { return []byte("png"), nil }

// destructive reports whether any state-changing interaction reached the page
func (p *actionPage) destructive() bool {
	if len(p.clicks) > 0 || len(p.fills) > 0 || len(p.selects) > 0 {
		return true
	}
	for _, js := range p.evals {
		if strings.Contains(js, ".submit()") {
			return true
		}
	}
	return false
}

const teeSheetURL = "https://customer-cc36.clubcaddie.com/TeeSheet/view/cbfdabab/sheet?date=2026-09-06"

func formCandidate(id, display string) slots.Candidate {
	c := slots.Candidate{
		DisplayTime: display,
		Handle:      slots.Handle{Kind: slots.HandleForm, Selector: "#" + id, FormID: id},
	}
	if m, ok := slots.ParseTime(display); ok {
		c.Minutes = m
	}
	return c
}

func TestExecutor_DryRunNeverTouchesThePage(t *testing.T) {
	page := newActionPage(teeSheetURL, `<html><body>
		<form id="TeeSheetForm1"><button type="submit">Book</button></form>
	</body></html>`)

	exec := &Executor{PlayerCount: 4, DryRun: true}
	if err := exec.Attempt(page, formCandidate("TeeSheetForm1", "7:30 AM")); err != nil {
		t.Fatalf("Attempt() error = %v", err)
	}

	if page.destructive() {
		t.Errorf("dry run performed state-changing interactions: clicks=%v fills=%v selects=%v evals=%v",
			page.clicks, page.fills, page.selects, page.evals)
	}
	// The only evaluate allowed is the visual highlight
	if len(page.evals) != 1 || !strings.Contains(page.evals[0], "border") {
		t.Errorf("evals = %v, want a single highlight", page.evals)
	}
}

func TestExecutor_DryRunElementCandidate(t *testing.T) {
	page := newActionPage(teeSheetURL, "<html><body></body></html>")

	exec := &Executor{PlayerCount: 4, DryRun: true}
	slot := slots.Candidate{
		DisplayTime: "2:00 PM",
		Minutes:     840,
		Handle:      slots.Handle{Kind: slots.HandleElement, Selector: "#b1"},
	}
	if err := exec.Attempt(page, slot); err != nil {
		t.Fatalf("Attempt() error = %v", err)
	}
	if page.destructive() {
		t.Errorf("dry run clicked the element: %v", page.clicks)
	}
}

func TestExecutor_LiveFormSubmission(t *testing.T) {
	page := newActionPage(teeSheetURL, `<html><body>
		<form id="TeeSheetForm1">
			<select name="players"><option>2</option><option>4</option></select>
			<button type="submit" id="confirm">Confirm booking</button>
		</form>
	</body></html>`)

	exec := &Executor{PlayerCount: 4, DryRun: false}
	if err := exec.Attempt(page, formCandidate("TeeSheetForm1", "7:30 AM")); err != nil {
		t.Fatalf("Attempt() error = %v", err)
	}

	if len(page.evals) == 0 || !strings.Contains(page.evals[0], `"TeeSheetForm1"`) ||
		!strings.Contains(page.evals[0], ".submit()") {
		t.Errorf("evals = %v, want form submit script", page.evals)
	}
	if got := page.selects["#TeeSheetForm1 > select:nth-child(1)"]; got != "4" {
		t.Errorf("player count select = %v, want 4", page.selects)
	}
	if len(page.clicks) != 1 || page.clicks[0] != "#confirm" {
		t.Errorf("clicks = %v, want the final control", page.clicks)
	}
}

func TestExecutor_LiveElementClick(t *testing.T) {
	page := newActionPage(teeSheetURL, `<html><body>
		<form id="bookingForm">
			<input type="number" id="players">
			<button type="submit" id="confirm">Book</button>
		</form>
	</body></html>`)

	exec := &Executor{PlayerCount: 3, DryRun: false}
	slot := slots.Candidate{
		DisplayTime: "2:00 PM",
		Minutes:     840,
		Handle:      slots.Handle{Kind: slots.HandleElement, Selector: "#slot1"},
	}
	if err := exec.Attempt(page, slot); err != nil {
		t.Fatalf("Attempt() error = %v", err)
	}

	if len(page.clicks) != 2 || page.clicks[0] != "#slot1" || page.clicks[1] != "#confirm" {
		t.Errorf("clicks = %v, want slot then final control", page.clicks)
	}
	if got := page.fills["#players"]; got != "3" {
		t.Errorf("player count fill = %v, want 3", page.fills)
	}
}

func TestExecutor_LiveNoBookingForm(t *testing.T) {
	page := newActionPage(teeSheetURL, "<html><body><p>Nothing</p></body></html>")

	exec := &Executor{PlayerCount: 4, DryRun: false}
	slot := slots.Candidate{
		Handle: slots.Handle{Kind: slots.HandleElement, Selector: "#slot1"},
	}
	err := exec.Attempt(page, slot)
	if !errors.Is(err, ErrNoBookingForm) {
		t.Fatalf("Attempt() error = %v, want ErrNoBookingForm", err)
	}
}

func TestExecutor_LiveNoFinalControl(t *testing.T) {
	page := newActionPage(teeSheetURL, `<html><body>
		<form id="bookingForm"><button>Cancel</button></form>
	</body></html>`)

	exec := &Executor{PlayerCount: 4, DryRun: false}
	slot := slots.Candidate{
		Handle: slots.Handle{Kind: slots.HandleElement, Selector: "#slot1"},
	}
	err := exec.Attempt(page, slot)
	if !errors.Is(err, ErrNoFinalControl) {
		t.Fatalf("Attempt() error = %v, want ErrNoFinalControl", err)
	}
}

func TestExecutor_LiveFinalControlByVerb(t *testing.T) {
	page := newActionPage(teeSheetURL, `<html><body>
		<form id="bookingForm">
			<button id="cancel">Cancel</button>
			<button id="go">Reserve now</button>
		</form>
	</body></html>`)

	exec := &Executor{PlayerCount: 4, DryRun: false}
	slot := slots.Candidate{
		Handle: slots.Handle{Kind: slots.HandleElement, Selector: "#slot1"},
	}
	if err := exec.Attempt(page, slot); err != nil {
		t.Fatalf("Attempt() error = %v", err)
	}
	if len(page.clicks) != 2 || page.clicks[1] != "#go" {
		t.Errorf("clicks = %v, want the reserve control second", page.clicks)
	}
}

// fakeNav counts navigation calls
type fakeNav struct {
	scheduleCalls int
	bookingCalls  int
	rootCalls     int
	scheduleErr   error
}

func (n *fakeNav) GotoSchedule(_ browser.Page, _ string) error {
	n.scheduleCalls++
	return n.scheduleErr
}

func (n *fakeNav) GotoBookingView(_ browser.Page, _ string) error {
	n.bookingCalls++
	return nil
}

func (n *fakeNav) GotoRoot(_ browser.Page) { n.rootCalls++ }

// fakeExec scripts attempt results
type fakeExec struct {
	calls   int
	results []error
	slots   []slots.Candidate
}

func (e *fakeExec) Attempt(_ browser.Page, slot slots.Candidate) error {
	e.slots = append(e.slots, slot)
	var err error
	if e.calls < len(e.results) {
		err = e.results[e.calls]
	}
	e.calls++
	return err
}

func emptyScan(string, string, int) ([]slots.Candidate, error) { return nil, nil }

func TestOrchestrator_RetryBudgetIsExact(t *testing.T) {
	nav := &fakeNav{}
	page := newActionPage(teeSheetURL, "<html><body></body></html>")

	o := &Orchestrator{
		Nav:           nav,
		Exec:          &fakeExec{},
		Scan:          emptyScan,
		TargetMinutes: 840,
		MaxRetries:    2,
		DryRun:        false,
	}
	outcome, err := o.Book(page, "2026-09-06")
	if !errors.Is(err, ErrNoSlots) {
		t.Fatalf("Book() error = %v, want ErrNoSlots", err)
	}
	if nav.scheduleCalls != 3 {
		t.Errorf("schedule navigations = %d, want exactly 3 (max retries 2)", nav.scheduleCalls)
	}
	if nav.bookingCalls != 2 {
		t.Errorf("booking view nudges = %d, want 2 (between attempts only)", nav.bookingCalls)
	}
	if outcome.Attempts != 3 {
		t.Errorf("outcome.Attempts = %d, want 3", outcome.Attempts)
	}
	if outcome.Booked {
		t.Error("outcome.Booked = true, want false")
	}
}

func TestOrchestrator_FirstAttemptSuccessStopsLoop(t *testing.T) {
	nav := &fakeNav{}
	page := newActionPage(teeSheetURL, "<html><body></body></html>")

	scan := func(string, string, int) ([]slots.Candidate, error) {
		return []slots.Candidate{
			{DisplayTime: "2:00 PM", Minutes: 840, Handle: slots.Handle{Selector: "#b1"}},
		}, nil
	}

	o := &Orchestrator{
		Nav:           nav,
		Exec:          &fakeExec{},
		Scan:          scan,
		TargetMinutes: 840,
		MaxRetries:    2,
	}
	outcome, err := o.Book(page, "2026-09-06")
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}
	if nav.scheduleCalls != 1 {
		t.Errorf("schedule navigations = %d, want 1", nav.scheduleCalls)
	}
	if !outcome.Booked || outcome.SlotTime != "2:00 PM" || outcome.Attempts != 1 {
		t.Errorf("outcome = %+v", outcome)
	}
}

func TestOrchestrator_AttemptErrorResetsAndRetries(t *testing.T) {
	nav := &fakeNav{}
	page := newActionPage(teeSheetURL, "<html><body></body></html>")
	exec := &fakeExec{results: []error{errors.New("modal never appeared"), nil}}

	scan := func(string, string, int) ([]slots.Candidate, error) {
		return []slots.Candidate{
			{DisplayTime: "2:00 PM", Minutes: 840, Handle: slots.Handle{Selector: "#b1"}},
		}, nil
	}

	o := &Orchestrator{
		Nav:           nav,
		Exec:          exec,
		Scan:          scan,
		TargetMinutes: 840,
		MaxRetries:    2,
	}
	outcome, err := o.Book(page, "2026-09-06")
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}
	if !outcome.Booked || outcome.Attempts != 2 {
		t.Errorf("outcome = %+v, want booked on attempt 2", outcome)
	}
	if nav.rootCalls != 1 {
		t.Errorf("root resets = %d, want 1 after the failed attempt", nav.rootCalls)
	}
}

func TestOrchestrator_DryRunSimulatesSlotOnFinalAttempt(t *testing.T) {
	nav := &fakeNav{}
	page := newActionPage(teeSheetURL, `<html><body>
		<form id="TeeSheetForm0"><div class="slotTime"><b>7:00 AM</b></div></form>
	</body></html>`)
	exec := &fakeExec{}

	o := &Orchestrator{
		Nav:           nav,
		Exec:          exec,
		Scan:          emptyScan,
		TargetMinutes: 840,
		MaxRetries:    1,
		DryRun:        true,
	}
	outcome, err := o.Book(page, "2026-09-06")
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}
	if !outcome.Booked || !outcome.Simulated {
		t.Fatalf("outcome = %+v, want simulated success", outcome)
	}
	if outcome.SlotTime != "2:00 PM" {
		t.Errorf("SlotTime = %q, want the target time", outcome.SlotTime)
	}
	if exec.calls != 1 {
		t.Fatalf("attempts executed = %d, want 1 (final attempt only)", exec.calls)
	}
	sim := exec.slots[0]
	if !sim.Simulated || sim.Handle.FormID != "TeeSheetForm0" || sim.Distance != 0 {
		t.Errorf("simulated candidate = %+v", sim)
	}
}

func TestOrchestrator_DryRunSimulationNeedsAForm(t *testing.T) {
	nav := &fakeNav{}
	page := newActionPage(teeSheetURL, "<html><body></body></html>")

	o := &Orchestrator{
		Nav:           nav,
		Exec:          &fakeExec{},
		Scan:          emptyScan,
		TargetMinutes: 840,
		MaxRetries:    0,
		DryRun:        true,
	}
	_, err := o.Book(page, "2026-09-06")
	if !errors.Is(err, ErrNoSlots) {
		t.Fatalf("Book() error = %v, want ErrNoSlots", err)
	}
}

func TestOrchestrator_NavigationErrorOnFinalAttemptIsFatal(t *testing.T) {
	nav := &fakeNav{scheduleErr: errors.New("net::ERR_CONNECTION_REFUSED")}
	page := newActionPage(teeSheetURL, "<html><body></body></html>")

	o := &Orchestrator{
		Nav:           nav,
		Exec:          &fakeExec{},
		Scan:          emptyScan,
		TargetMinutes: 840,
		MaxRetries:    1,
	}
	_, err := o.Book(page, "2026-09-06")
	if err == nil {
		t.Fatal("Book() error = nil, want navigation error")
	}
	if nav.scheduleCalls != 2 {
		t.Errorf("schedule navigations = %d, want 2", nav.scheduleCalls)
	}
	if nav.rootCalls != 1 {
		t.Errorf("root resets = %d, want 1", nav.rootCalls)
	}
}
