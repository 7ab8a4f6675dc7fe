// Package report renders a finished booking run as a standalone HTML page.
package report

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/reedipher/teatime/internal/artifacts"
	"github.com/reedipher/teatime/internal/booking"
)

// Run collects everything the report shows about one booking run
type Run struct {
	Outcome booking.Outcome
	Error   error
	Steps   []artifacts.Step
}

// Generate renders the run as a self-contained HTML document.
func Generate(run Run) string {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	b.WriteString("<title>Booking Run Report</title>\n")
	b.WriteString("<style>\n")
	b.WriteString("body { font-family: sans-serif; margin: 2em; }\n")
	b.WriteString(".ok { color: #2e7d32; } .fail { color: #c62828; }\n")
	b.WriteString("table { border-collapse: collapse; } td, th { border: 1px solid #ccc; padding: 4px 10px; }\n")
	b.WriteString("</style>\n</head>\n<body>\n")

	b.WriteString("<h1>Booking Run Report</h1>\n")
	b.WriteString(fmt.Sprintf("<p>Generated %s</p>\n",
		html.EscapeString(time.Now().UTC().Format(time.RFC1123))))

	writeSummary(&b, run)
	writeSteps(&b, run.Steps)

	b.WriteString("</body>\n</html>\n")
	return b.String()
}

func writeSummary(b *strings.Builder, run Run) {
	o := run.Outcome

	status := `<span class="fail">NOT BOOKED</span>`
	if o.Booked {
		status = `<span class="ok">BOOKED</span>`
		if o.DryRun {
			status = `<span class="ok">DRY RUN OK</span>`
		}
	}

	b.WriteString("<h2>Summary</h2>\n<table>\n")
	fmt.Fprintf(b, "<tr><th>Status</th><td>%s</td></tr>\n", status)
	fmt.Fprintf(b, "<tr><th>Date</th><td>%s</td></tr>\n", html.EscapeString(o.Date))
	if o.SlotTime != "" {
		fmt.Fprintf(b, "<tr><th>Slot</th><td>%s</td></tr>\n", html.EscapeString(o.SlotTime))
	}
	fmt.Fprintf(b, "<tr><th>Attempts</th><td>%d</td></tr>\n", o.Attempts)
	fmt.Fprintf(b, "<tr><th>Dry run</th><td>%t</td></tr>\n", o.DryRun)
	if o.Simulated {
		b.WriteString("<tr><th>Simulated</th><td>true</td></tr>\n")
	}
	if run.Error != nil {
		fmt.Fprintf(b, "<tr><th>Error</th><td>%s</td></tr>\n", html.EscapeString(run.Error.Error()))
	}
	b.WriteString("</table>\n")
}

func writeSteps(b *strings.Builder, steps []artifacts.Step) {
	if len(steps) == 0 {
		return
	}

	b.WriteString("<h2>Steps</h2>\n<table>\n")
	b.WriteString("<tr><th>#</th><th>Step</th><th>Detail</th><th>At</th></tr>\n")
	for _, s := range steps {
		fmt.Fprintf(b, "<tr><td>%d</td><td>%s</td><td>%s</td><td>%s</td></tr>\n",
			s.Seq,
			html.EscapeString(s.Name),
			html.EscapeString(s.Detail),
			html.EscapeString(s.At))
	}
	b.WriteString("</table>\n")
}

// Write renders the run and saves it as report.html in dir.
func Write(run Run, dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("no report directory")
	}
	path := filepath.Join(dir, "report.html")
	if err := os.WriteFile(path, []byte(Generate(run)), 0644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}
