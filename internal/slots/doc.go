// Package slots discovers bookable tee-time slots on a rendered club page.
//
// The club's markup carries no stable selectors and changes between the tee
// sheet and the booking view, so discovery is multi-strategy: the scanner
// detects which view it is looking at from the URL, then tries an ordered
// list of extraction strategies until one yields candidates. Each candidate
// carries the display time, its parsed minutes-since-midnight value, and a
// CSS selector handle that the booking executor resolves against the live
// page. Handles are tied to the snapshot they came from and become invalid
// once the page navigates.
package slots
