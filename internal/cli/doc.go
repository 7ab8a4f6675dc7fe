// Package cli implements the command-line interface for teatime.
//
// The cli package provides the Cobra-based CLI for running bookings, listing
// bookable dates, inspecting page structure, pruning run artifacts, and
// managing stored credentials and run history. It wires together the
// browser, auth, navigate, slots, and booking packages into complete runs.
package cli
