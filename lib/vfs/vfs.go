// Package vfs implements the appointment-acquisition workflow for VFS
// Global visa portals: clear the anti-bot interstitial, authenticate, query
// availability and fan the findings out over notification channels.
// Portal-specific DOM work lives behind SiteAdapter, one implementation per
// destination country.
package vfs

import (
	"fmt"
	"strings"
	"vfsbot/lib/telemetry"
)

var tracer = telemetry.Tracer("vfsbot.lib.vfs")

// Identity names one workflow: the country appointments are booked from and
// the destination country the visa is for.
type Identity struct {
	Source      string
	Destination string
}

func NewIdentity(source, destination string) (Identity, error) {
	if source == "" || destination == "" {
		return Identity{}, fmt.Errorf("both a source and a destination country code are required")
	}
	return Identity{
		Source:      strings.ToUpper(source),
		Destination: strings.ToUpper(destination),
	}, nil
}

// Key returns the configuration lookup key, e.g. "IE-NL".
func (id Identity) Key() string {
	return id.Source + "-" + id.Destination
}

// Credentials authenticate against a portal. Log statements may mention the
// email, never the password.
type Credentials struct {
	Email    string
	Password string
}

// Query holds the appointment search criteria keyed by the adapter's
// parameter keys. Read-only once collected.
type Query map[string]string

// Outcome classifies how a run's appointment check concluded.
type Outcome string

const (
	OutcomeFound       Outcome = "found"
	OutcomeNoSlots     Outcome = "no_slots"
	OutcomeCheckFailed Outcome = "check_failed"
)

// FormatMessage renders the notification text for found appointments. Query
// values appear in the adapter's declared key order.
func FormatMessage(keys []string, query Query, dates []string) string {
	values := make([]string, 0, len(keys))
	for _, k := range keys {
		values = append(values, query[k])
	}
	return fmt.Sprintf(
		"Found appointment(s) for %s on %s",
		strings.Join(values, ", "),
		strings.Join(dates, ", "),
	)
}
