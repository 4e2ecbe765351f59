package vfs

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"vfsbot/lib/browser"
)

// SiteAdapter implements the portal-specific DOM work for one destination
// country. Adapters are stateless, all run state lives on the page.
type SiteAdapter interface {
	// Destination returns the ISO country code this adapter serves.
	Destination() string
	// ParamKeys lists the appointment search criteria in the order they
	// are collected and submitted.
	ParamKeys() []string
	// PreLogin clears whatever stands between the landing page and the
	// login form, consent banners mostly.
	PreLogin(ctx context.Context, page browser.Page) error
	// Login authenticates. Returning nil means the session is usable.
	Login(ctx context.Context, page browser.Page, creds Credentials) error
	// CheckAppointments runs one availability search and returns the
	// open dates, empty when there are none.
	CheckAppointments(ctx context.Context, page browser.Page, query Query) ([]string, error)
}

// ParamHinter is implemented by adapters that know the portal's canonical
// values for some parameters. The collector snaps near-miss input onto
// these.
type ParamHinter interface {
	ParamHints() map[string][]string
}

var (
	registryMu sync.RWMutex
	registry   = map[string]func(Identity) SiteAdapter{}
)

// Register makes an adapter constructor available under a destination
// country code. Adapter packages call this from init.
func Register(destination string, build func(Identity) SiteAdapter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToUpper(destination)] = build
}

// NewAdapter resolves the adapter for an identity's destination country.
func NewAdapter(identity Identity) (SiteAdapter, error) {
	registryMu.RLock()
	build, ok := registry[identity.Destination]
	registryMu.RUnlock()
	if !ok {
		return nil, &UnsupportedCountryError{Country: identity.Destination}
	}
	return build(identity), nil
}

// Supported lists the destination country codes with registered adapters.
func Supported() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	codes := make([]string, 0, len(registry))
	for c := range registry {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

type UnsupportedCountryError struct {
	Country string
}

func (e *UnsupportedCountryError) Error() string {
	return fmt.Sprintf("no adapter for destination country %q", e.Country)
}
