package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrTimeout reports that an operation gave up waiting for the page.
// Adapters can treat a missing element as an answer instead of a failure.
var ErrTimeout = errors.New("timed out waiting for the page")

type Engine string

const (
	EngineChromium Engine = "chromium"
	EngineFirefox  Engine = "firefox"
	EngineWebkit   Engine = "webkit"
)

// Options describes how to launch a browser for a run.
type Options struct {
	Engine   Engine
	Headless bool
}

// Config is the `browser` block of config.json5.
type Config struct {
	Type     string `json:"type"`
	Headless *bool  `json:"headless"`
}

// Options resolves the config block to launch options. The zero Config
// means a headless firefox.
func (c Config) Options() (Options, error) {
	opts := Options{
		Engine:   EngineFirefox,
		Headless: true,
	}
	switch Engine(strings.ToLower(c.Type)) {
	case EngineChromium:
		opts.Engine = EngineChromium
	case EngineWebkit:
		opts.Engine = EngineWebkit
	case EngineFirefox, "":
	default:
		return opts, fmt.Errorf("unknown browser type: %q", c.Type)
	}
	if c.Headless != nil {
		opts.Headless = *c.Headless
	}
	return opts, nil
}

// Page is the surface adapters drive a portal through. Implementations wait
// for elements themselves; every operation is bounded by its own timeout and
// reports failure through the returned error.
type Page interface {
	// Goto navigates and waits for the load event.
	Goto(ctx context.Context, url string) error
	// WaitVisible blocks until the selector matches a visible element.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Click(ctx context.Context, selector string) error
	// ClickButton clicks a button located by its accessible name.
	ClickButton(ctx context.Context, name string) error
	// TryClickButton clicks a button by accessible name if it shows up
	// within the timeout. A button that never appears is not an error,
	// the return reports whether a click happened.
	TryClickButton(ctx context.Context, name string, timeout time.Duration) (bool, error)
	Fill(ctx context.Context, selector string, value string) error
	// SelectByLabel picks an option of the <select> associated with a
	// form label.
	SelectByLabel(ctx context.Context, label string, value string) error
	InnerText(ctx context.Context, selector string) (string, error)
	// Content returns the full serialized html of the page.
	Content(ctx context.Context) (string, error)
	// Sleep pauses for the given duration or until ctx is cancelled.
	Sleep(ctx context.Context, d time.Duration)
}

// Session owns one launched browser and one page. Close releases
// everything and may be called more than once.
type Session interface {
	Page() Page
	Close() error
}

type Launcher interface {
	Launch(ctx context.Context, opts Options) (Session, error)
}

// ButtonSelector builds a selector locating a button by accessible name,
// the way portals label their actionable controls.
func ButtonSelector(name string) string {
	return fmt.Sprintf("role=button[name=%q]", name)
}
