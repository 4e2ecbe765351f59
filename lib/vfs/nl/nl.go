// Package nl checks appointment availability on the Netherlands VFS portal.
package nl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"

	"vfsbot/lib/browser"
	"vfsbot/lib/dateutil"
	"vfsbot/lib/htmlutil"
	"vfsbot/lib/telemetry"
	"vfsbot/lib/vfs"
)

var tracer = telemetry.Tracer("vfsbot.lib.vfs.nl")

func init() {
	vfs.Register("NL", func(identity vfs.Identity) vfs.SiteAdapter {
		return Adapter{}
	})
}

const (
	emailInput     = "#email"
	passwordInput  = "#password"
	loggedInMarker = "role=button >> text=Start New Booking"
	availableDates = ".date-available"

	// The login form is rendered client-side well after the anti-bot
	// challenge clears, so it gets a generous timeout of its own.
	formTimeout   = time.Second * 30
	cookieTimeout = time.Second * 10
)

// Adapter drives the NL portal. The portal is an Angular application:
// every step below waits for the relevant widget to render before
// touching it.
type Adapter struct{}

var _ vfs.SiteAdapter = Adapter{}
var _ vfs.ParamHinter = Adapter{}

func (Adapter) Destination() string { return "NL" }

func (Adapter) ParamKeys() []string {
	return []string{"visa_center", "visa_category", "visa_sub_category"}
}

// ParamHints lists portal dropdown values seen in the wild, used to
// snap free-form user input onto the exact option the portal expects.
func (Adapter) ParamHints() map[string][]string {
	return map[string][]string{
		"visa_center":   {"Dublin"},
		"visa_category": {"Short Stay", "Long Stay (MVV)"},
	}
}

// PreLogin dismisses the cookie consent banner if it is shown. The
// banner only appears on a fresh browser profile, so a missing banner
// is not an error.
func (Adapter) PreLogin(ctx context.Context, page browser.Page) error {
	ctx, span := tracer.Start(ctx, "nl:PreLogin")
	defer span.End()

	clicked, err := page.TryClickButton(ctx, "Accept Only Necessary", cookieTimeout)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to dismiss the cookie banner")
		return err
	}
	if clicked {
		slog.DebugContext(ctx, "rejected optional cookies")
	}
	return nil
}

// Login fills the credential form and waits for the booking dashboard.
// The fills are paced out because the portal scores input timing as
// part of its bot detection.
func (a Adapter) Login(ctx context.Context, page browser.Page, credentials vfs.Credentials) error {
	ctx, span := tracer.Start(ctx, "nl:Login")
	defer span.End()

	err := page.WaitVisible(ctx, emailInput, formTimeout)
	if err == nil {
		err = page.WaitVisible(ctx, passwordInput, formTimeout)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login form never rendered")
		return fmt.Errorf("login form never rendered: %w", err)
	}

	page.Sleep(ctx, time.Second)
	if err := page.Fill(ctx, emailInput, credentials.Email); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fill the login form")
		return err
	}
	page.Sleep(ctx, time.Millisecond*500)
	if err := page.Fill(ctx, passwordInput, credentials.Password); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fill the login form")
		return err
	}
	page.Sleep(ctx, time.Second)
	if err := page.ClickButton(ctx, "Sign In"); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit the login form")
		return err
	}

	// The portal accepts bad credentials silently and just leaves the
	// form on screen, so the dashboard is the only reliable signal.
	err = page.WaitVisible(ctx, loggedInMarker, formTimeout)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "the booking dashboard never appeared")
		return fmt.Errorf("the booking dashboard never appeared: %w", err)
	}
	return nil
}

// CheckAppointments walks the booking wizard with the given query and
// scrapes the calendar. A calendar that never renders means the portal
// has no open slots for the selection, not a broken flow.
func (a Adapter) CheckAppointments(ctx context.Context, page browser.Page, query vfs.Query) ([]string, error) {
	ctx, span := tracer.Start(ctx, "nl:CheckAppointments")
	defer span.End()

	err := page.ClickButton(ctx, "Start New Booking")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open the booking wizard")
		return nil, err
	}

	selections := []struct {
		label string
		key   string
	}{
		{"Visa Application Centre", "visa_center"},
		{"Visa Category", "visa_category"},
		{"Visa Sub Category", "visa_sub_category"},
	}
	for _, selection := range selections {
		err := page.SelectByLabel(ctx, selection.label, query[selection.key])
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to fill the booking wizard")
			return nil, fmt.Errorf("select %s: %w", selection.label, err)
		}
	}

	err = page.ClickButton(ctx, "Continue")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit the booking wizard")
		return nil, err
	}

	err = page.WaitVisible(ctx, availableDates, formTimeout)
	if errors.Is(err, browser.ErrTimeout) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed waiting for the calendar")
		return nil, err
	}

	content, err := page.Content(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read the calendar")
		return nil, err
	}
	dates, err := scrapeCalendar(content)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse the calendar")
		return nil, err
	}
	return dates, nil
}

// scrapeCalendar pulls the dates out of the highlighted calendar cells.
// Cell text varies between plain day numbers and full dates depending
// on the calendar widget version, so everything goes through the date
// extractor and cells with no recognizable date are dropped.
func scrapeCalendar(content string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse portal page: %w", err)
	}

	var cells []string
	for _, cell := range doc.Find(availableDates).Nodes {
		text := htmlutil.CleanText(htmlutil.GetText(cell))
		if text != "" {
			cells = append(cells, text)
		}
	}
	return dateutil.ExtractDates(strings.Join(cells, "\n")), nil
}
