// Package de checks appointment availability on the Germany VFS portal.
package de

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/codes"

	"vfsbot/lib/browser"
	"vfsbot/lib/telemetry"
	"vfsbot/lib/textutil"
	"vfsbot/lib/vfs"
)

var tracer = telemetry.Tracer("vfsbot.lib.vfs.de")

func init() {
	vfs.Register("DE", func(identity vfs.Identity) vfs.SiteAdapter {
		return Adapter{}
	})
}

const (
	emailInput     = "#mat-input-0"
	passwordInput  = "#mat-input-1"
	loggedInMarker = "role=button >> text=Start New Booking"

	// The DE portal is an Angular Material app with generated element
	// ids. The booking dropdowns expose no labels or stable ids, so
	// they are located by position instead.
	centreDropdown      = "//mat-form-field/div/div/div[3]"
	categoryDropdown    = "//div[@id='mat-select-value-3']"
	subCategoryDropdown = "//div[@id='mat-select-value-5']"
	optionPattern       = "//mat-option[starts-with(@id,'mat-option-')]/span[contains(text(), '%s')]"
	resultPanel         = "//div[4]/div"

	formTimeout   = time.Second * 30
	cookieTimeout = time.Second * 10
)

// noSlotSentinels are the availability panel texts that mean nothing is
// bookable, normalized for containment matching. The portal words this
// differently depending on whether the category runs a waitlist.
var noSlotSentinels = []string{
	textutil.NormalizeName("No appointment slots are currently available"),
	textutil.NormalizeName("Currently No slots are available for selected category, please confirm waitlist\nTerms and Conditions"),
}

// Adapter drives the DE portal.
type Adapter struct{}

var _ vfs.SiteAdapter = Adapter{}

func (Adapter) Destination() string { return "DE" }

func (Adapter) ParamKeys() []string {
	return []string{"visa_center", "visa_category", "visa_sub_category"}
}

// PreLogin dismisses the cookie consent banner if it is shown.
func (Adapter) PreLogin(ctx context.Context, page browser.Page) error {
	ctx, span := tracer.Start(ctx, "de:PreLogin")
	defer span.End()

	clicked, err := page.TryClickButton(ctx, "Reject All", cookieTimeout)
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
func (a Adapter) Login(ctx context.Context, page browser.Page, credentials vfs.Credentials) error {
	ctx, span := tracer.Start(ctx, "de:Login")
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

	if err := page.Fill(ctx, emailInput, credentials.Email); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fill the login form")
		return err
	}
	if err := page.Fill(ctx, passwordInput, credentials.Password); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fill the login form")
		return err
	}
	if err := page.ClickButton(ctx, "Sign In"); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit the login form")
		return err
	}

	err = page.WaitVisible(ctx, loggedInMarker, formTimeout)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "the booking dashboard never appeared")
		return fmt.Errorf("the booking dashboard never appeared: %w", err)
	}
	return nil
}

// CheckAppointments walks the booking dropdowns with the given query and
// reads the availability panel. The panel always renders, when it cannot
// be read the flow is broken and the check fails.
func (a Adapter) CheckAppointments(ctx context.Context, page browser.Page, query vfs.Query) ([]string, error) {
	ctx, span := tracer.Start(ctx, "de:CheckAppointments")
	defer span.End()

	err := page.ClickButton(ctx, "Start New Booking")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open the booking wizard")
		return nil, err
	}

	dropdowns := []struct {
		selector string
		key      string
	}{
		{centreDropdown, "visa_center"},
		{categoryDropdown, "visa_category"},
		{subCategoryDropdown, "visa_sub_category"},
	}
	for _, dropdown := range dropdowns {
		label := textutil.Humanize(dropdown.key)
		if err := page.Click(ctx, dropdown.selector); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to fill the booking wizard")
			return nil, fmt.Errorf("open the %s dropdown: %w", label, err)
		}
		option := fmt.Sprintf(optionPattern, query[dropdown.key])
		if err := page.Click(ctx, option); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to fill the booking wizard")
			return nil, fmt.Errorf("pick the %s option: %w", label, err)
		}
	}

	text, err := page.InnerText(ctx, resultPanel)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read the availability panel")
		return nil, fmt.Errorf("read the availability panel: %w", err)
	}
	// the panel wraps its prose across lines, collapse it for matching
	// and for the notification text
	text = strings.Join(strings.Fields(text), " ")
	if text == "" || textutil.MatchName(text, noSlotSentinels) {
		return nil, nil
	}

	// The panel reports availability as prose rather than a calendar, so
	// the panel text itself is the finding, stamped with when it was seen.
	stamp := time.Now().Format("2006-01-02 15:04:05")
	return []string{fmt.Sprintf("%s at %s", text, stamp)}, nil
}
