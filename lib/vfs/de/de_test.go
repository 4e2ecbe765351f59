package de

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"vfsbot/lib/browser/browsertest"
	"vfsbot/lib/telemetry"
	"vfsbot/lib/vfs"
)

func TestRegistered(t *testing.T) {
	telemetry.SetupForTesting("test:vfs-de")

	identity, err := vfs.NewIdentity("ie", "de")
	require.NoError(t, err)
	adapter, err := vfs.NewAdapter(identity)
	require.NoError(t, err)
	require.Equal(t, "DE", adapter.Destination())
	require.Equal(t,
		[]string{"visa_center", "visa_category", "visa_sub_category"},
		adapter.ParamKeys())
}

func TestPreLogin(t *testing.T) {
	telemetry.SetupForTesting("test:vfs-de")
	ctx := context.Background()

	page := &browsertest.FakePage{
		Buttons: map[string]bool{"Reject All": true},
	}
	err := Adapter{}.PreLogin(ctx, page)
	require.NoError(t, err)
	require.Equal(t, []string{"try-click-button:Reject All"}, page.Actions)
}

func TestLogin(t *testing.T) {
	telemetry.SetupForTesting("test:vfs-de")
	ctx := context.Background()

	page := &browsertest.FakePage{
		Visible: map[string]bool{
			emailInput:     true,
			passwordInput:  true,
			loggedInMarker: true,
		},
	}
	err := Adapter{}.Login(ctx, page, vfs.Credentials{
		Email:    "bot@example.com",
		Password: "hunter2",
	})
	require.NoError(t, err)
	require.Equal(t, []string{
		"wait:#mat-input-0",
		"wait:#mat-input-1",
		"fill:#mat-input-0=bot@example.com",
		"fill:#mat-input-1=hunter2",
		"click-button:Sign In",
		"wait:role=button >> text=Start New Booking",
	}, page.Actions)
}

func TestCheckAppointments(t *testing.T) {
	telemetry.SetupForTesting("test:vfs-de")
	ctx := context.Background()

	query := vfs.Query{
		"visa_center":       "Dublin",
		"visa_category":     "Short Stay",
		"visa_sub_category": "Tourism",
	}

	page := &browsertest.FakePage{
		Texts: map[string]string{
			resultPanel: "Earliest available slot: 15/09/2024",
		},
	}
	dates, err := Adapter{}.CheckAppointments(ctx, page, query)
	require.NoError(t, err)
	require.Len(t, dates, 1)
	require.Regexp(t,
		`^Earliest available slot: 15/09/2024 at \d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`,
		dates[0])
	require.Equal(t, []string{
		"click-button:Start New Booking",
		"click://mat-form-field/div/div/div[3]",
		"click://mat-option[starts-with(@id,'mat-option-')]/span[contains(text(), 'Dublin')]",
		"click://div[@id='mat-select-value-3']",
		"click://mat-option[starts-with(@id,'mat-option-')]/span[contains(text(), 'Short Stay')]",
		"click://div[@id='mat-select-value-5']",
		"click://mat-option[starts-with(@id,'mat-option-')]/span[contains(text(), 'Tourism')]",
		"text://div[4]/div",
	}, page.Actions)
}

func TestCheckAppointmentsNoSlots(t *testing.T) {
	telemetry.SetupForTesting("test:vfs-de")
	ctx := context.Background()

	query := vfs.Query{
		"visa_center":       "Dublin",
		"visa_category":     "Short Stay",
		"visa_sub_category": "Tourism",
	}

	// plain no-slots phrasing, with the layout noise the panel carries
	{
		page := &browsertest.FakePage{
			Texts: map[string]string{
				resultPanel: "  No appointment slots\nare currently available  ",
			},
		}
		dates, err := Adapter{}.CheckAppointments(ctx, page, query)
		require.NoError(t, err)
		require.Nil(t, dates)
	}

	// waitlist phrasing
	{
		page := &browsertest.FakePage{
			Texts: map[string]string{
				resultPanel: "Currently No slots are available for selected category, please confirm waitlist\nTerms and Conditions",
			},
		}
		dates, err := Adapter{}.CheckAppointments(ctx, page, query)
		require.NoError(t, err)
		require.Nil(t, dates)
	}

	// empty panel
	{
		page := &browsertest.FakePage{
			Texts: map[string]string{resultPanel: "   "},
		}
		dates, err := Adapter{}.CheckAppointments(ctx, page, query)
		require.NoError(t, err)
		require.Nil(t, dates)
	}
}

func TestCheckAppointmentsPanelMissing(t *testing.T) {
	telemetry.SetupForTesting("test:vfs-de")
	ctx := context.Background()

	// unlike a missing calendar, a missing availability panel means the
	// wizard broke somewhere, so the check must fail loudly
	page := &browsertest.FakePage{}
	_, err := Adapter{}.CheckAppointments(ctx, page, vfs.Query{
		"visa_center":       "Dublin",
		"visa_category":     "Short Stay",
		"visa_sub_category": "Tourism",
	})
	require.ErrorContains(t, err, "read the availability panel")
}
