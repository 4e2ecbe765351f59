package nl

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"vfsbot/lib/browser"
	"vfsbot/lib/browser/browsertest"
	"vfsbot/lib/telemetry"
	"vfsbot/lib/vfs"
)

func TestRegistered(t *testing.T) {
	telemetry.SetupForTesting("test:vfs-nl")

	identity, err := vfs.NewIdentity("ie", "nl")
	require.NoError(t, err)
	adapter, err := vfs.NewAdapter(identity)
	require.NoError(t, err)
	require.Equal(t, "NL", adapter.Destination())
	require.Equal(t,
		[]string{"visa_center", "visa_category", "visa_sub_category"},
		adapter.ParamKeys())
}

func TestPreLogin(t *testing.T) {
	telemetry.SetupForTesting("test:vfs-nl")
	ctx := context.Background()

	// fresh profile, banner shown
	{
		page := &browsertest.FakePage{
			Buttons: map[string]bool{"Accept Only Necessary": true},
		}
		err := Adapter{}.PreLogin(ctx, page)
		require.NoError(t, err)
		require.Equal(t, []string{"try-click-button:Accept Only Necessary"}, page.Actions)
	}

	// consent already stored, no banner
	{
		page := &browsertest.FakePage{}
		err := Adapter{}.PreLogin(ctx, page)
		require.NoError(t, err)
	}
}

func TestLogin(t *testing.T) {
	telemetry.SetupForTesting("test:vfs-nl")
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
		"wait:#email",
		"wait:#password",
		"sleep:1s",
		"fill:#email=bot@example.com",
		"sleep:500ms",
		"fill:#password=hunter2",
		"sleep:1s",
		"click-button:Sign In",
		"wait:role=button >> text=Start New Booking",
	}, page.Actions)
}

func TestLoginRejected(t *testing.T) {
	telemetry.SetupForTesting("test:vfs-nl")
	ctx := context.Background()

	// the portal leaves the form on screen after bad credentials, the
	// dashboard marker never shows up
	page := &browsertest.FakePage{
		Visible: map[string]bool{
			emailInput:    true,
			passwordInput: true,
		},
	}
	err := Adapter{}.Login(ctx, page, vfs.Credentials{
		Email:    "bot@example.com",
		Password: "wrong",
	})
	require.ErrorContains(t, err, "the booking dashboard never appeared")
	require.ErrorIs(t, err, browser.ErrTimeout)
}

func TestCheckAppointments(t *testing.T) {
	telemetry.SetupForTesting("test:vfs-nl")
	ctx := context.Background()

	const calendar = `<html><body><div class="calendar"><table><tbody>
	<tr>
		<td class="date-unavailable"><span>13/05/2024</span></td>
		<td class="date-available"><span>14/05/2024</span></td>
	</tr>
	<tr>
		<td class="date-available"><span>21/05/2024</span></td>
		<td class="date-unavailable"><span>22/05/2024</span></td>
	</tr>
	</tbody></table></div></body></html>`

	query := vfs.Query{
		"visa_center":       "Dublin",
		"visa_category":     "Short Stay",
		"visa_sub_category": "Tourism",
	}

	page := &browsertest.FakePage{
		Visible: map[string]bool{availableDates: true},
		HTML:    calendar,
	}
	dates, err := Adapter{}.CheckAppointments(ctx, page, query)
	require.NoError(t, err)
	require.Equal(t, []string{"14/05/2024", "21/05/2024"}, dates)
	require.Equal(t, []string{
		"click-button:Start New Booking",
		"select:Visa Application Centre=Dublin",
		"select:Visa Category=Short Stay",
		"select:Visa Sub Category=Tourism",
		"click-button:Continue",
		"wait:.date-available",
		"content",
	}, page.Actions)
}

func TestCheckAppointmentsNoSlots(t *testing.T) {
	telemetry.SetupForTesting("test:vfs-nl")
	ctx := context.Background()

	// the calendar only renders when something is bookable, a timeout
	// waiting for it is the "no slots" answer
	page := &browsertest.FakePage{}
	dates, err := Adapter{}.CheckAppointments(ctx, page, vfs.Query{
		"visa_center":       "Dublin",
		"visa_category":     "Short Stay",
		"visa_sub_category": "Tourism",
	})
	require.NoError(t, err)
	require.Nil(t, dates)
}

func TestCheckAppointmentsWizardBroken(t *testing.T) {
	telemetry.SetupForTesting("test:vfs-nl")
	ctx := context.Background()

	page := &browsertest.FakePage{
		Fail: map[string]error{
			"select:Visa Category=Short Stay": errors.New("no option matched"),
		},
	}
	_, err := Adapter{}.CheckAppointments(ctx, page, vfs.Query{
		"visa_center":       "Dublin",
		"visa_category":     "Short Stay",
		"visa_sub_category": "Tourism",
	})
	require.ErrorContains(t, err, "select Visa Category")
}
