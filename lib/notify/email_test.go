package notify

import (
	"context"
	"testing"
	"vfsbot/lib/testutil"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestEmailSend(t *testing.T) {
	if testing.Short() {
		t.Skip("needs docker")
	}

	_, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name: "lib/notify",
	})
	defer cleanup()
	stopSmtp := testutil.StartFakeSmtp(t)
	defer stopSmtp()

	client := NewEmailClient(EmailConfig{
		Server:   testutil.SmtpHost,
		Port:     testutil.SmtpPort,
		Address:  "bot@example.com",
		Password: "default",
		To:       "alice@example.com",
	})

	err := client.Send(context.Background(), "Found appointment(s) for Dublin on 2024-05-01")
	if err != nil {
		t.Fatal(err)
	}

	res, err := resty.New().R().
		Get(testutil.SmtpHttpUrl + "/messages/1.plain")
	if err != nil {
		t.Fatal(err)
	}
	require.Contains(t, res.String(), "Found appointment(s) for Dublin on 2024-05-01")
}
