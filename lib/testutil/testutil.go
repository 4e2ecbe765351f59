package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"testing"
	"vfsbot/lib/runstore"
	"vfsbot/lib/telemetry"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type ServiceParams struct {
	Name string
	// if true, opens a :memory: run-history db with the schema applied
	WithHistory bool
}

type ServiceResult struct {
	DB *sql.DB
}

func SetupService(t testing.TB, params ServiceParams) (ServiceResult, func()) {
	cleanup := telemetry.SetupForTesting(fmt.Sprintf("test:%s", params.Name))

	var res ServiceResult
	if params.WithHistory {
		db, err := runstore.OpenDB(":memory:")
		if err != nil {
			t.Fatal(err)
		}
		res.DB = db
	}

	return res, cleanup
}

// fake-smtp-server endpoints, the http side serves received messages
const (
	SmtpHost    = "localhost"
	SmtpPort    = 1025
	SmtpHttpUrl = "http://127.0.0.1:1080"
)

// StartFakeSmtp runs a throwaway smtp server in a container. Messages it
// receives can be read back over http, e.g. GET /messages/1.plain.
func StartFakeSmtp(t testing.TB) func() {
	// suppress logging
	testcontainers.Logger = log.New(io.Discard, "", 0)

	smtp, err := testcontainers.GenericContainer(
		context.Background(),
		testcontainers.GenericContainerRequest{
			Started: true,
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "haravich/fake-smtp-server",
				ExposedPorts: []string{"1025:1025", "1080:1080"},
				WaitingFor:   wait.ForLog("smtp://0.0.0.0:1025"),
			},
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	return func() {
		err := smtp.Terminate(context.Background())
		if err != nil {
			t.Fatal(err)
		}
	}
}
