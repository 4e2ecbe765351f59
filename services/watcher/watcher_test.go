package watcher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vfsbot/lib/telemetry"
	"vfsbot/lib/vfs"
)

type fakeRunner struct {
	result vfs.Result
	err    error

	mu    sync.Mutex
	calls int
	query map[string]string
}

func (r *fakeRunner) Execute(ctx context.Context, provided map[string]string) (vfs.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.query = provided
	return r.result, r.err
}

func (r *fakeRunner) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *fakeRunner) Query() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.query
}

func TestTickOutcomes(t *testing.T) {
	telemetry.SetupForTesting("test:watcher")
	ctx := context.Background()

	// nothing found
	{
		runner := &fakeRunner{result: vfs.Result{Outcome: vfs.OutcomeNoSlots}}
		service, err := NewService(runner, Options{Identity: "IE-NL"})
		require.NoError(t, err)

		service.tick(ctx)
		report := service.status.Report()
		require.Equal(t, 1, report.Ticks)
		require.Equal(t, "no_slots", report.LastTick.Outcome)
	}

	// appointments found
	{
		runner := &fakeRunner{result: vfs.Result{
			RunID:   "run-1",
			Found:   true,
			Dates:   []string{"2024-05-01"},
			Outcome: vfs.OutcomeFound,
		}}
		service, err := NewService(runner, Options{Identity: "IE-NL"})
		require.NoError(t, err)

		service.tick(ctx)
		report := service.status.Report()
		require.Equal(t, "found", report.LastTick.Outcome)
		require.Equal(t, "run-1", report.LastTick.RunID)
		require.Equal(t, []string{"2024-05-01"}, report.LastTick.Dates)
	}

	// a failing run is recorded, never fatal to the watcher
	{
		runner := &fakeRunner{err: errors.New("login failed: bad credentials")}
		service, err := NewService(runner, Options{Identity: "IE-NL"})
		require.NoError(t, err)

		service.tick(ctx)
		report := service.status.Report()
		require.Equal(t, 1, report.Ticks)
		require.Equal(t, "failed", report.LastTick.Outcome)
		require.Contains(t, report.LastTick.Error, "login failed")
	}
}

func TestPreflight(t *testing.T) {
	telemetry.SetupForTesting("test:watcher")
	ctx := context.Background()

	// anything below 500 proves the portal is up, even the anti-bot
	// interstitial's 403
	{
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		probe, err := newPreflightProbe(server.URL)
		require.NoError(t, err)
		require.True(t, probe.Check(ctx))
	}

	// origin failures do not
	{
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		probe, err := newPreflightProbe(server.URL)
		require.NoError(t, err)
		require.False(t, probe.Check(ctx))
	}

	// neither does a dead socket
	{
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		probe, err := newPreflightProbe(server.URL)
		require.NoError(t, err)
		require.False(t, probe.Check(ctx))
	}

	// no url, no probe
	{
		probe, err := newPreflightProbe("")
		require.NoError(t, err)
		require.Nil(t, probe)
	}
}

func TestTickSkipsUnreachablePortal(t *testing.T) {
	telemetry.SetupForTesting("test:watcher")
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	runner := &fakeRunner{}
	service, err := NewService(runner, Options{
		Identity: "IE-NL",
		URL:      server.URL,
	})
	require.NoError(t, err)

	service.tick(ctx)
	require.Equal(t, 0, runner.Calls())
	report := service.status.Report()
	require.Equal(t, 1, report.Ticks)
	require.Equal(t, "skipped_unreachable", report.LastTick.Outcome)
}

func TestStartImmediate(t *testing.T) {
	telemetry.SetupForTesting("test:watcher")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := &fakeRunner{result: vfs.Result{Outcome: vfs.OutcomeNoSlots}}
	service, err := NewService(runner, Options{
		Identity:  "IE-NL",
		Query:     map[string]string{"visa_center": "Dublin"},
		Interval:  time.Hour,
		Immediate: true,
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- service.Start(ctx) }()

	require.Eventually(t, func() bool {
		return service.status.Report().Ticks == 1
	}, time.Second*5, time.Millisecond*10)
	require.Equal(t, map[string]string{"visa_center": "Dublin"}, runner.Query())

	cancel()
	require.NoError(t, <-done)
}

func TestStartInterval(t *testing.T) {
	telemetry.SetupForTesting("test:watcher")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := &fakeRunner{result: vfs.Result{Outcome: vfs.OutcomeNoSlots}}
	service, err := NewService(runner, Options{
		Identity: "IE-NL",
		Interval: time.Millisecond * 20,
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- service.Start(ctx) }()

	require.Eventually(t, func() bool {
		return runner.Calls() >= 2
	}, time.Second*5, time.Millisecond*10)

	cancel()
	require.NoError(t, <-done)
}

func TestStartCron(t *testing.T) {
	telemetry.SetupForTesting("test:watcher")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := &fakeRunner{result: vfs.Result{Outcome: vfs.OutcomeNoSlots}}
	service, err := NewService(runner, Options{
		Identity: "IE-NL",
		CronSpec: "@every 1s",
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- service.Start(ctx) }()

	require.Eventually(t, func() bool {
		return runner.Calls() >= 1
	}, time.Second*5, time.Millisecond*50)

	cancel()
	require.NoError(t, <-done)
}

func TestStartCronInvalidSpec(t *testing.T) {
	telemetry.SetupForTesting("test:watcher")

	runner := &fakeRunner{}
	service, err := NewService(runner, Options{
		Identity: "IE-NL",
		CronSpec: "not a schedule",
	})
	require.NoError(t, err)

	err = service.Start(context.Background())
	require.ErrorContains(t, err, "parse cron spec")
}

func TestStatusEndpoints(t *testing.T) {
	telemetry.SetupForTesting("test:watcher")

	runner := &fakeRunner{}
	service, err := NewService(runner, Options{Identity: "IE-NL"})
	require.NoError(t, err)
	service.status.Record(TickStatus{
		Time:    time.Now(),
		Outcome: "found",
		Dates:   []string{"2024-05-01"},
	})

	server := httptest.NewServer(service.statusHandler())
	defer server.Close()

	res, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Get(server.URL + "/status")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var report statusReport
	require.NoError(t, json.NewDecoder(res.Body).Decode(&report))
	require.Equal(t, "IE-NL", report.Identity)
	require.Equal(t, 1, report.Ticks)
	require.Equal(t, "found", report.LastTick.Outcome)
	require.Equal(t, []string{"2024-05-01"}, report.LastTick.Dates)
}
