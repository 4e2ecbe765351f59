package vfs

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"
	"vfsbot/lib/browser"
	"vfsbot/lib/notify"
	"vfsbot/lib/runstore"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// challengeMarker is an element the portal application renders once the
// anti-bot interstitial has let it through.
const challengeMarker = "div[appcloudflarerecaptcha]"

const (
	DefaultChallengeTimeout = time.Minute * 5
	DefaultSettleDelay      = time.Second * 5
)

const loginRemediation = "Please verify your username and password by logging in to the browser and try again."

type BotOptions struct {
	// Launcher acquires browser sessions. Defaults to playwright.
	Launcher browser.Launcher
	Browser  browser.Options
	// URLs maps identity keys ("IE-NL") to portal urls.
	URLs        map[string]string
	Credentials Credentials
	// Collector fills in appointment parameters the caller did not
	// provide. Defaults to prompting on stdin, with the adapter's
	// parameter hints when it declares any.
	Collector  *Collector
	Dispatcher notify.Dispatcher
	// Store records run history when set.
	Store *runstore.Store
	// ChallengeTimeout bounds the wait for the anti-bot interstitial to
	// clear. Defaults to DefaultChallengeTimeout.
	ChallengeTimeout time.Duration
	// SettleDelay is the pause after page transitions that the portals
	// need to finish rendering. Defaults to DefaultSettleDelay.
	SettleDelay time.Duration
	// NotifyOnlyNew suppresses the notification when the found dates
	// match the previous found run. Needs Store.
	NotifyOnlyNew bool
}

// Bot drives the appointment-acquisition workflow for one identity: clear
// the challenge, log in, check availability, notify, tear down.
type Bot struct {
	identity  Identity
	adapter   SiteAdapter
	collector Collector
	opts      BotOptions
}

func NewBot(identity Identity, adapter SiteAdapter, opts BotOptions) *Bot {
	if opts.Launcher == nil {
		opts.Launcher = browser.PlaywrightLauncher{}
	}
	if opts.ChallengeTimeout <= 0 {
		opts.ChallengeTimeout = DefaultChallengeTimeout
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}

	collector := Collector{Input: NewStdinInput()}
	if opts.Collector != nil {
		collector = *opts.Collector
	}
	if collector.Hints == nil {
		if hinter, ok := adapter.(ParamHinter); ok {
			collector.Hints = hinter.ParamHints()
		}
	}

	return &Bot{
		identity:  identity,
		adapter:   adapter,
		collector: collector,
		opts:      opts,
	}
}

// Result is the detailed account of one run.
type Result struct {
	RunID   string
	Found   bool
	Dates   []string
	Outcome Outcome
}

// Run executes the workflow once. The boolean is true iff at least one
// appointment date was found.
func (b *Bot) Run(ctx context.Context, provided map[string]string) (bool, error) {
	result, err := b.Execute(ctx, provided)
	return result.Found, err
}

// Execute is Run with the full account of what happened, for callers that
// report dates or keep history.
func (b *Bot) Execute(ctx context.Context, provided map[string]string) (Result, error) {
	runID, err := random.String(8)
	if err != nil {
		return Result{}, fmt.Errorf("generate run id: %w", err)
	}

	ctx, span := tracer.Start(ctx, "bot:Execute", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.String("identity", b.identity.Key()),
	))
	defer span.End()

	started := time.Now()
	result := Result{RunID: runID}

	slog.InfoContext(ctx, "starting appointment check",
		"identity", b.identity.Key(), "run_id", runID)

	url := b.opts.URLs[b.identity.Key()]
	if url == "" {
		err := &Error{
			Kind: KindConfig,
			Err:  fmt.Errorf("no portal url configured for %s", b.identity.Key()),
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "missing portal url")
		return result, err
	}
	if b.opts.Credentials.Email == "" || b.opts.Credentials.Password == "" {
		err := &Error{
			Kind: KindConfig,
			Err:  fmt.Errorf("vfs credentials are not configured"),
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "missing credentials")
		return result, err
	}

	// collect before acquiring the session so a prompt failure, or a user
	// walking away from the terminal, never holds a browser open
	query, err := b.collector.Collect(ctx, b.adapter.ParamKeys(), provided)
	if err != nil {
		wrapped := &Error{Kind: KindConfig, Err: err}
		span.RecordError(wrapped)
		span.SetStatus(codes.Error, "failed to collect appointment parameters")
		return result, wrapped
	}

	session, err := b.opts.Launcher.Launch(ctx, b.opts.Browser)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to launch browser")
		return result, fmt.Errorf("launch browser: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.WarnContext(ctx, "failed to close browser session", "err", err.Error())
		}
	}()

	page := session.Page()

	if err := b.passChallenge(ctx, page, url); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "anti-bot challenge not cleared")
		return result, err
	}
	if err := b.preLogin(ctx, page); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pre-login failed")
		return result, err
	}
	if err := b.login(ctx, page); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		return result, err
	}

	dates, outcome := b.check(ctx, page, query)
	result.Dates = dates
	result.Outcome = outcome
	result.Found = outcome == OutcomeFound

	if result.Found {
		b.notify(ctx, query, dates)
	} else if outcome == OutcomeNoSlots {
		slog.InfoContext(ctx, "no appointments found for the given criteria",
			"identity", b.identity.Key())
	}

	b.record(ctx, result, query, time.Since(started))
	return result, nil
}

func (b *Bot) passChallenge(ctx context.Context, page browser.Page, url string) error {
	ctx, span := tracer.Start(ctx, "bot:passChallenge")
	defer span.End()

	if err := page.Goto(ctx, url); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to reach the portal")
		return &Error{
			Kind: KindChallenge,
			Err:  fmt.Errorf("navigate to portal: %w", err),
		}
	}

	slog.InfoContext(ctx, "waiting for the anti-bot challenge to clear",
		"timeout", b.opts.ChallengeTimeout.String())
	if err := page.WaitVisible(ctx, challengeMarker, b.opts.ChallengeTimeout); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "challenge never cleared")
		return &Error{
			Kind: KindChallenge,
			Err:  fmt.Errorf("portal did not get past the anti-bot challenge: %w", err),
		}
	}
	slog.InfoContext(ctx, "challenge cleared, portal application rendered")

	page.Sleep(ctx, b.opts.SettleDelay)
	return nil
}

func (b *Bot) preLogin(ctx context.Context, page browser.Page) error {
	ctx, span := tracer.Start(ctx, "bot:preLogin")
	defer span.End()

	if err := b.adapter.PreLogin(ctx, page); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pre-login steps failed")
		return &Error{Kind: KindPreLogin, Err: err}
	}
	page.Sleep(ctx, b.opts.SettleDelay)
	return nil
}

func (b *Bot) login(ctx context.Context, page browser.Page) error {
	ctx, span := tracer.Start(ctx, "bot:login")
	defer span.End()

	slog.InfoContext(ctx, "logging in", "email", b.opts.Credentials.Email)
	if err := b.adapter.Login(ctx, page, b.opts.Credentials); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		return &Error{
			Kind:        KindLogin,
			Err:         fmt.Errorf("login failed: %w", err),
			Remediation: loginRemediation,
		}
	}
	slog.InfoContext(ctx, "logged in successfully")
	return nil
}

// check never fails the run: a broken search reports as nothing found and
// the failure stays visible in history and telemetry.
func (b *Bot) check(ctx context.Context, page browser.Page, query Query) ([]string, Outcome) {
	ctx, span := tracer.Start(ctx, "bot:check")
	defer span.End()

	slog.InfoContext(ctx, "checking appointments", "query", query)
	dates, err := b.adapter.CheckAppointments(ctx, page, query)
	if err != nil {
		wrapped := &Error{Kind: KindCheck, Err: err}
		span.RecordError(wrapped)
		span.SetStatus(codes.Error, "appointment check failed")
		slog.ErrorContext(ctx, "appointment check failed", "err", err.Error())
		return nil, OutcomeCheckFailed
	}
	if len(dates) == 0 {
		return nil, OutcomeNoSlots
	}

	slog.InfoContext(ctx, "found appointments", "dates", dates)
	return dates, OutcomeFound
}

func (b *Bot) notify(ctx context.Context, query Query, dates []string) {
	ctx, span := tracer.Start(ctx, "bot:notify")
	defer span.End()

	if b.opts.NotifyOnlyNew && !b.newAvailability(ctx, dates) {
		slog.InfoContext(ctx, "availability unchanged since the last find, not re-notifying")
		return
	}

	message := FormatMessage(b.adapter.ParamKeys(), query, dates)
	if err := b.opts.Dispatcher.Dispatch(ctx, message); err != nil {
		wrapped := &Error{Kind: KindNotify, Err: err}
		span.RecordError(wrapped)
		span.SetStatus(codes.Error, "some notification channels failed")
		slog.ErrorContext(ctx, "some notification channels failed", "err", err.Error())
	}
}

func (b *Bot) newAvailability(ctx context.Context, dates []string) bool {
	if b.opts.Store == nil {
		return true
	}
	last, err := b.opts.Store.LastFound(ctx, b.identity.Key())
	if err != nil {
		slog.WarnContext(ctx, "failed to read the last found dates", "err", err.Error())
		return true
	}
	return !slices.Equal(last, dates)
}

func (b *Bot) record(ctx context.Context, result Result, query Query, duration time.Duration) {
	if b.opts.Store == nil {
		return
	}
	err := b.opts.Store.Record(ctx, runstore.Run{
		ID:       result.RunID,
		Identity: b.identity.Key(),
		Time:     time.Now(),
		Params:   query,
		Dates:    result.Dates,
		Outcome:  string(result.Outcome),
		Duration: duration,
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to record run history", "err", err.Error())
	}
}
