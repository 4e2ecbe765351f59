package watcher

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"

	"vfsbot/lib/telemetry"
)

// preflightProbe answers "is the portal worth launching a browser for".
// The portals fall over regularly, a cheap http probe filters the
// obviously-down case before a tick spends minutes on the challenge.
type preflightProbe struct {
	http *resty.Client
}

func newPreflightProbe(portalURL string) (*preflightProbe, error) {
	if portalURL == "" {
		return nil, nil
	}
	parsed, err := url.Parse(portalURL)
	if err != nil {
		return nil, fmt.Errorf("parse portal url: %w", err)
	}

	client := resty.New()
	client.SetBaseURL(portalURL)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(parsed.Hostname()))
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "vfsbot.services.watcher:preflight")

	return &preflightProbe{http: client}, nil
}

// Check reports whether the portal responds at all. The anti-bot
// interstitial answers strangers with a 403, that still proves the portal
// is up. Only transport failures and origin 5xx count as down.
func (p *preflightProbe) Check(ctx context.Context) bool {
	res, err := p.http.R().SetContext(ctx).Get("")
	if err != nil {
		return false
	}
	return res.StatusCode() < 500
}
