// Package browsertest provides scripted stand-ins for browser sessions so
// adapter and bot tests can run without a live browser.
package browsertest

import (
	"context"
	"fmt"
	"time"

	"vfsbot/lib/browser"
)

// FakePage plays the role of a portal page. Configure the fields to
// describe what the portal would show, run the code under test, then
// assert against Actions. The zero value is an empty page on which
// nothing ever becomes visible.
type FakePage struct {
	// Actions records every call in order, formatted like
	// "fill:#email=bot@example.com".
	Actions []string
	// Visible lists the selectors WaitVisible finds. Anything else
	// times out.
	Visible map[string]bool
	// Buttons lists the accessible names TryClickButton can click.
	Buttons map[string]bool
	// Texts maps selectors to their InnerText. Selectors not listed
	// time out.
	Texts map[string]string
	// HTML is what Content returns.
	HTML string
	// Fail maps a recorded action to the error that call should return.
	Fail map[string]error
}

var _ browser.Page = (*FakePage)(nil)

func (p *FakePage) record(action string) error {
	p.Actions = append(p.Actions, action)
	return p.Fail[action]
}

func (p *FakePage) Goto(ctx context.Context, url string) error {
	return p.record("goto:" + url)
}

func (p *FakePage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if err := p.record("wait:" + selector); err != nil {
		return err
	}
	if !p.Visible[selector] {
		return fmt.Errorf("%w: %s", browser.ErrTimeout, selector)
	}
	return nil
}

func (p *FakePage) Click(ctx context.Context, selector string) error {
	return p.record("click:" + selector)
}

func (p *FakePage) ClickButton(ctx context.Context, name string) error {
	return p.record("click-button:" + name)
}

func (p *FakePage) TryClickButton(ctx context.Context, name string, timeout time.Duration) (bool, error) {
	if err := p.record("try-click-button:" + name); err != nil {
		return false, err
	}
	return p.Buttons[name], nil
}

func (p *FakePage) Fill(ctx context.Context, selector string, value string) error {
	return p.record(fmt.Sprintf("fill:%s=%s", selector, value))
}

func (p *FakePage) SelectByLabel(ctx context.Context, label string, value string) error {
	return p.record(fmt.Sprintf("select:%s=%s", label, value))
}

func (p *FakePage) InnerText(ctx context.Context, selector string) (string, error) {
	if err := p.record("text:" + selector); err != nil {
		return "", err
	}
	text, ok := p.Texts[selector]
	if !ok {
		return "", fmt.Errorf("%w: %s", browser.ErrTimeout, selector)
	}
	return text, nil
}

func (p *FakePage) Content(ctx context.Context) (string, error) {
	if err := p.record("content"); err != nil {
		return "", err
	}
	return p.HTML, nil
}

func (p *FakePage) Sleep(ctx context.Context, d time.Duration) {
	p.Actions = append(p.Actions, "sleep:"+d.String())
}

// FakeSession hands out one FakePage and counts Close calls.
type FakeSession struct {
	FakePage *FakePage
	CloseErr error
	Closes   int
}

var _ browser.Session = (*FakeSession)(nil)

func (s *FakeSession) Page() browser.Page {
	return s.FakePage
}

func (s *FakeSession) Close() error {
	s.Closes++
	return s.CloseErr
}

// FakeLauncher returns its Session on every Launch.
type FakeLauncher struct {
	Session *FakeSession
	// Err makes Launch fail instead.
	Err      error
	Launches int
	LastOpts browser.Options
}

var _ browser.Launcher = (*FakeLauncher)(nil)

func (l *FakeLauncher) Launch(ctx context.Context, opts browser.Options) (browser.Session, error) {
	l.Launches++
	l.LastOpts = opts
	if l.Err != nil {
		return nil, l.Err
	}
	if l.Session == nil {
		l.Session = &FakeSession{FakePage: &FakePage{}}
	}
	return l.Session, nil
}
