package vfs

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"vfsbot/lib/textutil"

	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel/codes"
)

// InputProvider supplies values for appointment parameters that were not
// given up front.
type InputProvider interface {
	Prompt(ctx context.Context, label string) (string, error)
}

// StdinInput prompts interactively on the terminal.
type StdinInput struct {
	in  *bufio.Reader
	out io.Writer
}

func NewStdinInput() *StdinInput {
	return &StdinInput{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stdout,
	}
}

func (s *StdinInput) Prompt(ctx context.Context, label string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprintf(s.out, "Enter the %s: ", label)
	line, err := s.in.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// NoInput refuses to prompt. Used where runs must never block on a
// terminal, watch mode and --no-input.
type NoInput struct{}

func (NoInput) Prompt(ctx context.Context, label string) (string, error) {
	return "", fmt.Errorf("no value for the %s and interactive input is disabled", label)
}

// values this close to a known hint snap to the hint's exact spelling
const hintSimilarityThreshold = 0.85

// Collector assembles the appointment query for an adapter: caller-provided
// values win, anything missing is prompted for.
type Collector struct {
	Input InputProvider
	// Hints maps parameter keys to the portal's canonical values.
	Hints map[string][]string
}

func (c Collector) Collect(ctx context.Context, keys []string, provided map[string]string) (Query, error) {
	ctx, span := tracer.Start(ctx, "collector:Collect")
	defer span.End()

	query := Query{}
	for _, key := range keys {
		value := strings.TrimSpace(provided[key])
		if value == "" {
			input := c.Input
			if input == nil {
				input = NoInput{}
			}
			v, err := input.Prompt(ctx, textutil.Humanize(key))
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "prompt failed")
				return nil, err
			}
			value = strings.TrimSpace(v)
		}
		if value == "" {
			err := fmt.Errorf("no value for the %s", textutil.Humanize(key))
			span.RecordError(err)
			span.SetStatus(codes.Error, "empty parameter")
			return nil, err
		}
		query[key] = c.snap(ctx, key, value)
	}
	return query, nil
}

// snap replaces a collected value with the closest known hint when it is
// similar enough, so "dublin" submits as "Dublin".
func (c Collector) snap(ctx context.Context, key, value string) string {
	var best string
	var bestScore float64
	for _, hint := range c.Hints[key] {
		score := matchr.JaroWinkler(strings.ToLower(value), strings.ToLower(hint), false)
		if score > bestScore {
			best = hint
			bestScore = score
		}
	}
	if bestScore < hintSimilarityThreshold || best == value {
		return value
	}
	slog.InfoContext(ctx, "snapped parameter to known portal value",
		"key", key, "input", value, "value", best)
	return best
}
