package vfs

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"vfsbot/lib/telemetry"
)

type scriptedInput struct {
	answers map[string]string
	asked   []string
}

func (s *scriptedInput) Prompt(ctx context.Context, label string) (string, error) {
	s.asked = append(s.asked, label)
	return s.answers[label], nil
}

func TestCollect(t *testing.T) {
	telemetry.SetupForTesting("test:vfs")
	ctx := context.Background()

	keys := []string{"visa_center", "visa_category", "visa_sub_category"}

	// provided values win, the rest is prompted for in key order
	{
		input := &scriptedInput{answers: map[string]string{
			"visa category":     "Short Stay",
			"visa sub category": "Tourism",
		}}
		c := Collector{Input: input}
		query, err := c.Collect(ctx, keys, map[string]string{"visa_center": "Dublin"})
		require.NoError(t, err)
		require.Equal(t, Query{
			"visa_center":       "Dublin",
			"visa_category":     "Short Stay",
			"visa_sub_category": "Tourism",
		}, query)
		require.Equal(t, []string{"visa category", "visa sub category"}, input.asked)
	}

	// whitespace-only provided values count as missing
	{
		input := &scriptedInput{answers: map[string]string{
			"visa center":       "Dublin",
			"visa category":     "Short Stay",
			"visa sub category": "Tourism",
		}}
		c := Collector{Input: input}
		query, err := c.Collect(ctx, keys, map[string]string{"visa_center": "   "})
		require.NoError(t, err)
		require.Equal(t, "Dublin", query["visa_center"])
	}

	// an empty answer is an error
	{
		input := &scriptedInput{}
		c := Collector{Input: input}
		_, err := c.Collect(ctx, keys, map[string]string{
			"visa_center":   "Dublin",
			"visa_category": "Short Stay",
		})
		require.ErrorContains(t, err, "no value for the visa sub category")
	}
}

func TestCollectNoInput(t *testing.T) {
	telemetry.SetupForTesting("test:vfs")
	ctx := context.Background()

	c := Collector{Input: NoInput{}}
	_, err := c.Collect(ctx, []string{"visa_center"}, nil)
	require.ErrorContains(t, err, "interactive input is disabled")

	// a collector without an input provider refuses the same way
	c = Collector{}
	_, err = c.Collect(ctx, []string{"visa_center"}, nil)
	require.Error(t, err)
}

func TestCollectSnapsToHints(t *testing.T) {
	telemetry.SetupForTesting("test:vfs")
	ctx := context.Background()

	c := Collector{
		Input: NoInput{},
		Hints: map[string][]string{
			"visa_center":   {"Dublin"},
			"visa_category": {"Short Stay", "Long Stay (MVV)"},
		},
	}

	// near-miss values snap to the portal's exact spelling
	{
		query, err := c.Collect(ctx, []string{"visa_center", "visa_category"}, map[string]string{
			"visa_center":   "dublin",
			"visa_category": "short stay",
		})
		require.NoError(t, err)
		require.Equal(t, "Dublin", query["visa_center"])
		require.Equal(t, "Short Stay", query["visa_category"])
	}

	// unrelated values pass through untouched
	{
		query, err := c.Collect(ctx, []string{"visa_center"}, map[string]string{
			"visa_center": "Cork",
		})
		require.NoError(t, err)
		require.Equal(t, "Cork", query["visa_center"])
	}
}

func TestStdinInput(t *testing.T) {
	ctx := context.Background()

	out := &bytes.Buffer{}
	input := &StdinInput{
		in:  bufio.NewReader(strings.NewReader("  Dublin  \nTourism")),
		out: out,
	}

	v, err := input.Prompt(ctx, "visa center")
	require.NoError(t, err)
	require.Equal(t, "Dublin", v)
	require.Equal(t, "Enter the visa center: ", out.String())

	// a final answer without a trailing newline still counts
	v, err = input.Prompt(ctx, "visa sub category")
	require.NoError(t, err)
	require.Equal(t, "Tourism", v)

	// exhausted input is an error
	_, err = input.Prompt(ctx, "anything")
	require.Error(t, err)

	// a cancelled context refuses before writing the prompt
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = input.Prompt(cancelled, "anything")
	require.ErrorIs(t, err, context.Canceled)
}
