package commands

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"visa_center=Dublin", "visa_category = Short Stay"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"visa_center":   "Dublin",
		"visa_category": "Short Stay",
	}, params)

	_, err = parseParams([]string{"visa_center"})
	require.ErrorContains(t, err, "expected key=value")
}
