package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	require.Equal(t, "shortstay", NormalizeName("  Short Stay\n"))
	require.Equal(t, "longstay(mvv)", NormalizeName("Long Stay (MVV)"))
}

func TestMatchName(t *testing.T) {
	sentinels := []string{
		NormalizeName("No appointment slots are currently available"),
		NormalizeName("Currently No slots are available"),
	}

	require.True(t, MatchName(
		"No appointment slots are currently available",
		sentinels,
	))
	require.True(t, MatchName(
		"currently  no slots are available for selected category",
		sentinels,
	))
	require.False(t, MatchName("2024-05-01 10:30", sentinels))
}

func TestHumanize(t *testing.T) {
	require.Equal(t, "visa sub category", Humanize("visa_sub_category"))
	require.Equal(t, "visa center", Humanize("visa_center"))
}
