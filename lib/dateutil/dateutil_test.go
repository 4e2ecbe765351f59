package dateutil

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestExtractDates(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "numeric slash",
			text: "Earliest available slot: 14/05/2024",
			want: []string{"14/05/2024"},
		},
		{
			name: "iso",
			text: "2024-05-14 09:30",
			want: []string{"2024-05-14"},
		},
		{
			name: "day month year",
			text: "Appointments open on 14 May 2024 and 21 May 2024.",
			want: []string{"14 May 2024", "21 May 2024"},
		},
		{
			name: "month first",
			text: "Next: May 14, 2024",
			want: []string{"May 14, 2024"},
		},
		{
			name: "ordinal suffix",
			text: "3rd June",
			want: []string{"3rd June"},
		},
		{
			name: "mixed formats keep document order",
			text: "14/05/2024 then 2024-06-01 then 3 July 2024",
			want: []string{"14/05/2024", "2024-06-01", "3 July 2024"},
		},
		{
			name: "duplicates collapse",
			text: "14/05/2024, 14/05/2024",
			want: []string{"14/05/2024"},
		},
		{
			name: "no dates",
			text: "No appointment slots are currently available",
			want: nil,
		},
		{
			name: "year alone is not a date",
			text: "Copyright 2024 VFS Global",
			want: nil,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ExtractDates(c.text)
			if diff := cmp.Diff(c.want, got); diff != "" {
				t.Fatalf("unexpected dates (-want +got):\n%s", diff)
			}
		})
	}
}

func FuzzExtractDates(f *testing.F) {
	f.Add("14/05/2024")
	f.Add("available on 2024-05-14 and 15 May 2024")
	f.Add("No appointment slots are currently available")
	f.Add("")

	f.Fuzz(func(t *testing.T, text string) {
		dates := ExtractDates(text)

		seen := map[string]bool{}
		for _, d := range dates {
			require.NotEmpty(t, d)
			require.False(t, seen[d], "duplicate date %q", d)
			seen[d] = true
			require.Contains(t, text, d)
		}
	})
}
