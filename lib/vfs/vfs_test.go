package vfs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdentity(t *testing.T) {
	identity, err := NewIdentity("ie", "nl")
	require.NoError(t, err)
	require.Equal(t, "IE", identity.Source)
	require.Equal(t, "NL", identity.Destination)
	require.Equal(t, "IE-NL", identity.Key())

	_, err = NewIdentity("", "nl")
	require.Error(t, err)
	_, err = NewIdentity("ie", "")
	require.Error(t, err)
}

func TestFormatMessage(t *testing.T) {
	keys := []string{"visa_center", "visa_category", "visa_sub_category"}
	query := Query{
		"visa_sub_category": "Tourism",
		"visa_center":       "Dublin",
		"visa_category":     "Short Stay",
	}
	message := FormatMessage(keys, query, []string{"2024-05-01", "2024-05-03"})
	require.Equal(t,
		"Found appointment(s) for Dublin, Short Stay, Tourism on 2024-05-01, 2024-05-03",
		message)
}

func TestErrorKinds(t *testing.T) {
	// remediation is folded into the message
	{
		err := &Error{
			Kind:        KindLogin,
			Err:         fmt.Errorf("bad credentials"),
			Remediation: "Check the configured email and password.",
		}
		require.Equal(t, "login: bad credentials. Check the configured email and password.", err.Error())
	}
	{
		err := &Error{Kind: KindCheck, Err: fmt.Errorf("panel missing")}
		require.Equal(t, "check: panel missing", err.Error())
	}

	// the kind survives wrapping
	{
		err := fmt.Errorf("run failed: %w", &Error{Kind: KindChallenge, Err: fmt.Errorf("timed out")})
		kind, ok := KindOf(err)
		require.True(t, ok)
		require.Equal(t, KindChallenge, kind)
	}
	{
		_, ok := KindOf(errors.New("plain"))
		require.False(t, ok)
	}

	require.True(t, KindConfig.Fatal())
	require.True(t, KindChallenge.Fatal())
	require.True(t, KindPreLogin.Fatal())
	require.True(t, KindLogin.Fatal())
	require.False(t, KindCheck.Fatal())
	require.False(t, KindNotify.Fatal())
}

func TestRegistry(t *testing.T) {
	Register("zz", func(identity Identity) SiteAdapter {
		return &fakeAdapter{}
	})

	identity, err := NewIdentity("ie", "zz")
	require.NoError(t, err)
	adapter, err := NewAdapter(identity)
	require.NoError(t, err)
	require.NotNil(t, adapter)
	require.Contains(t, Supported(), "ZZ")

	_, err = NewAdapter(Identity{Source: "IE", Destination: "XX"})
	var unsupported *UnsupportedCountryError
	require.ErrorAs(t, err, &unsupported)
	require.Equal(t, "XX", unsupported.Country)
}
