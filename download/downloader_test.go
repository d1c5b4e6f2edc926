package download

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFmtSeconds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		secs float64
		want string
	}{
		{0, "0s"},
		{5.9, "5s"},
		{59, "59s"},
		{60, "01:00"},
		{92.4, "01:32"},
		{3599, "59:59"},
		{3600, "01:00:00"},
		{3725, "01:02:05"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, fmtSeconds(tc.secs), "secs %v", tc.secs)
	}
}
