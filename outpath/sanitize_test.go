package outpath_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pxrave/zotify/outpath"
)

func TestSanitize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"A/B\\C:D|E<F>G\"H?I*J", "A_B_C_D_E_F_G_H_I_J"},
		{"  COM1  ", "_ COM1 _"},
		{"CON.", "__"},
		{"COM1.txt", "_.txt"},
		{"NUL", "_"},
		{"nul", "_"},
		{"CONS", "CONS"},
		{"COM10", "COM10"},
		{"trailing dot.", "trailing dot_"},
		{"trailing space ", "trailing space_"},
		{"plain name", "plain name"},
		{"", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, outpath.Sanitize(tc.in, 0), "input %q", tc.in)
	}
}

func TestSanitizeIsIdempotent(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"  COM1  ", "CON.", "a/b", "x.", " y", "AUX", "song name"} {
		once := outpath.Sanitize(in, 0)
		require.Equal(t, once, outpath.Sanitize(once, 0), "input %q", in)
	}
}

func TestSanitizeTruncates(t *testing.T) {
	t.Parallel()

	require.Equal(t, "abc", outpath.Sanitize("abcdef", 3))
	require.Equal(t, "日本語", outpath.Sanitize("日本語のタイトル", 3))
	require.Equal(t, "short", outpath.Sanitize("short", 10))
}
