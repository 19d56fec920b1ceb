package util

import (
	"strings"
	"testing"

	"github.com/ValentinKolb/fKV/lib/gptr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		assert.LessOrEqual(t, len(line), Wrap)
	}
	assert.Equal(t, "short text", WrapString("  short   text "))
}

func TestParseLocation(t *testing.T) {
	loc, err := ParseLocation("")
	require.NoError(t, err)
	assert.True(t, loc.IsNull())

	want := gptr.New(2, 0x40)
	loc, err = ParseLocation(FormatLocation(want))
	require.NoError(t, err)
	assert.Equal(t, want, loc)

	assert.Equal(t, "0x0200000000000040", FormatLocation(want))
	loc, err = ParseLocation("200000000000040")
	require.NoError(t, err)
	assert.Equal(t, want, loc)

	_, err = ParseLocation("0xnothex")
	assert.Error(t, err)
}
