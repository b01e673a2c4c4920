package bitfield

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/jsonkit/pkg/util/merr"
)

func TestBitField(t *testing.T) {
	b, err := New("read", "write", "admin")
	require.NoError(t, err)
	assert.Equal(t, int64(0), b.Int())

	require.NoError(t, b.Set("read", "admin"))
	assert.Equal(t, int64(5), b.Int())
	assert.True(t, b.Has("admin"))
	assert.False(t, b.Has("write"))
	assert.False(t, b.Has("missing"))
	assert.Equal(t, []string{"read", "admin"}, b.Items())

	require.NoError(t, b.Unset("read"))
	assert.Equal(t, int64(4), b.Int())
	assert.Equal(t, []string{"read", "write", "admin"}, b.Flags())
}

func TestBitFieldUnknownFlag(t *testing.T) {
	b, err := New("a", "b")
	require.NoError(t, err)
	require.NoError(t, b.Set("a"))

	err = b.Set("b", "c")
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
	assert.Equal(t, int64(1), b.Int())

	assert.ErrorIs(t, b.Unset("z"), merr.ErrParameterInvalid)
}

func TestNewInvalid(t *testing.T) {
	_, err := New("a", "a")
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)

	_, err = New("")
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)

	flags := make([]string, maxFlags+1)
	for i := range flags {
		flags[i] = string(rune('a'+i%26)) + string(rune('A'+i/26))
	}
	_, err = New(flags...)
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
}
