package tokencount

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountIsAtLeastOne(t *testing.T) {
	require.Equal(t, 1, Count(""))
	require.Equal(t, 1, Count("a"))
}

func TestCountCollapsesWhitespace(t *testing.T) {
	a := Count("hello    world")
	b := Count("hello world")
	assert.Equal(t, a, b)
}

func TestCountMonotonicInLength(t *testing.T) {
	short := Count("a simple sentence")
	long := Count(strings.Repeat("a simple sentence ", 50))
	assert.Greater(t, long, short)
}

func TestCountBracketsIncreaseEstimate(t *testing.T) {
	plain := Count("abcdefgh")
	bracketed := Count("{}()[]<>")
	assert.GreaterOrEqual(t, bracketed, plain)
}

func TestCountValueSerializesStructured(t *testing.T) {
	v := map[string]any{"key": "value", "list": []int{1, 2, 3}}
	n := CountValue(v)
	assert.Greater(t, n, 0)
}

func TestCountValueHandlesUnmarshalable(t *testing.T) {
	n := CountValue(make(chan int))
	assert.Equal(t, 1, n)
}
