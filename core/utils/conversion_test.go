package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToInt(t *testing.T) {
	assert.Equal(t, 12, ToInt(12))
	assert.Equal(t, 12, ToInt(float64(12)))
	assert.Equal(t, 12, ToInt("12"))
	assert.Equal(t, 12, ToInt(" 12 "))
	assert.Equal(t, 12, ToInt([]byte("12")))
	assert.Equal(t, 0, ToInt("not a number"))
	assert.Equal(t, 0, ToInt(nil))
}

func TestToString(t *testing.T) {
	assert.Equal(t, "12", ToString("12"))
	// JSON numbers arrive as float64; integral values render without ".0"
	assert.Equal(t, "12", ToString(float64(12)))
	assert.Equal(t, "12.5", ToString(12.5))
	assert.Equal(t, "12", ToString([]byte("12")))
	assert.Equal(t, "true", ToString(true))
}

func TestToBool(t *testing.T) {
	assert.True(t, ToBool(true))
	assert.True(t, ToBool(1))
	assert.True(t, ToBool("1"))
	assert.True(t, ToBool("TRUE"))
	assert.False(t, ToBool(0))
	assert.False(t, ToBool("no"))
	assert.False(t, ToBool(nil))
}
