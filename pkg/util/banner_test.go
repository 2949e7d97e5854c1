package util

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBanner(t *testing.T) {
	colored := Banner("ms", "ColorBlue")
	assert.True(t, strings.HasPrefix(colored, ColorBlue))
	assert.Contains(t, colored, ColorReset+"\n")

	plain := Banner("ms", "nope")
	assert.NotContains(t, plain, "\x1b[")
	assert.NotEmpty(t, strings.TrimSpace(plain))
}

func TestFprintBanner(t *testing.T) {
	var buf bytes.Buffer
	FprintBanner(&buf, "ms", "ColorGreen")
	assert.Equal(t, Banner("ms", "ColorGreen"), buf.String())
}
