package monitor

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainRenderer(&buf, 0)

	require.NoError(t, r.Render(sampleSnapshot()))
	first := buf.String()
	assert.True(t, strings.HasPrefix(first, clearScreen+cursorHome))
	assert.True(t, strings.HasSuffix(first, clearBelow))

	body := strings.TrimSuffix(strings.TrimPrefix(first, clearScreen+cursorHome), clearBelow)
	for _, line := range strings.SplitAfter(strings.TrimSuffix(body, "\n"), "\n") {
		assert.True(t, strings.HasSuffix(strings.TrimSuffix(line, "\n"), clearLine), "%q", line)
	}

	buf.Reset()
	require.NoError(t, r.Render(sampleSnapshot()))
	second := buf.String()
	assert.True(t, strings.HasPrefix(second, cursorHome))
	assert.NotContains(t, second, clearScreen)
	assert.Contains(t, second, "Uptime         : 1 days 01:01:01"+clearLine+"\n")
}
