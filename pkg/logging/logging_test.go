package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", DebugLevel},
		{"INFO", InfoLevel},
		{"warning", WarnLevel},
		{" error ", ErrorLevel},
		{"", InfoLevel},
		{"verbose", InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseLevel(tt.input), tt.input)
	}
}

func TestComponentSharesOutputAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Output: &buf})
	c := l.Component("explorer")

	c.Info("hidden")
	assert.Empty(t, buf.String())

	c.Warn("balance query failed", "address", "0xabc")
	out := buf.String()
	assert.Contains(t, out, "explorer")
	assert.Contains(t, out, "balance query failed")
	assert.Contains(t, out, "address=0xabc")
}

func TestOrDefault(t *testing.T) {
	assert.Same(t, Default(), OrDefault(nil))
	l := Discard()
	assert.Same(t, l, OrDefault(l))
}
