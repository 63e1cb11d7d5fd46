package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{" error ", ErrorLevel, false},
		{"fatal", FatalLevel, false},
		{"verbose", InfoLevel, true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseLevel(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDefaultLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf)
	logger.SetLevel(WarnLevel)

	logger.Info("hidden")
	logger.Warn("shown", Fields{"frames": 3})

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] shown frames=3")
}

func TestDefaultLogger_WithFieldsMergesAndSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf)
	child := logger.WithFields(Fields{"component": "formant_analyzer"})

	logger.SetLevel(ErrorLevel)
	child.Info("suppressed")
	child.Error(errors.New("boom"), "failed", Fields{"frame": 7})

	out := buf.String()
	assert.NotContains(t, out, "suppressed")
	assert.Contains(t, out, "[ERROR] failed: boom component=formant_analyzer frame=7")
}

func TestDefaultLogger_WithContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf)

	ctx := ContextWithFields(context.Background(), Fields{"request": "abc"})
	logger.WithContext(ctx).Info("hello")
	assert.Contains(t, buf.String(), "request=abc")

	buf.Reset()
	logger.WithContext(context.Background()).Info("plain")
	assert.NotContains(t, buf.String(), "request=")
}

func TestSetGlobalLoggerNil(t *testing.T) {
	prev := GetGlobalLogger()
	t.Cleanup(func() { SetGlobalLogger(prev) })

	SetGlobalLogger(nil)
	_, ok := GetGlobalLogger().(*NoOpLogger)
	assert.True(t, ok)
}
