package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/app"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/store"
)

func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	orig := os.Stderr
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stderr = w
	defer func() { os.Stderr = orig }()

	fn()
	require.NoError(t, w.Close())

	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	return buf.String()
}

func TestPrintError(t *testing.T) {
	tests := []struct {
		name         string
		technicalErr error
		verbose      bool
		expectedOut  string
	}{
		{"normal mode without error", nil, false, "User friendly message\n"},
		{"verbose mode with error", errors.New("technical details"), true, "Error: technical details\n"},
		{"normal mode with technical error", errors.New("technical details"), false, "User friendly message\n"},
		{"verbose mode without error", nil, true, "User friendly message\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Set("verbose", tt.verbose)
			defer viper.Set("verbose", false)

			out := captureStderr(t, func() { PrintError("User friendly message", tt.technicalErr) })
			assert.Equal(t, tt.expectedOut, out)
		})
	}
}

func TestUserMessage(t *testing.T) {
	assert.Contains(t, userMessage(app.ErrNoSnapshot), "--snapshot")
	assert.Contains(t, userMessage(fmt.Errorf("run: %w", app.ErrCycleInProgress)), "Another anticipation cycle")
	assert.Equal(t, "Signal not found.", userMessage(fmt.Errorf("%w: x", store.ErrNotFound)))
	assert.Equal(t, "Error: boom", userMessage(errors.New("boom")))
}
