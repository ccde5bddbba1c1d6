package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBrowserURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"http localhost", "http://localhost:3000", false},
		{"https host", "https://example.com/index/", false},
		{"ipv6 loopback", "http://[::1]:3000", false},
		{"file scheme", "file:///etc/passwd", true},
		{"javascript scheme", "javascript:alert(1)", true},
		{"no host", "http://", true},
		{"command separator", "http://localhost:3000/;rm -rf", true},
		{"subshell", "http://localhost:3000/$(id)", true},
		{"backtick", "http://localhost:3000/`id`", true},
		{"space", "http://localhost:3000/a b", true},
		{"unparseable", "http://[::1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBrowserURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBrowserCommand(t *testing.T) {
	name, args, err := browserCommand("linux", "http://localhost:3000")
	require.NoError(t, err)
	assert.Equal(t, "xdg-open", name)
	assert.Equal(t, []string{"http://localhost:3000"}, args)

	name, args, err = browserCommand("windows", "http://localhost:3000")
	require.NoError(t, err)
	assert.Equal(t, "rundll32", name)
	assert.Equal(t, []string{"url.dll,FileProtocolHandler", "http://localhost:3000"}, args)

	name, _, err = browserCommand("darwin", "http://localhost:3000")
	require.NoError(t, err)
	assert.Equal(t, "open", name)

	_, _, err = browserCommand("plan9", "http://localhost:3000")
	assert.Error(t, err)
}
