package server

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

// ValidateBrowserURL rejects anything but a plain http(s) URL with a host,
// since the URL is handed to a system command.
func ValidateBrowserURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s (only http/https allowed)", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL must have a valid hostname")
	}
	if i := strings.IndexAny(rawURL, ";&|`$()<>\"'\\ \n\r"); i >= 0 {
		return fmt.Errorf("URL contains dangerous character: %q", rawURL[i])
	}
	return nil
}

// browserCommand returns the command that opens url on goos.
func browserCommand(goos, url string) (string, []string, error) {
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{url}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}, nil
	case "darwin":
		return "open", []string{url}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform %s", goos)
	}
}

func (s *Server) openBrowser(ctx context.Context, url string) {
	if err := ValidateBrowserURL(url); err != nil {
		s.logger.Warn(ctx, err, "Not opening browser")
		return
	}

	name, args, err := browserCommand(runtime.GOOS, url)
	if err == nil {
		err = exec.Command(name, args...).Start()
	}
	if err != nil {
		s.logger.Warn(ctx, err, "Failed to open browser", "url", url)
	}
}
