package tools

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// Launcher opens a URL on the local machine. Implementations are
// fire-and-forget: Open returns once the action has been started.
type Launcher interface {
	Open(ctx context.Context, url string) error
}

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(ctx context.Context, url string) error

// Open calls f.
func (f LauncherFunc) Open(ctx context.Context, url string) error {
	return f(ctx, url)
}

// BrowserLauncher opens URLs with the platform's default handler.
type BrowserLauncher struct {
	// Command overrides the opener binary (e.g. "google-chrome").
	Command string
}

// Open starts the browser and does not wait for it to exit.
func (b BrowserLauncher) Open(_ context.Context, url string) error {
	name, args := b.command(url)
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func (b BrowserLauncher) command(url string) (string, []string) {
	if b.Command != "" {
		return b.Command, []string{url}
	}
	switch runtime.GOOS {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}
