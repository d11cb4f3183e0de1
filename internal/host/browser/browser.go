// Package browser provides the host-side implementations of the relay's
// Browser and Notifier collaborators: opening product pages in the user's
// browser and surfacing notifications.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"

	"go.uber.org/zap"
)

// Opener opens URLs with the platform's default browser.
type Opener struct {
	Log *zap.Logger
}

// OpenTab launches the default browser at url.
func (o *Opener) OpenTab(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	o.Log.Debug("opened tab", zap.String("url", url))
	return nil
}

// LogNotifier surfaces notifications through the structured log. Desktop
// toast integration is up to the popup, which polls getStatus.
type LogNotifier struct {
	Log *zap.Logger
}

// Notify records a user-visible notification.
func (n *LogNotifier) Notify(title, message string) {
	n.Log.Info("notification", zap.String("title", title), zap.String("message", message))
}
