//go:build darwin

package platform

import (
	"fmt"
	"os/exec"
)

// Notify shows the message in Notification Center with the app name as the
// subtitle.
func Notify(title, body string, opts Options) error {
	script := fmt.Sprintf("display notification %q with title %q subtitle %q", body, title, opts.appName())
	return exec.Command("osascript", "-e", script).Run()
}
