package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

// launchers maps GOOS to the command that hands a URL to the desktop.
var launchers = map[string][]string{
	"darwin":  {"open"},
	"linux":   {"xdg-open"},
	"freebsd": {"xdg-open"},
	"windows": {"rundll32", "url.dll,FileProtocolHandler"},
}

var goos = runtime.GOOS

// OpenURL asks the desktop to open url without waiting for the browser to exit.
func OpenURL(url string) error {
	launcher, ok := launchers[goos]
	if !ok {
		return fmt.Errorf("%w: no browser launcher for %s", ErrServiceUnavailable, goos)
	}

	args := append(append([]string(nil), launcher[1:]...), url)
	if err := exec.Command(launcher[0], args...).Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
