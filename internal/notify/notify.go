// Package notify sends OS-native desktop notifications. The daemon uses
// it to surface failed cycles when no terminal is attached.
package notify

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"questsync/internal/engine"
)

// appleEscaper quotes for AppleScript string literals. A single Replacer
// pass never re-scans its own output, so backslashes double safely.
var appleEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// Send fires a desktop notification and returns immediately. Platforms
// without a known notifier, and notifier failures, are silent: a missed
// notification must never affect the sync loop.
func Send(title, message string) {
	go func() {
		var cmd *exec.Cmd
		switch runtime.GOOS {
		case "darwin":
			script := fmt.Sprintf(`display notification "%s" with title "%s"`,
				appleEscaper.Replace(message), appleEscaper.Replace(title))
			cmd = exec.Command("osascript", "-e", script)
		case "linux":
			cmd = exec.Command("notify-send", title, message)
		default:
			return
		}
		_ = cmd.Run()
	}()
}

// CycleFailed notifies about a cycle that did not fully succeed. err is
// the cycle-level error when the cycle could not run at all. Successful
// outcomes are a no-op, so callers can invoke this unconditionally.
func CycleFailed(outcome *engine.Outcome, err error) {
	switch {
	case err != nil:
		Send("questsync: cycle failed", err.Error())
	case outcome == nil || outcome.Success:
		return
	case outcome.Failed > 0:
		Send("questsync: cycle degraded",
			fmt.Sprintf("%d actions failed and will be retried next cycle", outcome.Failed))
	default:
		Send("questsync: cycle degraded", "a snapshot failed, some steps were skipped")
	}
}
