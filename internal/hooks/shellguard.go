package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// destructivePatterns are substrings that mark a shell command as
// destructive. Matching is case-insensitive.
var destructivePatterns = []string{
	"rm -rf",
	"rm -r /",
	"git push --force",
	"git push -f",
	"git reset --hard",
	"DROP TABLE",
	"DROP DATABASE",
	"DELETE FROM",
	"TRUNCATE TABLE",
	"git branch -D",
	"git branch -d main",
	"git branch -d master",
	"chmod -R 777",
	":(){ :|:& };:",
}

// BlockDestructiveCommands denies shell commands matching any destructive
// pattern.
func BlockDestructiveCommands(logger *slog.Logger) Hook {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "shellguard")
	return func(_ context.Context, hc *Context) Decision {
		command := stringArg(hc.Input, "command")
		lowered := strings.ToLower(command)
		for _, pattern := range destructivePatterns {
			if strings.Contains(lowered, strings.ToLower(pattern)) {
				logger.Warn("blocked destructive command", "pattern", pattern)
				return Deny(fmt.Sprintf(
					"Destructive command blocked: contains '%s'. Turbo agents cannot execute destructive shell commands.",
					pattern))
			}
		}
		return Continue()
	}
}
