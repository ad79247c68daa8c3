// Package printer talks to the host print system through the CUPS command
// line tools: locating them, submitting jobs with lp, and parsing lpstat
// queue listings into structured job records.
package printer

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// wellKnownDirs are probed in order before falling back to a shell lookup.
// Deterministic and independent of the caller's PATH, which launchd and
// packaged builds tend to strip.
var wellKnownDirs = []string{"/usr/bin", "/usr/local/bin", "/bin"}

// systemPathDirs are prepended to PATH for every tool invocation.
const systemPathDirs = "/usr/bin:/usr/local/bin:/bin:/usr/sbin:/sbin"

// Locator resolves filesystem paths of platform print CLI tools.
type Locator struct {
	timeout time.Duration
}

// NewLocator creates a Locator. timeout bounds the shell fallback lookup.
func NewLocator(timeout time.Duration) *Locator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Locator{timeout: timeout}
}

// Locate returns the full path of the named command. Absence is a normal
// outcome, not an error: dependent operations treat it as a precondition
// failure.
func (l *Locator) Locate(ctx context.Context, name string) (string, bool) {
	for _, dir := range wellKnownDirs {
		p := dir + "/" + name
		if isExecutable(p) {
			return p, true
		}
	}

	// Shell fallback so the user's login PATH is honored.
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", "which "+name)
	cmd.Env = systemEnv()
	out, err := cmd.Output()
	if err != nil {
		log.Debug().Err(err).Str("command", name).Msg("shell lookup failed")
		return "", false
	}
	found := strings.TrimSpace(string(out))
	if found == "" || !isExecutable(found) {
		return "", false
	}
	return found, true
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}

// systemEnv returns the process environment with PATH guaranteed to
// include the standard system binary directories.
func systemEnv() []string {
	env := os.Environ()
	path := os.Getenv("PATH")
	if strings.Contains(path, "/usr/bin") {
		return env
	}
	for i, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			env[i] = "PATH=" + systemPathDirs + ":" + path
			return env
		}
	}
	return append(env, "PATH="+systemPathDirs)
}
