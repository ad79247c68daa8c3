package printer

import (
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Discovery finds printers known to the host print system.
type Discovery struct {
	loc     *Locator
	timeout time.Duration
}

// NewDiscovery creates a Discovery. timeout bounds each lpstat call.
func NewDiscovery(loc *Locator, timeout time.Duration) *Discovery {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Discovery{loc: loc, timeout: timeout}
}

// Accepting-requests lines vary by locale. Matched in order; the zh form
// comes first because zh lpstat output may embed ASCII printer names that
// would confuse the en pattern.
var (
	acceptingZH = regexp.MustCompile(`^(.*?)\s*(正在接受请求|自从.*开始接受请求)`)
	acceptingEN = regexp.MustCompile(`^(.*?) accepting requests`)
)

// DefaultPrinter returns the system default destination, if any. A
// missing lpstat or missing default both report ok=false; the caller
// decides whether that is an error.
func (d *Discovery) DefaultPrinter(ctx context.Context) (string, bool) {
	lpstat, ok := d.loc.Locate(ctx, "lpstat")
	if !ok {
		return "", false
	}
	out, err := d.run(ctx, lpstat, "-d")
	if err != nil {
		return "", false
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(strings.ToLower(line), "system default destination:") {
			if _, name, found := strings.Cut(line, ":"); found {
				name = strings.TrimSpace(name)
				if name != "" {
					return name, true
				}
			}
		}
	}
	return "", false
}

// AvailablePrinters lists printers accepting requests. It tries
// `lpstat -a` first and falls back to `lpstat -p`; an empty list is a
// valid answer, never an error.
func (d *Discovery) AvailablePrinters(ctx context.Context) []string {
	lpstat, ok := d.loc.Locate(ctx, "lpstat")
	if !ok {
		return nil
	}

	var printers []string
	if out, err := d.run(ctx, lpstat, "-a"); err == nil {
		printers = parseAcceptingList(out)
	}
	if len(printers) > 0 {
		return printers
	}

	out, err := d.run(ctx, lpstat, "-p")
	if err != nil {
		log.Debug().Err(err).Msg("lpstat -p failed")
		return nil
	}
	return parsePrinterList(out)
}

func (d *Discovery) run(ctx context.Context, path string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Env = systemEnv()
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return stdout.String(), nil
}

func parseAcceptingList(out string) []string {
	var printers []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := acceptingZH.FindStringSubmatch(line)
		if m == nil {
			m = acceptingEN.FindStringSubmatch(line)
		}
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if name != "" && !contains(printers, name) {
			printers = append(printers, name)
		}
	}
	return printers
}

func parsePrinterList(out string) []string {
	var printers []string
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, "printer") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) > 1 && !contains(printers, fields[1]) {
			printers = append(printers, fields[1])
		}
	}
	return printers
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
