package printer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Quality selects the cupsPrintQuality option.
type Quality string

const (
	QualityHigh   Quality = "High"
	QualityNormal Quality = "Normal"
	QualityDraft  Quality = "Draft"
)

// Order selects the outputorder option.
type Order string

const (
	OrderNormal  Order = "normal"
	OrderReverse Order = "reverse"
)

// NormalizeQuality maps unrecognized values to Normal. A bad quality is
// a preference, not an error.
func NormalizeQuality(q string) Quality {
	switch Quality(q) {
	case QualityHigh, QualityNormal, QualityDraft:
		return Quality(q)
	}
	return QualityNormal
}

// NormalizeOrder maps unrecognized values to normal.
func NormalizeOrder(o string) Order {
	switch Order(o) {
	case OrderNormal, OrderReverse:
		return Order(o)
	}
	return OrderNormal
}

// SubmitRequest describes one print submission.
type SubmitRequest struct {
	FilePath    string
	PrinterName string // empty means system default
	Quality     string
	Order       string
}

// Client submits documents to the print queue via lp.
type Client struct {
	loc        *Locator
	disc       *Discovery
	fallbackLP string
	timeout    time.Duration
}

// NewClient creates a Client. fallbackLP is tried when lp cannot be
// located; timeout bounds the lp invocation.
func NewClient(loc *Locator, disc *Discovery, fallbackLP string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{loc: loc, disc: disc, fallbackLP: fallbackLP, timeout: timeout}
}

// lp acknowledges with "request id is <printer>-<n> (1 file(s))".
var requestIDPattern = regexp.MustCompile(`(?i)request id is\s+(\S+)`)

// Submit enqueues filePath on the requested printer and returns the job
// id parsed from the lp acknowledgment. An acknowledgment without a
// recognizable id is still a success with an empty id. Submitting is not
// idempotent: calling twice prints twice.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	// Preconditions before any process spawns.
	if _, err := os.Stat(req.FilePath); err != nil {
		return "", &SubmitError{Kind: FailurePrecondition, Message: fmt.Sprintf("file not found: %s", req.FilePath)}
	}
	f, err := os.Open(req.FilePath)
	if err != nil {
		return "", &SubmitError{Kind: FailurePrecondition, Message: fmt.Sprintf("file not readable: %s", req.FilePath)}
	}
	f.Close()

	lp, ok := c.loc.Locate(ctx, "lp")
	if !ok {
		if isExecutable(c.fallbackLP) {
			lp = c.fallbackLP
		} else {
			return "", ErrPrintToolUnavailable
		}
	}

	printerName := req.PrinterName
	if printerName == "" {
		def, found := c.disc.DefaultPrinter(ctx)
		if !found {
			return "", ErrNoDefaultPrinter
		}
		printerName = def
	}

	quality := NormalizeQuality(req.Quality)
	order := NormalizeOrder(req.Order)

	args := []string{
		"-d", printerName,
		"-o", "cupsPrintQuality=" + string(quality),
		"-o", "outputorder=" + string(order),
		req.FilePath,
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, lp, args...)
	cmd.Env = systemEnv()
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Info().
		Str("printer", printerName).
		Str("quality", string(quality)).
		Str("order", string(order)).
		Str("file", req.FilePath).
		Msg("submitting print job")

	if err := cmd.Run(); err != nil {
		serr := classifySubmitFailure(ctx, err, stdout.String(), stderr.String(), printerName, lp)
		log.Error().Err(serr).Str("kind", string(serr.Kind)).Msg("print submission failed")
		return "", serr
	}

	jobID := ""
	if m := requestIDPattern.FindStringSubmatch(stdout.String()); m != nil {
		jobID = m[1]
	}
	log.Info().Str("job_id", jobID).Str("printer", printerName).Msg("print job accepted")
	return jobID, nil
}

// classifySubmitFailure maps lp failures onto actionable categories.
// Ordered, first match wins; anything unmatched surfaces the tool output
// verbatim.
func classifySubmitFailure(ctx context.Context, err error, stdout, stderr, printerName, lpPath string) *SubmitError {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &SubmitError{Kind: FailureTimeout, Message: "print submission timed out; check the printer"}
	}

	out := stderr
	if out == "" {
		out = stdout
	}
	if out == "" {
		out = err.Error()
	}
	lower := strings.ToLower(out)

	switch {
	case strings.Contains(out, "Unable to locate printer") || strings.Contains(out, "printer does not exist"):
		name := printerName
		if name == "" {
			name = "default printer"
		}
		return &SubmitError{Kind: FailurePrinterNotFound, Message: "printer not found: " + name, Output: out}
	case strings.Contains(lower, "permission denied"):
		return &SubmitError{Kind: FailurePermissionDenied, Message: "print permission denied; check system permissions", Output: out}
	case strings.Contains(lower, "no default destination"):
		return &SubmitError{Kind: FailureNoDefaultDest, Message: "no default printer configured; select a printer", Output: out}
	case strings.Contains(out, "No such file or directory"):
		// lp itself or one of its libraries is missing, not the document
		return &SubmitError{Kind: FailureMissingBinary,
			Message: fmt.Sprintf("print command failed to execute: %s (command: %s)", strings.TrimSpace(out), lpPath), Output: out}
	default:
		return &SubmitError{Kind: FailureGeneric,
			Message: fmt.Sprintf("print failed: %s (command: %s)", strings.TrimSpace(out), lpPath), Output: out}
	}
}
