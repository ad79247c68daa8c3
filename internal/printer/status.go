package printer

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// JobStatus is the normalized state of a queued print job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusPrinting  JobStatus = "printing"
	StatusCompleted JobStatus = "completed"
	StatusHeld      JobStatus = "held"
	StatusCancelled JobStatus = "cancelled"
)

// PageType tags a job as one half of a duplex session.
type PageType string

const (
	PageTypeOdd  PageType = "odd"
	PageTypeEven PageType = "even"
)

// JobRecord is a structured snapshot of one job in the queue listing.
// Rebuilt fresh on every query, never persisted.
type JobRecord struct {
	JobID       string    `json:"job_id"`
	Status      JobStatus `json:"status"`
	Info        string    `json:"info"`
	Details     []string  `json:"details,omitempty"`
	PageType    PageType  `json:"page_type,omitempty"`
	CurrentPage int       `json:"current_page,omitempty"`
	TotalPages  int       `json:"total_pages,omitempty"`
}

// SessionJobs carries the job ids and page counts a session recorded, so
// queue records can be attributed to the odd or even pass.
type SessionJobs struct {
	OddJobID  string
	EvenJobID string
	OddPages  int
	EvenPages int
}

// Resolver queries and parses the print queue listing.
type Resolver struct {
	loc     *Locator
	timeout time.Duration
}

// NewResolver creates a Resolver. timeout bounds the lpstat call.
func NewResolver(loc *Locator, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Resolver{loc: loc, timeout: timeout}
}

// Resolve lists jobs for the named printer, or all printers when name is
// empty. Timeout and tool absence are reported errors; malformed listing
// text never is.
func (r *Resolver) Resolve(ctx context.Context, printerName string, jobs *SessionJobs) ([]JobRecord, error) {
	lpstat, ok := r.loc.Locate(ctx, "lpstat")
	if !ok {
		return nil, ErrStatusToolUnavailable
	}

	args := []string{"-l", "-o"}
	if printerName != "" {
		args = append(args, printerName)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, lpstat, args...)
	cmd.Env = systemEnv()
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &StatusError{Timeout: true, Message: "lpstat did not answer in time"}
		}
		// lpstat exits nonzero for unknown printers too; an empty queue
		// is a valid answer as long as we got output to parse
		if stdout.Len() == 0 {
			return nil, &StatusError{Message: "queue query failed: " + err.Error()}
		}
	}

	records := ParseQueueListing(stdout.String())
	if jobs != nil {
		annotateSessionJobs(records, jobs)
	}
	return records, nil
}

// Queue listing grammar. lpstat output is free-form and locale-dependent;
// parsing is a small ordered list of matchers with documented precedence
// rather than one regex:
//
//  1. boundary/printing: a line that contains a printing keyword and any
//     field shaped like a job id starts a new job in state printing.
//     Covers "打印机 X 正在打印 X-14 ..." where the id is mid-line.
//  2. boundary/leading-id: a line whose first field is shaped like a job
//     id starts a new job; its status comes from the first status keyword
//     found on the line, default queued. Covers the standard
//     "X-14  user  1234  date" form.
//  3. detail: any other non-blank line belongs to the current job.
//
// A blank line closes the current job. Lines before the first boundary
// are dropped. Job id shape is <token>-<digits>.
var jobIDShape = regexp.MustCompile(`^\S+-\d+$`)

// statusKeywords are scanned in order; the first hit wins. English and
// Chinese CUPS variants.
var statusKeywords = []struct {
	status   JobStatus
	keywords []string
}{
	{StatusPrinting, []string{"printing", "正在打印"}},
	{StatusCompleted, []string{"completed", "已完成"}},
	{StatusHeld, []string{"held", "已暂停"}},
	{StatusCancelled, []string{"cancelled", "已取消"}},
}

// ParseQueueListing parses raw lpstat output into job records, in
// listing order. It never fails: unparseable lines degrade to detail
// lines or are skipped.
func ParseQueueListing(text string) []JobRecord {
	records := []JobRecord{}
	var current *JobRecord

	flush := func() {
		if current != nil {
			records = append(records, *current)
			current = nil
		}
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			flush()
			continue
		}

		if id, status, ok := matchJobBoundary(line); ok {
			flush()
			current = &JobRecord{JobID: id, Status: status, Info: line}
			continue
		}
		if current != nil {
			current.Details = append(current.Details, line)
		}
	}
	flush()
	return records
}

func matchJobBoundary(line string) (string, JobStatus, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", "", false
	}

	// Matcher 1: printing keyword anywhere plus a job-id shaped field.
	if lineStatus(line) == StatusPrinting {
		for _, f := range fields {
			if jobIDShape.MatchString(f) {
				return f, StatusPrinting, true
			}
		}
	}

	// Matcher 2: job id leads the line.
	if jobIDShape.MatchString(fields[0]) {
		return fields[0], lineStatus(line), true
	}

	return "", "", false
}

func lineStatus(line string) JobStatus {
	lower := strings.ToLower(line)
	for _, entry := range statusKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.status
			}
		}
	}
	return StatusQueued
}

// Page-progress patterns, tried in order against each detail line; the
// first hit for a job wins and later detail lines are not re-scanned.
var pagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)processing\s+page\s+(\d+)`),
	regexp.MustCompile(`正在处理.*?第\s*(\d+)\s*页`),
	regexp.MustCompile(`(?i)page\s+(\d+)\s+of\s+(\d+)`),
}

// annotateSessionJobs tags records whose id the session recorded and
// pulls page progress out of their detail lines.
func annotateSessionJobs(records []JobRecord, jobs *SessionJobs) {
	for i := range records {
		rec := &records[i]
		switch {
		case jobs.OddJobID != "" && rec.JobID == jobs.OddJobID:
			rec.PageType = PageTypeOdd
			rec.TotalPages = jobs.OddPages
		case jobs.EvenJobID != "" && rec.JobID == jobs.EvenJobID:
			rec.PageType = PageTypeEven
			rec.TotalPages = jobs.EvenPages
		default:
			continue
		}
		if rec.Status != StatusPrinting {
			continue
		}
		if cur, total, ok := extractPageProgress(rec.Details); ok {
			rec.CurrentPage = cur
			if total > 0 {
				rec.TotalPages = total
			}
		}
	}
}

func extractPageProgress(details []string) (current, total int, ok bool) {
	for _, line := range details {
		for _, pat := range pagePatterns {
			m := pat.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			cur, err := strconv.Atoi(m[1])
			if err != nil || cur <= 0 {
				continue
			}
			t := 0
			if len(m) > 2 {
				if parsed, err := strconv.Atoi(m[2]); err == nil {
					t = parsed
				}
			}
			return cur, t, true
		}
	}
	if len(details) > 0 {
		log.Debug().Int("detail_lines", len(details)).Msg("no page progress found in job details")
	}
	return 0, 0, false
}
