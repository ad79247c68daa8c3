// Package web is the HTTP transport: it maps the split/print/status/
// cleanup operations onto JSON endpoints and owns nothing but request
// decoding, error mapping, and response shaping.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/duplexprint/internal/filetype"
	"github.com/local/duplexprint/internal/metrics"
	"github.com/local/duplexprint/internal/pagerange"
	"github.com/local/duplexprint/internal/printer"
	"github.com/local/duplexprint/internal/session"
	"github.com/local/duplexprint/internal/splitter"
)

const maxUploadBytes = 64 << 20

// Submitter enqueues a document on the print system.
type Submitter interface {
	Submit(ctx context.Context, req printer.SubmitRequest) (string, error)
}

// QueueResolver lists jobs currently known to the print queue.
type QueueResolver interface {
	Resolve(ctx context.Context, printerName string, jobs *printer.SessionJobs) ([]printer.JobRecord, error)
}

// Directory answers which printers exist.
type Directory interface {
	DefaultPrinter(ctx context.Context) (string, bool)
	AvailablePrinters(ctx context.Context) []string
}

// Converter turns a Word document into a PDF inside outputDir.
type Converter interface {
	ConvertToPDF(ctx context.Context, wordPath, outputDir string) (string, error)
}

// Splitter counts and partitions document pages.
type Splitter interface {
	PageCount(path string) (int, error)
	Split(srcPath, outDir string, selection []int) (splitter.Result, error)
}

// PDFSplitter adapts the splitter package to the Splitter interface.
type PDFSplitter struct{}

func (PDFSplitter) PageCount(path string) (int, error) { return splitter.PageCount(path) }
func (PDFSplitter) Split(srcPath, outDir string, selection []int) (splitter.Result, error) {
	return splitter.Split(srcPath, outDir, selection)
}

// Dependencies is everything the transport needs injected.
type Dependencies struct {
	Store    session.Store
	Submit   Submitter
	Queue    QueueResolver
	Printers Directory
	Convert  Converter
	Split    Splitter
	Debug    bool
}

// Server holds the handlers.
type Server struct {
	deps Dependencies
}

// New creates a Server.
func New(deps Dependencies) *Server {
	return &Server{deps: deps}
}

// RegisterRoutes attaches all API endpoints to mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.recoverPanics(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	mux.HandleFunc("/api/upload", s.recoverPanics(s.handleUpload))
	mux.HandleFunc("/api/print/odd", s.recoverPanics(s.handlePrint(session.SubsetOdd)))
	mux.HandleFunc("/api/print/even", s.recoverPanics(s.handlePrint(session.SubsetEven)))
	mux.HandleFunc("/api/print/status", s.recoverPanics(s.handlePrintStatus))
	mux.HandleFunc("/api/session/", s.recoverPanics(s.handleSession))
	mux.HandleFunc("/api/cleanup/", s.recoverPanics(s.handleCleanup))
	mux.HandleFunc("/api/printers", s.recoverPanics(s.handlePrinters))
}

// recoverPanics turns a handler panic into the error envelope instead of
// a dropped connection. The stack goes to the log always, to the client
// only in debug mode.
func (s *Server) recoverPanics(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().
					Interface("panic", rec).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Bytes("stack", debug.Stack()).
					Msg("handler panicked")
				s.writeError(w, http.StatusInternalServerError, "internal",
					fmt.Sprintf("internal error: %v", rec))
			}
		}()
		next(w, r)
	}
}

// Error envelope. error_type is machine-readable; a stack is attached
// only in debug mode.
type errorResp struct {
	Error     string `json:"error"`
	ErrorType string `json:"error_type"`
	Stack     string `json:"stack,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, errType, msg string) {
	resp := errorResp{Error: msg, ErrorType: errType}
	if s.deps.Debug {
		resp.Stack = string(debug.Stack())
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type uploadResp struct {
	SessionID     string `json:"session_id"`
	Filename      string `json:"filename"`
	TotalPages    int    `json:"total_pages"`
	SelectedPages int    `json:"selected_pages"`
	OddPages      int    `json:"odd_pages"`
	EvenPages     int    `json:"even_pages"`
	PageRange     string `json:"page_range"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "invalid multipart form")
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "missing file field")
		return
	}
	defer file.Close()

	filename := filepath.Base(hdr.Filename)
	if !filetype.AllowedExtension(filename) {
		s.writeError(w, http.StatusBadRequest, "unsupported_file_type",
			fmt.Sprintf("unsupported file type: %s (pdf, doc and docx are accepted)", filename))
		return
	}
	rangeExpr := strings.TrimSpace(r.FormValue("page_range"))

	id, dir, err := s.deps.Store.NewSessionDir()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "environment", "cannot create working directory")
		return
	}
	fail := func(status int, errType, msg string) {
		_ = s.deps.Store.Delete(id)
		s.writeError(w, status, errType, msg)
	}

	uploadPath := filepath.Join(dir, filename)
	if err := saveUpload(uploadPath, file); err != nil {
		fail(http.StatusInternalServerError, "environment", "cannot store uploaded file")
		return
	}

	info, err := filetype.Detect(uploadPath)
	if err != nil {
		fail(http.StatusInternalServerError, "environment", "cannot inspect uploaded file")
		return
	}
	if info.Kind == filetype.KindUnsupported {
		fail(http.StatusBadRequest, "unsupported_file_type",
			fmt.Sprintf("file content does not match a supported type (detected %s)", info.MIMEType))
		return
	}

	pdfPath := uploadPath
	if info.NeedsConversion() {
		pdfPath, err = s.deps.Convert.ConvertToPDF(r.Context(), uploadPath, dir)
		if err != nil {
			metrics.IncConversion("error")
			fail(http.StatusInternalServerError, "conversion_failed", err.Error())
			return
		}
		metrics.IncConversion("success")
	}

	total, err := s.deps.Split.PageCount(pdfPath)
	if err != nil {
		fail(http.StatusBadRequest, "unreadable_document", "document cannot be read as a PDF")
		return
	}

	selection, err := pagerange.Parse(rangeExpr, total)
	if err != nil {
		var rerr *pagerange.InvalidRangeError
		if errors.As(err, &rerr) {
			fail(http.StatusBadRequest, "invalid_page_range", err.Error())
			return
		}
		fail(http.StatusBadRequest, "invalid_page_range", "invalid page range")
		return
	}
	if len(selection) == 0 {
		fail(http.StatusBadRequest, "no_pages_selected",
			fmt.Sprintf("page range %q selects no pages of a %d-page document", rangeExpr, total))
		return
	}

	res, err := s.deps.Split.Split(pdfPath, dir, selection)
	if err != nil {
		metrics.IncSplit("error")
		fail(http.StatusInternalServerError, "split_failed", err.Error())
		return
	}
	metrics.IncSplit("success")
	metrics.ObserveSplitPages(res.SelectedCount)

	sess := &session.Session{
		ID:            id,
		Filename:      filename,
		UploadPath:    uploadPath,
		OddPath:       res.OddPath,
		EvenPath:      res.EvenPath,
		TotalPages:    res.TotalPages,
		SelectedCount: res.SelectedCount,
		PageRange:     rangeExpr,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.deps.Store.Put(sess); err != nil {
		fail(http.StatusInternalServerError, "environment", "cannot persist session")
		return
	}

	log.Info().
		Str("session_id", id).
		Str("filename", filename).
		Int("total_pages", res.TotalPages).
		Int("selected", res.SelectedCount).
		Msg("upload split into print session")

	writeJSON(w, http.StatusOK, uploadResp{
		SessionID:     id,
		Filename:      filename,
		TotalPages:    res.TotalPages,
		SelectedPages: res.SelectedCount,
		OddPages:      res.OddCount,
		EvenPages:     res.EvenCount,
		PageRange:     rangeEcho(rangeExpr),
	})
}

func saveUpload(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	defer dst.Close()
	_, err = io.Copy(dst, src)
	return err
}

func rangeEcho(expr string) string {
	if expr == "" {
		return "all"
	}
	return expr
}

type printReq struct {
	SessionID   string `json:"session_id"`
	PrinterName string `json:"printer_name"`
	Quality     string `json:"print_quality"`
	Order       string `json:"output_order"`
}

type printResp struct {
	Success     bool   `json:"success"`
	JobID       string `json:"job_id,omitempty"`
	PrinterName string `json:"printer_name,omitempty"`
	Message     string `json:"message"`
}

func (s *Server) handlePrint(sub session.Subset) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		defer r.Body.Close()
		var req printReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
			return
		}
		if req.SessionID == "" {
			s.writeError(w, http.StatusBadRequest, "invalid_request", "missing session_id")
			return
		}

		sess, err := s.deps.Store.Get(req.SessionID)
		if err != nil {
			s.writeSessionError(w, err)
			return
		}
		path, err := sess.SubsetPath(sub)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		if _, err := os.Stat(path); err != nil {
			s.writeError(w, http.StatusBadRequest, "subset_empty",
				fmt.Sprintf("the %s pages file does not exist for this session", sub))
			return
		}

		// Resolve the default here so the session records the printer
		// actually used, not an empty string.
		printerName := req.PrinterName
		if printerName == "" {
			if def, ok := s.deps.Printers.DefaultPrinter(r.Context()); ok {
				printerName = def
			}
		}

		start := time.Now()
		jobID, err := s.deps.Submit.Submit(r.Context(), printer.SubmitRequest{
			FilePath:    path,
			PrinterName: printerName,
			Quality:     req.Quality,
			Order:       req.Order,
		})
		if err != nil {
			metrics.ObserveSubmission(string(sub), "error", time.Since(start))
			s.writeSubmitError(w, err)
			return
		}
		metrics.ObserveSubmission(string(sub), "success", time.Since(start))

		if _, err := s.deps.Store.Update(req.SessionID, func(cur *session.Session) error {
			cur.RecordSubmission(sub, jobID, printerName)
			return nil
		}); err != nil {
			// The job is already on the queue; report success but say the
			// bookkeeping failed.
			log.Error().Err(err).Str("session_id", req.SessionID).Msg("failed to record submission")
		}

		writeJSON(w, http.StatusOK, printResp{
			Success:     true,
			JobID:       jobID,
			PrinterName: printerName,
			Message:     fmt.Sprintf("%s pages submitted for printing", sub),
		})
	}
}

type statusResp struct {
	PrinterName string              `json:"printer_name,omitempty"`
	Jobs        []printer.JobRecord `json:"jobs"`
}

func (s *Server) handlePrintStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	printerName := r.URL.Query().Get("printer_name")
	sessionID := r.URL.Query().Get("session_id")

	var jobs *printer.SessionJobs
	if sessionID != "" {
		sess, err := s.deps.Store.Get(sessionID)
		if err != nil {
			s.writeSessionError(w, err)
			return
		}
		// The printer the session actually printed on beats the query
		// parameter.
		if sess.PrinterName != "" {
			printerName = sess.PrinterName
		}
		selection, perr := pagerange.Parse(sess.PageRange, sess.TotalPages)
		oddN, evenN := 0, 0
		if perr == nil {
			oddN, evenN = pagerange.Counts(selection)
		}
		jobs = &printer.SessionJobs{
			OddJobID:  sess.OddJobID,
			EvenJobID: sess.EvenJobID,
			OddPages:  oddN,
			EvenPages: evenN,
		}
	}

	records, err := s.deps.Queue.Resolve(r.Context(), printerName, jobs)
	if err != nil {
		metrics.IncStatusQuery("error")
		var serr *printer.StatusError
		if errors.As(err, &serr) && serr.Timeout {
			s.writeError(w, http.StatusInternalServerError, "timeout", serr.Message)
			return
		}
		if errors.Is(err, printer.ErrStatusToolUnavailable) {
			s.writeError(w, http.StatusInternalServerError, "environment", err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, "status_query_failed", err.Error())
		return
	}
	metrics.IncStatusQuery("success")

	writeJSON(w, http.StatusOK, statusResp{PrinterName: printerName, Jobs: records})
}

type sessionResp struct {
	*session.Session
	// shadows the stored expression so an all-pages session still
	// reports "all" instead of omitting the field
	PageRange   string `json:"page_range"`
	OddExists   bool   `json:"odd_exists"`
	EvenExists  bool   `json:"even_exists"`
	OddPages    int    `json:"odd_pages"`
	EvenPages   int    `json:"even_pages"`
	CanContinue bool   `json:"can_continue"`
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/session/")
	sess, err := s.deps.Store.Get(id)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}

	oddExists := fileExists(sess.OddPath)
	evenExists := fileExists(sess.EvenPath)
	oddN, evenN := 0, 0
	if selection, perr := pagerange.Parse(sess.PageRange, sess.TotalPages); perr == nil {
		oddN, evenN = pagerange.Counts(selection)
	}

	writeJSON(w, http.StatusOK, sessionResp{
		Session:     sess,
		PageRange:   rangeEcho(sess.PageRange),
		OddExists:   oddExists,
		EvenExists:  evenExists,
		OddPages:    oddN,
		EvenPages:   evenN,
		CanContinue: sess.CanContinue(oddExists),
	})
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/cleanup/")
	if err := s.deps.Store.Delete(id); err != nil {
		s.writeError(w, http.StatusInternalServerError, "environment", "cleanup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "session cleaned up"})
}

type printersResp struct {
	Printers []string `json:"printers"`
	Default  string   `json:"default,omitempty"`
}

func (s *Server) handlePrinters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	resp := printersResp{Printers: s.deps.Printers.AvailablePrinters(r.Context())}
	if resp.Printers == nil {
		resp.Printers = []string{}
	}
	if def, ok := s.deps.Printers.DefaultPrinter(r.Context()); ok {
		resp.Default = def
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "session_not_found", "session not found")
		return
	}
	s.writeError(w, http.StatusInternalServerError, "environment", err.Error())
}

// writeSubmitError maps a failed lp submission to a status code: caller
// mistakes are 4xx, everything about the host print system is 5xx.
func (s *Server) writeSubmitError(w http.ResponseWriter, err error) {
	var serr *printer.SubmitError
	if errors.As(err, &serr) {
		status := http.StatusInternalServerError
		switch serr.Kind {
		case printer.FailurePrecondition:
			status = http.StatusBadRequest
		case printer.FailurePrinterNotFound:
			status = http.StatusNotFound
		}
		s.writeError(w, status, string(serr.Kind), serr.Message)
		return
	}
	switch {
	case errors.Is(err, printer.ErrNoDefaultPrinter):
		s.writeError(w, http.StatusBadRequest, string(printer.FailureNoDefaultDest), err.Error())
	case errors.Is(err, printer.ErrPrintToolUnavailable):
		s.writeError(w, http.StatusInternalServerError, "environment", err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, "generic", err.Error())
	}
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
