// Package converter turns Word documents into PDF through LibreOffice,
// an external collaborator the rest of the pipeline treats as opaque:
// a Word upload goes in, converted.pdf comes out.
package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/duplexprint/internal/docprobe"
)

// ErrConverterUnavailable means no soffice binary could be found.
var ErrConverterUnavailable = errors.New("LibreOffice (soffice) not found; install it to print Word documents")

// soffice candidates, probed in order. The bare name goes through PATH.
var sofficePaths = []string{
	"soffice",
	"/Applications/LibreOffice.app/Contents/MacOS/soffice",
	"/usr/bin/soffice",
	"/usr/local/bin/soffice",
}

// outputName is the fixed name the converted document gets, so the rest
// of the pipeline never depends on the upload's filename.
const outputName = "converted.pdf"

// Soffice converts documents via LibreOffice in headless mode.
type Soffice struct {
	timeout time.Duration
}

// New creates a converter. timeout bounds one conversion run.
func New(timeout time.Duration) *Soffice {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Soffice{timeout: timeout}
}

func locateSoffice() (string, bool) {
	for _, cand := range sofficePaths {
		if !strings.Contains(cand, "/") {
			if p, err := exec.LookPath(cand); err == nil {
				return p, true
			}
			continue
		}
		if info, err := os.Stat(cand); err == nil && !info.IsDir() {
			return cand, true
		}
	}
	return "", false
}

// ConvertToPDF converts wordPath and returns the path of the produced
// PDF inside outputDir.
func (c *Soffice) ConvertToPDF(ctx context.Context, wordPath, outputDir string) (string, error) {
	soffice, ok := locateSoffice()
	if !ok {
		return "", ErrConverterUnavailable
	}

	// Unique profile dir so parallel conversions don't fight over the
	// LibreOffice user installation lock.
	profileDir := filepath.Join(os.TempDir(), fmt.Sprintf("soffice_profile_%s", uuid.New().String()))
	if err := os.MkdirAll(profileDir, 0o755); err != nil {
		return "", fmt.Errorf("create profile dir: %w", err)
	}
	defer os.RemoveAll(profileDir)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, soffice,
		fmt.Sprintf("-env:UserInstallation=file://%s", profileDir),
		"--headless",
		"--convert-to", "pdf",
		"--outdir", outputDir,
		wordPath,
	)

	start := time.Now()
	log.Info().Str("input", wordPath).Str("outdir", outputDir).Msg("converting Word document")
	if out, err := cmd.CombinedOutput(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("conversion timed out after %v", c.timeout)
		}
		return "", fmt.Errorf("conversion failed: %v: %s", err, strings.TrimSpace(string(out)))
	}

	pdfPath, err := finishConversion(wordPath, outputDir)
	if err != nil {
		return "", err
	}

	log.Info().Str("output", pdfPath).Dur("duration", time.Since(start)).Msg("conversion successful")
	return pdfPath, nil
}

// finishConversion normalizes the produced file name and checks the
// result actually opens as a PDF. soffice exits zero even when it emits
// a broken or empty document.
func finishConversion(wordPath, outputDir string) (string, error) {
	pdfPath := filepath.Join(outputDir, outputName)
	produced, err := findProducedPDF(wordPath, outputDir)
	if err != nil {
		return "", err
	}
	if produced != pdfPath {
		if err := os.Rename(produced, pdfPath); err != nil {
			log.Warn().Err(err).Str("from", produced).Str("to", pdfPath).Msg("failed to rename converted file")
			pdfPath = produced
		}
	}
	if err := docprobe.Validate(pdfPath); err != nil {
		return "", fmt.Errorf("converted document is unusable: %w", err)
	}
	return pdfPath, nil
}

// findProducedPDF locates the file soffice wrote: normally the input's
// basename with a .pdf extension, otherwise any PDF in the output dir.
func findProducedPDF(wordPath, outputDir string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(wordPath), filepath.Ext(wordPath))
	expected := filepath.Join(outputDir, base+".pdf")
	if _, err := os.Stat(expected); err == nil {
		return expected, nil
	}
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return "", fmt.Errorf("read output dir: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".pdf") {
			return filepath.Join(outputDir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("conversion produced no PDF in %s", outputDir)
}
