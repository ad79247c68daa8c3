// Package splitter partitions a selected set of PDF pages into the two
// subsets of a manual-duplex print run and writes each subset as its own
// document.
package splitter

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog/log"

	"github.com/local/duplexprint/internal/docprobe"
)

// ErrNoPagesSelected is returned when the selection resolves to nothing.
var ErrNoPagesSelected = errors.New("no pages selected")

// SourceError wraps failures to read or parse the input document.
type SourceError struct {
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("cannot read source document %s: %v", e.Path, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Result describes one completed split. OddCount+EvenCount always equals
// SelectedCount. A subset with zero pages has its path set but no file
// written.
type Result struct {
	OddPath       string
	EvenPath      string
	TotalPages    int
	SelectedCount int
	OddCount      int
	EvenCount     int
}

// Partition divides the selected zero-based indices by their position in
// the original document: index i goes to the odd subset iff i%2 == 0
// (the document's 1st, 3rd, 5th... pages), otherwise to the even subset.
//
// The returned odd subset is in descending index order and the even
// subset in ascending order. The asymmetry is the whole point: the even
// pass prints smallest-first, the stack is fed back into the tray, and
// the odd pass prints largest-first onto the backs, so the final pile
// reads front-to-back in document order on a simple manual-feed printer.
func Partition(selection []int) (odd []int, even []int) {
	for _, idx := range selection {
		if idx%2 == 0 {
			odd = append(odd, idx)
		} else {
			even = append(even, idx)
		}
	}
	for i, j := 0, len(odd)-1; i < j; i, j = i+1, j-1 {
		odd[i], odd[j] = odd[j], odd[i]
	}
	return odd, even
}

// PageCount returns the page count of the PDF at path. pdfcpu is asked
// first; documents it rejects are retried through the rendering backend.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err == nil {
		return n, nil
	}
	log.Debug().Err(err).Str("file", path).Msg("pdfcpu page count failed, trying fallback")
	m, ferr := docprobe.PageCount(path)
	if ferr != nil {
		return 0, &SourceError{Path: path, Err: err}
	}
	return m, nil
}

// Split writes odd_pages.pdf and even_pages.pdf into outDir containing
// the selected pages of srcPath, partitioned and ordered per Partition.
// Page content and rotation are carried over untouched.
func Split(srcPath, outDir string, selection []int) (Result, error) {
	if len(selection) == 0 {
		return Result{}, ErrNoPagesSelected
	}

	total, err := PageCount(srcPath)
	if err != nil {
		return Result{}, err
	}

	odd, even := Partition(selection)
	res := Result{
		OddPath:       filepath.Join(outDir, "odd_pages.pdf"),
		EvenPath:      filepath.Join(outDir, "even_pages.pdf"),
		TotalPages:    total,
		SelectedCount: len(selection),
		OddCount:      len(odd),
		EvenCount:     len(even),
	}

	if err := writeSubset(srcPath, res.OddPath, odd); err != nil {
		return Result{}, err
	}
	if err := writeSubset(srcPath, res.EvenPath, even); err != nil {
		return Result{}, err
	}

	log.Info().
		Str("source", srcPath).
		Int("total_pages", total).
		Int("odd", len(odd)).
		Int("even", len(even)).
		Msg("document split")
	return res, nil
}

// writeSubset collects the given zero-based indices, in order, into a new
// document. Collect preserves the order of the selection, which is what
// carries the descending odd pass.
func writeSubset(srcPath, outPath string, indices []int) error {
	if len(indices) == 0 {
		log.Debug().Str("file", outPath).Msg("subset empty, no file written")
		return nil
	}
	pages := make([]string, len(indices))
	for i, idx := range indices {
		pages[i] = strconv.Itoa(idx + 1)
	}
	if err := api.CollectFile(srcPath, outPath, pages, nil); err != nil {
		return &SourceError{Path: srcPath, Err: err}
	}
	return nil
}
