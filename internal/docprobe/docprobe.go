// Package docprobe opens PDF documents through a pluggable backend to
// validate them and count pages. It backs the splitter when pdfcpu cannot
// parse a file that the rendering library still accepts.
package docprobe

import (
	"errors"
	"fmt"
)

// Doc abstracts an opened PDF document.
type Doc interface {
	NumPage() int
	Close() error
}

// Opener abstracts opening a PDF path into a Doc.
type Opener interface {
	Open(path string) (Doc, error)
}

// defaultOpener is provided in doc_open_fitz.go using go-fitz.
var defaultOpener Opener

// setDefaultOpener allows swapping the default opener, useful for tests or alternate backends.
func setDefaultOpener(o Opener) { defaultOpener = o }

// PageCount opens the document at path and returns its page count.
func PageCount(path string) (int, error) {
	if defaultOpener == nil {
		return 0, errors.New("no PDF opener configured")
	}
	d, err := defaultOpener.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer d.Close()
	return d.NumPage(), nil
}

// Validate reports whether the document at path opens and has at least
// one page.
func Validate(path string) error {
	n, err := PageCount(path)
	if err != nil {
		return err
	}
	if n <= 0 {
		return fmt.Errorf("document has no pages: %s", path)
	}
	return nil
}
