// Package filetype gates uploads to the document kinds the print
// pipeline can handle, using magic bytes rather than trusting the
// filename.
package filetype

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// Kind is the document category an upload resolves to.
type Kind string

const (
	KindPDF         Kind = "pdf"
	KindWord        Kind = "word"
	KindUnsupported Kind = "unsupported"
)

// Info describes a detected upload.
type Info struct {
	Kind      Kind
	MIMEType  string
	Extension string
}

// NeedsConversion reports whether the file must pass through the Word
// converter before splitting.
func (i *Info) NeedsConversion() bool { return i.Kind == KindWord }

// AllowedExtension checks the claimed filename before anything is
// stored. Only pdf, doc and docx uploads are accepted.
func AllowedExtension(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".doc", ".docx":
		return true
	}
	return false
}

// Detect sniffs the stored file and classifies it. A file whose content
// does not match any supported kind is reported as unsupported, not as
// an error.
func Detect(filePath string) (*Info, error) {
	mtype, err := mimetype.DetectFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}

	mimeType := mtype.String()
	ext := strings.ToLower(filepath.Ext(filePath))
	log.Debug().Str("mime", mimeType).Str("ext", ext).Str("file", filePath).Msg("detected file type")

	info := &Info{MIMEType: mimeType, Extension: ext}
	switch {
	case mimeType == "application/pdf":
		info.Kind = KindPDF
	case mimeType == "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		info.Kind = KindWord
	case mimeType == "application/msword":
		info.Kind = KindWord
	// docx is a ZIP container; some producers are detected generically
	case (mimeType == "application/zip" || strings.Contains(mimeType, "application/x-zip")) && ext == ".docx":
		info.Kind = KindWord
	// legacy .doc is OLE/CFB storage
	case (mimeType == "application/x-ole-storage" || mimeType == "application/x-cfb") && ext == ".doc":
		info.Kind = KindWord
	default:
		info.Kind = KindUnsupported
	}
	return info, nil
}
