package filetype

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowedExtension(t *testing.T) {
	assert.True(t, AllowedExtension("report.pdf"))
	assert.True(t, AllowedExtension("REPORT.PDF"))
	assert.True(t, AllowedExtension("letter.doc"))
	assert.True(t, AllowedExtension("letter.docx"))
	assert.False(t, AllowedExtension("image.png"))
	assert.False(t, AllowedExtension("archive.zip"))
	assert.False(t, AllowedExtension("noext"))
	assert.False(t, AllowedExtension(""))
}

func TestDetectPDF(t *testing.T) {
	p := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(p, []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n"), 0o644))

	info, err := Detect(p)
	require.NoError(t, err)
	assert.Equal(t, KindPDF, info.Kind)
	assert.False(t, info.NeedsConversion())
}

func TestDetectUnsupported(t *testing.T) {
	p := filepath.Join(t.TempDir(), "fake.pdf")
	require.NoError(t, os.WriteFile(p, []byte("just some text pretending"), 0o644))

	info, err := Detect(p)
	require.NoError(t, err)
	assert.Equal(t, KindUnsupported, info.Kind)
}

func TestDetectMissingFile(t *testing.T) {
	_, err := Detect(filepath.Join(t.TempDir(), "absent.pdf"))
	assert.Error(t, err)
}
