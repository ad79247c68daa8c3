package docprobe

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDoc struct{ pages int }

func (d stubDoc) NumPage() int { return d.pages }
func (d stubDoc) Close() error { return nil }

type stubOpener struct {
	pages int
	err   error
}

func (o stubOpener) Open(path string) (Doc, error) {
	if o.err != nil {
		return nil, o.err
	}
	return stubDoc{pages: o.pages}, nil
}

func withOpener(t *testing.T, o Opener) {
	t.Helper()
	prev := defaultOpener
	setDefaultOpener(o)
	t.Cleanup(func() { setDefaultOpener(prev) })
}

func TestPageCount(t *testing.T) {
	withOpener(t, stubOpener{pages: 7})
	n, err := PageCount("any.pdf")
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestPageCountOpenError(t *testing.T) {
	boom := errors.New("corrupt header")
	withOpener(t, stubOpener{err: boom})
	_, err := PageCount("bad.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestValidate(t *testing.T) {
	withOpener(t, stubOpener{pages: 1})
	assert.NoError(t, Validate("ok.pdf"))

	withOpener(t, stubOpener{pages: 0})
	assert.Error(t, Validate("empty.pdf"))
}
