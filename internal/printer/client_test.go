package printer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	loc := NewLocator(time.Second)
	disc := NewDiscovery(loc, time.Second)
	return NewClient(loc, disc, "/usr/bin/lp", 2*time.Second)
}

func TestSubmitMissingFile(t *testing.T) {
	c := newTestClient(t)
	_, err := c.Submit(context.Background(), SubmitRequest{FilePath: "/nonexistent/doc.pdf"})
	require.Error(t, err)
	var serr *SubmitError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, FailurePrecondition, serr.Kind)
	assert.Contains(t, serr.Message, "/nonexistent/doc.pdf")
}

func TestSubmitUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}
	p := filepath.Join(t.TempDir(), "locked.pdf")
	require.NoError(t, os.WriteFile(p, []byte("%PDF-1.4"), 0o000))
	c := newTestClient(t)
	_, err := c.Submit(context.Background(), SubmitRequest{FilePath: p})
	var serr *SubmitError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, FailurePrecondition, serr.Kind)
}

func TestNormalizeQuality(t *testing.T) {
	assert.Equal(t, QualityHigh, NormalizeQuality("High"))
	assert.Equal(t, QualityDraft, NormalizeQuality("Draft"))
	assert.Equal(t, QualityNormal, NormalizeQuality("Normal"))
	// unknown values silently fall back
	assert.Equal(t, QualityNormal, NormalizeQuality("Best"))
	assert.Equal(t, QualityNormal, NormalizeQuality(""))
	assert.Equal(t, QualityNormal, NormalizeQuality("high"))
}

func TestNormalizeOrder(t *testing.T) {
	assert.Equal(t, OrderReverse, NormalizeOrder("reverse"))
	assert.Equal(t, OrderNormal, NormalizeOrder("normal"))
	assert.Equal(t, OrderNormal, NormalizeOrder("backwards"))
	assert.Equal(t, OrderNormal, NormalizeOrder(""))
}

func TestClassifySubmitFailureOrder(t *testing.T) {
	ctx := context.Background()
	execErr := errors.New("exit status 1")

	tests := []struct {
		name   string
		stderr string
		want   FailureKind
	}{
		{"printer not found", "lp: Unable to locate printer myprinter", FailurePrinterNotFound},
		{"printer does not exist", "The printer does not exist.", FailurePrinterNotFound},
		{"permission", "lp: Permission denied", FailurePermissionDenied},
		{"no default", "lp: Error - no default destination available.", FailureNoDefaultDest},
		{"missing library", "dyld: Library not loaded: No such file or directory", FailureMissingBinary},
		{"generic", "something unexpected happened", FailureGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serr := classifySubmitFailure(ctx, execErr, "", tt.stderr, "myprinter", "/usr/bin/lp")
			assert.Equal(t, tt.want, serr.Kind)
		})
	}
}

func TestClassifySubmitFailureTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()
	serr := classifySubmitFailure(ctx, ctx.Err(), "", "", "p", "/usr/bin/lp")
	assert.Equal(t, FailureTimeout, serr.Kind)
	assert.True(t, serr.Retryable())
}

func TestClassifySubmitFailureVerbatimOutput(t *testing.T) {
	serr := classifySubmitFailure(context.Background(), errors.New("exit status 9"), "", "weird backend noise", "p", "/usr/bin/lp")
	assert.Equal(t, FailureGeneric, serr.Kind)
	assert.Contains(t, serr.Message, "weird backend noise")
	assert.False(t, serr.Retryable())
}
