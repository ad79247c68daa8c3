package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanContinueTruthTable(t *testing.T) {
	tests := []struct {
		name        string
		evenPrinted bool
		oddPrinted  bool
		oddExists   bool
		want        bool
	}{
		{"even done, odd pending, file present", true, false, true, true},
		{"even done, odd pending, file gone", true, false, false, false},
		{"nothing printed", false, false, true, false},
		{"both printed", true, true, true, false},
		{"only odd printed", false, true, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Session{EvenPrinted: tt.evenPrinted, OddPrinted: tt.oddPrinted}
			assert.Equal(t, tt.want, s.CanContinue(tt.oddExists))
		})
	}
}

func TestRecordSubmission(t *testing.T) {
	s := &Session{}

	s.RecordSubmission(SubsetEven, "HP-7", "HP_LaserJet")
	assert.True(t, s.EvenPrinted)
	assert.False(t, s.OddPrinted)
	assert.Equal(t, "HP-7", s.EvenJobID)
	assert.Empty(t, s.OddJobID)
	assert.Equal(t, "HP_LaserJet", s.PrinterName)

	s.RecordSubmission(SubsetOdd, "HP-8", "HP_LaserJet")
	assert.True(t, s.OddPrinted)
	assert.Equal(t, "HP-8", s.OddJobID)
	// even flag untouched by the odd submission
	assert.True(t, s.EvenPrinted)
	assert.Equal(t, "HP-7", s.EvenJobID)
}

func TestSubsetHelpers(t *testing.T) {
	s := &Session{OddPath: "/tmp/x/odd_pages.pdf", EvenPath: "/tmp/x/even_pages.pdf"}

	p, err := s.SubsetPath(SubsetOdd)
	assert.NoError(t, err)
	assert.Equal(t, "/tmp/x/odd_pages.pdf", p)

	p, err = s.SubsetPath(SubsetEven)
	assert.NoError(t, err)
	assert.Equal(t, "/tmp/x/even_pages.pdf", p)

	_, err = s.SubsetPath(Subset("sideways"))
	assert.Error(t, err)

	assert.False(t, s.Printed(SubsetOdd))
	s.OddPrinted = true
	assert.True(t, s.Printed(SubsetOdd))
	assert.False(t, s.Printed(SubsetEven))
}
