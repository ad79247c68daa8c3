// Package pagerange parses user-supplied page selection expressions like
// "1,2,3-5,7,10-20" into normalized zero-based page indices.
package pagerange

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// InvalidRangeError reports a token that is neither a page number nor a
// start-end range.
type InvalidRangeError struct {
	Token string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid page range token: %q", e.Token)
}

// Parse resolves expr against a document of totalPages pages and returns
// the selected zero-based indices, deduplicated and sorted ascending.
//
// An empty or whitespace-only expr selects every page. Tokens are comma
// separated; each is a 1-based page number or an inclusive "start-end"
// range. Ranges are clamped into the document; a range that clamps to
// nothing is skipped. A single page number outside the document is
// silently dropped rather than clamped: existing callers depend on "99"
// against a 10-page document selecting nothing, so the asymmetry with
// ranges is kept on purpose.
func Parse(expr string, totalPages int) ([]int, error) {
	if strings.TrimSpace(expr) == "" {
		all := make([]int, totalPages)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}

	selected := make(map[int]struct{})
	tokens := strings.Split(strings.ReplaceAll(expr, " ", ""), ",")

	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if strings.Contains(tok, "-") {
			startStr, endStr, _ := strings.Cut(tok, "-")
			start, err := strconv.Atoi(startStr)
			if err != nil {
				return nil, &InvalidRangeError{Token: tok}
			}
			end, err := strconv.Atoi(endStr)
			if err != nil {
				return nil, &InvalidRangeError{Token: tok}
			}
			lo, hi := start-1, end-1
			if lo < 0 {
				lo = 0
			}
			if hi >= totalPages {
				hi = totalPages - 1
			}
			for i := lo; i <= hi; i++ {
				selected[i] = struct{}{}
			}
			continue
		}
		page, err := strconv.Atoi(tok)
		if err != nil {
			return nil, &InvalidRangeError{Token: tok}
		}
		if idx := page - 1; idx >= 0 && idx < totalPages {
			selected[idx] = struct{}{}
		}
	}

	out := make([]int, 0, len(selected))
	for i := range selected {
		out = append(out, i)
	}
	sort.Ints(out)
	return out, nil
}

// Counts reports how many of the given indices fall on odd and even
// physical pages. Index i is the document's page i+1, so even indices
// are the odd-numbered (1st, 3rd, ...) pages.
func Counts(indices []int) (odd, even int) {
	for _, i := range indices {
		if i%2 == 0 {
			odd++
		} else {
			even++
		}
	}
	return odd, even
}
