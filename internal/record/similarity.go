package record

import (
	"strings"
	"unicode"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// NormalizePlate uppercases a plate reading and drops everything that is not
// a letter or digit.
func NormalizePlate(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PairSimilarity compares the front and rear readings of a record, from 0
// (nothing in common) to 1 (identical after normalization). The second
// result is false when either reading is empty.
func PairSimilarity(r SourceRecord) (float64, bool) {
	front := NormalizePlate(r.Get(ColumnFrontText))
	rear := NormalizePlate(r.Get(ColumnRearText))
	if front == "" || rear == "" {
		return 0, false
	}
	lev := metrics.NewLevenshtein()
	lev.CaseSensitive = false
	return strutil.Similarity(front, rear, lev), true
}
