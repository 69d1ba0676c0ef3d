package ratings

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Clark-Hu/certavg/internal/domain"
)

// Columns holds the 0-based positions of the fields a scan reads.
type Columns struct {
	Certificate int
	Rating      int
}

// DefaultColumns matches the IMDB movies dataset layout.
var DefaultColumns = Columns{Certificate: 3, Rating: 7}

// MinFields is the shortest row that carries both columns.
func (c Columns) MinFields() int {
	return max(c.Certificate, c.Rating) + 1
}

func (c Columns) validate() error {
	if c.Certificate < 0 || c.Rating < 0 {
		return fmt.Errorf("column indices must be non-negative (certificate=%d, rating=%d)", c.Certificate, c.Rating)
	}
	return nil
}

// Outcome is the result of classifying one data row: either a valid record
// or the reason it was skipped.
type Outcome struct {
	Record domain.MovieRecord
	Reason domain.SkipReason
}

// Valid reports whether the row produced a record.
func (o Outcome) Valid() bool { return o.Reason == "" }

// Classify validates the parsed fields of one data row. It never fails;
// rows that cannot be used come back with a skip reason.
func Classify(line int, fields []string, cols Columns) Outcome {
	if len(fields) < cols.MinFields() {
		return Outcome{Reason: domain.SkipTooFewFields}
	}

	rating, err := strconv.ParseFloat(strings.TrimSpace(fields[cols.Rating]), 64)
	if err != nil {
		return Outcome{Reason: domain.SkipUnparseableRating}
	}
	if math.IsNaN(rating) || rating < domain.MinRating || rating > domain.MaxRating {
		return Outcome{Reason: domain.SkipRatingOutOfRange}
	}

	return Outcome{Record: domain.MovieRecord{
		Line:        line,
		Certificate: strings.TrimSpace(fields[cols.Certificate]),
		Rating:      rating,
	}}
}

// Accumulator keeps the running sum and count for one scan.
type Accumulator struct {
	total float64
	count int
}

// Add folds one rating into the accumulator.
func (a *Accumulator) Add(rating float64) {
	a.total += rating
	a.count++
}

// Count returns how many ratings were added.
func (a *Accumulator) Count() int { return a.count }

// Mean returns total/count, or false when nothing was added.
func (a *Accumulator) Mean() (float64, bool) {
	if a.count == 0 {
		return 0, false
	}
	return a.total / float64(a.count), true
}
