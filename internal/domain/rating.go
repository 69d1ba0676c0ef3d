package domain

import "time"

// Valid ratings fall in [MinRating, MaxRating].
const (
	MinRating = 0.0
	MaxRating = 10.0
)

// ScanReport summarizes one pass over a dataset for a single certificate.
type ScanReport struct {
	Certificate string
	Average     float64
	Matched     int
	Rows        int
	Skipped     map[SkipReason]int
}

// SkippedTotal returns the number of rows dropped for any reason.
func (r ScanReport) SkippedTotal() int {
	total := 0
	for _, n := range r.Skipped {
		total += n
	}
	return total
}

// CertificateAverage is a stored snapshot of a computed average.
type CertificateAverage struct {
	Dataset     string
	Certificate string
	Average     float64
	Matched     int64
	Rows        int64
	Skipped     int64
	ComputedAt  time.Time
}
