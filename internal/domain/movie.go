package domain

// MovieRecord is the slice of a dataset row the rating scan reads.
type MovieRecord struct {
	Line        int
	Certificate string
	Rating      float64
}

// SkipReason explains why a data row was left out of the average.
type SkipReason string

const (
	SkipTooFewFields      SkipReason = "too_few_fields"
	SkipUnparseableRating SkipReason = "unparseable_rating"
	SkipRatingOutOfRange  SkipReason = "rating_out_of_range"
)

// SkipReasons lists every reason in reporting order.
var SkipReasons = []SkipReason{
	SkipTooFewFields,
	SkipUnparseableRating,
	SkipRatingOutOfRange,
}
