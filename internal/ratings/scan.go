// Package ratings computes the average rating of the movies in a CSV
// dataset that carry a given certificate.
package ratings

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Clark-Hu/certavg/internal/csvline"
	"github.com/Clark-Hu/certavg/internal/domain"
	"github.com/Clark-Hu/certavg/internal/metrics"
)

const maxLineBytes = 1 << 20 // 1 MiB

// Options tunes a scan. The zero value reads columns 3 and 7 with legacy
// quoting and logs to slog.Default().
type Options struct {
	QuoteMode csvline.Mode
	// Columns overrides DefaultColumns when non-zero.
	Columns   Columns
	Logger    *slog.Logger
	Metrics   *metrics.Recorder
}

func (o Options) columns() Columns {
	if o.Columns == (Columns{}) {
		return DefaultColumns
	}
	return o.Columns
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// AverageRating returns the mean rating of the rows in filePath whose
// certificate equals certificate exactly.
func AverageRating(ctx context.Context, filePath, certificate string, opts Options) (float64, error) {
	report, err := Scan(ctx, filePath, certificate, opts)
	if err != nil {
		return 0, err
	}
	return report.Average, nil
}

// Scan reads filePath once, skipping the header line, and returns the
// average together with row and skip counts. Malformed rows are counted and
// skipped; file-level failures abort the scan with an *Error.
func Scan(ctx context.Context, filePath, certificate string, opts Options) (domain.ScanReport, error) {
	started := time.Now()
	report, err := scan(ctx, filePath, certificate, opts)
	outcome := "ok"
	if err != nil {
		outcome = string(KindOf(err))
	}
	opts.Metrics.ScanFinished(outcome, time.Since(started))

	logger := opts.logger()
	if err != nil {
		logger.Warn("dataset scan failed",
			slog.String("path", filePath),
			slog.String("certificate", certificate),
			slog.String("kind", outcome),
			slog.String("error", err.Error()))
		return report, err
	}
	logger.Info("dataset scanned",
		slog.String("path", filePath),
		slog.String("certificate", certificate),
		slog.Int("rows", report.Rows),
		slog.Int("matched", report.Matched),
		slog.Int("skipped", report.SkippedTotal()),
		slog.Float64("average", report.Average))
	return report, nil
}

func scan(ctx context.Context, filePath, certificate string, opts Options) (domain.ScanReport, error) {
	report := domain.ScanReport{
		Certificate: certificate,
		Skipped:     make(map[domain.SkipReason]int, len(domain.SkipReasons)),
	}

	cols := opts.columns()
	if err := cols.validate(); err != nil {
		return report, &Error{Kind: KindSchema, Path: filePath, Certificate: certificate, Err: err}
	}

	f, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return report, notFound(filePath, err)
		}
		return report, unexpected(filePath, err)
	}
	defer f.Close()

	logger := opts.logger()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var acc Accumulator
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return report, unexpected(filePath, err)
		}
		raw := scanner.Text()
		if !utf8.ValidString(raw) {
			return report, unexpected(filePath, fmt.Errorf("line %d: invalid UTF-8", lineNo))
		}
		if lineNo == 1 {
			continue
		}

		report.Rows++
		opts.Metrics.RowScanned()

		fields := csvline.ParseMode(strings.TrimSpace(raw), opts.QuoteMode)
		outcome := Classify(lineNo, fields, cols)
		if !outcome.Valid() {
			report.Skipped[outcome.Reason]++
			opts.Metrics.RowSkipped(outcome.Reason)
			logger.Debug("row skipped",
				slog.Int("line", lineNo),
				slog.String("reason", string(outcome.Reason)))
			continue
		}
		if outcome.Record.Certificate == certificate {
			acc.Add(outcome.Record.Rating)
		}
	}
	if err := scanner.Err(); err != nil {
		return report, unexpected(filePath, fmt.Errorf("read dataset: %w", err))
	}

	avg, ok := acc.Mean()
	if !ok {
		return report, &Error{Kind: KindNoMatchingRecords, Path: filePath, Certificate: certificate}
	}
	report.Average = avg
	report.Matched = acc.Count()
	return report, nil
}
