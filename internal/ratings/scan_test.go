package ratings

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/Clark-Hu/certavg/internal/csvline"
	"github.com/Clark-Hu/certavg/internal/domain"
	"github.com/Clark-Hu/certavg/internal/logging"
	"github.com/Clark-Hu/certavg/internal/metrics"
)

const header = "Id,Title,Year,Certificate,Genre,Duration,Director,Rating"

func writeDataset(t testing.TB, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movies.csv")
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func quietOptions() Options {
	return Options{Logger: logging.Discard()}
}

func TestAverageRating_SingleMatch(t *testing.T) {
	path := writeDataset(t, header, "1,Heat,1995,R,Crime,170,Mann,7.5")

	avg, err := AverageRating(context.Background(), path, "R", quietOptions())
	require.NoError(t, err)
	assert.Equal(t, 7.5, avg)
}

func TestAverageRating_TwoMatches(t *testing.T) {
	path := writeDataset(t, header,
		"1,A,2001,R,Drama,100,X,6.0",
		"2,B,2002,PG,Drama,100,Y,9.0",
		"3,C,2003,R,Drama,100,Z,8.0",
	)

	avg, err := AverageRating(context.Background(), path, "R", quietOptions())
	require.NoError(t, err)
	assert.Equal(t, 7.0, avg)
}

func TestAverageRating_AllOutOfRange(t *testing.T) {
	path := writeDataset(t, header,
		"1,A,2001,R,Drama,100,X,11",
		"2,B,2002,PG,Drama,100,Y,-1",
	)

	for _, cert := range []string{"R", "PG", "G"} {
		_, err := AverageRating(context.Background(), path, cert, quietOptions())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoMatchingRecords)
		assert.Equal(t, KindNoMatchingRecords, KindOf(err))
	}
}

func TestAverageRating_CertificateAbsent(t *testing.T) {
	path := writeDataset(t, header, "1,A,2001,R,Drama,100,X,6.0")

	_, err := AverageRating(context.Background(), path, "NC-17", quietOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoMatchingRecords)
	assert.Equal(t, "no movies found with certificate: NC-17", err.Error())
}

func TestAverageRating_CaseSensitive(t *testing.T) {
	path := writeDataset(t, header, "1,A,2001,r,Drama,100,X,6.0")

	_, err := AverageRating(context.Background(), path, "R", quietOptions())
	assert.ErrorIs(t, err, ErrNoMatchingRecords)
}

func TestAverageRating_Idempotent(t *testing.T) {
	path := writeDataset(t, header,
		"1,A,2001,R,Drama,100,X,6.1",
		"2,B,2002,R,Drama,100,Y,7.3",
		"3,C,2003,R,Drama,100,Z,8.9",
	)

	first, err := AverageRating(context.Background(), path, "R", quietOptions())
	require.NoError(t, err)
	second, err := AverageRating(context.Background(), path, "R", quietOptions())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAverageRating_EmptyAndHeaderOnly(t *testing.T) {
	for name, path := range map[string]string{
		"empty":       writeDataset(t),
		"header only": writeDataset(t, header),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := AverageRating(context.Background(), path, "R", quietOptions())
			assert.ErrorIs(t, err, ErrNoMatchingRecords)
		})
	}
}

func TestAverageRating_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.csv")

	_, err := AverageRating(context.Background(), path, "R", quietOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), path)
}

func TestAverageRating_Directory(t *testing.T) {
	_, err := AverageRating(context.Background(), t.TempDir(), "R", quietOptions())
	require.Error(t, err)
	assert.Equal(t, KindUnexpected, KindOf(err))
	assert.True(t, strings.HasPrefix(err.Error(), "an error occurred"))
}

func TestAverageRating_QuotedTitleWithComma(t *testing.T) {
	path := writeDataset(t, header,
		`1,"Good, the Bad and the Ugly, The",1966,R,Western,178,Leone,8.8`,
		`2,"Heat",1995,R,Crime,170,Mann,8.2`,
	)

	report, err := Scan(context.Background(), path, "R", quietOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Matched)
	assert.InDelta(t, 8.5, report.Average, 1e-9)
}

func TestScan_SkipReasons(t *testing.T) {
	path := writeDataset(t, header,
		"1,A,2001,R,Drama,100,X,7.0",
		"2,B,2002,R,Drama",
		"3,C,2003,R,Drama,100,Z,n/a",
		"4,D,2004,R,Drama,100,Z,NaN",
		"5,E,2005,R,Drama,100,Z,10.5",
		"",
		"6,F,2006,PG,Drama,100,Z,5.0",
	)

	report, err := Scan(context.Background(), path, "R", quietOptions())
	require.NoError(t, err)
	assert.Equal(t, 7, report.Rows)
	assert.Equal(t, 1, report.Matched)
	assert.Equal(t, 7.0, report.Average)
	assert.Equal(t, 2, report.Skipped[domain.SkipTooFewFields])
	assert.Equal(t, 1, report.Skipped[domain.SkipUnparseableRating])
	assert.Equal(t, 2, report.Skipped[domain.SkipRatingOutOfRange])
	assert.Equal(t, 5, report.SkippedTotal())
}

func TestScan_BoundaryRatingsAccepted(t *testing.T) {
	path := writeDataset(t, header,
		"1,A,2001,R,Drama,100,X,0",
		"2,B,2002,R,Drama,100,Y, 10 ",
	)

	avg, err := AverageRating(context.Background(), path, "R", quietOptions())
	require.NoError(t, err)
	assert.Equal(t, 5.0, avg)
}

func TestScan_CRLF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crlf.csv")
	content := header + "\r\n1,A,2001,R,Drama,100,X,6.5\r\n2,B,2002,R,Drama,100,Y,7.5\r\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	avg, err := AverageRating(context.Background(), path, "R", quietOptions())
	require.NoError(t, err)
	assert.Equal(t, 7.0, avg)
}

func TestScan_QuoteModes(t *testing.T) {
	// The unbalanced quote hides the remaining commas in legacy mode.
	path := writeDataset(t, header,
		`1,"Broken title,2001,R,Drama,100,X,6.0`,
		"2,B,2002,R,Drama,100,Y,8.0",
	)

	legacy, err := Scan(context.Background(), path, "R", quietOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, legacy.Matched)
	assert.Equal(t, 8.0, legacy.Average)
	assert.Equal(t, 1, legacy.Skipped[domain.SkipTooFewFields])

	opts := quietOptions()
	opts.QuoteMode = csvline.ModeStrict
	strict, err := Scan(context.Background(), path, "R", opts)
	require.NoError(t, err)
	assert.Equal(t, 2, strict.Matched)
	assert.Equal(t, 7.0, strict.Average)
}

func TestScan_CustomColumns(t *testing.T) {
	path := writeDataset(t, "Certificate,Rating", "R,4.0", "R,6.0", "PG,1.0")

	opts := quietOptions()
	opts.Columns = Columns{Certificate: 0, Rating: 1}
	avg, err := AverageRating(context.Background(), path, "R", opts)
	require.NoError(t, err)
	assert.Equal(t, 5.0, avg)
}

func TestScan_NegativeColumnIsSchemaError(t *testing.T) {
	path := writeDataset(t, header, "1,A,2001,R,Drama,100,X,6.0")

	opts := quietOptions()
	opts.Columns = Columns{Certificate: -1, Rating: 7}
	_, err := AverageRating(context.Background(), path, "R", opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchema)
	assert.Equal(t, "the dataset does not contain the required columns", err.Error())
}

func TestScan_InvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	content := header + "\n1,A\xff,2001,R,Drama,100,X,6.0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := AverageRating(context.Background(), path, "R", quietOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpected)
	assert.Contains(t, err.Error(), "line 2")
}

func TestScan_CancelledContext(t *testing.T) {
	path := writeDataset(t, header, "1,A,2001,R,Drama,100,X,6.0")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := AverageRating(ctx, path, "R", quietOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpected)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScan_RecordsMetrics(t *testing.T) {
	path := writeDataset(t, header,
		"1,A,2001,R,Drama,100,X,6.0",
		"2,B,2002,R,Drama,100,Y,bad",
	)
	rec := metrics.New()
	opts := quietOptions()
	opts.Metrics = rec

	_, err := Scan(context.Background(), path, "R", opts)
	require.NoError(t, err)
	_, err = Scan(context.Background(), path, "PG", opts)
	require.Error(t, err)

	body := scrape(t, rec)
	assert.Contains(t, body, "certavg_rows_scanned_total 4")
	assert.Contains(t, body, `certavg_rows_skipped_total{reason="unparseable_rating"} 2`)
	assert.Contains(t, body, `certavg_scans_total{outcome="ok"} 1`)
	assert.Contains(t, body, `certavg_scans_total{outcome="no_matching_records"} 1`)
}

func TestScan_ConcurrentCallers(t *testing.T) {
	path := writeDataset(t, header,
		"1,A,2001,R,Drama,100,X,6.0",
		"2,B,2002,PG,Drama,100,Y,9.0",
		"3,C,2003,R,Drama,100,Z,8.0",
	)
	want := map[string]float64{"R": 7.0, "PG": 9.0}

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 8; i++ {
		for cert, expected := range want {
			cert, expected := cert, expected
			g.Go(func() error {
				avg, err := AverageRating(ctx, path, cert, quietOptions())
				if err != nil {
					return err
				}
				if avg != expected {
					return errors.New("unexpected average for " + cert)
				}
				return nil
			})
		}
	}
	require.NoError(t, g.Wait())
}

func scrape(t *testing.T, rec *metrics.Recorder) string {
	t.Helper()
	w := httptest.NewRecorder()
	rec.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func BenchmarkScan(b *testing.B) {
	lines := []string{header}
	for i := 0; i < 5000; i++ {
		lines = append(lines, `1,"Title, With Comma",2001,R,Drama,100,Director,7.5`)
	}
	path := writeDataset(b, lines...)
	opts := Options{Logger: logging.Discard()}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Scan(context.Background(), path, "R", opts); err != nil {
			b.Fatalf("scan: %v", err)
		}
	}
}
