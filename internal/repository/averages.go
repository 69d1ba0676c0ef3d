package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/certavg/internal/domain"
)

// AveragesRepository stores the latest computed average per dataset and certificate.
type AveragesRepository struct {
	pool *pgxpool.Pool
}

const averageColumns = `
    dataset,
    certificate,
    average,
    matched,
    rows_scanned,
    rows_skipped,
    computed_at
`

// SnapshotParams bundles a freshly computed average.
type SnapshotParams struct {
	Dataset     string
	Certificate string
	Report      domain.ScanReport
}

// Upsert records the snapshot and reports whether it was newly created.
func (r *AveragesRepository) Upsert(ctx context.Context, params SnapshotParams) (domain.CertificateAverage, bool, error) {
	query := fmt.Sprintf(`
        INSERT INTO certificate_averages (dataset, certificate, average, matched, rows_scanned, rows_skipped)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (dataset, certificate)
        DO UPDATE SET average = EXCLUDED.average,
                      matched = EXCLUDED.matched,
                      rows_scanned = EXCLUDED.rows_scanned,
                      rows_skipped = EXCLUDED.rows_skipped,
                      computed_at = now()
        RETURNING %s, (xmax = 0) AS inserted
    `, averageColumns)

	report := params.Report
	var (
		avg      domain.CertificateAverage
		inserted bool
	)
	err := r.pool.QueryRow(ctx, query,
		params.Dataset,
		params.Certificate,
		report.Average,
		int64(report.Matched),
		int64(report.Rows),
		int64(report.SkippedTotal()),
	).Scan(
		&avg.Dataset,
		&avg.Certificate,
		&avg.Average,
		&avg.Matched,
		&avg.Rows,
		&avg.Skipped,
		&avg.ComputedAt,
		&inserted,
	)
	if err != nil {
		return domain.CertificateAverage{}, false, fmt.Errorf("upsert certificate average: %w", err)
	}
	return avg, inserted, nil
}

// Get fetches the stored snapshot for a dataset/certificate pair.
func (r *AveragesRepository) Get(ctx context.Context, dataset, certificate string) (domain.CertificateAverage, error) {
	query := fmt.Sprintf(`SELECT %s FROM certificate_averages WHERE dataset = $1 AND certificate = $2`, averageColumns)
	avg, err := scanAverage(r.pool.QueryRow(ctx, query, dataset, certificate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CertificateAverage{}, ErrNotFound
		}
		return domain.CertificateAverage{}, err
	}
	return avg, nil
}

// ListByDataset returns every stored snapshot for a dataset, ordered by certificate.
func (r *AveragesRepository) ListByDataset(ctx context.Context, dataset string) ([]domain.CertificateAverage, error) {
	query := fmt.Sprintf(`SELECT %s FROM certificate_averages WHERE dataset = $1 ORDER BY certificate`, averageColumns)
	rows, err := r.pool.Query(ctx, query, dataset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.CertificateAverage, 0)
	for rows.Next() {
		avg, err := scanAverage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, avg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanAverage(row pgx.Row) (domain.CertificateAverage, error) {
	var avg domain.CertificateAverage
	err := row.Scan(
		&avg.Dataset,
		&avg.Certificate,
		&avg.Average,
		&avg.Matched,
		&avg.Rows,
		&avg.Skipped,
		&avg.ComputedAt,
	)
	if err != nil {
		return domain.CertificateAverage{}, err
	}
	return avg, nil
}
