package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/product-image-scraper/internal/entity"
	"github.com/user/product-image-scraper/internal/repository"
)

// RunReportRepoImpl implements repository.RunReportRepository on PostgreSQL.
type RunReportRepoImpl struct {
	db *pgxpool.Pool
}

// NewRunReportRepo creates a new instance of RunReportRepoImpl.
func NewRunReportRepo(db *pgxpool.Pool) *RunReportRepoImpl {
	return &RunReportRepoImpl{db: db}
}

// Save stores the whole report within a single transaction. Rows, downloads
// and errors of a previous save of the same run are replaced.
func (r *RunReportRepoImpl) Save(ctx context.Context, report *entity.RunReport) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO runs (run_id, started_at, finished_at, total_downloaded)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (run_id) DO UPDATE SET
		   started_at = EXCLUDED.started_at,
		   finished_at = EXCLUDED.finished_at,
		   total_downloaded = EXCLUDED.total_downloaded`,
		report.RunID, report.StartedAt, report.FinishedAt, report.TotalDownloaded,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert run %s: %w", report.RunID, err)
	}

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM run_errors WHERE run_id = $1`, report.RunID)
	batch.Queue(`DELETE FROM row_results WHERE run_id = $1`, report.RunID)
	queueReport(batch, report)
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to store results of run %s: %w", report.RunID, err)
	}

	return tx.Commit(ctx)
}

func queueReport(batch *pgx.Batch, report *entity.RunReport) {
	for i, row := range report.Rows {
		batch.Queue(
			`INSERT INTO row_results (run_id, position, reference, source_url, status, message, candidates)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			report.RunID, i, row.Row.Reference, row.Row.SourceURL, string(row.Status), row.Message, row.Candidates,
		)
		for j, d := range row.Downloads {
			batch.Queue(
				`INSERT INTO download_outcomes (run_id, row_position, position, reference, target_url, path, success, error_detail)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				report.RunID, i, j, d.Reference, d.TargetURL, d.Path, d.Success, d.ErrorDetail,
			)
		}
	}
	for i, e := range report.Errors {
		batch.Queue(
			`INSERT INTO run_errors (run_id, position, reference, message) VALUES ($1, $2, $3, $4)`,
			report.RunID, i, e.Reference, e.Message,
		)
	}
}

// FindByRunID loads a report with its rows, downloads and errors in input order.
func (r *RunReportRepoImpl) FindByRunID(ctx context.Context, runID string) (*entity.RunReport, error) {
	report := &entity.RunReport{RunID: runID, Errors: []entity.ErrorEntry{}, Rows: []entity.RowResult{}}
	err := r.db.QueryRow(ctx,
		`SELECT started_at, finished_at, total_downloaded FROM runs WHERE run_id = $1`,
		runID,
	).Scan(&report.StartedAt, &report.FinishedAt, &report.TotalDownloaded)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadRows(ctx, report); err != nil {
		return nil, err
	}
	if err := r.loadDownloads(ctx, report); err != nil {
		return nil, err
	}
	if err := r.loadErrors(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

func (r *RunReportRepoImpl) loadRows(ctx context.Context, report *entity.RunReport) error {
	rows, err := r.db.Query(ctx,
		`SELECT reference, source_url, status, message, candidates
		 FROM row_results WHERE run_id = $1 ORDER BY position`,
		report.RunID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var res entity.RowResult
		var status string
		if err := rows.Scan(&res.Row.Reference, &res.Row.SourceURL, &status, &res.Message, &res.Candidates); err != nil {
			return err
		}
		res.Status = entity.RowStatus(status)
		report.Rows = append(report.Rows, res)
	}
	return rows.Err()
}

func (r *RunReportRepoImpl) loadDownloads(ctx context.Context, report *entity.RunReport) error {
	rows, err := r.db.Query(ctx,
		`SELECT row_position, reference, target_url, path, success, error_detail
		 FROM download_outcomes WHERE run_id = $1 ORDER BY row_position, position`,
		report.RunID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var pos int
		var d entity.DownloadOutcome
		if err := rows.Scan(&pos, &d.Reference, &d.TargetURL, &d.Path, &d.Success, &d.ErrorDetail); err != nil {
			return err
		}
		if pos < 0 || pos >= len(report.Rows) {
			return fmt.Errorf("download outcome references missing row %d of run %s", pos, report.RunID)
		}
		report.Rows[pos].Downloads = append(report.Rows[pos].Downloads, d)
	}
	return rows.Err()
}

func (r *RunReportRepoImpl) loadErrors(ctx context.Context, report *entity.RunReport) error {
	rows, err := r.db.Query(ctx,
		`SELECT reference, message FROM run_errors WHERE run_id = $1 ORDER BY position`,
		report.RunID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var e entity.ErrorEntry
		if err := rows.Scan(&e.Reference, &e.Message); err != nil {
			return err
		}
		report.Errors = append(report.Errors, e)
	}
	return rows.Err()
}
