package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/theatre-rota/pkg/core/lifecycle"
	"github.com/jakechorley/theatre-rota/pkg/core/model"
	"github.com/jakechorley/theatre-rota/pkg/db"
)

const versionColumns = `id, tenant_id, hospital_id, period_start, period_end, status, version_number,
	result_data, generated_at, published_at, archived_at, job_id, pdf_file_id`

func scanVersion(row pgx.CollectableRow) (model.ScheduleVersion, error) {
	var v model.ScheduleVersion
	var resultData []byte
	var pdfFileID *string
	err := row.Scan(&v.ID, &v.TenantID, &v.HospitalID, &v.PeriodStart, &v.PeriodEnd, &v.Status, &v.VersionNumber,
		&resultData, &v.GeneratedAt, &v.PublishedAt, &v.ArchivedAt, &v.JobID, &pdfFileID)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(resultData, &v.ResultData); err != nil {
		return v, fmt.Errorf("failed to decode result data of version %s: %w", v.ID, err)
	}
	if pdfFileID != nil {
		v.PdfFileID = *pdfFileID
	}
	v.PeriodStart = v.PeriodStart.UTC()
	v.PeriodEnd = v.PeriodEnd.UTC()
	v.GeneratedAt = v.GeneratedAt.UTC()
	return v, nil
}

// GetScheduleVersion retrieves one version by id
func (d *DB) GetScheduleVersion(ctx context.Context, id string) (*model.ScheduleVersion, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+versionColumns+` FROM schedule_version WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule version: %w", err)
	}
	v, err := pgx.CollectExactlyOneRow(rows, scanVersion)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("schedule version %s: %w", id, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan schedule version: %w", err)
	}
	return &v, nil
}

// GetScheduleVersions retrieves every version of a hospital period ordered by version number
func (d *DB) GetScheduleVersions(ctx context.Context, hospitalID string, periodStart, periodEnd time.Time) ([]model.ScheduleVersion, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+versionColumns+`
		FROM schedule_version
		WHERE hospital_id = $1 AND period_start = $2 AND period_end = $3
		ORDER BY version_number
	`, hospitalID, periodStart.UTC(), periodEnd.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule versions: %w", err)
	}
	versions, err := pgx.CollectRows(rows, scanVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to scan schedule version: %w", err)
	}
	return versions, nil
}

// InsertScheduleVersion inserts a new version. A concurrent draft with the same
// version number fails with db.ErrConflict.
func (d *DB) InsertScheduleVersion(ctx context.Context, v *model.ScheduleVersion) error {
	resultData, err := json.Marshal(v.ResultData)
	if err != nil {
		return fmt.Errorf("failed to encode result data: %w", err)
	}

	_, err = d.pool.Exec(ctx, `
		INSERT INTO schedule_version (`+versionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, v.ID, v.TenantID, v.HospitalID, v.PeriodStart.UTC(), v.PeriodEnd.UTC(), string(v.Status), v.VersionNumber,
		resultData, v.GeneratedAt.UTC(), v.PublishedAt, v.ArchivedAt, v.JobID, nullable(v.PdfFileID))
	if err != nil {
		return wrapWriteErr("failed to insert schedule version", err)
	}
	return nil
}

// PublishScheduleVersion moves a DRAFT to PUBLISHED and writes the period's current
// version back onto the demands in one transaction
func (d *DB) PublishScheduleVersion(ctx context.Context, v *model.ScheduleVersion) error {
	return d.transitionVersion(ctx, v, model.VersionDraft)
}

// ArchiveScheduleVersion moves a PUBLISHED version to ARCHIVED and re-syncs the demands
// in one transaction
func (d *DB) ArchiveScheduleVersion(ctx context.Context, v *model.ScheduleVersion) error {
	return d.transitionVersion(ctx, v, model.VersionPublished)
}

// AttachScheduleVersionPDF records the rendered file of a PUBLISHED version
func (d *DB) AttachScheduleVersionPDF(ctx context.Context, id, fileID string) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE schedule_version SET pdf_file_id = $2
		WHERE id = $1 AND status = $3
	`, id, fileID, string(model.VersionPublished))
	if err != nil {
		return fmt.Errorf("failed to record pdf file id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return versionMoved(ctx, d.pool, id, model.VersionPublished)
	}
	return nil
}

func (d *DB) transitionVersion(ctx context.Context, v *model.ScheduleVersion, from model.VersionStatus) error {
	return pgx.BeginFunc(ctx, d.pool, func(tx pgx.Tx) error {
		// Lock the period's versions so concurrent transitions agree on the current one
		_, err := tx.Exec(ctx, `
			SELECT id FROM schedule_version
			WHERE hospital_id = $1 AND period_start = $2 AND period_end = $3
			FOR UPDATE
		`, v.HospitalID, v.PeriodStart.UTC(), v.PeriodEnd.UTC())
		if err != nil {
			return fmt.Errorf("failed to lock schedule versions: %w", err)
		}

		tag, err := tx.Exec(ctx, `
			UPDATE schedule_version
			SET status = $3, published_at = $4, archived_at = $5
			WHERE id = $1 AND status = $2
		`, v.ID, string(from), string(v.Status), v.PublishedAt, v.ArchivedAt)
		if err != nil {
			return fmt.Errorf("failed to update schedule version: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return versionMoved(ctx, tx, v.ID, from)
		}

		return syncDemands(ctx, tx, v)
	})
}

// syncDemands writes the current version of v's period back onto the demands
func syncDemands(ctx context.Context, tx pgx.Tx, v *model.ScheduleVersion) error {
	rows, err := tx.Query(ctx, `
		SELECT `+versionColumns+`
		FROM schedule_version
		WHERE hospital_id = $1 AND period_start = $2 AND period_end = $3
	`, v.HospitalID, v.PeriodStart.UTC(), v.PeriodEnd.UTC())
	if err != nil {
		return fmt.Errorf("failed to query schedule versions: %w", err)
	}
	versions, err := pgx.CollectRows(rows, scanVersion)
	if err != nil {
		return fmt.Errorf("failed to scan schedule version: %w", err)
	}

	wb := lifecycle.WriteBack(versions, *v)
	batch := &pgx.Batch{}
	for _, a := range wb.Assign {
		batch.Queue(`UPDATE demand SET assigned_professional_id = $2, updated_at = NOW() WHERE id = $1 AND hospital_id = $3`,
			a.DemandID, a.ProfessionalID, v.HospitalID)
	}
	for _, id := range wb.Clear {
		batch.Queue(`UPDATE demand SET assigned_professional_id = NULL, updated_at = NOW() WHERE id = $1 AND hospital_id = $2`,
			id, v.HospitalID)
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to write assignments back to demands: %w", err)
	}
	return nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// versionMoved explains a guarded update that matched no row
func versionMoved(ctx context.Context, q rowQuerier, id string, expected model.VersionStatus) error {
	var status string
	err := q.QueryRow(ctx, `SELECT status FROM schedule_version WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("schedule version %s: %w", id, db.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read schedule version status: %w", err)
	}
	return fmt.Errorf("schedule version %s is %s, expected %s: %w", id, status, expected, db.ErrConflict)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
