package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/theatre-rota/pkg/core/model"
)

// GetDemands retrieves the hospital's demands overlapping [periodStart, periodEnd)
func (d *DB) GetDemands(ctx context.Context, hospitalID string, periodStart, periodEnd time.Time) ([]model.Demand, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT d.id, d.start_at, d.end_at, d.procedure, d.anesthesia_type, d.priority, d.complexity,
			d.is_pediatric, d.assigned_professional_id,
			ARRAY(SELECT s.skill FROM demand_skill s WHERE s.demand_id = d.id ORDER BY s.skill)
		FROM demand d
		WHERE d.hospital_id = $1 AND d.start_at < $3 AND d.end_at > $2
		ORDER BY d.start_at, d.id
	`, hospitalID, periodStart.UTC(), periodEnd.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query demands: %w", err)
	}

	demands, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Demand, error) {
		var dm model.Demand
		var assigned *string
		err := row.Scan(&dm.ID, &dm.Start, &dm.End, &dm.Procedure, &dm.AnesthesiaType, &dm.Priority,
			&dm.Complexity, &dm.IsPediatric, &assigned, &dm.Skills)
		if err != nil {
			return dm, err
		}
		dm.Start = dm.Start.UTC()
		dm.End = dm.End.UTC()
		dm.HospitalID = hospitalID
		if assigned != nil {
			dm.AssignedProfessionalID = *assigned
		}
		return dm, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan demand: %w", err)
	}

	return demands, nil
}

// UpsertDemands inserts or replaces demands and their skill requirements. The
// assigned professional is left untouched; only publishing writes it.
func (d *DB) UpsertDemands(ctx context.Context, hospitalID string, demands []model.Demand) error {
	if len(demands) == 0 {
		return nil
	}

	return pgx.BeginFunc(ctx, d.pool, func(tx pgx.Tx) error {
		for _, dm := range demands {
			priority := dm.Priority
			if priority == "" {
				priority = model.PriorityNone
			}

			_, err := tx.Exec(ctx, `
				INSERT INTO demand (id, hospital_id, start_at, end_at, procedure, anesthesia_type, priority, complexity, is_pediatric)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				ON CONFLICT (id) DO UPDATE SET
					hospital_id = EXCLUDED.hospital_id,
					start_at = EXCLUDED.start_at,
					end_at = EXCLUDED.end_at,
					procedure = EXCLUDED.procedure,
					anesthesia_type = EXCLUDED.anesthesia_type,
					priority = EXCLUDED.priority,
					complexity = EXCLUDED.complexity,
					is_pediatric = EXCLUDED.is_pediatric,
					updated_at = NOW()
			`, dm.ID, hospitalID, dm.Start.UTC(), dm.End.UTC(), dm.Procedure, dm.AnesthesiaType,
				string(priority), string(dm.Complexity), dm.IsPediatric)
			if err != nil {
				return wrapWriteErr(fmt.Sprintf("failed to upsert demand %s", dm.ID), err)
			}

			if _, err := tx.Exec(ctx, `DELETE FROM demand_skill WHERE demand_id = $1`, dm.ID); err != nil {
				return fmt.Errorf("failed to clear skills of demand %s: %w", dm.ID, err)
			}
			if len(dm.Skills) > 0 {
				_, err := tx.Exec(ctx, `
					INSERT INTO demand_skill (demand_id, skill)
					SELECT $1, UNNEST($2::TEXT[])
					ON CONFLICT DO NOTHING
				`, dm.ID, dm.Skills)
				if err != nil {
					return fmt.Errorf("failed to write skills of demand %s: %w", dm.ID, err)
				}
			}
		}
		return nil
	})
}
