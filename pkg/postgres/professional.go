package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/theatre-rota/pkg/core/model"
)

// GetProfessionals reads the pool inside one repeatable-read transaction so the
// professional rows and their vacations and recurring blocks agree with each other
func (d *DB) GetProfessionals(ctx context.Context, hospitalID string) ([]model.Professional, error) {
	tx, err := d.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT p.id, p.name, p.can_treat_pediatric, p.sequence, p.active,
			ARRAY(SELECT s.skill FROM professional_skill s WHERE s.professional_id = p.id ORDER BY s.skill)
		FROM professional p
		WHERE p.hospital_id = $1
		ORDER BY p.sequence, p.id
	`, hospitalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query professionals: %w", err)
	}
	professionals, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Professional, error) {
		var p model.Professional
		err := row.Scan(&p.ID, &p.Name, &p.CanTreatPediatric, &p.Sequence, &p.Active, &p.Skills)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan professional: %w", err)
	}

	index := make(map[string]int, len(professionals))
	for i, p := range professionals {
		index[p.ID] = i
	}

	rows, err = tx.Query(ctx, `
		SELECT v.professional_id, v.start_at, v.end_at
		FROM vacation v
		JOIN professional p ON p.id = v.professional_id
		WHERE p.hospital_id = $1
		ORDER BY v.professional_id, v.start_at
	`, hospitalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query vacations: %w", err)
	}
	var professionalID string
	var vacation model.Interval
	_, err = pgx.ForEachRow(rows, []any{&professionalID, &vacation.Start, &vacation.End}, func() error {
		if i, ok := index[professionalID]; ok {
			professionals[i].Vacation = append(professionals[i].Vacation, model.Interval{
				Start: vacation.Start.UTC(),
				End:   vacation.End.UTC(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan vacation: %w", err)
	}

	rows, err = tx.Query(ctx, `
		SELECT r.professional_id, r.rrule, r.duration_seconds
		FROM recurring_unavailability r
		JOIN professional p ON p.id = r.professional_id
		WHERE p.hospital_id = $1
		ORDER BY r.professional_id, r.id
	`, hospitalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recurring unavailability: %w", err)
	}
	var rule string
	var seconds int64
	_, err = pgx.ForEachRow(rows, []any{&professionalID, &rule, &seconds}, func() error {
		if i, ok := index[professionalID]; ok {
			professionals[i].RecurringUnavailability = append(professionals[i].RecurringUnavailability, model.RecurringBlock{
				RRule:    rule,
				Duration: time.Duration(seconds) * time.Second,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan recurring unavailability: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return professionals, nil
}

// UpsertProfessionals inserts or replaces professionals together with their skills,
// vacations and recurring blocks
func (d *DB) UpsertProfessionals(ctx context.Context, hospitalID string, professionals []model.Professional) error {
	if len(professionals) == 0 {
		return nil
	}

	return pgx.BeginFunc(ctx, d.pool, func(tx pgx.Tx) error {
		for _, p := range professionals {
			_, err := tx.Exec(ctx, `
				INSERT INTO professional (id, hospital_id, name, can_treat_pediatric, sequence, active)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (id) DO UPDATE SET
					hospital_id = EXCLUDED.hospital_id,
					name = EXCLUDED.name,
					can_treat_pediatric = EXCLUDED.can_treat_pediatric,
					sequence = EXCLUDED.sequence,
					active = EXCLUDED.active,
					updated_at = NOW()
			`, p.ID, hospitalID, p.Name, p.CanTreatPediatric, p.Sequence, p.Active)
			if err != nil {
				return wrapWriteErr(fmt.Sprintf("failed to upsert professional %s", p.ID), err)
			}

			for _, table := range []string{"professional_skill", "vacation", "recurring_unavailability"} {
				if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE professional_id = $1`, p.ID); err != nil {
					return fmt.Errorf("failed to clear %s of professional %s: %w", table, p.ID, err)
				}
			}

			batch := &pgx.Batch{}
			for _, skill := range p.Skills {
				batch.Queue(`INSERT INTO professional_skill (professional_id, skill) VALUES ($1, $2) ON CONFLICT DO NOTHING`, p.ID, skill)
			}
			for _, v := range p.Vacation {
				batch.Queue(`INSERT INTO vacation (professional_id, start_at, end_at) VALUES ($1, $2, $3)`, p.ID, v.Start.UTC(), v.End.UTC())
			}
			for _, r := range p.RecurringUnavailability {
				batch.Queue(`INSERT INTO recurring_unavailability (professional_id, rrule, duration_seconds) VALUES ($1, $2, $3)`,
					p.ID, r.RRule, int64(r.Duration/time.Second))
			}
			if batch.Len() > 0 {
				if err := tx.SendBatch(ctx, batch).Close(); err != nil {
					return fmt.Errorf("failed to write details of professional %s: %w", p.ID, err)
				}
			}
		}
		return nil
	})
}
