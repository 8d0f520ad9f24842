package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rpggio/psptrack/internal/domain/defect"
	"github.com/rpggio/psptrack/internal/domain/phase"
	"github.com/rpggio/psptrack/internal/repository"
)

// DefectRepository implements defect.Repository for SQLite
type DefectRepository struct {
	db *DB
}

// NewDefectRepository creates a new DefectRepository
func NewDefectRepository(db *DB) *DefectRepository {
	return &DefectRepository{db: db}
}

const defectColumns = `id, number, description, type, inject_phase, remove_phase, fix_time,
	fix_defect, source_file, source_line, source_offset, checked, date, created_at`

// Create inserts a new defect
func (r *DefectRepository) Create(ctx context.Context, d *defect.Defect) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO defects (`+defectColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			d.ID, d.Number, d.Description, int(d.Type), d.InjectPhase, d.RemovePhase, d.FixTime,
			d.FixDefect, d.Location.Filename, d.Location.Line, d.Location.Offset,
			boolToInt(d.Checked), d.Date, d.CreatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return repository.ErrConflict
			}
			return fmt.Errorf("failed to create defect: %w", err)
		}
		return nil
	})
}

// Get retrieves a defect by ID
func (r *DefectRepository) Get(ctx context.Context, id string) (*defect.Defect, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+defectColumns+` FROM defects WHERE id = ?`, id)
	d, err := scanDefect(row)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get defect: %w", err)
	}
	return d, nil
}

// Update rewrites the mutable fields of a defect
func (r *DefectRepository) Update(ctx context.Context, d *defect.Defect) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE defects
			SET description = ?, type = ?, inject_phase = ?, remove_phase = ?, fix_time = ?,
			    fix_defect = ?, source_file = ?, source_line = ?, source_offset = ?, checked = ?
			WHERE id = ?
		`,
			d.Description, int(d.Type), d.InjectPhase, d.RemovePhase, d.FixTime,
			d.FixDefect, d.Location.Filename, d.Location.Line, d.Location.Offset, boolToInt(d.Checked),
			d.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update defect: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}

// AddFixTime adds seconds to an unchecked defect. A checked defect is
// returned unchanged.
func (r *DefectRepository) AddFixTime(ctx context.Context, id string, seconds int64) (*defect.Defect, error) {
	var d *defect.Defect
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE defects SET fix_time = fix_time + ? WHERE id = ? AND checked = 0`,
			seconds, id,
		); err != nil {
			return fmt.Errorf("failed to add fix time: %w", err)
		}

		row := tx.QueryRowContext(ctx, `SELECT `+defectColumns+` FROM defects WHERE id = ?`, id)
		var err error
		d, err = scanDefect(row)
		if err == sql.ErrNoRows {
			return repository.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get defect: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// List returns all defects in creation order
func (r *DefectRepository) List(ctx context.Context) ([]defect.Defect, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+defectColumns+` FROM defects ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list defects: %w", err)
	}
	defer rows.Close()

	var defects []defect.Defect
	for rows.Next() {
		d, err := scanDefect(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan defect: %w", err)
		}
		defects = append(defects, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating defect rows: %w", err)
	}
	return defects, nil
}

// Count returns the number of stored defects
func (r *DefectRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM defects`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count defects: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDefect(s scanner) (*defect.Defect, error) {
	var d defect.Defect
	var typ, checked int
	var inject, remove string
	err := s.Scan(
		&d.ID, &d.Number, &d.Description, &typ, &inject, &remove, &d.FixTime,
		&d.FixDefect, &d.Location.Filename, &d.Location.Line, &d.Location.Offset,
		&checked, &d.Date, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Type = defect.Type(typ)
	d.InjectPhase = phase.Phase(inject)
	d.RemovePhase = phase.Phase(remove)
	d.Checked = checked != 0
	return &d, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
