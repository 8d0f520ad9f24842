package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rpggio/psptrack/internal/domain/phase"
	"github.com/rpggio/psptrack/internal/repository"
)

// PhaseRepository implements phase.Repository for SQLite
type PhaseRepository struct {
	db *DB
}

// NewPhaseRepository creates a new PhaseRepository
func NewPhaseRepository(db *DB) *PhaseRepository {
	return &PhaseRepository{db: db}
}

// Get returns the row for a phase. A phase that was never written is
// returned with zero counters.
func (r *PhaseRepository) Get(ctx context.Context, p phase.Phase) (*phase.Times, error) {
	times, err := r.getRow(ctx, r.db, p)
	if err != nil {
		return nil, err
	}

	comments, err := r.comments(ctx, p)
	if err != nil {
		return nil, err
	}
	times.Comments = comments

	return times, nil
}

// List returns every stored phase row with its comments
func (r *PhaseRepository) List(ctx context.Context) ([]phase.Times, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT phase, plan, actual, interruption
		FROM phase_times
		ORDER BY phase
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list phase times: %w", err)
	}
	defer rows.Close()

	var list []phase.Times
	for rows.Next() {
		var t phase.Times
		if err := rows.Scan(&t.Phase, &t.Plan, &t.Actual, &t.Interruption); err != nil {
			return nil, fmt.Errorf("failed to scan phase times: %w", err)
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating phase rows: %w", err)
	}

	comments, err := r.allComments(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Comments = comments[list[i].Phase]
	}
	for p, c := range comments {
		if !containsPhase(list, p) {
			list = append(list, phase.Times{Phase: p, Comments: c})
		}
	}

	return list, nil
}

// SetPlan stores the planned seconds for a phase
func (r *PhaseRepository) SetPlan(ctx context.Context, p phase.Phase, seconds int64) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO phase_times (phase, plan, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(phase) DO UPDATE SET plan = excluded.plan, updated_at = excluded.updated_at
		`, p, seconds, time.Now())
		if err != nil {
			if isCheckViolation(err) {
				return repository.ErrInvalidInput
			}
			return fmt.Errorf("failed to set plan: %w", err)
		}
		return nil
	})
}

// Increment adds one second to the actual or interruption counter. The
// returned row does not carry comments.
func (r *PhaseRepository) Increment(ctx context.Context, p phase.Phase, interruption bool) (*phase.Times, error) {
	query := `
		INSERT INTO phase_times (phase, actual, updated_at) VALUES (?, 1, ?)
		ON CONFLICT(phase) DO UPDATE SET actual = actual + 1, updated_at = excluded.updated_at
	`
	if interruption {
		query = `
			INSERT INTO phase_times (phase, interruption, updated_at) VALUES (?, 1, ?)
			ON CONFLICT(phase) DO UPDATE SET interruption = interruption + 1, updated_at = excluded.updated_at
		`
	}

	var times *phase.Times
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, query, p, time.Now()); err != nil {
			if isCheckViolation(err) {
				return repository.ErrInvalidInput
			}
			return fmt.Errorf("failed to increment phase time: %w", err)
		}
		var err error
		times, err = r.getRow(ctx, tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return times, nil
}

// AddComment appends an interruption comment to a phase
func (r *PhaseRepository) AddComment(ctx context.Context, p phase.Phase, c phase.Comment) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO phase_comments (phase, text, duration, created_at) VALUES (?, ?, ?, ?)`,
			p, c.Text, c.Duration, time.Now())
		if err != nil {
			return fmt.Errorf("failed to add comment: %w", err)
		}
		return nil
	})
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *PhaseRepository) getRow(ctx context.Context, q queryer, p phase.Phase) (*phase.Times, error) {
	times := phase.Times{Phase: p}
	err := q.QueryRowContext(ctx,
		`SELECT plan, actual, interruption FROM phase_times WHERE phase = ?`, p,
	).Scan(&times.Plan, &times.Actual, &times.Interruption)
	if err == sql.ErrNoRows {
		return &times, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get phase times: %w", err)
	}
	return &times, nil
}

func (r *PhaseRepository) comments(ctx context.Context, p phase.Phase) ([]phase.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT text, duration FROM phase_comments WHERE phase = ? ORDER BY id`, p)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []phase.Comment
	for rows.Next() {
		var c phase.Comment
		if err := rows.Scan(&c.Text, &c.Duration); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comment rows: %w", err)
	}
	return comments, nil
}

func (r *PhaseRepository) allComments(ctx context.Context) (map[phase.Phase][]phase.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT phase, text, duration FROM phase_comments ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	byPhase := make(map[phase.Phase][]phase.Comment)
	for rows.Next() {
		var p phase.Phase
		var c phase.Comment
		if err := rows.Scan(&p, &c.Text, &c.Duration); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		byPhase[p] = append(byPhase[p], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comment rows: %w", err)
	}
	return byPhase, nil
}

func containsPhase(list []phase.Times, p phase.Phase) bool {
	for _, t := range list {
		if t.Phase == p {
			return true
		}
	}
	return false
}
