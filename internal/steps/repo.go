package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/healthdash/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Upsert stores the count for its date, replacing steps and source of an existing one.
func (r *Repo) Upsert(ctx context.Context, count StepCount) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.steps.upsert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO step_count (date, steps, source) VALUES ($1, $2, $3)
			ON CONFLICT (date) DO UPDATE SET
				steps = EXCLUDED.steps,
				source = EXCLUDED.source,
				updated_at = now();`,
		count.Date, count.Steps, count.Source,
	)
	if err != nil {
		return fmt.Errorf("upsert steps %s: %w", count.Date.Format(time.DateOnly), err)
	}
	return nil
}

// ListSince returns counts from since onwards, newest first.
func (r *Repo) ListSince(ctx context.Context, since time.Time) (_ []StepCount, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.steps.listSince")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT date, steps, source
			FROM step_count
			WHERE date >= $1
			ORDER BY date DESC;`,
		since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []StepCount{}
	for rows.Next() {
		var c StepCount
		if err := rows.Scan(&c.Date, &c.Steps, &c.Source); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}
