package training

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/healthdash/internal/telemetry/tracing"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const workoutColumns = `id, external_id, date, title, sport, description, coach_notes, is_completed,
	planned_title, planned_duration, planned_tss,
	duration, distance, tss, intensity_factor, normalized_power, average_power, max_power,
	average_hr, max_hr, calories, elevation_gain`

// completed rows refresh only what the activity reports; an absent description
// keeps whatever a merged plan left there
const upsertActivityConflict = `
	ON CONFLICT (external_id) DO UPDATE SET
		date = EXCLUDED.date,
		title = EXCLUDED.title,
		sport = EXCLUDED.sport,
		description = COALESCE(EXCLUDED.description, workout.description),
		is_completed = EXCLUDED.is_completed,
		duration = EXCLUDED.duration,
		distance = EXCLUDED.distance,
		tss = EXCLUDED.tss,
		intensity_factor = EXCLUDED.intensity_factor,
		normalized_power = EXCLUDED.normalized_power,
		average_power = EXCLUDED.average_power,
		max_power = EXCLUDED.max_power,
		average_hr = EXCLUDED.average_hr,
		max_hr = EXCLUDED.max_hr,
		calories = EXCLUDED.calories,
		elevation_gain = EXCLUDED.elevation_gain,
		updated_at = now()`

const upsertPlannedConflict = `
	ON CONFLICT (external_id) DO UPDATE SET
		date = EXCLUDED.date,
		title = EXCLUDED.title,
		sport = EXCLUDED.sport,
		description = EXCLUDED.description,
		coach_notes = EXCLUDED.coach_notes,
		planned_title = EXCLUDED.planned_title,
		planned_duration = EXCLUDED.planned_duration,
		planned_tss = EXCLUDED.planned_tss,
		updated_at = now()`

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// UpsertWorkout inserts the workout or refreshes the existing row with the
// same external id. Completed and planned rows refresh different columns.
func (r *Repo) UpsertWorkout(ctx context.Context, w Workout) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.upsertWorkout")
	span.SetAttributes(attribute.String("external_id", w.ExternalID))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	conflict := upsertPlannedConflict
	if w.IsCompleted {
		conflict = upsertActivityConflict
	}

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO workout
				(external_id, date, title, sport, description, coach_notes, is_completed,
				 planned_title, planned_duration, planned_tss,
				 duration, distance, tss, intensity_factor, normalized_power, average_power, max_power,
				 average_hr, max_hr, calories, elevation_gain)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`+conflict,
		w.ExternalID, w.Date, w.Title, w.Sport, w.Description, w.CoachNotes, w.IsCompleted,
		w.PlannedTitle, w.PlannedDuration, w.PlannedTSS,
		w.Duration, w.Distance, w.TSS, w.IntensityFactor, w.NormalizedPower, w.AveragePower, w.MaxPower,
		w.AverageHR, w.MaxHR, w.Calories, w.ElevationGain,
	)
	if err != nil {
		return fmt.Errorf("upsert workout %s: %w", w.ExternalID, err)
	}
	return nil
}

// UpdateWorkout folds plan fields into an existing row. Nil fields are left as they are.
func (r *Repo) UpdateWorkout(ctx context.Context, externalID string, update PlannedUpdate) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.updateWorkout")
	span.SetAttributes(attribute.String("external_id", externalID))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(
		ctx,
		`UPDATE workout SET
				planned_title = COALESCE($1, planned_title),
				description = COALESCE($2, description),
				coach_notes = COALESCE($3, coach_notes),
				planned_duration = COALESCE($4, planned_duration),
				planned_tss = COALESCE($5, planned_tss),
				updated_at = now()
			WHERE external_id = $6;`,
		update.PlannedTitle, update.Description, update.CoachNotes, update.PlannedDuration, update.PlannedTSS,
		externalID,
	)
	if err != nil {
		return fmt.Errorf("update workout %s: %w", externalID, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}

	return nil
}

// DeleteWorkoutsByExternalID removes any row with the id. Deleting nothing is not an error.
func (r *Repo) DeleteWorkoutsByExternalID(ctx context.Context, externalID string) (deleted int64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.deleteWorkouts")
	span.SetAttributes(attribute.String("external_id", externalID))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(ctx, `DELETE FROM workout WHERE external_id = $1`, externalID)
	if err != nil {
		return 0, fmt.Errorf("delete workout %s: %w", externalID, err)
	}
	return tag.RowsAffected(), nil
}

// ListWorkouts returns workouts dated within [from, to], oldest first.
func (r *Repo) ListWorkouts(ctx context.Context, from, to time.Time) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.listWorkouts")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT `+workoutColumns+`
			FROM workout
			WHERE date >= $1 AND date <= $2
			ORDER BY date ASC, id ASC;`,
		from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workouts := []Workout{}
	for rows.Next() {
		var w Workout
		if err := rows.Scan(
			&w.ID, &w.ExternalID, &w.Date, &w.Title, &w.Sport, &w.Description, &w.CoachNotes, &w.IsCompleted,
			&w.PlannedTitle, &w.PlannedDuration, &w.PlannedTSS,
			&w.Duration, &w.Distance, &w.TSS, &w.IntensityFactor, &w.NormalizedPower, &w.AveragePower, &w.MaxPower,
			&w.AverageHR, &w.MaxHR, &w.Calories, &w.ElevationGain,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		workouts = append(workouts, w)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("workouts", len(workouts)))
	return workouts, nil
}

func (r *Repo) UpsertFitnessMetric(ctx context.Context, m FitnessMetric) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.upsertFitnessMetric")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO fitness_metric (date, ctl, atl, tsb) VALUES ($1, $2, $3, $4)
			ON CONFLICT (date) DO UPDATE SET
				ctl = EXCLUDED.ctl,
				atl = EXCLUDED.atl,
				tsb = EXCLUDED.tsb,
				updated_at = now();`,
		m.Date, m.CTL, m.ATL, m.TSB,
	)
	if err != nil {
		return fmt.Errorf("upsert fitness metric %s: %w", m.Date.Format(DateLayout), err)
	}
	return nil
}

// ListFitnessMetrics returns the metrics dated within [from, to].
func (r *Repo) ListFitnessMetrics(ctx context.Context, from, to time.Time, order SortOrder) (_ []FitnessMetric, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.listFitnessMetrics")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	direction := "ASC"
	if order == Descending {
		direction = "DESC"
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT date, ctl, atl, tsb
			FROM fitness_metric
			WHERE date >= $1 AND date <= $2
			ORDER BY date `+direction+`;`,
		from, to,
	)
	if err != nil {
		return nil, err
	}
	return scanFitnessMetrics(rows)
}

// ListFitnessMetricsSince returns every metric from since onwards, oldest first.
func (r *Repo) ListFitnessMetricsSince(ctx context.Context, since time.Time) (_ []FitnessMetric, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.listFitnessMetricsSince")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT date, ctl, atl, tsb
			FROM fitness_metric
			WHERE date >= $1
			ORDER BY date ASC;`,
		since,
	)
	if err != nil {
		return nil, err
	}
	return scanFitnessMetrics(rows)
}

func scanFitnessMetrics(rows pgx.Rows) ([]FitnessMetric, error) {
	defer rows.Close()

	metrics := []FitnessMetric{}
	for rows.Next() {
		var m FitnessMetric
		if err := rows.Scan(&m.Date, &m.CTL, &m.ATL, &m.TSB); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		metrics = append(metrics, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return metrics, nil
}

// GetPowerBest returns the stored best for a bucket, or nil when there is none yet.
func (r *Repo) GetPowerBest(ctx context.Context, duration int) (_ *PowerPB, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.getPowerBest")
	span.SetAttributes(attribute.Int("duration", duration))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var pb PowerPB
	err = r.db.QueryRow(
		ctx,
		`SELECT duration, power, recorded_at, previous_power, previous_recorded_at
			FROM power_pb
			WHERE duration = $1;`,
		duration,
	).Scan(&pb.Duration, &pb.Power, &pb.RecordedAt, &pb.PreviousPower, &pb.PreviousRecordedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get power best %ds: %w", duration, err)
	}
	return &pb, nil
}

// UpsertPowerBest stores pb as is; the caller decides the previous fields.
func (r *Repo) UpsertPowerBest(ctx context.Context, pb PowerPB) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.upsertPowerBest")
	span.SetAttributes(attribute.Int("duration", pb.Duration))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO power_pb (duration, power, recorded_at, previous_power, previous_recorded_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (duration) DO UPDATE SET
				power = EXCLUDED.power,
				recorded_at = EXCLUDED.recorded_at,
				previous_power = EXCLUDED.previous_power,
				previous_recorded_at = EXCLUDED.previous_recorded_at,
				updated_at = now();`,
		pb.Duration, pb.Power, pb.RecordedAt, pb.PreviousPower, pb.PreviousRecordedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert power best %ds: %w", pb.Duration, err)
	}
	return nil
}

func (r *Repo) ListPowerBests(ctx context.Context) (_ []PowerPB, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.listPowerBests")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT duration, power, recorded_at, previous_power, previous_recorded_at
			FROM power_pb
			ORDER BY duration ASC;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bests := []PowerPB{}
	for rows.Next() {
		var pb PowerPB
		if err := rows.Scan(&pb.Duration, &pb.Power, &pb.RecordedAt, &pb.PreviousPower, &pb.PreviousRecordedAt); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		bests = append(bests, pb)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bests, nil
}
