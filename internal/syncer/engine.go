package syncer

import (
	"context"
	"fmt"

	"github.com/2beens/healthdash/internal/intervals"
	"github.com/2beens/healthdash/internal/telemetry/tracing"
	"github.com/2beens/healthdash/internal/training"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"
)

type store interface {
	UpsertWorkout(ctx context.Context, w training.Workout) error
	UpdateWorkout(ctx context.Context, externalID string, update training.PlannedUpdate) error
	DeleteWorkoutsByExternalID(ctx context.Context, externalID string) (int64, error)
	UpsertFitnessMetric(ctx context.Context, m training.FitnessMetric) error
	GetPowerBest(ctx context.Context, duration int) (*training.PowerPB, error)
	UpsertPowerBest(ctx context.Context, pb training.PowerPB) error
}

// Summary counts what one pass wrote. A plan merged into an activity counts once
// for the activity and once for the merge.
type Summary struct {
	Workouts       int      `json:"workouts"`
	FitnessMetrics int      `json:"fitnessMetrics"`
	PowerPBs       int      `json:"powerPbs"`
	FailedFeeds    []string `json:"-"`
}

type Engine struct {
	store store
}

func NewEngine(store store) *Engine {
	return &Engine{
		store: store,
	}
}

// Reconcile writes the settled feeds to the store. Failed feeds are skipped;
// the first store error stops the pass and is returned wrapped in ErrPersistence.
func (e *Engine) Reconcile(ctx context.Context, feeds Feeds) (summary Summary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "syncer.reconcile")
	defer func() {
		span.SetAttributes(
			attribute.Int("workouts", summary.Workouts),
			attribute.Int("fitness_metrics", summary.FitnessMetrics),
			attribute.Int("power_pbs", summary.PowerPBs),
		)
		tracing.EndSpanWithErrCheck(span, err)
	}()

	summary.FailedFeeds = feeds.Failed()
	for _, feedErr := range multierr.Errors(feeds.Err()) {
		log.Warnf("sync: feed failed, skipping it: %s", feedErr)
	}

	candidates := newActivityIndex()
	if feeds.Activities.OK() {
		for _, activity := range feeds.Activities.Value {
			w, err := training.MapActivity(activity)
			if err != nil {
				log.Warnf("sync: skip activity: %s", err)
				continue
			}
			if err := e.store.UpsertWorkout(ctx, w); err != nil {
				return summary, persistenceErr(err)
			}
			summary.Workouts++
			candidates.add(training.MatchKey(activity.StartDateLocal, activity.Type), w.ExternalID)
		}
	}

	if feeds.CurrentEvents.OK() {
		for _, event := range feeds.CurrentEvents.Value {
			if !event.IsWorkout() {
				continue
			}
			written, err := e.reconcileEvent(ctx, event, candidates)
			if err != nil {
				return summary, err
			}
			summary.Workouts += written
		}
	}

	if feeds.NextEvents.OK() {
		for _, event := range feeds.NextEvents.Value {
			if !event.IsWorkout() {
				continue
			}
			written, err := e.upsertPlanned(ctx, event)
			if err != nil {
				return summary, err
			}
			summary.Workouts += written
		}
	}

	if feeds.Wellness.OK() {
		for _, sample := range feeds.Wellness.Value {
			metric, err := training.MapWellness(sample)
			if err != nil {
				log.Warnf("sync: skip wellness sample: %s", err)
				continue
			}
			if err := e.store.UpsertFitnessMetric(ctx, metric); err != nil {
				return summary, persistenceErr(err)
			}
			summary.FitnessMetrics++
		}
	}

	if feeds.PowerCurve.OK() {
		for _, best := range training.MapPowerBests(feeds.PowerCurve.Value) {
			stored, err := e.store.GetPowerBest(ctx, best.Duration)
			if err != nil {
				return summary, persistenceErr(err)
			}
			if err := e.store.UpsertPowerBest(ctx, training.CarryOver(stored, best)); err != nil {
				return summary, persistenceErr(err)
			}
			summary.PowerPBs++
		}
	}

	log.Debugf("sync: reconciled %d workouts, %d fitness metrics, %d power bests, failed feeds: %v",
		summary.Workouts, summary.FitnessMetrics, summary.PowerPBs, summary.FailedFeeds)

	return summary, nil
}

// reconcileEvent merges a current-week plan into the first unclaimed activity
// of the same day and sport, or stores it as a planned-only workout.
func (e *Engine) reconcileEvent(ctx context.Context, event intervals.Event, candidates *activityIndex) (int, error) {
	key := training.MatchKey(event.StartDateLocal, training.EventSport(event))
	activityID, ok := candidates.claim(key)
	if !ok {
		return e.upsertPlanned(ctx, event)
	}

	if err := e.store.UpdateWorkout(ctx, activityID, training.MapPlannedUpdate(event)); err != nil {
		return 0, persistenceErr(err)
	}
	if _, err := e.store.DeleteWorkoutsByExternalID(ctx, training.PlannedExternalID(event.ID)); err != nil {
		return 0, persistenceErr(err)
	}
	log.Tracef("sync: plan %d merged into activity %s", event.ID, activityID)
	return 1, nil
}

func (e *Engine) upsertPlanned(ctx context.Context, event intervals.Event) (int, error) {
	w, err := training.MapEvent(event)
	if err != nil {
		log.Warnf("sync: skip planned event: %s", err)
		return 0, nil
	}
	if err := e.store.UpsertWorkout(ctx, w); err != nil {
		return 0, persistenceErr(err)
	}
	return 1, nil
}

func persistenceErr(err error) error {
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

// activityIndex holds, per match key, the activity ids not yet claimed by a
// plan, in arrival order.
type activityIndex struct {
	unclaimed map[string][]string
}

func newActivityIndex() *activityIndex {
	return &activityIndex{
		unclaimed: make(map[string][]string),
	}
}

func (i *activityIndex) add(key, externalID string) {
	i.unclaimed[key] = append(i.unclaimed[key], externalID)
}

func (i *activityIndex) claim(key string) (string, bool) {
	ids := i.unclaimed[key]
	if len(ids) == 0 {
		return "", false
	}
	i.unclaimed[key] = ids[1:]
	return ids[0], true
}
