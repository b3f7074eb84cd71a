package syncer

import (
	"context"
	"errors"
	"time"

	"github.com/2beens/healthdash/internal/telemetry/metrics"
	"github.com/2beens/healthdash/internal/telemetry/tracing"
	"github.com/2beens/healthdash/internal/training"

	log "github.com/sirupsen/logrus"
)

type dashboardReader interface {
	ListWorkouts(ctx context.Context, from, to time.Time) ([]training.Workout, error)
	ListFitnessMetrics(ctx context.Context, from, to time.Time, order training.SortOrder) ([]training.FitnessMetric, error)
	ListFitnessMetricsSince(ctx context.Context, since time.Time) ([]training.FitnessMetric, error)
	ListPowerBests(ctx context.Context) ([]training.PowerPB, error)
}

type syncLease interface {
	Acquire(ctx context.Context) (func(context.Context), error)
}

// Dashboard is the stored state shown for the current and the next week.
type Dashboard struct {
	Workouts         []training.Workout       `json:"workouts"`
	NextWeekWorkouts []training.Workout       `json:"nextWeekWorkouts"`
	FitnessMetrics   []training.FitnessMetric `json:"fitnessMetrics"`
	PowerPBs         []training.PowerPB       `json:"powerPbs"`
}

type NewServiceParams struct {
	Source         dataSource
	Store          store
	Reader         dashboardReader
	Lease          syncLease
	MetricsManager *metrics.Manager
	Location       *time.Location
	WellnessDays   int
	Now            func() time.Time
}

type Service struct {
	source         dataSource
	engine         *Engine
	reader         dashboardReader
	lease          syncLease
	metricsManager *metrics.Manager
	location       *time.Location
	wellnessDays   int
	now            func() time.Time
}

func NewService(params NewServiceParams) *Service {
	now := params.Now
	if now == nil {
		now = time.Now
	}
	location := params.Location
	if location == nil {
		location = time.UTC
	}
	return &Service{
		source:         params.Source,
		engine:         NewEngine(params.Store),
		reader:         params.Reader,
		lease:          params.Lease,
		metricsManager: params.MetricsManager,
		location:       location,
		wellnessDays:   params.WellnessDays,
		now:            now,
	}
}

func (s *Service) today() time.Time {
	return training.Today(s.now(), s.location)
}

// Sync runs one full pass: lease, concurrent fetches, reconciliation.
func (s *Service) Sync(ctx context.Context) (_ Summary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "syncer.service.sync")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	release, err := s.lease.Acquire(ctx)
	if err != nil {
		if errors.Is(err, ErrSyncInProgress) {
			s.metricsManager.CounterSyncPasses.WithLabelValues("busy").Inc()
		} else {
			s.metricsManager.CounterSyncPasses.WithLabelValues("error").Inc()
		}
		return Summary{}, err
	}
	defer release(context.WithoutCancel(ctx))

	start := time.Now()
	windows := NewWindows(s.today(), s.wellnessDays)
	log.Debugf("sync: current week %s, next week %s, wellness %s", windows.CurrentWeek, windows.NextWeek, windows.Wellness)

	feeds := FetchAll(ctx, s.source, windows)
	for _, feed := range feeds.Failed() {
		s.metricsManager.CounterFeedFailures.WithLabelValues(feed).Inc()
	}

	summary, err := s.engine.Reconcile(ctx, feeds)
	s.metricsManager.HistSyncDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metricsManager.CounterSyncPasses.WithLabelValues("error").Inc()
		return summary, err
	}

	s.metricsManager.CounterSyncPasses.WithLabelValues("ok").Inc()
	s.metricsManager.CounterSyncedRecords.WithLabelValues("workouts").Add(float64(summary.Workouts))
	s.metricsManager.CounterSyncedRecords.WithLabelValues("fitness_metrics").Add(float64(summary.FitnessMetrics))
	s.metricsManager.CounterSyncedRecords.WithLabelValues("power_pbs").Add(float64(summary.PowerPBs))

	log.Infof("sync done in %s: %d workouts, %d fitness metrics, %d power bests",
		time.Since(start), summary.Workouts, summary.FitnessMetrics, summary.PowerPBs)

	return summary, nil
}

// Dashboard reads what is stored, it never triggers a sync.
func (s *Service) Dashboard(ctx context.Context) (_ *Dashboard, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "syncer.service.dashboard")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	today := s.today()
	current := training.CurrentWeek(today)
	next := training.NextWeek(today)

	workouts, err := s.reader.ListWorkouts(ctx, current.Start, current.EndOfLastDay())
	if err != nil {
		return nil, err
	}
	nextWeekWorkouts, err := s.reader.ListWorkouts(ctx, next.Start, next.EndOfLastDay())
	if err != nil {
		return nil, err
	}
	fitnessMetrics, err := s.reader.ListFitnessMetrics(ctx, current.Start, current.End, training.Descending)
	if err != nil {
		return nil, err
	}
	powerBests, err := s.reader.ListPowerBests(ctx)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Workouts:         workouts,
		NextWeekWorkouts: nextWeekWorkouts,
		FitnessMetrics:   fitnessMetrics,
		PowerPBs:         powerBests,
	}, nil
}

// FitnessTrend returns the metrics of the last days, oldest first.
func (s *Service) FitnessTrend(ctx context.Context, days int) (_ []training.FitnessMetric, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "syncer.service.fitnessTrend")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	since := s.today().AddDate(0, 0, -days)
	return s.reader.ListFitnessMetricsSince(ctx, since)
}
