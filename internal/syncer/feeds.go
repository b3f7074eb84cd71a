package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/2beens/healthdash/internal/intervals"
	"github.com/2beens/healthdash/internal/telemetry/tracing"
	"github.com/2beens/healthdash/internal/training"

	"go.uber.org/multierr"
)

type dataSource interface {
	FetchActivities(ctx context.Context, oldest, newest string) ([]intervals.Activity, error)
	FetchEvents(ctx context.Context, oldest, newest string) ([]intervals.Event, error)
	FetchWellness(ctx context.Context, oldest, newest string) ([]intervals.Wellness, error)
	FetchPowerCurve(ctx context.Context) (*intervals.PowerCurve, error)
}

// FeedResult is one settled fetch: either Value or Err.
type FeedResult[T any] struct {
	Value T
	Err   error
}

func (r FeedResult[T]) OK() bool {
	return r.Err == nil
}

type Feeds struct {
	Activities    FeedResult[[]intervals.Activity]
	CurrentEvents FeedResult[[]intervals.Event]
	NextEvents    FeedResult[[]intervals.Event]
	Wellness      FeedResult[[]intervals.Wellness]
	PowerCurve    FeedResult[*intervals.PowerCurve]
}

// Windows are the calendar ranges one pass asks the provider for.
type Windows struct {
	CurrentWeek training.Window
	NextWeek    training.Window
	Wellness    training.Window
}

func NewWindows(today time.Time, wellnessDays int) Windows {
	return Windows{
		CurrentWeek: training.CurrentWeek(today),
		NextWeek:    training.NextWeek(today),
		Wellness:    training.TrailingDays(today, wellnessDays),
	}
}

// Failed names the feeds that did not settle successfully.
func (f Feeds) Failed() []string {
	var failed []string
	if !f.Activities.OK() {
		failed = append(failed, string(intervals.FeedActivities))
	}
	if !f.CurrentEvents.OK() {
		failed = append(failed, "events-current-week")
	}
	if !f.NextEvents.OK() {
		failed = append(failed, "events-next-week")
	}
	if !f.Wellness.OK() {
		failed = append(failed, string(intervals.FeedWellness))
	}
	if !f.PowerCurve.OK() {
		failed = append(failed, string(intervals.FeedPowerCurve))
	}
	return failed
}

// Err combines every feed error, nil when all feeds settled fine.
func (f Feeds) Err() error {
	return multierr.Combine(
		f.Activities.Err,
		f.CurrentEvents.Err,
		f.NextEvents.Err,
		f.Wellness.Err,
		f.PowerCurve.Err,
	)
}

// FetchAll runs the five fetches concurrently and waits for all of them.
// A failing fetch never cancels the others.
func FetchAll(ctx context.Context, src dataSource, windows Windows) Feeds {
	ctx, span := tracing.GlobalTracer.Start(ctx, "syncer.fetchAll")
	defer span.End()

	var (
		feeds Feeds
		wg    sync.WaitGroup
	)
	wg.Add(5)

	go func() {
		defer wg.Done()
		feeds.Activities.Value, feeds.Activities.Err = src.FetchActivities(ctx, windows.CurrentWeek.Oldest(), windows.CurrentWeek.Newest())
	}()
	go func() {
		defer wg.Done()
		feeds.CurrentEvents.Value, feeds.CurrentEvents.Err = src.FetchEvents(ctx, windows.CurrentWeek.Oldest(), windows.CurrentWeek.Newest())
	}()
	go func() {
		defer wg.Done()
		feeds.NextEvents.Value, feeds.NextEvents.Err = src.FetchEvents(ctx, windows.NextWeek.Oldest(), windows.NextWeek.Newest())
	}()
	go func() {
		defer wg.Done()
		feeds.Wellness.Value, feeds.Wellness.Err = src.FetchWellness(ctx, windows.Wellness.Oldest(), windows.Wellness.Newest())
	}()
	go func() {
		defer wg.Done()
		feeds.PowerCurve.Value, feeds.PowerCurve.Err = src.FetchPowerCurve(ctx)
	}()

	wg.Wait()
	return feeds
}
