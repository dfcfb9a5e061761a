package resolver

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"macrotrack/internal/feed"
	"macrotrack/pkg/models"
)

// EventSink receives refresh-progress events. Satisfied by feed.Hub;
// nil disables publishing.
type EventSink interface {
	Publish(feed.Event)
}

// ResolveAll refreshes every registered URL sequentially through the
// shared session. Failures are isolated per URL: the result map holds
// only successful resolutions, so merging it into the store leaves
// stale data for failed URLs untouched. The batch stops early only
// when the caller's context is done.
func (r *Resolver) ResolveAll(ctx context.Context, urls []models.ProductURL, sink EventSink) (map[string]models.Product, models.BatchReport) {
	report := models.BatchReport{
		RunID:   uuid.NewString(),
		Started: r.now(),
		Total:   len(urls),
	}
	log := zap.S().With("run_id", report.RunID)
	log.Infow("refresh batch started", "urls", len(urls))

	publish(sink, feed.Event{Type: feed.EventRunStart, RunID: report.RunID, Total: len(urls)})

	resolved := make(map[string]models.Product, len(urls))
	for _, reg := range urls {
		if err := ctx.Err(); err != nil {
			log.Warnw("refresh batch interrupted", "err", err)
			report.Failed = report.Total - report.Resolved
			break
		}

		product, err := r.Resolve(ctx, reg)
		if err != nil {
			stage := "resolve"
			var se *StageError
			if errors.As(err, &se) {
				stage = se.Stage
			}
			log.Errorw("product resolution failed", "url", reg.URL, "stage", stage, "err", err)
			report.Failed++
			report.Failures = append(report.Failures, models.BatchFailure{
				URL:   reg.URL,
				Stage: stage,
				Error: err.Error(),
			})
			publish(sink, feed.Event{
				Type:  feed.EventProductFailed,
				RunID: report.RunID,
				URL:   reg.URL,
				Stage: stage,
				Error: err.Error(),
			})
			continue
		}

		resolved[reg.URL] = *product
		report.Resolved++
		log.Infow("product resolved", "url", reg.URL, "name", product.Name)
		publish(sink, feed.Event{
			Type:  feed.EventProductResolved,
			RunID: report.RunID,
			URL:   reg.URL,
			Name:  product.Name,
		})
	}

	report.Finished = r.now()
	log.Infow("refresh batch finished",
		"resolved", report.Resolved, "failed", report.Failed,
		"took", report.Finished.Sub(report.Started).Round(time.Millisecond).String())

	publish(sink, feed.Event{
		Type:     feed.EventRunDone,
		RunID:    report.RunID,
		Total:    report.Total,
		Resolved: report.Resolved,
		Failed:   report.Failed,
	})
	return resolved, report
}

func publish(sink EventSink, ev feed.Event) {
	if sink != nil {
		sink.Publish(ev)
	}
}
