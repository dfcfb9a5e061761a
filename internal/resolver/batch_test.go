package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macrotrack/internal/feed"
	"macrotrack/pkg/models"
)

type sinkRecorder struct {
	events []feed.Event
}

func (s *sinkRecorder) Publish(ev feed.Event) { s.events = append(s.events, ev) }

func batchURLs() []models.ProductURL {
	return []models.ProductURL{
		{URL: "https://www.makro.plazavea.com.pe/pechuga-1kg/p"},
		{URL: "https://www.makro.plazavea.com.pe/bistec-500g/p"},
		{URL: "https://www.makro.plazavea.com.pe/chuleta-2kg/p"},
	}
}

func pageNamed(name string) fakePage {
	page := fullPage()
	page.waitText[namePrimarySel] = name
	return page
}

func TestResolveAllPartialFailureIsolation(t *testing.T) {
	urls := batchURLs()
	session := &fakeSession{
		pages: map[string]fakePage{
			urls[0].URL: pageNamed("Pechuga"),
			urls[2].URL: pageNamed("Chuleta"),
		},
		navErr: map[string]error{urls[1].URL: errors.New("net::ERR_TIMED_OUT")},
	}
	sink := &sinkRecorder{}

	resolved, report := newTestResolver(session, nil).ResolveAll(context.Background(), urls, sink)

	require.Len(t, resolved, 2)
	assert.Contains(t, resolved, urls[0].URL)
	assert.Contains(t, resolved, urls[2].URL)
	assert.NotContains(t, resolved, urls[1].URL)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Resolved)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, urls[1].URL, report.Failures[0].URL)
	assert.Equal(t, StageNavigate, report.Failures[0].Stage)

	// start, one event per URL, done
	require.Len(t, sink.events, 5)
	assert.Equal(t, feed.EventRunStart, sink.events[0].Type)
	assert.Equal(t, feed.EventProductResolved, sink.events[1].Type)
	assert.Equal(t, feed.EventProductFailed, sink.events[2].Type)
	assert.Equal(t, feed.EventProductResolved, sink.events[3].Type)
	assert.Equal(t, feed.EventRunDone, sink.events[4].Type)
	assert.Equal(t, report.RunID, sink.events[4].RunID)
}

func TestResolveAllSequential(t *testing.T) {
	urls := batchURLs()
	session := &fakeSession{pages: map[string]fakePage{
		urls[0].URL: pageNamed("Pechuga"),
		urls[1].URL: pageNamed("Bistec"),
		urls[2].URL: pageNamed("Chuleta"),
	}}

	_, report := newTestResolver(session, nil).ResolveAll(context.Background(), urls, nil)

	assert.Equal(t, []string{urls[0].URL, urls[1].URL, urls[2].URL}, session.visited)
	assert.Equal(t, 3, report.Resolved)
	assert.Zero(t, report.Failed)
}

func TestResolveAllEmpty(t *testing.T) {
	resolved, report := newTestResolver(&fakeSession{}, nil).ResolveAll(context.Background(), nil, nil)
	assert.Empty(t, resolved)
	assert.Zero(t, report.Total)
	assert.Zero(t, report.Resolved)
}

func TestResolveAllCancelledBetweenURLs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	urls := batchURLs()
	session := &fakeSession{pages: map[string]fakePage{}}
	resolved, report := newTestResolver(session, nil).ResolveAll(ctx, urls, nil)

	assert.Empty(t, resolved)
	assert.Empty(t, session.visited, "no navigation after cancellation")
	assert.Equal(t, 3, report.Failed)
}
