package coordinator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/facetsearch/internal/compiler"
	"github.com/kailas-cloud/facetsearch/internal/domain"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/facet"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/intent"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/order"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/settings"
)

func waitIdle(t *testing.T, c *Coordinator) intent.Intent {
	t.Helper()
	var s intent.Intent
	require.Eventually(t, func() bool {
		s = c.Snapshot()
		return s.IsInitialized && !s.IsLoading && s.Results != nil
	}, waitFor, tick)
	return s
}

func TestCoordinator_MountSearch(t *testing.T) {
	st := testSettings(time.Hour)
	st.DefaultFilters = []settings.Filter{{Key: "type", Value: "report"}}
	st.DefaultSort = order.Newest
	fs := &fakeSearcher{}

	c := New(st, fs)
	defer c.Close()

	s := waitIdle(t, c)
	require.Equal(t, 1, fs.calls(), "mount search must not wait for the debounce")
	assert.Equal(t, "*", resultID(s))
	assert.Equal(t, []string{"report"}, s.Facets["type"])
	assert.Equal(t, order.Newest, s.SortBy)
	assert.NotNil(t, fs.last().PostFilter)
}

func TestCoordinator_DebounceCollapsesRapidChanges(t *testing.T) {
	fs := &fakeSearcher{}
	c := New(testSettings(80*time.Millisecond), fs)
	defer c.Close()
	waitIdle(t, c)

	ctx := context.Background()
	require.NoError(t, c.Dispatch(ctx, intent.SetQuery{Text: "flood"}))
	require.NoError(t, c.Dispatch(ctx, intent.SetQuery{Text: "drought"}))

	require.Eventually(t, func() bool { return resultID(c.Snapshot()) == "drought~1" }, waitFor, tick)
	time.Sleep(200 * time.Millisecond)

	assert.Equal(t, 2, fs.calls())
	assert.Equal(t, "drought~1", mustText(fs.last()))
}

func TestCoordinator_StaleResponseDropped(t *testing.T) {
	release := make(chan struct{})
	staleCtx := make(chan context.Context, 1)
	fs := &fakeSearcher{respond: func(ctx context.Context, doc *compiler.Document) (intent.Response, error) {
		if strings.HasPrefix(mustText(doc), "flood") {
			staleCtx <- ctx
			<-release // ignores cancellation on purpose
			return response("stale"), nil
		}
		return response(mustText(doc)), nil
	}}
	c := New(testSettings(10*time.Millisecond), fs)
	defer c.Close()
	waitIdle(t, c)

	ctx := context.Background()
	require.NoError(t, c.Dispatch(ctx, intent.SetQuery{Text: "flood"}))
	var first context.Context
	select {
	case first = <-staleCtx:
	case <-time.After(waitFor):
		t.Fatal("flood search never started")
	}
	require.True(t, c.Snapshot().IsLoading)

	require.NoError(t, c.Dispatch(ctx, intent.SetQuery{Text: "drought"}))
	require.Eventually(t, func() bool { return resultID(c.Snapshot()) == "drought~1" }, waitFor, tick)
	require.ErrorIs(t, first.Err(), context.Canceled)

	close(release)
	time.Sleep(50 * time.Millisecond)
	s := c.Snapshot()
	assert.Equal(t, "drought~1", resultID(s))
	assert.False(t, s.IsLoading)
}

func TestCoordinator_Gating(t *testing.T) {
	fs := &fakeSearcher{}
	obs := &fakeObserver{}
	c := New(testSettings(0), fs, WithObserver(obs))
	defer c.Close()
	waitIdle(t, c)
	ctx := context.Background()

	require.NoError(t, c.Dispatch(ctx, intent.SetQuery{Text: "ab"}))
	assert.Equal(t, 1, obs.count(OutcomeSkipped))

	require.NoError(t, c.Dispatch(ctx, intent.Facet("type", "report")))
	require.Eventually(t, func() bool { return fs.calls() == 2 }, waitFor, tick)
	waitIdle(t, c)

	require.NoError(t, c.Dispatch(ctx, intent.RemoveFacet{Key: "type"}))
	assert.Equal(t, 2, obs.count(OutcomeSkipped))
	assert.False(t, c.Snapshot().IsLoading)

	require.NoError(t, c.Refresh(ctx, false))
	assert.Equal(t, 3, obs.count(OutcomeSkipped))

	require.NoError(t, c.Refresh(ctx, true))
	require.Eventually(t, func() bool { return fs.calls() == 3 }, waitFor, tick)
	assert.Equal(t, "ab~1", mustText(fs.last()))

	require.NoError(t, c.Dispatch(ctx, intent.SetQuery{Text: ""}))
	require.Eventually(t, func() bool { return fs.calls() == 4 }, waitFor, tick)
}

func TestCoordinator_NoSearchWithoutChange(t *testing.T) {
	fs := &fakeSearcher{}
	c := New(testSettings(0), fs)
	defer c.Close()
	waitIdle(t, c)
	ctx := context.Background()

	require.NoError(t, c.Dispatch(ctx, intent.SetSort{Sort: order.Relevance}))
	require.NoError(t, c.Dispatch(ctx, intent.SetLoading{Loading: false}))
	require.NoError(t, c.Dispatch(ctx, intent.ClearFacets{}))
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, fs.calls())
}

func TestCoordinator_PageChangeSearches(t *testing.T) {
	fs := &fakeSearcher{}
	c := New(testSettings(0), fs)
	defer c.Close()
	waitIdle(t, c)

	require.NoError(t, c.Dispatch(context.Background(), intent.SetPage{Page: 3}))
	require.Eventually(t, func() bool { return fs.calls() == 2 }, waitFor, tick)
	assert.Equal(t, 20, fs.last().From)
	assert.Equal(t, 3, c.Snapshot().Page)
}

func TestCoordinator_ErrorKeepsResults(t *testing.T) {
	fs := &fakeSearcher{}
	c := New(testSettings(0), fs)
	defer c.Close()
	waitIdle(t, c)

	fs.mu.Lock()
	fs.respond = func(context.Context, *compiler.Document) (intent.Response, error) {
		return intent.Response{}, errors.New("endpoint returned 502")
	}
	fs.mu.Unlock()

	require.NoError(t, c.Dispatch(context.Background(), intent.SetQuery{Text: "flood"}))
	require.Eventually(t, func() bool { return c.Snapshot().Error != "" }, waitFor, tick)

	s := c.Snapshot()
	assert.Equal(t, "endpoint returned 502", s.Error)
	assert.False(t, s.IsLoading)
	assert.Equal(t, "*", resultID(s))
}

func TestCoordinator_CloseCancelsInFlight(t *testing.T) {
	started := make(chan context.Context, 1)
	fs := &fakeSearcher{respond: func(ctx context.Context, _ *compiler.Document) (intent.Response, error) {
		started <- ctx
		<-ctx.Done()
		return intent.Response{}, ctx.Err()
	}}
	c := New(testSettings(0), fs)
	sub, _ := c.Subscribe()

	var inflight context.Context
	select {
	case inflight = <-started:
	case <-time.After(waitFor):
		t.Fatal("mount search never started")
	}

	c.Close()
	require.ErrorIs(t, inflight.Err(), context.Canceled)
	require.ErrorIs(t, c.Dispatch(context.Background(), intent.SetQuery{Text: "x"}), domain.ErrClosed)
	require.ErrorIs(t, c.Refresh(context.Background(), true), domain.ErrClosed)
	c.Close()

	for range sub {
	}
	late, _ := c.Subscribe()
	_, ok := <-late
	assert.False(t, ok)
}

func TestCoordinator_Subscribe(t *testing.T) {
	fs := &fakeSearcher{}
	c := New(testSettings(0), fs)
	defer c.Close()
	waitIdle(t, c)

	sub, unsubscribe := c.Subscribe()
	first := <-sub
	assert.True(t, first.IsInitialized)

	require.NoError(t, c.Dispatch(context.Background(), intent.SetQuery{Text: "flood"}))
	require.Eventually(t, func() bool {
		select {
		case s := <-sub:
			return s.Query == "flood" && resultID(s) == "flood~1"
		default:
			return false
		}
	}, waitFor, tick)

	unsubscribe()
	unsubscribe()
	_, ok := <-sub
	assert.False(t, ok)
}

func TestCoordinator_DispatchNil(t *testing.T) {
	c := New(testSettings(0), &fakeSearcher{})
	defer c.Close()
	require.ErrorIs(t, c.Dispatch(context.Background(), nil), domain.ErrInvalidAction)
}

func TestCoordinator_AlwaysORFacetKeepsOR(t *testing.T) {
	st := testSettings(0)
	for i := range st.FacetFields {
		if st.FacetFields[i].Key == facet.KeyTheme {
			st.FacetFields[i].AlwaysOR = true
		}
	}
	fs := &fakeSearcher{}
	c := New(st, fs)
	defer c.Close()
	waitIdle(t, c)

	ctx := context.Background()
	require.NoError(t, c.Dispatch(ctx, intent.Facet(facet.KeyTheme, "a", "b")))
	require.NoError(t, c.Dispatch(ctx, intent.SetFacetOperator{Key: facet.KeyTheme, Operator: facet.AND}))
	assert.Equal(t, facet.OR, c.Snapshot().Operator(facet.KeyTheme))

	require.Eventually(t, func() bool {
		doc := fs.last()
		return doc != nil && doc.PostFilter != nil
	}, waitFor, tick)
	clause := fs.last().PostFilter.Bool.Filter[0]
	assert.Equal(t, map[string][]string{"field_themes": {"a", "b"}}, clause.Terms)
}

func TestApply_NormalizesOperators(t *testing.T) {
	st := settings.Default()
	for i := range st.FacetFields {
		if st.FacetFields[i].Key == facet.KeyLanguage {
			st.FacetFields[i].AlwaysOR = false
		}
	}

	got := Apply(st, intent.Initial(),
		intent.SetFacetOperator{Key: facet.KeyLanguage, Operator: facet.AND},
		intent.SetFacetOperator{Key: facet.KeyDomain, Operator: facet.AND},
		intent.SetPage{Page: 2},
	)
	assert.Equal(t, facet.AND, got.Operator(facet.KeyLanguage), "language was unflagged")
	assert.Equal(t, facet.OR, got.Operator(facet.KeyDomain))
	assert.Equal(t, 2, got.Page)
}

func TestNormalize_SingleSelectCustomFacet(t *testing.T) {
	st := settings.Default()
	st.CustomFacets = []facet.CustomFacet{
		{ID: "audience", Options: []facet.CustomOption{{Query: "a"}, {Query: "b"}}},
		{ID: "topic", MultiSelect: true, Options: []facet.CustomOption{{Query: "c"}, {Query: "d"}}},
	}

	single := Normalize(st, intent.SetCustomFacet{ID: "audience", Values: []string{"0", "1"}})
	assert.Equal(t, intent.SetCustomFacet{ID: "audience", Values: []string{"1"}}, single)

	multi := Normalize(st, intent.SetCustomFacet{ID: "topic", Values: []string{"0", "1"}})
	assert.Equal(t, intent.SetCustomFacet{ID: "topic", Values: []string{"0", "1"}}, multi)

	other := intent.SetQuery{Text: "flood"}
	assert.Equal(t, intent.Action(other), Normalize(st, other))
}
