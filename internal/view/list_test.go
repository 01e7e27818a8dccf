package view

import (
	"context"
	"testing"

	"github.com/pearguacamole/VroomVault/internal/catalog"
	catalogerrors "github.com/pearguacamole/VroomVault/internal/catalog/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ListScreen_Mount(t *testing.T) {
	// given
	repo := &fakeRepository{products: []catalog.Product{product("1", "http://api.test/images/c.jpg"), product("2")}}
	screen := NewListScreen(Deps{Repository: repo})
	var phases []ListPhase
	screen.OnChange(func(s ListState) { phases = append(phases, s.Phase) })

	// when
	err := screen.Mount(context.Background())

	// then
	require.NoError(t, err)
	state := screen.State()
	assert.Equal(t, ListReady, state.Phase)
	assert.False(t, state.Loading)
	assert.Len(t, state.Products, 2)
	assert.Equal(t, "http://api.test/images/c.jpg", state.Products[0].Cover())
	assert.Equal(t, []ListPhase{ListLoading, ListReady}, phases)
	assert.Equal(t, 1, repo.listCalls)
	assert.Empty(t, repo.searchCalls)
}

func Test_ListScreen_SetKeyword(t *testing.T) {
	testCases := []struct {
		name           string
		keyword        string
		expectedList   int
		expectedSearch []string
	}{
		{name: "keyword searches", keyword: "sedan", expectedList: 0, expectedSearch: []string{"sedan"}},
		{name: "empty keyword lists", keyword: "", expectedList: 1},
		{name: "blank keyword lists", keyword: "  ", expectedList: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeRepository{products: []catalog.Product{product("1")}}
			screen := NewListScreen(Deps{Repository: repo})

			err := screen.SetKeyword(context.Background(), tc.keyword)

			require.NoError(t, err)
			assert.Equal(t, tc.expectedList, repo.listCalls)
			assert.Equal(t, tc.expectedSearch, repo.searchCalls)
			assert.Equal(t, tc.keyword, screen.State().Keyword)
		})
	}
}

func Test_ListScreen_FailureKeepsProducts(t *testing.T) {
	// given
	repo := &fakeRepository{products: []catalog.Product{product("1")}}
	nav := &recordingNavigator{}
	screen := NewListScreen(Deps{Repository: repo, Navigator: nav})
	require.NoError(t, screen.Mount(context.Background()))
	repo.products, repo.err = nil, catalogerrors.ErrNetworkFailure

	// when
	err := screen.SetKeyword(context.Background(), "sedan")

	// then
	assert.ErrorIs(t, err, catalogerrors.ErrNetworkFailure)
	state := screen.State()
	assert.Equal(t, ListFailed, state.Phase)
	assert.Equal(t, "Unable to reach the catalog service", state.Error)
	assert.Equal(t, []catalog.Product{product("1")}, state.Products)
	assert.Empty(t, nav.Routes())
}

func Test_ListScreen_UnauthenticatedNavigatesToLogin(t *testing.T) {
	repo := &fakeRepository{err: catalogerrors.ErrUnauthenticated}
	nav := &recordingNavigator{}
	screen := NewListScreen(Deps{Repository: repo, Navigator: nav})

	err := screen.Mount(context.Background())

	assert.ErrorIs(t, err, catalogerrors.ErrUnauthenticated)
	assert.Equal(t, []string{RouteLogin}, nav.Routes())
}

// gatedSearch blocks every search until its keyword is released.
type gatedSearch struct {
	started chan string
	release map[string]chan struct{}
	results map[string][]catalog.Product
}

func newGatedSearch(keywords ...string) *gatedSearch {
	g := &gatedSearch{
		started: make(chan string, len(keywords)),
		release: map[string]chan struct{}{},
		results: map[string][]catalog.Product{},
	}
	for _, kw := range keywords {
		g.release[kw] = make(chan struct{})
		g.results[kw] = []catalog.Product{product(kw)}
	}
	return g
}

func (g *gatedSearch) search(_ context.Context, keyword string) ([]catalog.Product, error) {
	g.started <- keyword
	<-g.release[keyword]
	return g.results[keyword], nil
}

func Test_ListScreen_Ordering(t *testing.T) {
	testCases := []struct {
		name       string
		ordering   Ordering
		expectedID string
	}{
		{name: "last resolved wins", ordering: LastResolvedWins, expectedID: "old"},
		{name: "last issued wins", ordering: LastIssuedWins, expectedID: "new"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given: a search for "old" still outstanding when "new" is issued
			gate := newGatedSearch("old", "new")
			repo := &fakeRepository{searchFn: gate.search}
			screen := NewListScreen(Deps{Repository: repo, Ordering: tc.ordering})
			ctx := context.Background()
			done := make(chan error, 2)

			go func() { done <- screen.SetKeyword(ctx, "old") }()
			require.Equal(t, "old", <-gate.started)
			go func() { done <- screen.SetKeyword(ctx, "new") }()
			require.Equal(t, "new", <-gate.started)

			// when: the newer request resolves first
			close(gate.release["new"])
			require.NoError(t, <-done)
			assert.True(t, screen.State().Loading)
			close(gate.release["old"])
			require.NoError(t, <-done)

			// then
			state := screen.State()
			require.Len(t, state.Products, 1)
			assert.Equal(t, tc.expectedID, state.Products[0].ID)
			assert.Equal(t, ListReady, state.Phase)
			assert.False(t, state.Loading)
		})
	}
}

func Test_ListScreen_ClosedDiscardsResults(t *testing.T) {
	// given
	started := make(chan struct{})
	release := make(chan struct{})
	repo := &fakeRepository{listFn: func(context.Context) ([]catalog.Product, error) {
		close(started)
		<-release
		return nil, catalogerrors.ErrUnauthenticated
	}}
	nav := &recordingNavigator{}
	screen := NewListScreen(Deps{Repository: repo, Navigator: nav})
	notified := 0
	screen.OnChange(func(ListState) { notified++ })
	done := make(chan error, 1)
	go func() { done <- screen.Mount(context.Background()) }()
	<-started

	// when
	screen.Close()
	close(release)
	<-done

	// then
	state := screen.State()
	assert.Equal(t, ListLoading, state.Phase)
	assert.Empty(t, state.Products)
	assert.Empty(t, state.Error)
	assert.Equal(t, 1, notified)
	assert.Empty(t, nav.Routes())
	assert.ErrorIs(t, screen.Refresh(context.Background()), ErrClosed)
}
