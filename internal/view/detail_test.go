package view

import (
	"context"
	"errors"
	"testing"

	"github.com/pearguacamole/VroomVault/internal/catalog"
	catalogerrors "github.com/pearguacamole/VroomVault/internal/catalog/errors"
	"github.com/pearguacamole/VroomVault/internal/imageset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeImages() []string {
	return []string{
		"http://api.test/images/r0.jpg",
		"http://api.test/images/r1.jpg",
		"http://api.test/images/r2.jpg",
	}
}

func loadedDetail(t *testing.T, repo *fakeRepository, nav Navigator) *DetailScreen {
	t.Helper()
	screen := NewDetailScreen(Deps{Repository: repo, Fetcher: bytesFetcher, Navigator: nav, Concurrency: 2}, repo.product.ID)
	require.NoError(t, screen.Load(context.Background()))
	require.Equal(t, DetailViewing, screen.State().Phase)
	return screen
}

func Test_DetailScreen_Load(t *testing.T) {
	t.Run("not found fails the screen", func(t *testing.T) {
		repo := &fakeRepository{err: &catalogerrors.APIError{Status: 404, Message: "Car not found", Kind: catalogerrors.ErrNotFound}}
		nav := &recordingNavigator{}
		screen := NewDetailScreen(Deps{Repository: repo, Navigator: nav}, "9")

		err := screen.Load(context.Background())

		assert.ErrorIs(t, err, catalogerrors.ErrNotFound)
		state := screen.State()
		assert.Equal(t, DetailFailed, state.Phase)
		assert.Equal(t, "Car not found", state.Error)
		assert.Empty(t, nav.Routes())
	})

	t.Run("unauthenticated navigates to login", func(t *testing.T) {
		repo := &fakeRepository{err: catalogerrors.ErrUnauthenticated}
		nav := &recordingNavigator{}
		screen := NewDetailScreen(Deps{Repository: repo, Navigator: nav}, "9")

		_ = screen.Load(context.Background())

		assert.Equal(t, []string{RouteLogin}, nav.Routes())
	})
}

func Test_DetailScreen_SubmitComposesMixedSlots(t *testing.T) {
	// given: a product with three stored images
	repo := &fakeRepository{product: product("7", threeImages()...)}
	screen := loadedDetail(t, repo, &recordingNavigator{})
	require.NoError(t, screen.BeginEdit())
	assert.Len(t, screen.State().Slots, 3)

	// when: one stored image is removed and two files are added
	require.NoError(t, screen.RemoveImage(1))
	require.NoError(t, screen.AddImages(localFile("x.png"), localFile("y.png")))
	require.NoError(t, screen.SetFields(catalog.Fields{Title: "T", Description: "D", Tags: "a,b"}))
	err := screen.Submit(context.Background())

	// then
	require.NoError(t, err)
	require.NotNil(t, repo.updatedImages)
	require.Equal(t, 4, repo.updatedImages.Len())
	names := make([]string, 0, 4)
	for _, a := range repo.updatedImages.Attachments {
		names = append(names, a.Filename)
	}
	assert.Equal(t, []string{"r0.jpg", "r2.jpg", "x.png", "y.png"}, names)
	assert.Equal(t, "7", repo.updatedID)
	assert.Equal(t, catalog.Fields{Title: "T", Description: "D", Tags: "a,b"}, repo.updatedFields)

	state := screen.State()
	assert.Equal(t, DetailViewing, state.Phase)
	assert.Equal(t, "T", state.Product.Title)
	assert.Len(t, state.Product.ImageURLs, 4)
	assert.Nil(t, state.Slots)
	assert.Empty(t, state.Error)
}

func Test_DetailScreen_SubmitFailureStaysEditing(t *testing.T) {
	testCases := []struct {
		name          string
		fetcher       imageset.Fetcher
		updateErr     error
		expectedErr   error
		expectUpdated bool
	}{
		{
			name: "compose failure",
			fetcher: imageset.FetcherFunc(func(context.Context, string) ([]byte, string, error) {
				return nil, "", errors.New("connection reset")
			}),
			expectedErr: catalogerrors.ErrComposeFailed,
		},
		{
			name:          "validation failure from server",
			fetcher:       bytesFetcher,
			updateErr:     &catalogerrors.APIError{Status: 422, Message: "title: field required", Kind: catalogerrors.ErrValidationFailed},
			expectedErr:   catalogerrors.ErrValidationFailed,
			expectUpdated: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			repo := &fakeRepository{product: product("7", threeImages()...), updateErr: tc.updateErr}
			screen := NewDetailScreen(Deps{Repository: repo, Fetcher: tc.fetcher}, "7")
			require.NoError(t, screen.Load(context.Background()))
			require.NoError(t, screen.BeginEdit())
			require.NoError(t, screen.AddImages(localFile("x.png")))
			before := screen.State().Slots

			// when
			err := screen.Submit(context.Background())

			// then
			assert.ErrorIs(t, err, tc.expectedErr)
			state := screen.State()
			assert.Equal(t, DetailEditing, state.Phase)
			assert.NotEmpty(t, state.Error)
			assert.Equal(t, before, state.Slots)
			assert.Equal(t, tc.expectUpdated, repo.updatedImages != nil)
			assert.Equal(t, threeImages(), state.Product.ImageURLs)
		})
	}
}

func Test_DetailScreen_SubmitRejectsBlankFields(t *testing.T) {
	repo := &fakeRepository{product: product("7")}
	screen := loadedDetail(t, repo, nil)
	require.NoError(t, screen.BeginEdit())
	require.NoError(t, screen.SetFields(catalog.Fields{Title: "", Description: "D"}))

	err := screen.Submit(context.Background())

	assert.ErrorIs(t, err, catalogerrors.ErrValidationFailed)
	assert.Equal(t, "title is required", screen.State().Error)
	assert.Nil(t, repo.updatedImages)
}

func Test_DetailScreen_AddImagesOverCapacity(t *testing.T) {
	urls := make([]string, 9)
	for i := range urls {
		urls[i] = "http://api.test/images/x.jpg"
	}
	repo := &fakeRepository{product: product("7", urls...)}
	screen := loadedDetail(t, repo, nil)
	require.NoError(t, screen.BeginEdit())

	err := screen.AddImages(localFile("a.png"), localFile("b.png"))

	assert.ErrorIs(t, err, catalogerrors.ErrCapacityExceeded)
	state := screen.State()
	assert.Len(t, state.Slots, 9)
	assert.Equal(t, "A product can have at most 10 images", state.Error)
}

func Test_DetailScreen_RemoveClampsCarousel(t *testing.T) {
	repo := &fakeRepository{product: product("7", threeImages()...)}
	screen := loadedDetail(t, repo, nil)
	require.NoError(t, screen.BeginEdit())
	require.True(t, screen.SelectImage(2))

	require.NoError(t, screen.RemoveImage(2))
	assert.Equal(t, 1, screen.State().ImageIndex)

	require.NoError(t, screen.RemoveImage(0))
	require.NoError(t, screen.RemoveImage(0))
	assert.Equal(t, 0, screen.State().ImageIndex)
	assert.ErrorIs(t, screen.RemoveImage(0), imageset.ErrIndexOutOfRange)
}

func Test_DetailScreen_Carousel(t *testing.T) {
	repo := &fakeRepository{product: product("7", threeImages()...)}
	screen := loadedDetail(t, repo, nil)

	screen.PrevImage()
	assert.Equal(t, 2, screen.State().ImageIndex)
	screen.NextImage()
	assert.Equal(t, 0, screen.State().ImageIndex)
	assert.False(t, screen.SelectImage(3))
}

func Test_DetailScreen_CancelEdit(t *testing.T) {
	repo := &fakeRepository{product: product("7", threeImages()...)}
	screen := loadedDetail(t, repo, nil)
	require.NoError(t, screen.BeginEdit())
	require.NoError(t, screen.RemoveImage(0))

	require.NoError(t, screen.CancelEdit())

	state := screen.State()
	assert.Equal(t, DetailViewing, state.Phase)
	assert.Equal(t, threeImages(), state.Product.ImageURLs)
	assert.ErrorIs(t, screen.CancelEdit(), ErrWrongState)
	assert.ErrorIs(t, screen.AddImages(localFile("a.png")), ErrWrongState)
}

func Test_DetailScreen_Delete(t *testing.T) {
	t.Run("success navigates to the list", func(t *testing.T) {
		repo := &fakeRepository{product: product("7")}
		nav := &recordingNavigator{}
		screen := loadedDetail(t, repo, nav)

		require.NoError(t, screen.Delete(context.Background()))

		assert.Equal(t, DetailDeleted, screen.State().Phase)
		assert.Equal(t, []string{RouteProducts}, nav.Routes())
		assert.Equal(t, []string{"7"}, repo.deleteCalls)
		assert.ErrorIs(t, screen.BeginEdit(), ErrWrongState)
	})

	t.Run("failure keeps state and does not navigate", func(t *testing.T) {
		// given
		repo := &fakeRepository{
			product:   product("7", threeImages()...),
			deleteErr: &catalogerrors.APIError{Status: 500, Kind: catalogerrors.ErrServerError},
		}
		nav := &recordingNavigator{}
		screen := loadedDetail(t, repo, nav)
		before := screen.State()

		// when
		err := screen.Delete(context.Background())

		// then
		assert.ErrorIs(t, err, catalogerrors.ErrServerError)
		state := screen.State()
		assert.Equal(t, DetailViewing, state.Phase)
		assert.Equal(t, before.Product, state.Product)
		assert.Equal(t, "The catalog service failed to process the request", state.Error)
		assert.Empty(t, nav.Routes())
	})
}

func Test_DetailScreen_ClosedIgnoresLateDelete(t *testing.T) {
	repo := &fakeRepository{product: product("7")}
	nav := &recordingNavigator{}
	screen := loadedDetail(t, repo, nav)
	started := make(chan struct{})
	release := make(chan struct{})
	repo.getFn = func(context.Context, string) (catalog.Product, error) {
		close(started)
		<-release
		return product("7", "http://api.test/images/late.jpg"), nil
	}
	done := make(chan error, 1)
	go func() { done <- screen.Load(context.Background()) }()
	<-started

	screen.Close()
	close(release)
	require.NoError(t, <-done)

	assert.Empty(t, screen.State().Product.ImageURLs)
	assert.ErrorIs(t, screen.Delete(context.Background()), ErrClosed)
	assert.Empty(t, nav.Routes())
}
