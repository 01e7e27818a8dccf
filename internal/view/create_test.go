package view

import (
	"context"
	"testing"

	"github.com/pearguacamole/VroomVault/internal/catalog"
	catalogerrors "github.com/pearguacamole/VroomVault/internal/catalog/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_CreateScreen_Submit(t *testing.T) {
	// given
	repo := &fakeRepository{}
	nav := &recordingNavigator{}
	screen := NewCreateScreen(Deps{Repository: repo, Navigator: nav})
	var phases []CreatePhase
	screen.OnChange(func(s CreateState) { phases = append(phases, s.Phase) })
	require.NoError(t, screen.SetFields(catalog.Fields{Title: "T", Description: "D", Tags: "a,b"}))
	require.NoError(t, screen.AddImages(localFile("a.png"), localFile("b.png")))

	// when
	created, err := screen.Submit(context.Background())

	// then
	require.NoError(t, err)
	assert.Equal(t, "new", created.ID)
	assert.Equal(t, 2, repo.createdImages.Len())
	assert.Equal(t, "a.png", repo.createdImages.Attachments[0].Filename)
	assert.Equal(t, []string{RouteProducts}, nav.Routes())
	assert.Equal(t, Created, screen.State().Phase)
	assert.Equal(t, []CreatePhase{Composing, Composing, Submitting, Created}, phases)
	assert.ErrorIs(t, screen.SetFields(catalog.Fields{}), ErrWrongState)
}

func Test_CreateScreen_SubmitFailure(t *testing.T) {
	testCases := []struct {
		name          string
		createErr     error
		expectedRoute []string
	}{
		{name: "server rejects", createErr: &catalogerrors.APIError{Status: 422, Message: "description: field required", Kind: catalogerrors.ErrValidationFailed}},
		{name: "session ended", createErr: catalogerrors.ErrUnauthenticated, expectedRoute: []string{RouteLogin}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			repo := &fakeRepository{createErr: tc.createErr}
			nav := &recordingNavigator{}
			screen := NewCreateScreen(Deps{Repository: repo, Navigator: nav})
			require.NoError(t, screen.SetFields(catalog.Fields{Title: "T", Description: "D"}))
			require.NoError(t, screen.AddImages(localFile("a.png")))

			// when
			_, err := screen.Submit(context.Background())

			// then
			assert.ErrorIs(t, err, tc.createErr)
			state := screen.State()
			assert.Equal(t, Composing, state.Phase)
			assert.Equal(t, catalogerrors.Message(tc.createErr), state.Error)
			assert.Len(t, state.Slots, 1)
			assert.Equal(t, tc.expectedRoute, nav.Routes())
		})
	}
}

func Test_CreateScreen_ValidatesBeforeSubmitting(t *testing.T) {
	repo := &fakeRepository{}
	screen := NewCreateScreen(Deps{Repository: repo})

	_, err := screen.Submit(context.Background())

	assert.ErrorIs(t, err, catalogerrors.ErrValidationFailed)
	assert.Nil(t, repo.createdImages)
	assert.Equal(t, Composing, screen.State().Phase)
}

func Test_CreateScreen_Capacity(t *testing.T) {
	screen := NewCreateScreen(Deps{Repository: &fakeRepository{}})
	for range 10 {
		require.NoError(t, screen.AddImages(localFile("a.png")))
	}

	err := screen.AddImages(localFile("b.png"))

	assert.ErrorIs(t, err, catalogerrors.ErrCapacityExceeded)
	assert.Len(t, screen.State().Slots, 10)
	require.NoError(t, screen.RemoveImage(9))
	assert.Len(t, screen.State().Slots, 9)
	assert.Empty(t, screen.State().Error)
}
