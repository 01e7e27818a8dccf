package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pearguacamole/VroomVault/internal/catalog"
	"github.com/pearguacamole/VroomVault/internal/config"
	"github.com/pearguacamole/VroomVault/internal/platform/logger"
	stubapp "github.com/pearguacamole/VroomVault/internal/stubserver/app"
	"github.com/pearguacamole/VroomVault/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var png = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

// setup points the CLI at a fresh stub API and a sqlite session in a temp dir.
func setup(t *testing.T) {
	t.Helper()
	var cfg config.StubConfig
	cfg.Auth.Secret = "0123456789abcdef0123"
	cfg.Auth.TokenTTL = time.Minute
	srv := httptest.NewServer(stubapp.SetupHttpHandler(stubapp.SetupDependencies(&cfg, logger.Discard())))
	t.Cleanup(srv.Close)

	t.Setenv("CATALOG_API_BASEURL", srv.URL)
	t.Setenv("CATALOG_SESSION_BACKEND", config.SessionSQLite)
	t.Setenv("CATALOG_SESSION_SQLITE_DIR", t.TempDir())
	t.Setenv("CATALOG_LOG_LEVEL", "error")
}

func invoke(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), err
}

func writeImage(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, png, 0o600))
	return p
}

func Test_Run_Usage(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{name: "no command", args: nil},
		{name: "unknown command", args: []string{"fly"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			_, err := invoke(t, tc.args...)
			// then
			assert.ErrorIs(t, err, errUsage)
		})
	}
}

func Test_Run_RequiresLogin(t *testing.T) {
	// given
	setup(t)
	// when
	_, err := invoke(t, "list")
	// then
	require.Error(t, err)
	assert.Equal(t, "Your session has ended, please log in again", err.Error())
}

func Test_Run_Lifecycle(t *testing.T) {
	// given
	setup(t)
	_, err := invoke(t, "signup", "-name", "Ann", "-email", "ann@example.com", "-password", "secret")
	require.NoError(t, err)
	_, err = invoke(t, "login", "-email", "ann@example.com", "-password", "secret")
	require.NoError(t, err)

	out, err := invoke(t, "whoami")
	require.NoError(t, err)
	assert.JSONEq(t, `{"signed_in":true,"email":"ann@example.com"}`, out)

	// when
	out, err = invoke(t, "create", "-title", "Civic", "-description", "Reliable", "-tags", "sedan,honda",
		"-image", writeImage(t, "front.png"), "-image", writeImage(t, "back.png"))
	require.NoError(t, err)
	var created productView
	require.NoError(t, json.Unmarshal([]byte(out), &created))

	// then
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "sedan,honda", created.Tags)
	assert.Len(t, created.ImageURLs, 2)
	assert.Equal(t, created.ImageURLs[0], created.Cover)

	out, err = invoke(t, "update", "-id", created.ID, "-title", "Civic Si", "-drop", "0", "-image", writeImage(t, "seat.png"))
	require.NoError(t, err)
	var updated productView
	require.NoError(t, json.Unmarshal([]byte(out), &updated))
	assert.Equal(t, "Civic Si", updated.Title)
	assert.Equal(t, "Reliable", updated.Description)
	assert.Len(t, updated.ImageURLs, 2)
	assert.NotContains(t, updated.ImageURLs, created.ImageURLs[0])

	out, err = invoke(t, "search", "si")
	require.NoError(t, err)
	var found []productView
	require.NoError(t, json.Unmarshal([]byte(out), &found))
	require.Len(t, found, 1)
	assert.Equal(t, created.ID, found[0].ID)

	_, err = invoke(t, "delete", created.ID)
	require.NoError(t, err)
	_, err = invoke(t, "get", "-id", created.ID)
	require.Error(t, err)
	assert.Equal(t, "Car not found", err.Error())

	_, err = invoke(t, "logout")
	require.NoError(t, err)
	out, err = invoke(t, "whoami")
	require.NoError(t, err)
	assert.JSONEq(t, `{"signed_in":false}`, out)
}

func Test_Run_UpdateRejectsBadIndex(t *testing.T) {
	// given
	setup(t)
	_, err := invoke(t, "signup", "-name", "Ann", "-email", "ann@example.com", "-password", "secret")
	require.NoError(t, err)
	_, err = invoke(t, "login", "-email", "ann@example.com", "-password", "secret")
	require.NoError(t, err)
	out, err := invoke(t, "create", "-title", "Civic", "-description", "Reliable")
	require.NoError(t, err)
	var created productView
	require.NoError(t, json.Unmarshal([]byte(out), &created))

	// when
	_, err = invoke(t, "update", "-id", created.ID, "-drop", "3")

	// then
	assert.ErrorContains(t, err, "drop image 3")
}

func Test_failure(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		err      error
		expected string
	}{
		{name: "screen text wins", text: "Car not found", err: errors.New("get product 7: not found"), expected: "Car not found"},
		{name: "closed screen", text: "", err: view.ErrClosed, expected: view.ErrClosed.Error()},
		{name: "busy screen", text: "", err: view.ErrBusy, expected: view.ErrBusy.Error()},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			err := failure(tc.text, tc.err)
			// then
			require.Error(t, err)
			assert.Equal(t, tc.expected, err.Error())
		})
	}
}

func Test_failure_ClosedCreateScreen(t *testing.T) {
	// given
	screen := view.NewCreateScreen(view.Deps{})
	require.NoError(t, screen.SetFields(catalog.Fields{Title: "Civic", Description: "Reliable"}))
	screen.Close()

	// when
	_, err := screen.Submit(context.Background())

	// then
	assert.ErrorIs(t, failure(screen.State().Error, err), view.ErrClosed)
}
