package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/sortwise/internal/common"
	"github.com/Veraticus/sortwise/internal/model"
	"github.com/Veraticus/sortwise/internal/storage"
	"github.com/Veraticus/sortwise/internal/testutil"
)

func TestBuildScanRequest(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		req, err := buildScanRequest("egg carton", "", "94102")
		require.NoError(t, err)
		assert.Equal(t, model.ScanModeText, req.Mode)
		assert.Equal(t, "egg carton", req.FreeText)
		assert.Equal(t, "94102", req.PostalCode)
		assert.Empty(t, req.ImageData)
	})

	t.Run("photo", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "can.png")
		png := []byte("\x89PNG\r\n\x1a\n0000")
		require.NoError(t, os.WriteFile(path, png, 0o600))

		req, err := buildScanRequest("", path, "")
		require.NoError(t, err)
		assert.Equal(t, model.ScanModePhoto, req.Mode)
		assert.Equal(t, png, req.ImageData)
		assert.Equal(t, "image/png", req.ImageMIME)
	})

	t.Run("missing photo", func(t *testing.T) {
		_, err := buildScanRequest("", filepath.Join(t.TempDir(), "nope.jpg"), "")
		var userErr *common.UserError
		assert.ErrorAs(t, err, &userErr)
	})
}

func TestResolveID(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t,
		testutil.NewEntry("can").WithID("abcd1111-0000").Build(),
		testutil.NewEntry("jar").WithID("abcd2222-0000").Build(),
		testutil.NewEntry("box").WithID("ffff0000-0000").Build(),
	)
	hist := db.History

	tests := []struct {
		name    string
		prefix  string
		want    string
		wantErr bool
	}{
		{name: "full id", prefix: "abcd2222-0000", want: "abcd2222-0000"},
		{name: "unique prefix", prefix: "ffff", want: "ffff0000-0000"},
		{name: "ambiguous prefix", prefix: "abcd", wantErr: true},
		{name: "too short to expand", prefix: "ff", want: "ff"},
		{name: "no match", prefix: "9999", want: "9999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveID(ctx, hist, tt.prefix)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSettingsCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sortwise.db")
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("logging:\n  level: error\n"), 0o600))

	run := func(args ...string) string {
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs(append([]string{"--config", configPath, "--db", dbPath}, args...))
		require.NoError(t, rootCmd.Execute())
		return out.String()
	}

	out := run("settings", "set", "zip", "94102")
	assert.Contains(t, out, "94102")

	run("settings", "set", "auto_sync", "false")

	ctx := context.Background()
	store, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	settings, err := store.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.Settings{Zip: "94102", LocationAware: true, AutoSave: true, AutoSync: false}, settings)

	rootCmd.SetArgs([]string{"--config", configPath, "--db", dbPath, "settings", "set", "zip", "941"})
	err = rootCmd.Execute()
	var validationErr *common.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "zip", validationErr.Field)
}
