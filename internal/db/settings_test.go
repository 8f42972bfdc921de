package db

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shared-notes/internal/models"
)

func TestGetSettings_CreatesDefaults(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	s, err := database.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ThemeDark, s.Theme)
	assert.Equal(t, "", s.Wallpaper)
	assert.Empty(t, s.WallpaperPresets)
	assert.False(t, s.IsLocked)
	assert.InDelta(t, 0.3, s.DimLevel, 1e-9)
	assert.False(t, s.PasswordSet)

	var rows int
	require.NoError(t, database.conn.QueryRow(`SELECT COUNT(*) FROM settings`).Scan(&rows))
	assert.Equal(t, 1, rows, "defaults should be persisted")

	_, err = database.GetSettings(ctx)
	require.NoError(t, err)
	require.NoError(t, database.conn.QueryRow(`SELECT COUNT(*) FROM settings`).Scan(&rows))
	assert.Equal(t, 1, rows, "settings must stay a singleton")
}

func TestGetSettings_ReadsAlongsideWriter(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	_, err := database.GetSettings(ctx)
	require.NoError(t, err)

	tx, err := database.conn.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()
	_, err = tx.ExecContext(ctx, `UPDATE settings SET is_locked = 1 WHERE id = ?`, settingsID)
	require.NoError(t, err)

	start := time.Now()
	s, err := database.GetSettings(ctx)
	require.NoError(t, err)
	assert.False(t, s.IsLocked, "uncommitted write must not be visible")
	assert.Less(t, time.Since(start), time.Second, "reads must not queue behind the write lock")
}

func TestUpdateSettings_Partial(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	theme := models.ThemeLight
	require.NoError(t, database.UpdateSettings(ctx, models.SettingsPatch{Theme: &theme}))

	s, err := database.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ThemeLight, s.Theme)
	assert.InDelta(t, models.DefaultDimLevel, s.DimLevel, 1e-9, "unsupplied fields keep defaults")

	dim := 0.0
	locked := true
	wallpaper := "/uploads/wallpapers/a.png"
	require.NoError(t, database.UpdateSettings(ctx, models.SettingsPatch{
		DimLevel:  &dim,
		IsLocked:  &locked,
		Wallpaper: &wallpaper,
	}))

	s, err = database.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ThemeLight, s.Theme)
	assert.Zero(t, s.DimLevel)
	assert.True(t, s.IsLocked)
	assert.Equal(t, wallpaper, s.Wallpaper)

	presets := []string{"/a.jpg", "/b.jpg", "/a.jpg"}
	require.NoError(t, database.UpdateSettings(ctx, models.SettingsPatch{WallpaperPresets: &presets}))
	s, err = database.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"/a.jpg", "/b.jpg"}, s.WallpaperPresets)
}

func TestUpdateSettings_Validation(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	theme := "sepia"
	err := database.UpdateSettings(ctx, models.SettingsPatch{Theme: &theme})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	dim := 1.5
	err = database.UpdateSettings(ctx, models.SettingsPatch{DimLevel: &dim})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	s, err := database.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ThemeDark, s.Theme)
}

func TestWallpaperPresets(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	presets, err := database.WallpaperPresets(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultWallpaperPresets, presets)

	require.NoError(t, database.AddWallpaperPreset(ctx, "/uploads/wallpapers/one.jpg"))
	require.NoError(t, database.AddWallpaperPreset(ctx, "/uploads/wallpapers/two.jpg"))
	require.NoError(t, database.AddWallpaperPreset(ctx, "/uploads/wallpapers/one.jpg"))

	presets, err = database.WallpaperPresets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"/uploads/wallpapers/one.jpg", "/uploads/wallpapers/two.jpg"}, presets)

	assert.ErrorIs(t, database.AddWallpaperPreset(ctx, ""), models.ErrInvalidInput)
}

func TestCurrentWallpaper_Defaults(t *testing.T) {
	database := newTestDB(t)

	current, err := database.CurrentWallpaper(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", current.Wallpaper)
	assert.InDelta(t, models.DefaultDimLevel, current.DimLevel, 1e-9)
}

func TestCheckPassword_NotConfigured(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	assert.ErrorIs(t, database.CheckPassword(ctx, "anything"), ErrNotConfigured)

	var rows int
	require.NoError(t, database.conn.QueryRow(`SELECT COUNT(*) FROM settings`).Scan(&rows))
	assert.Zero(t, rows, "checking a password must not create settings")

	_, err := database.GetSettings(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, database.CheckPassword(ctx, "anything"), ErrNotConfigured)
}

func TestSetPassword(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, database.SetPassword(ctx, "hunter2"))

	var stored string
	require.NoError(t, database.conn.QueryRow(`SELECT password_hash FROM settings`).Scan(&stored))
	assert.NotEqual(t, "hunter2", stored)
	assert.True(t, strings.HasPrefix(stored, "$2"), "stored value should be a bcrypt hash")

	assert.NoError(t, database.CheckPassword(ctx, "hunter2"))
	assert.ErrorIs(t, database.CheckPassword(ctx, "hunter3"), ErrPasswordMismatch)

	s, err := database.GetSettings(ctx)
	require.NoError(t, err)
	assert.True(t, s.PasswordSet)

	// Settings writes leave the hash alone.
	theme := models.ThemeLight
	require.NoError(t, database.UpdateSettings(ctx, models.SettingsPatch{Theme: &theme}))
	var after string
	require.NoError(t, database.conn.QueryRow(`SELECT password_hash FROM settings`).Scan(&after))
	assert.Equal(t, stored, after)

	require.NoError(t, database.SetPassword(ctx, "correct horse"))
	assert.ErrorIs(t, database.CheckPassword(ctx, "hunter2"), ErrPasswordMismatch)
	assert.NoError(t, database.CheckPassword(ctx, "correct horse"))

	assert.ErrorIs(t, database.SetPassword(ctx, ""), models.ErrInvalidInput)
	assert.ErrorIs(t, database.SetPassword(ctx, strings.Repeat("x", 73)), models.ErrInvalidInput)
}

func TestSeedPassword(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	seeded, err := database.SeedPassword(ctx, "first")
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = database.SeedPassword(ctx, "second")
	require.NoError(t, err)
	assert.False(t, seeded)

	assert.NoError(t, database.CheckPassword(ctx, "first"))
}
