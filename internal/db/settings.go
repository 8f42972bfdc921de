package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"shared-notes/internal/models"
)

// ErrNotConfigured is returned when the settings record or the unlock
// password does not exist yet.
var ErrNotConfigured = errors.New("not configured")

// ErrPasswordMismatch is returned when a password does not match the stored hash.
var ErrPasswordMismatch = errors.New("password mismatch")

// settingsID is the fixed key of the only settings row.
const settingsID = 1

type settingsRow struct {
	models.Settings
	passwordHash sql.NullString
}

func (d *DB) ensureSettings(ctx context.Context, q execer) error {
	now := d.stamp()
	_, err := q.ExecContext(ctx, `INSERT OR IGNORE INTO settings
		(id, theme, wallpaper, wallpaper_presets, is_locked, dim_level, created_at, updated_at)
		VALUES (?, ?, '', '[]', 0, ?, ?, ?)`,
		settingsID, models.DefaultTheme, models.DefaultDimLevel, now, now)
	return err
}

func loadSettings(ctx context.Context, q queryRower) (*settingsRow, error) {
	var s settingsRow
	var presets string
	var createdAt, updatedAt int64
	err := q.QueryRowContext(ctx, `SELECT theme, wallpaper, wallpaper_presets, is_locked, dim_level, password_hash, created_at, updated_at
		FROM settings WHERE id = ?`, settingsID).
		Scan(&s.Theme, &s.Wallpaper, &presets, &s.IsLocked, &s.DimLevel, &s.passwordHash, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotConfigured
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(presets), &s.WallpaperPresets); err != nil {
		return nil, fmt.Errorf("decode wallpaper presets: %w", err)
	}
	if s.WallpaperPresets == nil {
		s.WallpaperPresets = []string{}
	}
	s.PasswordSet = s.passwordHash.Valid && s.passwordHash.String != ""
	s.CreatedAt = fromStamp(createdAt)
	s.UpdatedAt = fromStamp(updatedAt)
	return &s, nil
}

// withSettings runs fn inside a transaction on the settings row, creating the
// row with defaults first when it does not exist.
func (d *DB) withSettings(ctx context.Context, fn func(tx *sql.Tx, s *settingsRow) error) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := d.ensureSettings(ctx, tx); err != nil {
		return err
	}
	s, err := loadSettings(ctx, tx)
	if err != nil {
		return err
	}
	if err := fn(tx, s); err != nil {
		return err
	}
	return tx.Commit()
}

// GetSettings returns the settings record, creating it with defaults on first
// use. Once the record exists this is a plain read.
func (d *DB) GetSettings(ctx context.Context) (*models.Settings, error) {
	s, err := loadSettings(ctx, d.conn)
	if err == nil {
		return &s.Settings, nil
	}
	if !errors.Is(err, ErrNotConfigured) {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	var out models.Settings
	err = d.withSettings(ctx, func(_ *sql.Tx, s *settingsRow) error {
		out = s.Settings
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &out, nil
}

// UpdateSettings applies the supplied fields and leaves the rest unchanged.
// The password is not part of a patch; see SetPassword.
func (d *DB) UpdateSettings(ctx context.Context, patch models.SettingsPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}

	err := d.withSettings(ctx, func(tx *sql.Tx, s *settingsRow) error {
		if patch.Theme != nil {
			s.Theme = *patch.Theme
		}
		if patch.Wallpaper != nil {
			s.Wallpaper = *patch.Wallpaper
		}
		if patch.WallpaperPresets != nil {
			s.WallpaperPresets = models.AppendUnique(nil, *patch.WallpaperPresets...)
		}
		if patch.IsLocked != nil {
			s.IsLocked = *patch.IsLocked
		}
		if patch.DimLevel != nil {
			s.DimLevel = *patch.DimLevel
		}

		presets, err := json.Marshal(s.WallpaperPresets)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE settings
			SET theme = ?, wallpaper = ?, wallpaper_presets = ?, is_locked = ?, dim_level = ?, updated_at = ?
			WHERE id = ?`,
			s.Theme, s.Wallpaper, string(presets), s.IsLocked, s.DimLevel, d.stamp(), settingsID)
		return err
	})
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}

// AddWallpaperPreset appends path to the presets unless it is already there.
func (d *DB) AddWallpaperPreset(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty wallpaper path", models.ErrInvalidInput)
	}

	err := d.withSettings(ctx, func(tx *sql.Tx, s *settingsRow) error {
		presets := models.AppendUnique(s.WallpaperPresets, path)
		if len(presets) == len(s.WallpaperPresets) {
			return nil
		}
		data, err := json.Marshal(presets)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE settings SET wallpaper_presets = ?, updated_at = ? WHERE id = ?`,
			string(data), d.stamp(), settingsID)
		return err
	})
	if err != nil {
		return fmt.Errorf("add wallpaper preset: %w", err)
	}
	return nil
}

// WallpaperPresets returns the stored presets, or the built-in list while
// none have been stored.
func (d *DB) WallpaperPresets(ctx context.Context) ([]string, error) {
	s, err := d.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if len(s.WallpaperPresets) == 0 {
		return append([]string{}, models.DefaultWallpaperPresets...), nil
	}
	return s.WallpaperPresets, nil
}

func (d *DB) CurrentWallpaper(ctx context.Context) (*models.CurrentWallpaper, error) {
	s, err := d.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	return &models.CurrentWallpaper{Wallpaper: s.Wallpaper, DimLevel: s.DimLevel}, nil
}

// CheckPassword compares password with the stored hash. It never creates the
// settings record.
func (d *DB) CheckPassword(ctx context.Context, password string) error {
	s, err := loadSettings(ctx, d.conn)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return err
		}
		return fmt.Errorf("check password: %w", err)
	}
	if !s.PasswordSet {
		return ErrNotConfigured
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash.String), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("check password: %w", err)
	}
	return nil
}

// SetPassword hashes password and stores the hash. Only the hash is persisted.
func (d *DB) SetPassword(ctx context.Context, password string) error {
	hash, err := d.hashPassword(password)
	if err != nil {
		return err
	}
	err = d.withSettings(ctx, func(tx *sql.Tx, _ *settingsRow) error {
		_, err := tx.ExecContext(ctx, `UPDATE settings SET password_hash = ?, updated_at = ? WHERE id = ?`,
			hash, d.stamp(), settingsID)
		return err
	})
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return nil
}

// SeedPassword stores password only when no password is set yet and reports
// whether it did.
func (d *DB) SeedPassword(ctx context.Context, password string) (bool, error) {
	hash, err := d.hashPassword(password)
	if err != nil {
		return false, err
	}
	var seeded bool
	err = d.withSettings(ctx, func(tx *sql.Tx, s *settingsRow) error {
		if s.PasswordSet {
			return nil
		}
		_, err := tx.ExecContext(ctx, `UPDATE settings SET password_hash = ?, updated_at = ? WHERE id = ?`,
			hash, d.stamp(), settingsID)
		seeded = err == nil
		return err
	})
	if err != nil {
		return false, fmt.Errorf("seed password: %w", err)
	}
	return seeded, nil
}

func (d *DB) hashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: empty password", models.ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.hashCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: password longer than 72 bytes", models.ErrInvalidInput)
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
