package models

import (
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("not found")
var ErrInvalidInput = errors.New("invalid input")

type Note struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Pinned    bool       `json:"pinned"`
	IsTrashed bool       `json:"isTrashed"`
	TrashedAt *time.Time `json:"trashedAt"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// NotePatch carries the fields of a partial note update. A nil field was not
// supplied; a non-nil pointer to the zero value is a real update.
type NotePatch struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Pinned  *bool   `json:"pinned"`
}

func (p NotePatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Pinned == nil
}

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

const (
	DefaultTheme    = ThemeDark
	DefaultDimLevel = 0.3
)

// DefaultWallpaperPresets is served by the wallpaper listing until a preset
// has been stored.
var DefaultWallpaperPresets = []string{
	"/wallpapers/aurora.jpg",
	"/wallpapers/forest.jpg",
	"/wallpapers/mountains.jpg",
	"/wallpapers/ocean.jpg",
}

// Settings is the public view of the singleton settings record. The password
// hash never leaves the store; only PasswordSet does.
type Settings struct {
	Theme            string    `json:"theme"`
	Wallpaper        string    `json:"wallpaper"`
	WallpaperPresets []string  `json:"wallpaperPresets"`
	IsLocked         bool      `json:"isLocked"`
	DimLevel         float64   `json:"dimLevel"`
	PasswordSet      bool      `json:"passwordSet"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type SettingsPatch struct {
	Theme            *string   `json:"theme"`
	Wallpaper        *string   `json:"wallpaper"`
	WallpaperPresets *[]string `json:"wallpaperPresets"`
	IsLocked         *bool     `json:"isLocked"`
	DimLevel         *float64  `json:"dimLevel"`
}

// Validate reports ErrInvalidInput for out-of-range values.
func (p SettingsPatch) Validate() error {
	if p.Theme != nil && *p.Theme != ThemeLight && *p.Theme != ThemeDark {
		return fmt.Errorf("%w: theme must be %q or %q", ErrInvalidInput, ThemeLight, ThemeDark)
	}
	if p.DimLevel != nil && (*p.DimLevel < 0 || *p.DimLevel > 1) {
		return fmt.Errorf("%w: dimLevel must be between 0 and 1", ErrInvalidInput)
	}
	return nil
}

type CurrentWallpaper struct {
	Wallpaper string  `json:"wallpaper"`
	DimLevel  float64 `json:"dimLevel"`
}

// AppendUnique appends the values not already present, keeping first-seen order.
func AppendUnique(list []string, values ...string) []string {
	seen := make(map[string]struct{}, len(list)+len(values))
	out := make([]string, 0, len(list)+len(values))
	for _, v := range append(append([]string{}, list...), values...) {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
