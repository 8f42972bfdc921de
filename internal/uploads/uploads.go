package uploads

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// PublicPrefix is the URL path uploaded wallpapers are served under.
const PublicPrefix = "/uploads/wallpapers/"

var ErrUnsupportedType = errors.New("only image files are allowed")
var ErrTooLarge = errors.New("file too large")

var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".webp": true,
}

// Wallpapers stores uploaded wallpaper images on disk.
type Wallpapers struct {
	root     string
	maxBytes int64
}

// New stores files in <root>/wallpapers. root is also the directory served
// under /uploads/.
func New(root string, maxBytes int64) (*Wallpapers, error) {
	if err := os.MkdirAll(filepath.Join(root, "wallpapers"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Wallpapers{root: root, maxBytes: maxBytes}, nil
}

func (w *Wallpapers) Root() string {
	return w.root
}

// FileSystem serves the files under Root. Directories are reported as not
// existing so their contents are never listed.
func (w *Wallpapers) FileSystem() http.FileSystem {
	return filesOnly{http.Dir(w.root)}
}

type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}

func (w *Wallpapers) MaxBytes() int64 {
	return w.maxBytes
}

// Allowed reports whether filename has an accepted image extension.
func Allowed(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Save writes src under a fresh name and returns its public path. The
// original name only contributes its extension.
func (w *Wallpapers) Save(filename string, src io.Reader) (string, error) {
	if !Allowed(filename) {
		return "", ErrUnsupportedType
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	dst := filepath.Join(w.root, "wallpapers", name)

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("create wallpaper file: %w", err)
	}

	// One byte over the limit is enough to know the upload is too large.
	n, err := io.Copy(f, io.LimitReader(src, w.maxBytes+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && n > w.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		os.Remove(dst)
		if errors.Is(err, ErrTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("write wallpaper file: %w", err)
	}

	return path.Join(PublicPrefix, name), nil
}
