// Package storage persists uploaded show images.  Two backends exist: the
// local filesystem, served by the HTTP server under the media URL, and
// Cloudinary.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/config"
)

// ShowImagePrefix is the key prefix of every astronomy show image.
const ShowImagePrefix = "uploads/astronomy-shows"

// ImageStore saves an image under key and returns the value to record on
// the show: a key for local storage, an absolute URL for remote storage.
type ImageStore interface {
	Save(ctx context.Context, key string, r io.Reader) (string, error)
	// URL turns a recorded value into a public URL.
	URL(stored string) string
}

// ShowImageKey builds "uploads/astronomy-shows/<slug(title)>-<uuid><ext>".
// The extension is taken from the uploaded file name, lower-cased.
func ShowImageKey(title, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	base := slug.Make(title)
	if base == "" {
		base = "show"
	}
	return fmt.Sprintf("%s/%s-%s%s", ShowImagePrefix, base, uuid.NewString(), ext)
}

// New returns the backend selected by cfg.ImageStorage.
func New(cfg config.Config) (ImageStore, error) {
	switch cfg.ImageStorage {
	case config.StorageCloudinary:
		return NewCloudinaryStore(cfg.CloudinaryURL)
	case config.StorageLocal, "":
		return NewLocalStore(cfg.MediaDir, cfg.MediaURL), nil
	default:
		return nil, fmt.Errorf("unsupported image storage %q", cfg.ImageStorage)
	}
}
