package handler

import (
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/logger"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/repository"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/storage"
)

// CatalogHandler serves show themes, planetarium domes, astronomy shows and
// show sessions.  Reads are open to every authenticated user; writes are
// guarded by the router.
type CatalogHandler struct {
	Themes   *repository.ThemeRepo
	Domes    *repository.DomeRepo
	Shows    *repository.ShowRepo
	Sessions *repository.SessionRepo

	Images         storage.ImageStore
	MaxUploadBytes int64

	ser *Serializer
	log *logger.Logger
}

// NewCatalogHandler panics when a repository is missing.
func NewCatalogHandler(themes *repository.ThemeRepo, domes *repository.DomeRepo, shows *repository.ShowRepo,
	sessions *repository.SessionRepo, images storage.ImageStore, maxUploadMB int, log *logger.Logger) *CatalogHandler {
	if themes == nil || domes == nil || shows == nil || sessions == nil {
		panic("nil repository passed to NewCatalogHandler")
	}
	return &CatalogHandler{
		Themes:         themes,
		Domes:          domes,
		Shows:          shows,
		Sessions:       sessions,
		Images:         images,
		MaxUploadBytes: int64(maxUploadMB) << 20,
		ser:            NewSerializer(images),
		log:            log,
	}
}
