package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"possessher/internal/domain"
	"possessher/internal/watermark"
	"possessher/pkg/zip"
)

// CurrentImage serves the displayed image bytes. A stale ?v= returns 404.
func (a *App) CurrentImage(w http.ResponseWriter, r *http.Request) {
	v, ok := a.visitor(r)
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "missing visitor")
		return
	}
	version := 0
	if raw := r.URL.Query().Get("v"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "invalid version")
			return
		}
		version = n
	}
	img, err := v.CurrentImage(version)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "no image")
		return
	}
	w.Header().Set("Content-Type", img.MIME)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	_, _ = w.Write(img.Data)
}

// Download serves the current image with the site watermark as a PNG attachment.
func (a *App) Download(w http.ResponseWriter, r *http.Request) {
	v, ok := a.visitor(r)
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "missing visitor")
		return
	}
	img, err := v.CurrentImage(0)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "no image")
		return
	}
	out, err := watermark.Apply(img.Data, watermark.Options{Text: a.publicHost()})
	if err != nil {
		if errors.Is(err, watermark.ErrEmptyImage) {
			a.error(w, http.StatusNotFound, "not_found", "no image")
			return
		}
		a.logger.Error().Err(err).Str("profile", v.Profile()).Msg("download: watermark failed")
		a.error(w, http.StatusInternalServerError, "internal", "could not prepare download")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `attachment; filename="waifu.png"`)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(out)
}

// Export bundles every image of the session into a zip archive.
func (a *App) Export(w http.ResponseWriter, r *http.Request) {
	v, ok := a.visitor(r)
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "missing visitor")
		return
	}
	assets := v.Assets()
	if len(assets) == 0 {
		a.error(w, http.StatusNotFound, "not_found", domain.ErrNotFound.Error())
		return
	}
	entries := make([]zip.Asset, 0, len(assets))
	for _, as := range assets {
		entries = append(entries, zip.Asset{Filename: as.Name, MIME: as.MIME, Data: as.Data})
	}
	archive, err := zip.ArchiveAssets(entries, a.now())
	if err != nil {
		a.logger.Error().Err(err).Str("profile", v.Profile()).Msg("export: archive failed")
		a.error(w, http.StatusInternalServerError, "internal", "could not build archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="possessher-export.zip"`)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(archive)
}
