package http

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/learnhub/learnhub-backend/internal/storage"
)

// UploadAssetHandler stores course thumbnails and lesson media in the blob
// store under a generated key. Admin-only (enforced by the router).
func UploadAssetHandler(bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			fail(w, http.StatusBadRequest, "file required")
			return
		}
		defer f.Close()

		ext := path.Ext(hdr.Filename)
		key := "uploads/" + uuid.NewString() + ext
		if _, err := bs.Put(key, f); err != nil {
			failServer(w, "Error storing asset", err)
			return
		}
		ok(w, http.StatusCreated, map[string]any{"key": key})
	}
}

// GetAssetHandler serves a stored asset by key. Reads are open; the store
// rejects keys that resolve outside its base.
func GetAssetHandler(bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		rc, err := bs.Get(key)
		if err != nil {
			fail(w, http.StatusNotFound, "Asset not found")
			return
		}
		defer rc.Close()

		ct := mime.TypeByExtension(path.Ext(key))
		if ct == "" {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		_, _ = io.Copy(w, rc)
	}
}
