// internal/app/features/files/handler.go

// Package files redeems the expiring tokens minted by the blob store
// and streams the underlying file. Tokens are the only way clients can
// reach stored photos and images.
package files

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/aktivio/aktivio-server/internal/app/system/blob"
)

// Handler streams stored files addressed by signed token.
type Handler struct {
	Blobs *blob.Local
	Log   *zap.Logger
}

func NewHandler(blobs *blob.Local, log *zap.Logger) *Handler {
	return &Handler{
		Blobs: blobs,
		Log:   log,
	}
}

// Serve handles GET /files/{token}. Invalid, expired, and dangling
// tokens all look the same to the client.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	rc, err := h.Blobs.Open(chi.URLParam(r, "token"))
	if err != nil {
		if errors.Is(err, blob.ErrInvalidToken) {
			http.NotFound(w, r)
			return
		}
		h.Log.Error("failed to open stored file", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	if _, err := io.Copy(w, rc); err != nil {
		h.Log.Warn("failed to stream stored file", zap.Error(err))
	}
}
