package api

import (
	"log/slog"
	"net/http"
	"path"

	"github.com/JaimeStill/smart-ocr/internal/storage"
	"github.com/JaimeStill/smart-ocr/pkg/handlers"
	"github.com/JaimeStill/smart-ocr/pkg/routes"
)

// blobHandler serves signed links issued by the filesystem backend.
type blobHandler struct {
	opener storage.SignedOpener
	logger *slog.Logger
}

func (h *blobHandler) routes() []routes.Route {
	return []routes.Route{
		{Method: "GET", Pattern: "/api/blobs/{object...}", Handler: h.serve},
	}
}

func (h *blobHandler) serve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	expires, signature := q.Get("expires"), q.Get("signature")
	if expires == "" || signature == "" {
		handlers.RespondError(w, h.logger, http.StatusForbidden, storage.ErrInvalidSignature)
		return
	}

	file, err := h.opener.OpenSigned(r.Context(), r.PathValue("object"), expires, signature)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}
	if info.IsDir() {
		handlers.RespondError(w, h.logger, http.StatusNotFound, storage.ErrNotFound)
		return
	}

	name := path.Base(r.PathValue("object"))
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeContent(w, r, name, info.ModTime(), file)
}
