package deck

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/4ug-aug/presentor/internal/assets"
	"github.com/4ug-aug/presentor/internal/deck"
)

// Handler exposes the presentation library and image store over HTTP. It is
// the editor-facing surface: load swaps the active document the agent edits.
type Handler struct {
	Library *deck.Library
	Doc     *deck.Document
	Assets  *assets.Store
	Logger  *zap.Logger
}

// Register mounts all library/asset routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/presentations", h.list)
	mux.HandleFunc("/presentations/load", h.load)
	mux.HandleFunc("/presentations/save", h.save)
	mux.HandleFunc("/presentations/delete", h.delete)
	mux.HandleFunc("/images", h.listImages)
	mux.HandleFunc("/images/save", h.saveImage)
	mux.HandleFunc("/images/delete", h.deleteImage)
}

type loadRequest struct {
	Name string `json:"name"`
}

type saveRequest struct {
	Name         string             `json:"name"`
	Presentation *deck.Presentation `json:"presentation,omitempty"`
}

type deleteRequest struct {
	Name string `json:"name"`
}

type saveImageRequest struct {
	SourcePath string `json:"source_path"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	entries, err := h.Library.List()
	if err != nil {
		h.fail(w, "list presentations", err)
		return
	}
	h.respond(w, entries)
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if !h.decode(w, r, &req) {
		return
	}
	path, ok := h.libraryPath(w, req.Name)
	if !ok {
		return
	}
	p, err := h.Library.Load(path)
	if err != nil {
		h.fail(w, "load presentation", err)
		return
	}
	h.Doc.Replace(p)
	h.respond(w, p)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if !h.decode(w, r, &req) {
		return
	}
	path, ok := h.libraryPath(w, req.Name)
	if !ok {
		return
	}
	p := h.Doc.Snapshot()
	if req.Presentation != nil {
		p = *req.Presentation
		h.Doc.Replace(p)
	}
	if err := h.Library.Save(path, p); err != nil {
		h.fail(w, "save presentation", err)
		return
	}
	h.respond(w, map[string]string{"saved": req.Name})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if !h.decode(w, r, &req) {
		return
	}
	path, ok := h.libraryPath(w, req.Name)
	if !ok {
		return
	}
	if err := h.Library.Delete(path); err != nil {
		h.fail(w, "delete presentation", err)
		return
	}
	h.respond(w, map[string]string{"deleted": req.Name})
}

func (h *Handler) listImages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	entries, err := h.Assets.List()
	if err != nil {
		h.fail(w, "list images", err)
		return
	}
	h.respond(w, entries)
}

// saveImage copies a local file into the image store. The editor passes the
// path the user picked; the stored name may differ on collision.
func (h *Handler) saveImage(w http.ResponseWriter, r *http.Request) {
	var req saveImageRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.SourcePath) == "" {
		http.Error(w, "source_path is required", http.StatusBadRequest)
		return
	}
	name, err := h.Assets.Save(req.SourcePath)
	if err != nil {
		h.fail(w, "save image", err)
		return
	}
	h.respond(w, map[string]string{"name": name})
}

func (h *Handler) deleteImage(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.Assets.Delete(req.Name); err != nil {
		h.fail(w, "delete image", err)
		return
	}
	h.respond(w, map[string]string{"deleted": req.Name})
}

// libraryPath resolves a presentation name to a path inside the library dir.
// Names may not escape the directory.
func (h *Handler) libraryPath(w http.ResponseWriter, name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" || name != filepath.Base(name) {
		http.Error(w, "invalid presentation name", http.StatusBadRequest)
		return "", false
	}
	if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}
	return filepath.Join(h.Library.Dir(), name), true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) respond(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil && h.Logger != nil {
		h.Logger.Warn("encode response", zap.Error(err))
	}
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if h.Logger != nil {
		h.Logger.Warn(op, zap.Error(err))
	}
	http.Error(w, op+": "+err.Error(), http.StatusInternalServerError)
}
