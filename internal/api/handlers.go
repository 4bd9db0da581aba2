package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"writeit/internal/document"
	"writeit/internal/domain"
	"writeit/internal/editor"
	"writeit/internal/imaging"
	"writeit/internal/models"

	"github.com/go-chi/chi/v5"
)

// Handlers serves the note API from a workspace
type Handlers struct {
	ws  *editor.Workspace
	log *slog.Logger
}

func NewHandlers(ws *editor.Workspace, log *slog.Logger) *Handlers {
	if log == nil {
		log = slog.Default()
	}
	return &Handlers{ws: ws, log: log}
}

// Routes returns the API router, meant to be mounted under /api
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/notes", h.ListNotesHandler)
	r.Post("/notes", h.CreateNoteHandler)
	r.Get("/notes/recent", h.RecentNotesHandler)
	r.Get("/notes/{id}", h.GetNoteHandler)
	r.Delete("/notes/{id}", h.DeleteNoteHandler)
	r.Get("/notes/{id}/images/{imageID}", h.ImageHandler)
	r.Get("/settings", h.GetSettingsHandler)
	r.Put("/settings", h.PutSettingsHandler)
	return r
}

func (h *Handlers) ListNotesHandler(w http.ResponseWriter, r *http.Request) {
	notes, err := h.ws.ListNotes()
	if err != nil {
		h.writeError(w, err)
		return
	}
	if notes == nil {
		notes = []models.NoteSummary{}
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *Handlers) RecentNotesHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	notes, err := h.ws.RecentNotes(limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if notes == nil {
		notes = []models.RecentNote{}
	}
	writeJSON(w, http.StatusOK, notes)
}

// CreateNoteHandler stores a plain-text note
func (h *Handlers) CreateNoteHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s := h.ws.NewNote()
	defer h.ws.Close(s.ID())

	if err := s.InsertText(0, req.Content); err != nil {
		h.writeError(w, err)
		return
	}
	if err := s.Save(req.Title); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"id": s.NoteID()})
}

type segmentResponse struct {
	Text    string         `json:"text,omitempty"`
	ImageID string         `json:"image_id,omitempty"`
	Style   document.Style `json:"style"`
}

type noteResponse struct {
	ID        int64             `json:"id"`
	Title     string            `json:"title"`
	UpdatedAt time.Time         `json:"updated_at"`
	Content   string            `json:"content"`
	Segments  []segmentResponse `json:"segments"`
	Warning   string            `json:"warning,omitempty"`
}

func (h *Handlers) GetNoteHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}

	v, err := h.ws.View(id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := noteResponse{
		ID:        v.NoteID,
		Title:     v.Title,
		UpdatedAt: v.UpdatedAt,
		Content:   v.Doc.Text(),
		Segments:  []segmentResponse{},
	}
	if v.Warning != nil {
		resp.Warning = v.Warning.Error()
	}
	for seg := range v.Doc.Render() {
		resp.Segments = append(resp.Segments, segmentResponse{
			Text:    seg.Text,
			ImageID: seg.ImageID,
			Style:   seg.Style,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) DeleteNoteHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	if err := h.ws.DeleteNote(id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImageHandler serves one stored image blob of a note
func (h *Handlers) ImageHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}

	v, err := h.ws.View(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	blob, err := v.Doc.Images().Resolve(chi.URLParam(r, "imageID"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(blob))
	w.Header().Set("Content-Length", strconv.Itoa(len(blob)))
	w.Write(blob)
}

func (h *Handlers) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ws.Settings())
}

func (h *Handlers) PutSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var settings models.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.ws.SaveSettings(settings); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.ws.Settings())
}

func noteID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid note ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrOutOfRange),
		errors.Is(err, imaging.ErrUnsupportedImage):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCorruptFormat):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "err", err)
		msg = "Internal server error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
