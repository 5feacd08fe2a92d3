package canvasnote

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/canvasnote/canvasnote/pkg/models"
	"github.com/canvasnote/canvasnote/pkg/store"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil && status != http.StatusNoContent {
		// The status line is already written; an encode failure here can
		// only be logged by the caller's middleware.
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Note handlers

// uncategorizedSentinel reports whether a category_id query value asks for
// notes without a category. The editor has sent all three spellings over
// time.
func uncategorizedSentinel(v string) bool {
	return v == "0" || v == "null" || v == "none"
}

func (a *App) handleListNotes(w http.ResponseWriter, r *http.Request) {
	filter := store.NoteFilter{Search: r.URL.Query().Get("search")}

	if v := r.URL.Query().Get("category_id"); v != "" {
		if uncategorizedSentinel(v) {
			filter.Uncategorized = true
		} else {
			id, err := models.ParseCategoryID(v)
			if err != nil {
				respondError(w, http.StatusBadRequest, "Invalid category ID")
				return
			}
			filter.CategoryID = &id
		}
	}

	notes, err := a.store.ListNotes(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	summaries := make([]models.NoteSummary, 0, len(notes))
	for _, n := range notes {
		summaries = append(summaries, n.Summary())
	}
	respondJSON(w, http.StatusOK, summaries)
}

func (a *App) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var note models.Note
	if err := json.NewDecoder(r.Body).Decode(&note); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if note.ID.IsZero() {
		note.ID = models.NewNoteID()
	}

	ctx := r.Context()
	if err := a.store.CreateNote(ctx, &note); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	created, err := a.store.GetNote(ctx, note.ID)
	if err != nil || created == nil {
		respondJSON(w, http.StatusCreated, note)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (a *App) handleGetNote(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseNoteID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid note ID")
		return
	}

	note, err := a.store.GetNote(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if note == nil {
		respondError(w, http.StatusNotFound, "Note not found")
		return
	}
	respondJSON(w, http.StatusOK, note)
}

func (a *App) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseNoteID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid note ID")
		return
	}

	var note models.Note
	if err := json.NewDecoder(r.Body).Decode(&note); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	note.ID = id

	ctx := r.Context()
	existing, err := a.store.GetNote(ctx, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "Note not found")
		return
	}
	note.CreatedAt = existing.CreatedAt

	if err := a.store.UpdateNote(ctx, &note); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	updated, err := a.store.GetNote(ctx, id)
	if err != nil || updated == nil {
		respondJSON(w, http.StatusOK, note)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (a *App) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseNoteID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid note ID")
		return
	}

	if err := a.store.DeleteNote(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Category handlers

func (a *App) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := a.store.ListCategories(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if categories == nil {
		categories = []*models.Category{}
	}
	respondJSON(w, http.StatusOK, categories)
}

func (a *App) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var category models.Category
	if err := json.NewDecoder(r.Body).Decode(&category); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if category.Name == "" {
		respondError(w, http.StatusBadRequest, "Category name is required")
		return
	}
	if category.ID.IsZero() {
		category.ID = models.NewCategoryID()
	}

	if err := a.store.CreateCategory(r.Context(), &category); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, category)
}

// Template handlers

func (a *App) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := a.store.ListTemplates(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if templates == nil {
		templates = []*models.Template{}
	}
	respondJSON(w, http.StatusOK, templates)
}

func (a *App) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var template models.Template
	if err := json.NewDecoder(r.Body).Decode(&template); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if template.ID.IsZero() {
		template.ID = models.NewTemplateID()
	}

	if err := a.store.CreateTemplate(r.Context(), &template); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, template)
}

func (a *App) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseTemplateID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid template ID")
		return
	}

	template, err := a.store.GetTemplate(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if template == nil {
		respondError(w, http.StatusNotFound, "Template not found")
		return
	}
	respondJSON(w, http.StatusOK, template)
}
