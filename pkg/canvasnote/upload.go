package canvasnote

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/canvasnote/canvasnote/pkg/models"
)

// maxUploadBytes bounds one media upload. Voice recordings are the largest
// payloads the editor produces.
const maxUploadBytes = 25 << 20

// handleUploadImage accepts one multipart media payload and stores it under
// the media directory, filed by owning note. The response carries the
// permanent URL the editor swaps in for the staged blob: reference.
//
// Uploads may arrive before the note has been saved; those land in the
// "unassigned" area instead of failing the save.
func (a *App) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart payload")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing image field")
		return
	}
	defer file.Close()

	folder := "unassigned"
	if v := r.FormValue("note_id"); v != "" {
		id, err := models.ParseNoteID(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid note ID")
			return
		}
		folder = id.String()
	}

	name := uuid.NewString() + sanitizeExt(header.Filename)
	dir := filepath.Join(a.config.MediaDir, "notes", folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		a.log.Error().Err(err).Msg("creating media directory failed")
		respondError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		a.log.Error().Err(err).Msg("creating media file failed")
		respondError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}

	url := fmt.Sprintf("%s/notes/%s/%s", strings.TrimSuffix(a.config.MediaBaseURL, "/"), folder, name)
	a.log.Info().Str("url", url).Int64("bytes", header.Size).Msg("stored media upload")
	respondJSON(w, http.StatusOK, map[string]string{"permanent_url": url})
}

// sanitizeExt keeps only a plain file extension from a client-supplied
// filename, dropping any path tricks.
func sanitizeExt(filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(filepath.ToSlash(filename))))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\`) {
		return ""
	}
	return ext
}
