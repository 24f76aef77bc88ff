package server

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/daybook-app/daybook/constants"
	"github.com/daybook-app/daybook/internal/common"
	"github.com/daybook-app/daybook/internal/entity"
)

// maxUploadBytes caps a single document upload.
const maxUploadBytes = 25 << 20

// uploadDocument stores the file bytes in the storage backend and the
// metadata row in the database, deduplicating identical content per journal
// by SHA-256. The blob goes in first so a row never points at missing bytes.
func (a *App) uploadDocument(w http.ResponseWriter, r *http.Request) {
	journalID, err := a.requireJournal(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.writeError(w, r, common.InvalidInputErrorf("multipart form with a %q file field is required: %v", "file", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		a.writeError(w, r, common.InvalidInputErrorf("missing %q file field", "file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		a.writeError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}
	if len(data) == 0 {
		a.writeError(w, r, common.InvalidInputErrorf("uploaded file is empty"))
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !constants.ExtensionAllowed(ext) {
		a.writeError(w, r, common.InvalidInputErrorf("file extension %q is not accepted", ext))
		return
	}

	hash := sha256.Sum256(data)
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	key := fmt.Sprintf("%s/%x%s", journalID, hash, ext)

	if err := a.Storage.Put(r.Context(), key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		a.writeError(w, r, err)
		return
	}

	doc, existed, err := a.Documents.UpsertByHash(r.Context(), &entity.Document{
		JournalID:   journalID,
		StorageKey:  key,
		ContentHash: hash[:],
		Filename:    header.Filename,
		FileExt:     ext,
		ContentType: contentType,
		FileSize:    len(data),
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	status := http.StatusCreated
	if existed {
		status = http.StatusOK
	}
	writeJSON(w, status, doc)
}

func (a *App) getDocument(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	doc, err := a.Documents.GetByID(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (a *App) downloadDocument(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	doc, err := a.Documents.GetByID(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	rc, err := a.Storage.Get(r.Context(), doc.StorageKey)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(doc.FileSize))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		// Headers are already out; all that is left is to log.
		a.Logger.Warn("document.stream_interrupted", "document_id", id, "error", err)
	}
}

func (a *App) listDocuments(w http.ResponseWriter, r *http.Request) {
	journalID, err := a.requireJournal(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	docs, err := a.Documents.ListByJournal(r.Context(), journalID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if docs == nil {
		docs = []*entity.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": docs})
}

func (a *App) deleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	doc, err := a.Documents.GetByID(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.Documents.Delete(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	// The row is gone; blob removal is best effort.
	if err := a.Storage.Delete(r.Context(), doc.StorageKey); err != nil {
		a.Logger.Warn("document.blob_delete_failed", "document_id", id, "key", doc.StorageKey, "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}
