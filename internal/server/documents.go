package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-invoiceform/pkg/storage"
)

// documentRequest is the body of POST /documents and PUT /documents/{name}.
// Name is ignored on PUT. Content is the URI-encoded workbook state, stored
// as sent.
type documentRequest struct {
	Name       string `json:"name"`
	Content    string `json:"content"`
	TemplateID int    `json:"templateId"`
	Footer     int    `json:"billType"`
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	var (
		summaries []storage.Summary
		err       error
	)
	if raw := r.URL.Query().Get("template"); raw != "" {
		id, convErr := strconv.Atoi(raw)
		if convErr != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("server: template %q is not a number", raw))
			return
		}
		summaries, err = s.store.ListByTemplate(r.Context(), id)
	} else {
		summaries, err = s.store.List(r.Context())
	}
	if err != nil {
		s.writeStorageError(w, r, err, "listing files")
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.GetWithPassword(r.Context(), documentName(r), r.Header.Get(PasswordHeader))
	if err != nil {
		s.writeStorageError(w, r, err, "loading file")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleHeadDocument(w http.ResponseWriter, r *http.Request) {
	encrypted, err := s.store.IsEncrypted(r.Context(), documentName(r))
	if err != nil {
		w.WriteHeader(statusFor(storage.CategoryOf(err)))
		return
	}
	w.Header().Set(EncryptedHeader, strconv.FormatBool(encrypted))
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !s.validRequest(w, req) {
		return
	}

	password := r.Header.Get(PasswordHeader)
	doc := storage.NewDocument(req.Name, req.Content, req.TemplateID, req.Footer, s.now())
	if err := s.store.Create(r.Context(), doc, passwordOption(password)...); err != nil {
		s.writeStorageError(w, r, err, "saving file")
		return
	}
	s.logger.Info("document created", "document", doc.Name, "encrypted", password != "")
	w.Header().Set("Location", "/documents/"+url.PathEscape(strings.TrimSpace(doc.Name)))
	w.WriteHeader(http.StatusCreated)
}

// handlePutDocument overwrites a document. Replacing an encrypted document
// requires its current password, and the content stays encrypted with it.
func (s *Server) handlePutDocument(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !s.validRequest(w, req) {
		return
	}

	name := documentName(r)
	password := r.Header.Get(PasswordHeader)
	doc := storage.NewDocument(name, req.Content, req.TemplateID, req.Footer, s.now())

	existing, err := s.store.Get(r.Context(), name)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		s.writeStorageError(w, r, err, "saving file")
		return
	default:
		if existing.Encrypted {
			if _, err := s.store.GetWithPassword(r.Context(), name, password); err != nil {
				s.writeStorageError(w, r, err, "saving file")
				return
			}
			doc.Encrypted = true
		}
		doc.Created = existing.Created
	}

	if err := s.store.Save(r.Context(), doc, passwordOption(password)...); err != nil {
		s.writeStorageError(w, r, err, "saving file")
		return
	}
	s.logger.Info("document saved", "document", name)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	name := documentName(r)
	if err := s.store.Delete(r.Context(), name); err != nil {
		s.writeStorageError(w, r, err, "deleting file")
		return
	}
	s.logger.Info("document deleted", "document", name)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) validRequest(w http.ResponseWriter, req documentRequest) bool {
	tpl, ok := s.templates.Template(req.TemplateID)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("server: unknown template %d", req.TemplateID))
		return false
	}
	if _, ok := tpl.Footer(req.Footer); !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("server: template %d has no footer %d", tpl.ID, req.Footer))
		return false
	}
	if _, err := storage.DecodeContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func documentName(r *http.Request) string {
	name := chi.URLParam(r, "name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		return unescaped
	}
	return name
}

func passwordOption(password string) []storage.SaveOption {
	if password == "" {
		return nil
	}
	return []storage.SaveOption{storage.WithPassword(password)}
}
