package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-invoiceform/pkg/cellmap"
	"github.com/goliatone/go-invoiceform/pkg/form"
	"github.com/goliatone/go-invoiceform/pkg/openapi"
	"github.com/goliatone/go-invoiceform/pkg/render"
	"github.com/goliatone/go-invoiceform/pkg/renderers/html"
)

type templateSummary struct {
	ID      int              `json:"id"`
	Name    string           `json:"name"`
	SheetID string           `json:"sheetId"`
	Footers []cellmap.Footer `json:"footers"`
}

// validationResponse pairs the raw result with messages keyed by field path.
type validationResponse struct {
	Validation form.Result         `json:"validation"`
	Errors     render.ErrorMapping `json:"errors"`
	Cells      form.CellMap        `json:"cells,omitempty"`
}

func summarize(tpl cellmap.Template) templateSummary {
	return templateSummary{ID: tpl.ID, Name: tpl.Name, SheetID: tpl.SheetID, Footers: tpl.Footers}
}

func (s *Server) handleListTemplates(w http.ResponseWriter, _ *http.Request) {
	templates := s.templates.Templates()
	out := make([]templateSummary, 0, len(templates))
	for _, tpl := range templates {
		out = append(out, summarize(tpl))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, ok := s.template(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

func (s *Server) handleTemplateSchema(w http.ResponseWriter, r *http.Request) {
	tpl, ok := s.template(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, openapi.Export(tpl))
}

func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	_, _, sections, ok := s.footer(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sections)
}

func (s *Server) handleFooterSchema(w http.ResponseWriter, r *http.Request) {
	tpl, footer, sections, ok := s.footer(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, openapi.ExportFooter(tpl, footer, sections))
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	_, _, sections, ok := s.footer(w, r)
	if !ok {
		return
	}
	data, ok := readData(w, r, sections)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.validate(data, sections))
}

// handleCells answers 422 with the validation errors when the data is
// invalid, the cell writes otherwise.
func (s *Server) handleCells(w http.ResponseWriter, r *http.Request) {
	_, _, sections, ok := s.footer(w, r)
	if !ok {
		return
	}
	data, ok := readData(w, r, sections)
	if !ok {
		return
	}
	resp := s.validate(data, sections)
	if !resp.Validation.Valid {
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	resp.Cells = form.ToCells(data, sections)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	tpl, footer, _, ok := s.footer(w, r)
	if !ok {
		return
	}
	s.renderPreview(w, r, render.NewForm(tpl, footer.Index, nil), render.ErrorMapping{})
}

// clientErrorsField carries errors found by client-side checks as a JSON
// object of messages keyed by field path or JSON pointer.
const clientErrorsField = "errors"

// handlePreviewSubmit accepts the preview form post, validates it and renders
// the form again with the submitted values and their errors.
func (s *Server) handlePreviewSubmit(w http.ResponseWriter, r *http.Request) {
	tpl, footer, sections, ok := s.footer(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	data := render.DecodeSubmission(sections, r.PostForm)
	errs := s.validate(data, sections).Errors

	if raw := r.PostForm.Get(clientErrorsField); raw != "" {
		var payload map[string][]string
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("server: decode %s field: %w", clientErrorsField, err))
			return
		}
		errs = errs.Merge(render.MapErrorPayload(sections, payload))
	}
	s.renderPreview(w, r, render.NewForm(tpl, footer.Index, data), errs)
}

func (s *Server) renderPreview(w http.ResponseWriter, r *http.Request, f render.Form, errs render.ErrorMapping) {
	query := r.URL.Query()
	name, variant := s.themeName, s.themeVariant
	if v := query.Get("theme"); v != "" {
		name = v
	}
	if v := query.Get("variant"); v != "" {
		variant = v
	}
	palette := html.Palette{Background: query.Get("background"), Font: query.Get("font")}
	themeCfg, err := html.ResolveTheme(s.themes, name, variant, palette)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	out, err := s.preview.Render(r.Context(), f, render.RenderOptions{
		Action: r.URL.Path,
		Errors: errs,
		Theme:  themeCfg,
	})
	if err != nil {
		s.logger.Error("preview failed", "template", f.Template.ID, "footer", f.Footer.Index, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", s.preview.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func (s *Server) validate(data form.Data, sections []form.Section) validationResponse {
	result := form.Validate(data, sections, s.rules...)
	return validationResponse{
		Validation: result,
		Errors:     render.MapIssues(sections, result.Issues),
	}
}

func readData(w http.ResponseWriter, r *http.Request, sections []form.Section) (form.Data, bool) {
	var data form.Data
	if err := decodeJSON(r, &data); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	return form.Normalize(data, sections), true
}

func (s *Server) template(w http.ResponseWriter, r *http.Request) (cellmap.Template, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("server: template id %q is not a number", raw))
		return cellmap.Template{}, false
	}
	tpl, ok := s.templates.Template(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("server: unknown template %d", id))
		return cellmap.Template{}, false
	}
	return tpl, true
}

func (s *Server) footer(w http.ResponseWriter, r *http.Request) (cellmap.Template, cellmap.Footer, []form.Section, bool) {
	tpl, ok := s.template(w, r)
	if !ok {
		return cellmap.Template{}, cellmap.Footer{}, nil, false
	}
	raw := chi.URLParam(r, "footer")
	index, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("server: footer %q is not a number", raw))
		return cellmap.Template{}, cellmap.Footer{}, nil, false
	}
	footer, ok := tpl.Footer(index)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("server: template %d has no footer %d", tpl.ID, index))
		return cellmap.Template{}, cellmap.Footer{}, nil, false
	}
	return tpl, footer, form.SectionsForFooter(tpl, footer.Index), true
}
