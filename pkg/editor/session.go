// Package editor ties the invoice form layers into an editing session: pick
// a template and footer, edit values, submit them to the workbook and keep
// the workbook in the document store.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/goliatone/go-invoiceform/pkg/autosave"
	"github.com/goliatone/go-invoiceform/pkg/cellmap"
	"github.com/goliatone/go-invoiceform/pkg/form"
	"github.com/goliatone/go-invoiceform/pkg/sheet"
	"github.com/goliatone/go-invoiceform/pkg/storage"
)

// SubmitResult reports what Submit did. Cells is nil when validation failed.
type SubmitResult struct {
	Validation form.Result  `json:"validation"`
	Cells      form.CellMap `json:"cells,omitempty"`
}

// binding is the stored document the session saves to.
type binding struct {
	name     string
	password string
	created  time.Time
}

// Session is one user's editing state. It is safe for concurrent use; the
// autosave callback runs on a timer goroutine.
type Session struct {
	mu        sync.Mutex
	templates *cellmap.Registry
	workbook  sheet.Workbook
	store     storage.Store
	logger    *slog.Logger
	rules     []form.Rule
	sanitize  func(string) string
	now       func() time.Time
	autosave  *autosave.Debouncer

	template cellmap.Template
	footer   cellmap.Footer
	sections []form.Section
	data     form.Data
	document *binding
}

// New creates a session over a template registry and a workbook.
func New(templates *cellmap.Registry, workbook sheet.Workbook, options ...Option) (*Session, error) {
	if templates == nil {
		return nil, errors.New("editor: template registry is required")
	}
	if workbook == nil {
		return nil, sheet.ErrNoSheet
	}

	cfg := config{
		logger:   slog.Default(),
		sanitize: SanitizeValue,
		now:      time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	s := &Session{
		templates: templates,
		workbook:  workbook,
		store:     cfg.store,
		logger:    cfg.logger,
		rules:     cfg.rules,
		sanitize:  cfg.sanitize,
		now:       cfg.now,
		sections:  []form.Section{},
		data:      form.Data{},
	}

	if cfg.store != nil && !cfg.autosaveOff {
		debounceOpts := []autosave.Option{
			autosave.WithDelay(cfg.autosaveDelay),
			autosave.OnError(func(err error) {
				s.logger.Error("autosave failed", "error", err, "category", storage.CategoryOf(err))
			}),
		}
		if cfg.scheduler != nil {
			debounceOpts = append(debounceOpts, autosave.WithScheduler(cfg.scheduler))
		}
		s.autosave = autosave.New(s.Save, debounceOpts...)
	}
	return s, nil
}

// SelectTemplate switches to template id and its active footer. Sections are
// regenerated and the form data reset.
func (s *Session) SelectTemplate(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectTemplate(id)
}

func (s *Session) selectTemplate(id int) error {
	tpl, ok := s.templates.Template(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTemplate, id)
	}
	footer, ok := tpl.ActiveFooter()
	if !ok {
		return fmt.Errorf("%w: template %d has no footers", ErrUnknownFooter, id)
	}
	s.template = tpl
	s.useFooter(footer)
	s.logger.Debug("template selected", "template", tpl.ID, "footer", footer.Index, "sections", len(s.sections))
	return nil
}

// SelectFooter switches the current template to another footer, resetting
// the form data.
func (s *Session) SelectFooter(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectFooter(index)
}

func (s *Session) selectFooter(index int) error {
	if s.template.ID == 0 {
		return ErrNoTemplate
	}
	footer, ok := s.template.Footer(index)
	if !ok {
		return fmt.Errorf("%w: %d on template %d", ErrUnknownFooter, index, s.template.ID)
	}
	s.useFooter(footer)
	return nil
}

func (s *Session) useFooter(footer cellmap.Footer) {
	s.footer = footer
	s.sections = form.SectionsForFooter(s.template, footer.Index)
	s.data = form.Initialize(s.sections)
}

// Template returns the selected template and whether one is selected.
func (s *Session) Template() (cellmap.Template, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.template, s.template.ID != 0
}

// Footer returns the selected footer.
func (s *Session) Footer() cellmap.Footer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.footer
}

// Sections returns the sections of the selected footer.
func (s *Session) Sections() []form.Section {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]form.Section(nil), s.sections...)
}

// Data returns a copy of the current form data.
func (s *Session) Data() form.Data {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone()
}

// Document returns the name of the bound document, if any.
func (s *Session) Document() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.document == nil {
		return "", false
	}
	return s.document.name, true
}

// SetField sanitises and stores a flat field value.
func (s *Session) SetField(section, label, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.template.ID == 0 {
		return ErrNoTemplate
	}
	return s.data.Set(section, label, s.sanitize(value))
}

// SetItem sanitises and stores one column of a 0-based item row.
func (s *Session) SetItem(section string, index int, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.template.ID == 0 {
		return ErrNoTemplate
	}
	return s.data.SetItem(section, index, field, s.sanitize(value))
}

// Replace swaps the form data for data normalised to the current sections.
// Values are sanitised like SetField.
func (s *Session) Replace(data form.Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.template.ID == 0 {
		return ErrNoTemplate
	}
	next := form.Normalize(data, s.sections)
	for _, values := range next {
		for label, value := range values.Fields {
			values.Fields[label] = s.sanitize(value)
		}
		for _, row := range values.Items {
			for field, value := range row {
				row[field] = s.sanitize(value)
			}
		}
	}
	s.data = next
	return nil
}

// Validate checks the current data without touching the workbook.
func (s *Session) Validate() form.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return form.Validate(s.data, s.sections, s.rules...)
}

// Submit validates the form and, when valid, writes it to the workbook. A
// failed validation is reported in the result, not as an error.
func (s *Session) Submit(ctx context.Context) (SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.template.ID == 0 {
		return SubmitResult{}, ErrNoTemplate
	}

	result := SubmitResult{Validation: form.Validate(s.data, s.sections, s.rules...)}
	if !result.Validation.Valid {
		s.logger.Info("submit rejected", "template", s.template.ID, "errors", len(result.Validation.Errors))
		return result, nil
	}

	cells, err := sheet.Apply(ctx, s.workbook, s.template.SheetID, s.data, s.sections)
	if err != nil {
		s.logger.Error("submit failed", "template", s.template.ID, "error", err)
		return result, err
	}
	result.Cells = cells
	s.logger.Info("form submitted", "template", s.template.ID, "footer", s.footer.Index, "cells", len(cells))
	s.scheduleAutosave()
	return result, nil
}

// Clear erases the cells the form writes and resets the form data.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.template.ID == 0 {
		return ErrNoTemplate
	}
	data, err := sheet.Clear(ctx, s.workbook, s.template.SheetID, s.data, s.sections)
	if err != nil {
		s.logger.Error("clear failed", "template", s.template.ID, "error", err)
		return err
	}
	s.data = data
	s.scheduleAutosave()
	return nil
}

// SaveAs stores the workbook under a new name and binds the session to it.
// A non-empty password encrypts the content. Existing names are refused.
func (s *Session) SaveAs(ctx context.Context, name, password string) error {
	s.flushAutosave(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return ErrNoStore
	}
	if s.template.ID == 0 {
		return ErrNoTemplate
	}

	content, err := s.snapshot(ctx)
	if err != nil {
		return s.storageError("save as", name, err)
	}
	doc := storage.NewDocument(name, content, s.template.ID, s.footer.Index, s.now())
	if err := s.store.Create(ctx, doc, passwordOption(password)...); err != nil {
		return s.storageError("save as", name, err)
	}
	s.document = &binding{name: name, password: password, created: doc.Created}
	s.logger.Info("document created", "document", name, "encrypted", password != "")
	return nil
}

// Save overwrites the bound document with the current workbook. The
// creation time of the document is kept.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return ErrNoStore
	}
	if s.document == nil {
		return ErrNoDocument
	}

	content, err := s.snapshot(ctx)
	if err != nil {
		return s.storageError("save", s.document.name, err)
	}
	doc := storage.NewDocument(s.document.name, content, s.template.ID, s.footer.Index, s.now())
	doc.Created = s.document.created
	if err := s.store.Save(ctx, doc, passwordOption(s.document.password)...); err != nil {
		return s.storageError("save", s.document.name, err)
	}
	s.logger.Debug("document saved", "document", s.document.name)
	return nil
}

// Load restores a stored workbook, selects the template and footer it was
// filled from and reads the form data back out of the workbook. On failure
// the session keeps its previous template, footer, data, binding and
// workbook.
func (s *Session) Load(ctx context.Context, name, password string) error {
	s.flushAutosave(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return ErrNoStore
	}

	doc, err := s.store.GetWithPassword(ctx, name, password)
	if err != nil {
		return s.storageError("load", name, err)
	}

	tpl, ok := s.templates.Template(doc.TemplateID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTemplate, doc.TemplateID)
	}
	footer, ok := tpl.ActiveFooter()
	if doc.Footer != 0 {
		footer, ok = tpl.Footer(doc.Footer)
	}
	if !ok {
		return fmt.Errorf("%w: %d on template %d", ErrUnknownFooter, doc.Footer, tpl.ID)
	}
	sections := form.SectionsForFooter(tpl, footer.Index)

	content, err := storage.DecodeContent(doc.Content)
	if err != nil {
		return s.storageError("load", name, err)
	}
	previous, err := s.workbook.Snapshot(ctx)
	if err != nil {
		return s.storageError("load", name, err)
	}
	if err := s.workbook.Restore(ctx, content); err != nil {
		s.rollback(ctx, previous)
		return s.storageError("load", name, err)
	}
	data, err := sheet.Read(ctx, s.workbook, tpl.SheetID, sections)
	if err != nil {
		s.rollback(ctx, previous)
		return s.storageError("load", name, err)
	}

	s.template = tpl
	s.footer = footer
	s.sections = sections
	s.data = data
	s.document = &binding{name: doc.Name, password: password, created: doc.Created}
	s.logger.Info("document loaded", "document", doc.Name, "template", tpl.ID, "footer", footer.Index)
	return nil
}

// snapshot returns the workbook state in its stored, URI-encoded form.
func (s *Session) snapshot(ctx context.Context) (string, error) {
	content, err := s.workbook.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	return storage.EncodeContent(content), nil
}

// rollback puts back the workbook state captured before a failed load.
func (s *Session) rollback(ctx context.Context, previous string) {
	if err := s.workbook.Restore(ctx, previous); err != nil {
		s.logger.Error("restore after failed load", "error", err)
	}
}

// PendingSave reports whether an autosave is scheduled.
func (s *Session) PendingSave() bool {
	return s.autosave != nil && s.autosave.Pending()
}

// Close runs any pending autosave and stops autosaving.
func (s *Session) Close(ctx context.Context) error {
	if s.autosave == nil {
		return nil
	}
	err := s.autosave.Flush(ctx)
	s.autosave.Stop()
	return err
}

// scheduleAutosave must be called with mu held.
func (s *Session) scheduleAutosave() {
	if s.autosave != nil && s.document != nil {
		s.autosave.Trigger()
	}
}

func (s *Session) flushAutosave(ctx context.Context) {
	if s.autosave == nil {
		return
	}
	if err := s.autosave.Flush(ctx); err != nil {
		s.logger.Warn("pending autosave failed", "error", err)
	}
}

func (s *Session) storageError(op, name string, err error) error {
	s.logger.Error("storage operation failed",
		"op", op,
		"document", name,
		"category", storage.CategoryOf(err),
		"error", err,
	)
	return fmt.Errorf("editor: %s %s: %w", op, name, err)
}

func passwordOption(password string) []storage.SaveOption {
	if password == "" {
		return nil
	}
	return []storage.SaveOption{storage.WithPassword(password)}
}
