package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Store is the document persistence surface used by the editor and server.
type Store interface {
	Save(ctx context.Context, doc Document, options ...SaveOption) error
	Create(ctx context.Context, doc Document, options ...SaveOption) error
	Get(ctx context.Context, name string) (Document, error)
	GetWithPassword(ctx context.Context, name, password string) (Document, error)
	Exists(ctx context.Context, name string) (bool, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]Summary, error)
	ListByTemplate(ctx context.Context, templateID int) ([]Summary, error)
	TemplateIDs(ctx context.Context) ([]int, error)
	IsEncrypted(ctx context.Context, name string) (bool, error)
}

// Option customises Local.
type Option func(*Local)

// WithCipher sets the cipher used for password-protected documents.
func WithCipher(c *Cipher) Option {
	return func(l *Local) {
		if c != nil {
			l.cipher = c
		}
	}
}

// WithClock overrides the time source used to stamp documents.
func WithClock(now func() time.Time) Option {
	return func(l *Local) {
		if now != nil {
			l.now = now
		}
	}
}

// SaveOption customises a single Save or Create call.
type SaveOption func(*saveConfig)

type saveConfig struct {
	password string
}

// WithPassword encrypts the document content with password.
func WithPassword(password string) SaveOption {
	return func(cfg *saveConfig) {
		cfg.password = password
	}
}

// Local stores documents as JSON records in a KV backend, one key per
// document name.
type Local struct {
	kv     KV
	cipher *Cipher
	now    func() time.Time
}

var _ Store = (*Local)(nil)

// NewLocal wraps kv.
func NewLocal(kv KV, options ...Option) *Local {
	l := &Local{kv: kv, cipher: NewCipher(), now: time.Now}
	for _, opt := range options {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Save writes doc, overwriting any document with the same name. Created is
// kept when set and Modified is always stamped. Passing WithPassword seals
// the content; saving a document marked Encrypted without a password fails
// with ErrPasswordRequired.
func (l *Local) Save(ctx context.Context, doc Document, options ...SaveOption) error {
	name, err := validName(doc.Name)
	if err != nil {
		return err
	}
	doc.Name = name

	var cfg saveConfig
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	now := l.now()
	if doc.Created.IsZero() {
		doc.Created = now
	}
	doc.Modified = now

	switch {
	case cfg.password != "":
		sealed, err := l.cipher.Encrypt(doc.Content, cfg.password)
		if err != nil {
			return fmt.Errorf("storage: encrypt %s: %w", name, err)
		}
		doc.Content = sealed
		doc.Encrypted = true
	case doc.Encrypted:
		return fmt.Errorf("storage: save %s: %w", name, ErrPasswordRequired)
	}

	raw, err := encodeRecord(doc)
	if err != nil {
		return err
	}
	if err := l.kv.Set(ctx, name, raw); err != nil {
		return fmt.Errorf("storage: save %s: %w", name, err)
	}
	return nil
}

// Create saves doc only when its name is not taken yet.
func (l *Local) Create(ctx context.Context, doc Document, options ...SaveOption) error {
	name, err := validName(doc.Name)
	if err != nil {
		return err
	}
	exists, err := l.Exists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("storage: create %s: %w", name, ErrExists)
	}
	return l.Save(ctx, doc, options...)
}

// Get returns the stored document as is: encrypted content stays sealed.
func (l *Local) Get(ctx context.Context, name string) (Document, error) {
	name, err := validName(name)
	if err != nil {
		return Document{}, err
	}
	raw, ok, err := l.kv.Get(ctx, name)
	if err != nil {
		return Document{}, fmt.Errorf("storage: get %s: %w", name, err)
	}
	if !ok {
		return Document{}, fmt.Errorf("storage: get %s: %w", name, ErrNotFound)
	}
	return decodeRecord(name, raw)
}

// GetWithPassword returns the document with its content decrypted. Plain
// documents are returned unchanged whatever the password.
func (l *Local) GetWithPassword(ctx context.Context, name, password string) (Document, error) {
	doc, err := l.Get(ctx, name)
	if err != nil {
		return Document{}, err
	}
	if !doc.Encrypted {
		return doc, nil
	}
	if password == "" {
		return Document{}, fmt.Errorf("storage: open %s: %w", doc.Name, ErrPasswordRequired)
	}

	plain, err := l.cipher.Decrypt(doc.Content, password)
	if err != nil {
		return Document{}, fmt.Errorf("storage: open %s: %w", doc.Name, err)
	}
	doc.Content = plain
	return doc, nil
}

// Exists reports whether a document is stored under name.
func (l *Local) Exists(ctx context.Context, name string) (bool, error) {
	name, err := validName(name)
	if err != nil {
		return false, err
	}
	_, ok, err := l.kv.Get(ctx, name)
	if err != nil {
		return false, fmt.Errorf("storage: check %s: %w", name, err)
	}
	return ok, nil
}

// Delete removes the document stored under name.
func (l *Local) Delete(ctx context.Context, name string) error {
	exists, err := l.Exists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("storage: delete %s: %w", name, ErrNotFound)
	}
	if err := l.kv.Delete(ctx, strings.TrimSpace(name)); err != nil {
		return fmt.Errorf("storage: delete %s: %w", name, err)
	}
	return nil
}

// List returns a summary of every document sorted by name.
func (l *Local) List(ctx context.Context) ([]Summary, error) {
	keys, err := l.kv.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	sort.Strings(keys)

	out := make([]Summary, 0, len(keys))
	for _, key := range keys {
		raw, ok, err := l.kv.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("storage: list %s: %w", key, err)
		}
		if !ok {
			continue
		}
		doc, err := decodeRecord(key, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, doc.summary())
	}
	return out, nil
}

// ListByTemplate returns the summaries of documents filled from templateID.
func (l *Local) ListByTemplate(ctx context.Context, templateID int) ([]Summary, error) {
	all, err := l.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(all))
	for _, summary := range all {
		if summary.TemplateID == templateID {
			out = append(out, summary)
		}
	}
	return out, nil
}

// TemplateIDs returns the distinct template ids in use, ascending.
func (l *Local) TemplateIDs(ctx context.Context) ([]int, error) {
	all, err := l.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[int]struct{}, len(all))
	out := make([]int, 0, len(all))
	for _, summary := range all {
		if _, ok := seen[summary.TemplateID]; ok {
			continue
		}
		seen[summary.TemplateID] = struct{}{}
		out = append(out, summary.TemplateID)
	}
	sort.Ints(out)
	return out, nil
}

// IsEncrypted reports whether the named document is password protected.
func (l *Local) IsEncrypted(ctx context.Context, name string) (bool, error) {
	doc, err := l.Get(ctx, name)
	if err != nil {
		return false, err
	}
	return doc.Encrypted, nil
}

func validName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", ErrInvalidName
	}
	return trimmed, nil
}
