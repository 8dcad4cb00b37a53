package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// recordVersion is written into every record. Records without a version are
// treated as legacy and migrated on read.
const recordVersion = 2

// Document is a stored spreadsheet plus the template it was filled from.
// Content holds the serialised workbook; when Encrypted is set and the
// document came from Get, Content is still the sealed envelope.
type Document struct {
	Name       string    `json:"name"`
	Content    string    `json:"content"`
	TemplateID int       `json:"templateId"`
	Footer     int       `json:"billType"`
	Encrypted  bool      `json:"isEncrypted"`
	Created    time.Time `json:"created"`
	Modified   time.Time `json:"modified"`
}

// NewDocument builds a plain document stamped with now.
func NewDocument(name, content string, templateID, footer int, now time.Time) Document {
	return Document{
		Name:       name,
		Content:    content,
		TemplateID: templateID,
		Footer:     footer,
		Created:    now,
		Modified:   now,
	}
}

// NewEncryptedDocument builds a document whose content is sealed with a
// password when it is saved.
func NewEncryptedDocument(name, content string, templateID, footer int, now time.Time) Document {
	doc := NewDocument(name, content, templateID, footer, now)
	doc.Encrypted = true
	return doc
}

// Summary is the listing view of a document.
type Summary struct {
	Name       string    `json:"name"`
	TemplateID int       `json:"templateId"`
	Footer     int       `json:"billType"`
	Encrypted  bool      `json:"isEncrypted"`
	Created    time.Time `json:"created"`
	Modified   time.Time `json:"modified"`
}

func (d Document) summary() Summary {
	return Summary{
		Name:       d.Name,
		TemplateID: d.TemplateID,
		Footer:     d.Footer,
		Encrypted:  d.Encrypted,
		Created:    d.Created,
		Modified:   d.Modified,
	}
}

type record struct {
	Version     int             `json:"version,omitempty"`
	Name        string          `json:"name"`
	Content     string          `json:"content"`
	TemplateID  int             `json:"templateId,omitempty"`
	BillType    int             `json:"billType"`
	IsEncrypted bool            `json:"isEncrypted"`
	Created     string          `json:"created"`
	Modified    string          `json:"modified"`
	Metadata    *legacyMetadata `json:"templateMetadata,omitempty"`
}

type legacyMetadata struct {
	TemplateID int `json:"templateId"`
}

func encodeRecord(doc Document) ([]byte, error) {
	raw, err := json.Marshal(record{
		Version:     recordVersion,
		Name:        doc.Name,
		Content:     doc.Content,
		TemplateID:  doc.TemplateID,
		BillType:    doc.Footer,
		IsEncrypted: doc.Encrypted,
		Created:     formatTime(doc.Created),
		Modified:    formatTime(doc.Modified),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: encode %s: %w", doc.Name, err)
	}
	return raw, nil
}

// decodeRecord reads current and legacy records. Legacy records carry the
// template id inside templateMetadata, or only the footer (billType).
func decodeRecord(key string, raw []byte) (Document, error) {
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Document{}, fmt.Errorf("storage: decode %s: %w", key, err)
	}

	doc := Document{
		Name:       rec.Name,
		Content:    rec.Content,
		TemplateID: rec.TemplateID,
		Footer:     rec.BillType,
		Encrypted:  rec.IsEncrypted,
		Created:    parseTime(rec.Created),
		Modified:   parseTime(rec.Modified),
	}
	if doc.Name == "" {
		doc.Name = key
	}
	if rec.Version < recordVersion && doc.TemplateID == 0 {
		if rec.Metadata != nil && rec.Metadata.TemplateID > 0 {
			doc.TemplateID = rec.Metadata.TemplateID
		} else {
			doc.TemplateID = rec.BillType
		}
	}
	return doc, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime accepts RFC 3339 and the date-only form. Anything else reads as
// the zero time.
func parseTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
