package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/goliatone/go-invoiceform/pkg/render"
)

// Transformer mutates a form before validation and rendering. Implementations
// can prefill values or rewrite data.
type Transformer interface {
	Transform(ctx context.Context, f *render.Form) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, f *render.Form) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, f *render.Form) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, f)
}

// Chain runs transformers in order, stopping at the first error.
func Chain(transformers ...Transformer) Transformer {
	return TransformerFunc(func(ctx context.Context, f *render.Form) error {
		for _, t := range transformers {
			if t == nil {
				continue
			}
			if err := t.Transform(ctx, f); err != nil {
				return err
			}
		}
		return nil
	})
}

// JSONPresetTransformer prefills values loaded from a JSON document, such as
// the issuing company's details. Keys are field paths:
//
//	{
//	  "values": {
//	    "Company Info.Company Name": "Acme Ltd",
//	    "Line Items[1].Description": "Consulting"
//	  },
//	  "overwrite": false
//	}
//
// Without overwrite only empty values are filled. Paths the form does not
// have are ignored unless strict is set.
type JSONPresetTransformer struct {
	document jsonPresetDocument
}

type jsonPresetDocument struct {
	Values    map[string]string `json:"values"`
	Overwrite bool              `json:"overwrite"`
	Strict    bool              `json:"strict"`
}

// NewJSONPresetTransformer constructs a transformer from raw JSON bytes.
func NewJSONPresetTransformer(data []byte) (*JSONPresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("json preset transformer: document is empty")
	}
	var document jsonPresetDocument
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("json preset transformer: parse document: %w", err)
	}
	return &JSONPresetTransformer{document: document}, nil
}

// NewJSONPresetTransformerFromFS loads a preset document from fsys.
func NewJSONPresetTransformerFromFS(fsys fs.FS, path string) (*JSONPresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("json preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("json preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("json preset transformer: read %s: %w", path, err)
	}
	return NewJSONPresetTransformer(data)
}

// Transform writes the preset values into the form data.
func (t *JSONPresetTransformer) Transform(ctx context.Context, f *render.Form) error {
	if f == nil {
		return errors.New("json preset transformer: form is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	targets := fieldTargets(*f)
	paths := make([]string, 0, len(t.document.Values))
	for path := range t.document.Values {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		target, ok := targets[strings.ToLower(strings.TrimSpace(path))]
		if !ok {
			if t.document.Strict {
				return fmt.Errorf("json preset transformer: field %q not found", path)
			}
			continue
		}
		if current := target.get(); current != "" && !t.document.Overwrite {
			continue
		}
		if err := target.set(t.document.Values[path]); err != nil {
			return fmt.Errorf("json preset transformer: set %q: %w", path, err)
		}
	}
	return nil
}

type fieldTarget struct {
	get func() string
	set func(string) error
}

// fieldTargets indexes the writable values of f by lower-cased field path.
func fieldTargets(f render.Form) map[string]fieldTarget {
	targets := make(map[string]fieldTarget)
	for _, section := range f.Sections {
		title := section.Title
		if section.IsItems {
			if section.Items == nil {
				continue
			}
			for row := 1; row <= section.Rows(); row++ {
				index := row - 1
				for _, col := range section.Items.Content {
					field := col.Field
					targets[strings.ToLower(render.ItemPath(title, row, field))] = fieldTarget{
						get: func() string { v, _ := f.Data.Item(title, index, field); return v },
						set: func(v string) error { return f.Data.SetItem(title, index, field, v) },
					}
				}
			}
			continue
		}
		for _, field := range section.Fields {
			label := field.Label
			targets[strings.ToLower(render.FieldPath(title, label))] = fieldTarget{
				get: func() string { v, _ := f.Data.Get(title, label); return v },
				set: func(v string) error { return f.Data.Set(title, label, v) },
			}
		}
	}
	return targets
}
