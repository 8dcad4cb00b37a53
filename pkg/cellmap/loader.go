package cellmap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// LoadOption customises schema decoding.
type LoadOption func(*loadConfig)

type loadConfig struct {
	lenient bool
}

// WithLenientLeaves skips leaves that are neither strings nor objects (numbers,
// booleans, arrays, nulls) instead of failing. Skipped paths are recorded on
// Mapping.Skipped.
func WithLenientLeaves() LoadOption {
	return func(cfg *loadConfig) {
		cfg.lenient = true
	}
}

func newLoadConfig(options []LoadOption) loadConfig {
	var cfg loadConfig
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return cfg
}

// ParseMapping decodes a single cell-mapping document (YAML or JSON).
func ParseMapping(data []byte, options ...LoadOption) (Mapping, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Mapping{}, fmt.Errorf("cellmap: parse mapping: %w", err)
	}
	node := documentBody(&root)
	if node == nil {
		return Mapping{}, nil
	}
	cfg := newLoadConfig(options)
	return decodeMapping(node, "", cfg)
}

type templateFile struct {
	ID            int       `yaml:"id"`
	Name          string    `yaml:"name"`
	Sheet         string    `yaml:"sheet"`
	Footers       []Footer  `yaml:"footers"`
	LogoCell      string    `yaml:"logoCell"`
	SignatureCell string    `yaml:"signatureCell"`
	CellMappings  yaml.Node `yaml:"cellMappings"`
	// ExtendsDefault overlays each footer mapping onto DefaultMapping.
	ExtendsDefault bool `yaml:"extendsDefault"`
}

type templatesFile struct {
	Templates []templateFile `yaml:"templates"`
}

// ParseTemplates decodes a template file. source is only used in error
// messages.
func ParseTemplates(data []byte, source string, options ...LoadOption) ([]Template, error) {
	if strings.TrimSpace(string(data)) == "" {
		return nil, fmt.Errorf("cellmap: file %s is empty", source)
	}

	var doc templatesFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("cellmap: parse %s: %w", source, err)
	}

	cfg := newLoadConfig(options)
	out := make([]Template, 0, len(doc.Templates))
	for i, raw := range doc.Templates {
		tpl := Template{
			ID:            raw.ID,
			Name:          strings.TrimSpace(raw.Name),
			SheetID:       strings.TrimSpace(raw.Sheet),
			Footers:       append([]Footer(nil), raw.Footers...),
			LogoCell:      strings.TrimSpace(raw.LogoCell),
			SignatureCell: strings.TrimSpace(raw.SignatureCell),
		}

		mappings, err := decodeFooterMappings(&raw.CellMappings, cfg)
		if err != nil {
			return nil, fmt.Errorf("cellmap: %s: template #%d (%q): %w", source, i, tpl.Name, err)
		}
		if raw.ExtendsDefault {
			mappings, err = extendDefault(mappings, tpl.Footers)
			if err != nil {
				return nil, fmt.Errorf("cellmap: %s: template #%d (%q): %w", source, i, tpl.Name, err)
			}
		}
		tpl.Mappings = mappings
		out = append(out, tpl)
	}
	return out, nil
}

// extendDefault layers every footer mapping over DefaultMapping. Footers
// without a mapping of their own get the default one.
func extendDefault(mappings map[int]Mapping, footers []Footer) (map[int]Mapping, error) {
	out := make(map[int]Mapping, len(mappings)+len(footers))
	for index, mapping := range mappings {
		merged := MergeMappings(DefaultMapping(), mapping)
		if err := checkSectionTitles(merged, "footer "+strconv.Itoa(index)); err != nil {
			return nil, err
		}
		out[index] = merged
	}
	for _, footer := range footers {
		if _, ok := out[footer.Index]; !ok {
			out[footer.Index] = DefaultMapping()
		}
	}
	return out, nil
}

func decodeFooterMappings(node *yaml.Node, cfg loadConfig) (map[int]Mapping, error) {
	node = resolve(node)
	if node == nil || node.Kind == 0 {
		return nil, nil
	}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: cellMappings must be keyed by footer index", ErrMalformedEntry)
	}

	out := make(map[int]Mapping, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		rawKey := strings.TrimSpace(node.Content[i].Value)
		index, err := strconv.Atoi(rawKey)
		if err != nil {
			return nil, fmt.Errorf("%w: footer key %q is not an index", ErrMalformedEntry, rawKey)
		}
		if _, exists := out[index]; exists {
			return nil, fmt.Errorf("%w: footer %d declared twice", ErrMalformedEntry, index)
		}
		mapping, err := decodeMapping(node.Content[i+1], "footer "+rawKey, cfg)
		if err != nil {
			return nil, err
		}
		out[index] = mapping
	}
	return out, nil
}

type decoder struct {
	cfg     loadConfig
	skipped []string
}

func decodeMapping(node *yaml.Node, prefix string, cfg loadConfig) (Mapping, error) {
	node = resolve(node)
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return Mapping{}, nil
	}
	if node.Kind != yaml.MappingNode {
		return Mapping{}, fmt.Errorf("%w: %s: mapping must be an object", ErrMalformedEntry, orRoot(prefix))
	}

	d := &decoder{cfg: cfg}
	var mapping Mapping
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := strings.TrimSpace(node.Content[i].Value)
		path := joinPath(prefix, key)
		value := resolve(node.Content[i+1])

		if key == ItemsKey {
			items, err := d.items(value, path)
			if err != nil {
				return Mapping{}, err
			}
			mapping.Entries = append(mapping.Entries, Entry{Key: key, Value: items})
			continue
		}

		decoded, ok, err := d.value(value, key, path, make(map[string]string))
		if err != nil {
			return Mapping{}, err
		}
		if ok {
			mapping.Entries = append(mapping.Entries, Entry{Key: key, Value: decoded})
		}
	}
	mapping.Skipped = d.skipped
	if err := checkSectionTitles(mapping, prefix); err != nil {
		return Mapping{}, err
	}
	return mapping, nil
}

// checkSectionTitles rejects mappings where two top-level entries would
// produce form sections with the same title. Titles come from the items name,
// the heading text or the entry key. Empty groups produce no section.
func checkSectionTitles(mapping Mapping, prefix string) error {
	seen := make(map[string]string, len(mapping.Entries))
	for _, entry := range mapping.Entries {
		title := entry.Key
		switch value := entry.Value.(type) {
		case Items:
			title = value.Name
		case Heading:
			title = value.Heading
		case Group:
			if len(value.Entries) == 0 {
				continue
			}
		}
		path := joinPath(prefix, entry.Key)
		if other, exists := seen[title]; exists {
			return fmt.Errorf("%w: %q used by %s and %s", ErrDuplicateSection, title, other, path)
		}
		seen[title] = path
	}
	return nil
}

// value decodes one entry. seen tracks the cells claimed within the enclosing
// top-level section.
func (d *decoder) value(node *yaml.Node, key, path string, seen map[string]string) (Value, bool, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag != "!!str" {
			return nil, false, d.skip(path, fmt.Sprintf("%s leaf is not a cell coordinate", strings.TrimPrefix(node.Tag, "!!")))
		}
		cell, err := NormalizeCell(node.Value)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %s: value %q is not a cell coordinate", ErrMalformedEntry, path, node.Value)
		}
		if err := claim(seen, cell, path); err != nil {
			return nil, false, err
		}
		return Leaf{Cell: cell}, true, nil

	case yaml.MappingNode:
		if hasKey(node, "heading") {
			heading, err := d.heading(node, key, path)
			if err != nil {
				return nil, false, err
			}
			if err := claim(seen, heading.Cell, path); err != nil {
				return nil, false, err
			}
			return heading, true, nil
		}

		var group Group
		for i := 0; i+1 < len(node.Content); i += 2 {
			childKey := strings.TrimSpace(node.Content[i].Value)
			child, ok, err := d.value(resolve(node.Content[i+1]), childKey, joinPath(path, childKey), seen)
			if err != nil {
				return nil, false, err
			}
			if ok {
				group.Entries = append(group.Entries, Entry{Key: childKey, Value: child})
			}
		}
		return group, true, nil

	default:
		return nil, false, d.skip(path, "arrays are not supported")
	}
}

func (d *decoder) heading(node *yaml.Node, key, path string) (Heading, error) {
	cell, err := NormalizeCell(key)
	if err != nil {
		return Heading{}, fmt.Errorf("%w: %s: heading entries must be keyed by a cell coordinate", ErrMalformedEntry, path)
	}

	var raw struct {
		Heading  string `yaml:"heading"`
		Datatype string `yaml:"datatype"`
	}
	if err := node.Decode(&raw); err != nil {
		return Heading{}, fmt.Errorf("%w: %s: %v", ErrMalformedEntry, path, err)
	}

	datatype := Datatype(strings.ToLower(strings.TrimSpace(raw.Datatype)))
	if datatype == "" {
		datatype = DatatypeText
	}
	if !datatype.Valid() {
		return Heading{}, fmt.Errorf("%w: %s: unknown datatype %q", ErrMalformedEntry, path, raw.Datatype)
	}

	heading := strings.TrimSpace(raw.Heading)
	if heading == "" {
		heading = cell
	}
	return Heading{Cell: cell, Heading: heading, Datatype: datatype}, nil
}

func (d *decoder) items(node *yaml.Node, path string) (Items, error) {
	if node.Kind != yaml.MappingNode {
		return Items{}, fmt.Errorf("%w: %s: items must be an object", ErrMalformedEntry, path)
	}

	items := Items{
		Name:  ItemsKey,
		Range: Range{Start: 1, End: 10},
	}
	seen := make(map[string]string)

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := strings.TrimSpace(node.Content[i].Value)
		value := resolve(node.Content[i+1])

		switch strings.ToLower(key) {
		case "name":
			if name := strings.TrimSpace(value.Value); name != "" {
				items.Name = name
			}
		case "range":
			if err := value.Decode(&items.Range); err != nil {
				return Items{}, fmt.Errorf("%w: %s.%s: %v", ErrInvalidRange, path, key, err)
			}
		case "content":
			if value.Kind != yaml.MappingNode {
				return Items{}, fmt.Errorf("%w: %s.%s must map field names to columns", ErrMalformedEntry, path, key)
			}
			for j := 0; j+1 < len(value.Content); j += 2 {
				field := strings.TrimSpace(value.Content[j].Value)
				letters, err := NormalizeColumn(resolve(value.Content[j+1]).Value)
				if err != nil {
					return Items{}, fmt.Errorf("%w: %s.%s.%s: %v", ErrMalformedEntry, path, key, field, err)
				}
				if err := claim(seen, letters, joinPath(path, field)); err != nil {
					return Items{}, err
				}
				items.Content = append(items.Content, Column{Field: field, Letters: letters})
			}
		default:
			if err := d.skip(joinPath(path, key), "unknown items key"); err != nil {
				return Items{}, err
			}
		}
	}

	if items.Range.Start < 1 || items.Range.Start > items.Range.End || items.Range.End > excelize.TotalRows {
		return Items{}, fmt.Errorf("%w: %s: start=%d end=%d", ErrInvalidRange, path, items.Range.Start, items.Range.End)
	}
	return items, nil
}

func (d *decoder) skip(path, reason string) error {
	if d.cfg.lenient {
		d.skipped = append(d.skipped, path)
		return nil
	}
	return fmt.Errorf("%w: %s: %s", ErrMalformedEntry, path, reason)
}

func claim(seen map[string]string, cell, path string) error {
	if other, exists := seen[cell]; exists {
		return fmt.Errorf("%w: %s used by %s and %s", ErrDuplicateCell, cell, other, path)
	}
	seen[cell] = path
	return nil
}

func documentBody(root *yaml.Node) *yaml.Node {
	if root == nil || root.Kind == 0 {
		return nil
	}
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil
		}
		return resolve(root.Content[0])
	}
	return resolve(root)
}

func resolve(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func hasKey(node *yaml.Node, key string) bool {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if strings.EqualFold(strings.TrimSpace(node.Content[i].Value), key) {
			return true
		}
	}
	return false
}

func joinPath(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}

func orRoot(path string) string {
	if path == "" {
		return "<root>"
	}
	return path
}
