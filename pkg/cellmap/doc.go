// Package cellmap describes how invoice templates bind business fields to
// spreadsheet cells.
//
// A Mapping is an ordered list of entries. Each entry value is one of four
// shapes decided when the schema is loaded:
//
//   - Leaf: a field label bound to a single cell ("Invoice Number": "C18")
//   - Heading: a cell bound to a heading and a declared datatype
//     ("B8": {heading: Company Name, datatype: text})
//   - Group: nested entries flattened into one form section
//   - Items: the repeating line-item block under the reserved "Items" key
//
// Consumers switch on the concrete type instead of inspecting raw values:
//
//	for _, entry := range mapping.Entries {
//		switch v := entry.Value.(type) {
//		case cellmap.Leaf:
//		case cellmap.Heading:
//		case cellmap.Group:
//		case cellmap.Items:
//		}
//	}
//
// Templates group one Mapping per footer (template variant). Template files are
// YAML or JSON; key order in the file is preserved because form layout depends
// on it.
package cellmap
