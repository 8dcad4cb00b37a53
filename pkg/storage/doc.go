// Package storage persists invoice documents in a key-value backend.
//
// Local is the adapter the rest of the module talks to. It stores one JSON
// record per document name and can seal the document content with a
// password (AES-256-GCM, argon2id key derivation). Metadata such as the
// template id and timestamps stays readable so documents can be listed
// without a password.
//
// Backends implement KV: MemoryKV here, and SQLite in the sqlite subpackage.
package storage
