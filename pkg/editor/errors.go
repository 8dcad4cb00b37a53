package editor

import "errors"

var (
	// ErrNoTemplate is returned by operations that need a selected template.
	ErrNoTemplate = errors.New("editor: no template selected")
	// ErrUnknownTemplate is returned when the registry has no such template.
	ErrUnknownTemplate = errors.New("editor: unknown template")
	// ErrUnknownFooter is returned when the template has no such footer.
	ErrUnknownFooter = errors.New("editor: unknown footer")
	// ErrNoDocument is returned by Save before SaveAs or Load bound a document.
	ErrNoDocument = errors.New("editor: no document bound")
	// ErrNoStore is returned by storage operations without a configured store.
	ErrNoStore = errors.New("editor: no document store configured")
)
