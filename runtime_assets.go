package invoiceform

import (
	"io/fs"

	"github.com/goliatone/go-invoiceform/pkg/renderers/html"
)

// AssetsFS exposes the preview stylesheet so Go applications can serve it
// next to rendered forms.
//
// Typical mount:
//
//	mux.Handle("/assets/",
//	  http.StripPrefix("/assets/",
//	    http.FileServerFS(invoiceform.AssetsFS()),
//	  ),
//	)
func AssetsFS() fs.FS {
	return html.AssetsFS()
}
