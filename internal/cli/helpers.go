package cli

import (
	"io"
	"text/tabwriter"

	"github.com/focusforge/focusforge/internal/daemon"
)

// newTable returns a tabwriter in the column style every listing uses.
func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// openDaemon loads config and opens the database without serving.
// Callers must Close the result.
var openDaemon = daemon.New
