// Package capture defines the capture decision gate, artifact types, and
// the content fingerprint used for duplicate suppression.
package capture

import (
	"errors"
	"time"
)

// Mode controls which observed actions produce artifacts.
type Mode string

const (
	// ModeNone disables artifact capture entirely.
	ModeNone Mode = "none"
	// ModeSearchOnly captures only during search operations.
	ModeSearchOnly Mode = "search-only"
	// ModeAll captures every observed action.
	ModeAll Mode = "all"
)

// SearchContext is the context tag that ModeSearchOnly gates on.
const SearchContext = "search"

// Format identifies the on-disk encoding of an artifact.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// Ext returns the file extension for the format, without the dot.
func (f Format) Ext() string {
	if f == FormatPNG {
		return "png"
	}
	return "jpg"
}

// ErrDecode marks malformed or empty image payloads. Fatal to the single
// store call that produced it; never retried.
var ErrDecode = errors.New("capture: undecodable image data")

// Request carries one capture through a single store call.
type Request struct {
	// Data holds the raw encoded image bytes as produced by the browser.
	Data []byte
	// Context is a free-form tag for the operation that produced the
	// capture ("search", "navigate", ...). Empty means untagged.
	Context string
	// Quality overrides the configured encode quality when non-zero.
	Quality int
	// Directory overrides the configured storage directory when non-empty.
	Directory string
}

// Record describes one persisted artifact.
type Record struct {
	ID      string    `json:"id"`
	Path    string    `json:"path"`
	Format  Format    `json:"format"`
	Bytes   int64     `json:"bytes"`
	ModTime time.Time `json:"mod_time"`
	Context string    `json:"context,omitempty"`
}
