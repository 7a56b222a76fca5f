package cli

import "github.com/atotto/clipboard"

// Clipboard is the system clipboard.
type Clipboard interface {
	ReadText() (string, error)
	WriteText(text string) error
}

var (
	clipboardReadAll  = clipboard.ReadAll
	clipboardWriteAll = clipboard.WriteAll
)

type systemClipboard struct{}

func (systemClipboard) ReadText() (string, error) { return clipboardReadAll() }

func (systemClipboard) WriteText(text string) error { return clipboardWriteAll(text) }
