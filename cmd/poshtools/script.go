package main

import (
	"io"
	"os"

	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// maxScriptSize bounds a loaded script file.
const maxScriptSize = 64 << 20

// loadScript reads a PowerShell script, transparently decoding the
// UTF-8/UTF-16 byte-order marks PowerShell editors commonly emit.
func loadScript(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	reader := transform.NewReader(io.LimitReader(f, maxScriptSize+1), decoder)

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", errors.Errorf("reading %s: %w", path, err)
	}
	if len(data) > maxScriptSize {
		return "", errors.Errorf("%s: script exceeds %d bytes", path, maxScriptSize)
	}
	return string(data), nil
}
