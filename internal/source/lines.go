// Package source reads and writes the line-oriented recommendation files and
// the gob snapshots kept by the server.
package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	blenderrors "github.com/gcbaptista/go-recommendation-blender/internal/errors"
)

// maxLineSize bounds a single input line. Lines with a few hundred
// suggestions stay far below it.
const maxLineSize = 4 * 1024 * 1024

// ReadLines loads the whole file into memory, one entry per line, with line
// terminators removed. A final newline does not produce an empty entry.
func ReadLines(path string) ([]string, error) {
	file, err := os.Open(path) // #nosec G304 -- path is chosen by the operator
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, blenderrors.NewSourceNotFoundError(path)
		}
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	lines, err := ScanLines(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return lines, nil
}

// ScanLines reads every line from r.
func ScanLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// WriteLines writes lines to path, each followed by a newline, creating the
// parent directory if needed.
func WriteLines(path string, lines []string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	file, err := os.Create(path) // #nosec G304 -- path is chosen by the operator
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close file %s: %w", path, closeErr)
		}
	}()

	w := bufio.NewWriter(file)
	for _, line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("failed to write file %s: %w", path, err)
		}
	}
	return w.Flush()
}
