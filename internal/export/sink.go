// Package export persists finished ingestion sessions.
package export

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Artifact describes one written export.
type Artifact struct {
	Path  string // Location of the written file
	Bytes int64  // Bytes written
}

// Sink persists the lines of one completed session.
// Implementations must be safe for concurrent use.
type Sink interface {
	Export(id uint64, title string, lines []string) (Artifact, error)
}

// FileSink writes each export to its own file named book_NN.txt.
type FileSink struct {
	dir string
}

// NewFileSink returns a sink writing into dir. The directory is created if missing.
func NewFileSink(dir string) (*FileSink, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating export dir %q", dir)
	}
	return &FileSink{dir: dir}, nil
}

// Dir returns the output directory
func (f *FileSink) Dir() string {
	return f.dir
}

// FileName returns the artifact name for an export id
func FileName(id uint64) string {
	return fmt.Sprintf("book_%02d.txt", id)
}

// Export writes lines in order, one per row, each terminated by a newline.
// Zero lines produce an empty file. The title is not written.
func (f *FileSink) Export(id uint64, _ string, lines []string) (Artifact, error) {
	path := filepath.Join(f.dir, FileName(id))

	file, err := os.Create(path)
	if err != nil {
		return Artifact{}, errors.Wrapf(err, "creating %s", path)
	}

	w := bufio.NewWriter(file)
	var written int64
	for _, line := range lines {
		n, err := w.WriteString(line)
		written += int64(n)
		if err == nil {
			err = w.WriteByte('\n')
			if err == nil {
				written++
			}
		}
		if err != nil {
			file.Close()
			return Artifact{}, errors.Wrapf(err, "writing %s", path)
		}
	}

	if err := w.Flush(); err != nil {
		file.Close()
		return Artifact{}, errors.Wrapf(err, "flushing %s", path)
	}
	if err := file.Close(); err != nil {
		return Artifact{}, errors.Wrapf(err, "closing %s", path)
	}

	return Artifact{Path: path, Bytes: written}, nil
}
