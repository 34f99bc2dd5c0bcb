package report

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/url"

	"callprep/internal/services"
)

// File is one report document ready to be written.
type File struct {
	AttendeeName string
	Timestamp    time.Time
	Content      string
}

// Writer stores report documents under a directory or URL.
type Writer struct {
	fs  afs.Service
	dir string
}

// NewWriter creates a writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{fs: afs.New(), dir: strings.TrimRight(strings.TrimSpace(dir), "/")}
}

// Dir returns the destination root.
func (w *Writer) Dir() string {
	return w.dir
}

// Location returns where a document with the given name would be written.
func (w *Writer) Location(name string) string {
	if isURL(w.dir) {
		return url.Join(w.dir, name)
	}
	return filepath.Join(w.dir, name)
}

// Write stores the document, creating the destination directory when
// needed, and returns its location.
func (w *Writer) Write(ctx context.Context, file File) (string, error) {
	if w.dir == "" {
		return "", services.Wrap(services.ErrConfiguration, "reporting", "write report", "reports directory is empty", nil)
	}
	ts := file.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	location := w.Location(FileName(ts, file.AttendeeName))

	exists, err := w.fs.Exists(ctx, w.dir)
	if err != nil {
		return "", services.Wrap(services.ErrPersistence, "reporting", "write report", "check reports directory", err)
	}
	if !exists {
		if err := w.fs.Create(ctx, w.dir, 0o755, true); err != nil {
			return "", services.Wrap(services.ErrPersistence, "reporting", "write report", "create reports directory", err)
		}
	}
	if err := w.fs.Upload(ctx, location, 0o644, strings.NewReader(file.Content)); err != nil {
		return "", services.Wrap(services.ErrPersistence, "reporting", "write report", location, err)
	}
	return location, nil
}

// Remove deletes a written document. A missing document is not an error.
func (w *Writer) Remove(ctx context.Context, location string) error {
	exists, err := w.fs.Exists(ctx, location)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "reporting", "remove report", location, err)
	}
	if !exists {
		return nil
	}
	if err := w.fs.Delete(ctx, location); err != nil {
		return services.Wrap(services.ErrPersistence, "reporting", "remove report", location, err)
	}
	return nil
}

// Read returns a previously written document.
func (w *Writer) Read(ctx context.Context, location string) (string, error) {
	exists, err := w.fs.Exists(ctx, location)
	if err != nil {
		return "", services.Wrap(services.ErrPersistence, "reporting", "read report", location, err)
	}
	if !exists {
		return "", services.Wrap(services.ErrNotFound, "reporting", "read report", location, nil)
	}
	data, err := w.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return "", services.Wrap(services.ErrPersistence, "reporting", "read report", location, err)
	}
	return string(data), nil
}

func isURL(value string) bool {
	return strings.Contains(value, "://")
}
