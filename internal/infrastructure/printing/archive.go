package printing

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path/filepath"
)

// ArchiveEntry is one file inside an export archive
type ArchiveEntry struct {
	Name string
	Data []byte
}

// BuildArchive assembles a flat flate-compressed ZIP archive from entries.
// Entry names must already be sanitized; duplicates get a numeric suffix
// so no archive member silently overwrites another.
func BuildArchive(entries []ArchiveEntry) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	seen := make(map[string]int, len(entries))
	for _, entry := range entries {
		name := entry.Name
		if n := seen[name]; n > 0 {
			ext := filepath.Ext(name)
			name = fmt.Sprintf("%s_%d%s", name[:len(name)-len(ext)], n, ext)
		}
		seen[entry.Name]++

		f, err := w.CreateHeader(&zip.FileHeader{
			Name:   name,
			Method: zip.Deflate,
		})
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("failed to create archive entry %s: %w", name, err)
		}
		if _, err := f.Write(entry.Data); err != nil {
			w.Close()
			return nil, fmt.Errorf("failed to write archive entry %s: %w", name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
