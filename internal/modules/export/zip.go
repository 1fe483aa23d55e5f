package export

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// WriteMapsZip streams a flat zip archive of the .html map files in dir.
// Entries are ordered by name so the archive bytes are reproducible.
func WriteMapsZip(w io.Writer, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read maps dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".html") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	zw := zip.NewWriter(w)
	for _, name := range names {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			zw.Close()
			return fmt.Errorf("failed to open map %s: %w", name, err)
		}
		entry, err := zw.Create(name)
		if err != nil {
			f.Close()
			zw.Close()
			return fmt.Errorf("failed to add map %s to archive: %w", name, err)
		}
		if _, err := io.Copy(entry, f); err != nil {
			f.Close()
			zw.Close()
			return fmt.Errorf("failed to write map %s to archive: %w", name, err)
		}
		f.Close()
	}
	return zw.Close()
}
