package content

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RootScan lists the files present under a content root, as sorted
// slash-separated paths relative to the root.
type RootScan struct {
	// Markdown holds every markdown document, chapter or not. The
	// validator compares this against the set of referenced documents.
	Markdown []string
	// Assets holds copyable non-markdown files (images, stylesheets).
	Assets []string
}

var assetExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".svg":  true,
	".webp": true,
	".css":  true,
	".js":   true,
	".pdf":  true,
}

// ScanRoot walks the content root once, collecting markdown documents and
// assets. Hidden files, hidden directories, and dependency directories are
// skipped.
func ScanRoot(root string) (*RootScan, error) {
	scan := &RootScan{}

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		name := info.Name()
		if info.IsDir() {
			if path == root {
				return nil
			}
			if strings.HasPrefix(name, ".") || name == "node_modules" || name == "vendor" {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		ext := strings.ToLower(filepath.Ext(name))
		switch {
		case ext == ".md":
			scan.Markdown = append(scan.Markdown, rel)
		case assetExtensions[ext]:
			scan.Assets = append(scan.Assets, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(scan.Markdown)
	sort.Strings(scan.Assets)
	return scan, nil
}
