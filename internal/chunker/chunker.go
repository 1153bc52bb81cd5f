package chunker

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/codectx/ragcore/internal/config"
)

// MaxDepth bounds directory recursion so symlink loops cannot run away.
const MaxDepth = 10

// Document is a loaded source unit. It exists only between loading and
// chunking and is never persisted.
type Document struct {
	ID      string // Stable path-derived identifier.
	Source  string // Path relative to the root, slash-normalized.
	Type    string // File extension without the leading dot.
	Content string // Raw text.
	Size    int64  // Byte length.
}

// Load walks the directory tree rooted at cfg.RootDir and returns a Document
// for every file that passes filtering. Files that cannot be read are skipped
// with a warning rather than aborting the run.
func Load(cfg config.ChunkingConfig) ([]Document, error) {
	root, err := filepath.Abs(cfg.RootDir)
	if err != nil {
		return nil, fmt.Errorf("chunker: resolve root: %w", err)
	}
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("chunker: root %s: %w", cfg.RootDir, err)
	}

	maxSize := cfg.MaxFileSize
	if maxSize <= 0 {
		maxSize = 1_000_000
	}

	var docs []Document

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Skip entries we cannot read instead of aborting.
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel := filepath.ToSlash(relPath)

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if strings.Count(rel, "/")+1 >= MaxDepth {
				return filepath.SkipDir
			}
			if matchesIgnore(rel, cfg.IgnorePatterns) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if matchesIgnore(rel, cfg.IgnorePatterns) {
			return nil
		}
		if !allowedExtension(rel, cfg.Extensions) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > maxSize {
			return nil
		}
		if isBinary(path) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: skipping unreadable file %s: %v\n", rel, err)
			return nil
		}
		if !utf8.Valid(data) {
			fmt.Fprintf(os.Stderr, "Warning: skipping non-UTF-8 file %s\n", rel)
			return nil
		}

		docs = append(docs, Document{
			ID:      rel,
			Source:  rel,
			Type:    extensionOf(rel),
			Content: string(data),
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("chunker: traversal: %w", err)
	}

	return docs, nil
}

// matchesIgnore reports whether the relative path contains any ignore
// pattern as a substring, or matches it as a glob.
func matchesIgnore(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(strings.TrimSpace(pattern))
		if pattern == "" {
			continue
		}
		if strings.Contains(rel, pattern) {
			return true
		}
		if matched, err := doublestar.PathMatch(pattern, rel); err == nil && matched {
			return true
		}
	}
	return false
}

// allowedExtension reports whether the path carries one of the allowed
// suffixes. An empty list allows everything.
func allowedExtension(rel string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	lower := strings.ToLower(rel)
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func extensionOf(rel string) string {
	ext := strings.TrimPrefix(filepath.Ext(rel), ".")
	if ext == "" {
		return "none"
	}
	return strings.ToLower(ext)
}

// isBinary reads the first 512 bytes of a file and checks for NUL bytes,
// which is a simple but effective heuristic for binary content.
func isBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true // treat unreadable files as binary
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return true
	}
	for i := 0; i < n; i++ {
		if buf[i] == 0 {
			return true
		}
	}
	return false
}
