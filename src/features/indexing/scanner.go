package indexing

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
)

// supportedExtensions is the built-in set of audio file extensions the
// scanner picks up. Matching is case-insensitive on the extension.
var supportedExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".wav":  true,
	".ogg":  true,
	".m4a":  true,
	".aac":  true,
}

// mimeTypes maps supported extensions to the container MIME type served by
// the streaming layer. Derived from the extension, never content sniffing.
var mimeTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".flac": "audio/flac",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
}

// MIMETypeForPath returns the MIME type for a supported audio file path,
// falling back to application/octet-stream for anything unknown.
func MIMETypeForPath(path string) string {
	if mime, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mime
	}
	return "application/octet-stream"
}

// Scanner recursively walks a media root and yields candidate audio file
// paths. Two scans of an unchanged tree yield the same set of paths.
type Scanner struct {
	extensions map[string]bool
}

// NewScanner creates a scanner with the built-in extension set supplemented
// by extra extensions (with or without a leading dot).
func NewScanner(extraExtensions []string) *Scanner {
	exts := make(map[string]bool, len(supportedExtensions)+len(extraExtensions))
	for ext := range supportedExtensions {
		exts[ext] = true
	}
	for _, ext := range extraExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = true
	}
	return &Scanner{extensions: exts}
}

// Supports reports whether the scanner picks up the given path.
func (s *Scanner) Supports(path string) bool {
	return s.extensions[strings.ToLower(filepath.Ext(path))]
}

// Scan walks root recursively and returns the absolute paths of all
// supported audio files. Permission errors on individual entries are logged
// and skipped; only an unreadable root fails the scan. Symlinked directories
// are not followed, so link cycles terminate.
func (s *Scanner) Scan(ctx context.Context, root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			slog.Warn("Scanner.Scan: skipping unreadable entry", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !s.Supports(path) {
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			slog.Warn("Scanner.Scan: cannot resolve absolute path", "path", path, "error", err)
			return nil
		}
		paths = append(paths, abs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}
