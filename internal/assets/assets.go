// File: internal/assets/assets.go

// Package assets manages the temporary on-disk copies of a posting attempt's
// images. Images arrive from the caller as data-URI blobs; they are staged to
// a per-attempt temp directory before the surface opens and removed exactly
// once when the attempt ends, so no image outlives its attempt.
package assets

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Store holds the staged files of one attempt.
type Store struct {
	dir         string
	paths       []string
	cleanupOnce sync.Once
	logger      *zap.Logger
}

// Stage decodes the data-URI images into a fresh temp directory. File names
// carry a timestamp plus index so rapid successive attempts never collide.
// On any decode failure the partially staged files are removed before the
// error is returned.
func Stage(images []string, logger *zap.Logger) (*Store, error) {
	dir, err := os.MkdirTemp("", "llatria-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp asset dir: %w", err)
	}

	s := &Store{dir: dir, logger: logger.Named("assets")}
	stamp := time.Now().UnixMilli()
	for i, uri := range images {
		data, ext, err := decodeDataURI(uri)
		if err != nil {
			s.Cleanup()
			return nil, fmt.Errorf("failed to decode image %d: %w", i, err)
		}
		name := fmt.Sprintf("photo-%d-%d%s", stamp, i, ext)
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o600); err != nil {
			s.Cleanup()
			return nil, fmt.Errorf("failed to write image %d: %w", i, err)
		}
		s.paths = append(s.paths, path)
	}

	s.logger.Debug("Staged temp assets.", zap.Int("count", len(s.paths)), zap.String("dir", dir))
	return s, nil
}

// Paths returns the staged file paths in input order.
func (s *Store) Paths() []string {
	return append([]string(nil), s.paths...)
}

// Dir returns the temp directory holding the staged files.
func (s *Store) Dir() string { return s.dir }

// Cleanup removes the temp directory and everything in it. Every exit path of
// an attempt calls this; only the first call does work.
func (s *Store) Cleanup() {
	s.cleanupOnce.Do(func() {
		if s.dir == "" {
			return
		}
		if err := os.RemoveAll(s.dir); err != nil {
			s.logger.Warn("Failed to remove temp asset dir.", zap.String("dir", s.dir), zap.Error(err))
			return
		}
		s.logger.Debug("Temp assets cleaned up.", zap.String("dir", s.dir))
	})
}

// ExportTo copies the staged images into relDir under the user's home
// directory and returns the absolute destination. Used by the manual upload
// fallback; the destination is fixed and documented so the user can find the
// images.
func (s *Store) ExportTo(relDir string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home dir: %w", err)
	}
	dest := filepath.Join(home, relDir)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}
	for _, src := range s.paths {
		if err := copyFile(src, filepath.Join(dest, filepath.Base(src))); err != nil {
			return "", fmt.Errorf("failed to export %s: %w", filepath.Base(src), err)
		}
	}
	s.logger.Info("Exported images for manual upload.", zap.String("dir", dest), zap.Int("count", len(s.paths)))
	return dest, nil
}

// decodeDataURI splits a "data:<mediatype>;base64,<payload>" blob into raw
// bytes and a file extension derived from the media type.
func decodeDataURI(uri string) ([]byte, string, error) {
	const scheme = "data:"
	if !strings.HasPrefix(uri, scheme) {
		return nil, "", fmt.Errorf("not a data URI")
	}
	meta, payload, ok := strings.Cut(uri[len(scheme):], ",")
	if !ok {
		return nil, "", fmt.Errorf("malformed data URI: missing payload separator")
	}
	if !strings.HasSuffix(meta, ";base64") {
		return nil, "", fmt.Errorf("unsupported data URI encoding (want base64)")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 payload: %w", err)
	}

	ext := ".png"
	switch mediaType := strings.TrimSuffix(meta, ";base64"); mediaType {
	case "image/jpeg", "image/jpg":
		ext = ".jpg"
	case "image/gif":
		ext = ".gif"
	case "image/webp":
		ext = ".webp"
	case "image/png", "":
		ext = ".png"
	}
	return data, ext, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
