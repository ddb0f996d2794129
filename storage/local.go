package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

type localStorage struct {
	dirs map[Area]string
}

// NewLocalStorage размещает области в директориях на локальной файловой
// системе, создавая их при необходимости.
func NewLocalStorage(avatarDir, qrDir string) (FileStorage, error) {
	dirs := map[Area]string{
		AreaAvatars: avatarDir,
		AreaQRCodes: qrDir,
	}
	for area, dir := range dirs {
		if dir == "" {
			return nil, fmt.Errorf("storage: directory for area %q is required", area)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage: failed to create directory %s: %w", dir, err)
		}
	}
	return &localStorage{dirs: dirs}, nil
}

func (s *localStorage) Save(ctx context.Context, area Area, filename, contentType string, data []byte) error {
	path, err := s.resolve(area, filename)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("storage: failed to write %s: %w", path, err)
	}
	return nil
}

func (s *localStorage) Open(ctx context.Context, area Area, filename string) ([]byte, string, error) {
	path, err := s.resolve(area, filename)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", ErrFileNotFound
		}
		return nil, "", fmt.Errorf("storage: failed to read %s: %w", path, err)
	}
	return data, contentTypeByExt(filename), nil
}

func (s *localStorage) Delete(ctx context.Context, area Area, filename string) error {
	path, err := s.resolve(area, filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrFileNotFound
		}
		return fmt.Errorf("storage: failed to delete %s: %w", path, err)
	}
	return nil
}

// resolve отклоняет имена с разделителями пути, чтобы раздача файлов не
// позволяла выход за пределы области.
func (s *localStorage) resolve(area Area, filename string) (string, error) {
	dir, ok := s.dirs[area]
	if !ok {
		return "", fmt.Errorf("storage: unknown area %q", area)
	}
	if filename == "" || filename != filepath.Base(filename) || strings.Contains(filename, "..") {
		return "", ErrFileNotFound
	}
	return filepath.Join(dir, filename), nil
}

func contentTypeByExt(filename string) string {
	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
