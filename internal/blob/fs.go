// Package blob stores public files (order images) on local disk. Files land
// under the media root and are served by the /media route.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var ErrBadPath = errors.New("invalid blob path")

type FSStore struct {
	root    string
	baseURL string
}

// NewFSStore writes under root; publicBaseURL is the site origin the /media
// route is mounted on.
func NewFSStore(root, publicBaseURL string) *FSStore {
	return &FSStore{root: root, baseURL: strings.TrimRight(publicBaseURL, "/")}
}

func (s *FSStore) Upload(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}
	// write then rename so readers never see a half-written file
	tmp := full + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write blob: %w", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit blob: %w", err)
	}
	return nil
}

func (s *FSStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	full, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func (s *FSStore) PublicURL(key string) string {
	return s.baseURL + "/media/" + strings.TrimLeft(path.Clean("/"+key), "/")
}

func (s *FSStore) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") || strings.ContainsRune(key, 0) {
		return "", fmt.Errorf("%w: %q", ErrBadPath, key)
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
