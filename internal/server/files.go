package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"octopanel/internal/domain"
)

var ErrOutsideRoot = errors.New("access denied: path outside server directory")

func (m *Manager) sanitizePath(serverID, requestPath string) (string, error) {
	srv, err := m.GetServer(serverID)
	if err != nil {
		return "", err
	}

	serverRoot := filepath.Join(m.ServersPath, srv.ID)

	clean := filepath.Clean("/" + strings.ReplaceAll(requestPath, "\\", "/"))
	fullPath := filepath.Join(serverRoot, clean)

	if fullPath != serverRoot && !strings.HasPrefix(fullPath, serverRoot+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}

	return fullPath, nil
}

// ListFiles lists one directory of a server, directories first.
func (m *Manager) ListFiles(serverID, requestPath string) ([]domain.FileEntry, error) {
	if requestPath == "" {
		requestPath = "/"
	}
	fullPath, err := m.sanitizePath(serverID, requestPath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory")
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, err
	}

	files := make([]domain.FileEntry, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}

		relPath := filepath.ToSlash(filepath.Join(requestPath, entry.Name()))
		if !strings.HasPrefix(relPath, "/") {
			relPath = "/" + relPath
		}

		files = append(files, domain.FileEntry{
			Name:         entry.Name(),
			Path:         relPath,
			IsDirectory:  entry.IsDir(),
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].IsDirectory != files[j].IsDirectory {
			return files[i].IsDirectory
		}
		return strings.ToLower(files[i].Name) < strings.ToLower(files[j].Name)
	})

	return files, nil
}
