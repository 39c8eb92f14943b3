package storage

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// outputDirForStorage defines the base directory for storing exported
// documents locally.
const outputDirForStorage = "_output"

// ContentStorer defines the interface for storing exported documents.
type ContentStorer interface {
	// Store saves the content and returns the relative path where it was
	// stored, or an error if storage failed. The extension determines the
	// file name suffix (e.g. "pdf").
	Store(userID, documentID string, contentBytes []byte, extension string) (relativeStoragePath string, err error)
}

// LocalFileStorer implements ContentStorer for the local file system.
type LocalFileStorer struct {
	basePath string
}

// NewLocalFileStorer creates a new LocalFileStorer. If basePath is
// empty, it defaults to outputDirForStorage.
func NewLocalFileStorer(basePath string) *LocalFileStorer {
	if basePath == "" {
		basePath = outputDirForStorage
	}
	return &LocalFileStorer{basePath: basePath}
}

// Store saves contentBytes under <basePath>/exports/<userID>/<documentID>.<extension>
// and returns the path relative to basePath.
func (lfs *LocalFileStorer) Store(userID, documentID string, contentBytes []byte, extension string) (string, error) {
	if userID == "" || documentID == "" {
		return "", fmt.Errorf("userID and documentID cannot be empty for storing content")
	}
	if extension == "" {
		return "", fmt.Errorf("extension cannot be empty for storing content")
	}

	relativeDir := filepath.Join("exports", userID)
	fileName := documentID + "." + extension
	relativeStoragePath := filepath.Join(relativeDir, fileName)

	fullStorageDir := filepath.Join(lfs.basePath, relativeDir)
	fullStoragePath := filepath.Join(fullStorageDir, fileName)

	if err := os.MkdirAll(fullStorageDir, os.ModePerm); err != nil {
		log.Printf("ERROR (LocalFileStorer): Failed to create storage directory '%s': %v", fullStorageDir, err)
		return "", fmt.Errorf("failed to create storage directory: %w", err)
	}

	if err := os.WriteFile(fullStoragePath, contentBytes, 0644); err != nil {
		log.Printf("ERROR (LocalFileStorer): Failed to write exported content to '%s': %v", fullStoragePath, err)
		return "", fmt.Errorf("failed to save exported content: %w", err)
	}

	log.Printf("INFO (LocalFileStorer): Saved exported content to: %s", fullStoragePath)
	return relativeStoragePath, nil
}
