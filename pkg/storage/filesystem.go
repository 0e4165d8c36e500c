// Package storage persists a board as a directory of markdown files.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/natefinch/atomic"

	"github.com/felixgeelhaar/kanbn/pkg/document"
	"github.com/felixgeelhaar/kanbn/pkg/domain/board"
)

const IndexFile = "index.md"
const TasksDir = "tasks"
const TaskExt = ".md"

// FilesystemRepository stores a board under a single directory:
// index.md plus one file per task in tasks/.
type FilesystemRepository struct {
	root        string
	retryConfig retry.Config
}

var _ board.Repository = (*FilesystemRepository)(nil)

func NewFilesystemRepository(root string) *FilesystemRepository {
	return &FilesystemRepository{
		root: root,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Path returns the board directory.
func (r *FilesystemRepository) Path() string {
	return r.root
}

// IndexPath returns the location of index.md.
func (r *FilesystemRepository) IndexPath() string {
	return filepath.Join(r.root, IndexFile)
}

// TasksPath returns the task directory.
func (r *FilesystemRepository) TasksPath() string {
	return filepath.Join(r.root, TasksDir)
}

// TaskPath returns the file for id without validating it.
func (r *FilesystemRepository) TaskPath(id string) string {
	return filepath.Join(r.TasksPath(), id+TaskExt)
}

// ResolveTaskPath validates id and ensures its file is a direct child of
// the task directory.
func (r *FilesystemRepository) ResolveTaskPath(id string) (string, error) {
	if err := board.ValidateID(id); err != nil {
		return "", fmt.Errorf("%w: %q", err, id)
	}
	baseDir := filepath.Clean(r.TasksPath())
	cleanPath := filepath.Clean(r.TaskPath(id))
	if filepath.Dir(cleanPath) != baseDir {
		return "", fmt.Errorf("%w: %q", board.ErrInvalidIdentifier, id)
	}
	return cleanPath, nil
}

func (r *FilesystemRepository) IndexExists() bool {
	_, err := os.Stat(r.IndexPath())
	return err == nil
}

func (r *FilesystemRepository) LoadIndex() (*board.Index, error) {
	path := r.IndexPath()
	if !r.IndexExists() {
		return nil, fmt.Errorf("%w: no board index at %s", board.ErrNotFound, path)
	}

	retryer := retry.New[*board.Index](r.retryConfig)
	return retryer.Do(context.Background(), func(ctx context.Context) (*board.Index, error) {
		// #nosec G304 -- Path is the board index under the configured root
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read board index: %w", err)
		}
		return board.IndexFromDocument(document.Decode(string(data))), nil
	})
}

func (r *FilesystemRepository) SaveIndex(idx *board.Index) error {
	// G301: Use 0750 for directories
	if err := os.MkdirAll(r.TasksPath(), 0750); err != nil {
		return fmt.Errorf("failed to create board directory: %w", err)
	}
	data, err := idx.ToDocument().Encode()
	if err != nil {
		return fmt.Errorf("failed to encode board index: %w", err)
	}
	if err := atomic.WriteFile(r.IndexPath(), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write board index: %w", err)
	}
	return nil
}

func (r *FilesystemRepository) TaskExists(id string) bool {
	path, err := r.ResolveTaskPath(id)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (r *FilesystemRepository) LoadTask(id string) (*board.Task, error) {
	path, err := r.ResolveTaskPath(id)
	if err != nil {
		return nil, err
	}
	if !r.TaskExists(id) {
		return nil, fmt.Errorf("%w: task %q", board.ErrNotFound, id)
	}

	retryer := retry.New[*board.Task](r.retryConfig)
	return retryer.Do(context.Background(), func(ctx context.Context) (*board.Task, error) {
		// #nosec G304 -- Path is resolved and validated via ResolveTaskPath
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read task %q: %w", id, err)
		}
		doc := document.Decode(string(data), document.WithSections(board.TaskSections...))
		return board.TaskFromDocument(id, doc), nil
	})
}

func (r *FilesystemRepository) SaveTask(t *board.Task) error {
	path, err := r.ResolveTaskPath(t.ID)
	if err != nil {
		return err
	}
	// G301: Use 0750 for directories
	if err := os.MkdirAll(r.TasksPath(), 0750); err != nil {
		return fmt.Errorf("failed to create task directory: %w", err)
	}
	data, err := t.ToDocument().Encode()
	if err != nil {
		return fmt.Errorf("failed to encode task %q: %w", t.ID, err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write task %q: %w", t.ID, err)
	}
	return nil
}

func (r *FilesystemRepository) CreateTask(t *board.Task) error {
	if r.TaskExists(t.ID) {
		return fmt.Errorf("%w: task %q", board.ErrAlreadyExists, t.ID)
	}
	return r.SaveTask(t)
}

func (r *FilesystemRepository) RenameTask(oldID, newID string) error {
	from, err := r.ResolveTaskPath(oldID)
	if err != nil {
		return err
	}
	to, err := r.ResolveTaskPath(newID)
	if err != nil {
		return err
	}
	if !r.TaskExists(oldID) {
		return fmt.Errorf("%w: task %q", board.ErrNotFound, oldID)
	}
	if r.TaskExists(newID) {
		return fmt.Errorf("%w: task %q", board.ErrAlreadyExists, newID)
	}
	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("failed to rename task %q to %q: %w", oldID, newID, err)
	}
	return nil
}

func (r *FilesystemRepository) DeleteTask(id string) (bool, error) {
	path, err := r.ResolveTaskPath(id)
	if err != nil {
		return false, err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete task %q: %w", id, err)
	}
	return true, nil
}

func (r *FilesystemRepository) ListTaskIDs() ([]string, error) {
	entries, err := os.ReadDir(r.TasksPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), TaskExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), TaskExt))
	}
	sort.Strings(ids)
	return ids, nil
}
