package board

// Repository persists a board directory: its index and task files.
type Repository interface {
	// Path returns the board directory.
	Path() string

	IndexExists() bool
	LoadIndex() (*Index, error)
	SaveIndex(idx *Index) error

	TaskExists(id string) bool
	LoadTask(id string) (*Task, error)
	SaveTask(t *Task) error
	// CreateTask writes a new task file and fails if it exists.
	CreateTask(t *Task) error
	// RenameTask moves a task file and fails if the target exists.
	RenameTask(oldID, newID string) error
	// DeleteTask removes a task file and reports whether it existed.
	DeleteTask(id string) (bool, error)
	// TaskPath returns the file a task is stored in.
	TaskPath(id string) string
	// ListTaskIDs returns the identifiers of every task file, sorted.
	ListTaskIDs() ([]string, error)
}
