// internal/errors/errors.go
package errors

import "fmt"

// ErrInvalidRepoFormat is returned when a repository identifier is not in
// 'owner/name' format.
type ErrInvalidRepoFormat struct {
	Repo string
}

func (e *ErrInvalidRepoFormat) Error() string {
	return fmt.Sprintf("invalid repository format: %q, expected 'owner/name'", e.Repo)
}

// ErrUnknownTab is returned when a content load is requested for a tab that
// is not one of readme, releases, commits or contributors.
type ErrUnknownTab struct {
	Tab string
}

func (e *ErrUnknownTab) Error() string {
	return fmt.Sprintf("unknown content tab: %q", e.Tab)
}
