package dataset

import "fmt"

// DatasetNotFoundError is returned when a dataset ID is not known to a source.
type DatasetNotFoundError struct {
	ID string
}

func (e *DatasetNotFoundError) Error() string {
	return fmt.Sprintf("dataset %q not found", e.ID)
}

// LoadError is returned when a known dataset cannot be read or parsed.
type LoadError struct {
	ID   string
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load dataset %q: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("load dataset %q from %s: %v", e.ID, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
