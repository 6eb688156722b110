package worker

import "fmt"

// Job-processing error taxonomy. Each type records which stage failed and
// whether a retry could plausibly succeed. FetchError, EmbeddingError and
// StoreError are transient (network, quota, connectivity); ExtractionError
// and EmptyContentError are permanent, since re-running the same bytes
// through the same parser will not produce a different answer.

type FetchError struct {
	Ref string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.Ref, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

type ExtractionError struct {
	Ref string
	Err error
}

func (e *ExtractionError) Error() string   { return fmt.Sprintf("extract %s: %v", e.Ref, e.Err) }
func (e *ExtractionError) Unwrap() error   { return e.Err }
func (e *ExtractionError) Permanent() bool { return true }

type EmbeddingError struct {
	Ref string
	Err error
}

func (e *EmbeddingError) Error() string { return fmt.Sprintf("embed %s: %v", e.Ref, e.Err) }
func (e *EmbeddingError) Unwrap() error { return e.Err }

type StoreError struct {
	Ref string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store %s: %v", e.Ref, e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

type EmptyContentError struct {
	Ref string
}

func (e *EmptyContentError) Error() string {
	return fmt.Sprintf("document %s has no extractable text", e.Ref)
}
func (e *EmptyContentError) Permanent() bool { return true }
