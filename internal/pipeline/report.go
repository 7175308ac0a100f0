package pipeline

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Kind classifies a per-module problem.
type Kind int

const (
	// KindSkipped means the module was left out of the index.
	KindSkipped Kind = iota
	// KindInspectionFailed means the module was kept without versions.
	KindInspectionFailed
)

func (k Kind) String() string {
	switch k {
	case KindSkipped:
		return "skipped"
	case KindInspectionFailed:
		return "inspection failed"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ModuleError is a problem with one module.
type ModuleError struct {
	ID   string
	Kind Kind
	Err  error
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.ID, e.Kind, e.Err)
}

func (e *ModuleError) Unwrap() error {
	return e.Err
}

// Report lists the per-module problems of a run, ordered by module id.
type Report struct {
	mu     sync.Mutex
	Errors []ModuleError
}

func (r *Report) add(id string, kind Kind, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, ModuleError{ID: id, Kind: kind, Err: err})
}

func (r *Report) sort() {
	slices.SortStableFunc(r.Errors, func(a, b ModuleError) int {
		return cmp.Compare(a.ID, b.ID)
	})
}

// Count returns the number of problems of kind k.
func (r *Report) Count(k Kind) int {
	n := 0
	for _, e := range r.Errors {
		if e.Kind == k {
			n++
		}
	}
	return n
}

// Err aggregates every problem into one error, or returns nil.
func (r *Report) Err() error {
	var result *multierror.Error
	for i := range r.Errors {
		result = multierror.Append(result, &r.Errors[i])
	}
	return result.ErrorOrNil()
}
