package usecase

import (
	"fmt"

	crerr "github.com/cockroachdb/errors"
)

var (
	ErrInvalidInput          = crerr.New("invalid input")
	ErrNotFound              = crerr.New("resource not found")
	ErrDependencyUnavailable = crerr.New("dependency unavailable")
	ErrTransientFetch        = crerr.New("transient fetch failure")
	ErrPermanentFetch        = crerr.New("permanent fetch failure")
	ErrPersistence           = crerr.New("persistence failure")
)

// persistenceErr marks a store error so the task sink can classify it.
func persistenceErr(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return crerr.Mark(crerr.Wrapf(err, format, args...), ErrPersistence)
}

// IsTransient reports whether err is worth retrying on a later tick.
func IsTransient(err error) bool {
	return crerr.Is(err, ErrTransientFetch) || crerr.Is(err, ErrPersistence) || crerr.Is(err, ErrDependencyUnavailable)
}

// FetchFailure is a page fetch that did not succeed after retries.
type FetchFailure struct {
	Page       string
	URL        string
	Outcome    FetchOutcome
	Attempts   int
	StatusCode int
	Err        error
}

func (e *FetchFailure) Error() string {
	return fmt.Sprintf("fetch %s page (%s after %d attempts): %v", e.Page, e.Outcome, e.Attempts, e.Err)
}

func (e *FetchFailure) Unwrap() error {
	return e.Err
}

func fetchFailure(page, url string, res FetchResult) error {
	err := res.Err
	if err == nil {
		err = ErrTransientFetch
	}
	return &FetchFailure{
		Page:       page,
		URL:        url,
		Outcome:    res.Outcome,
		Attempts:   res.Attempts,
		StatusCode: res.StatusCode,
		Err:        err,
	}
}
