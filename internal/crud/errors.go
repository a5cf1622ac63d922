package crud

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/eugenenazirov/realestate-crm/internal/store"
)

// NotFoundError reports a lookup by id that matched nothing.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	where, _ := json.Marshal(struct {
		ID string `json:"id"`
	}{e.ID})
	return fmt.Sprintf("No resource was found for %s", where)
}

// Is lets errors.Is(err, store.ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == store.ErrNotFound
}

// ValidationError wraps rejected input.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	var fields validator.ValidationErrors
	if errors.As(e.Err, &fields) && len(fields) > 0 {
		f := fields[0]
		return fmt.Sprintf("invalid %s: failed %q validation", f.Field(), f.Tag())
	}
	return fmt.Sprintf("invalid input: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
