package gql

import (
	"errors"

	"github.com/graphql-go/graphql/gqlerrors"

	"github.com/eugenenazirov/realestate-crm/internal/crud"
	"github.com/eugenenazirov/realestate-crm/internal/store"
)

// Error codes reported in the "extensions.code" member of GraphQL errors.
const (
	CodeNotFound      = "NOT_FOUND"
	CodeBadUserInput  = "BAD_USER_INPUT"
	CodeInternalError = "INTERNAL_SERVER_ERROR"
)

type codedError struct {
	err  error
	code string
}

var _ gqlerrors.ExtendedError = codedError{}

func (e codedError) Error() string { return e.err.Error() }
func (e codedError) Unwrap() error { return e.err }

func (e codedError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.code}
}

// classify attaches an error code understood by GraphQL clients.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var verr *crud.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return codedError{err: err, code: CodeNotFound}
	case errors.As(err, &verr), errors.Is(err, store.ErrInvalidQuery):
		return codedError{err: err, code: CodeBadUserInput}
	default:
		return codedError{err: err, code: CodeInternalError}
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

var (
	errBadBody      = errors.New("POST body must be a JSON object with a query field")
	errBadVariables = errors.New("variables must be a JSON object")
)
