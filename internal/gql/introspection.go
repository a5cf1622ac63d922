package gql

import (
	"errors"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
)

// ErrIntrospectionDisabled is returned for __schema or __type selections
// when introspection is turned off.
var ErrIntrospectionDisabled = errors.New("GraphQL introspection is not allowed, but the query contained __schema or __type")

// checkIntrospection rejects queries that select __schema or __type.
// Unparseable queries pass through so execution reports the syntax error.
func checkIntrospection(query string) error {
	doc, err := parser.Parse(parser.ParseParams{Source: query})
	if err != nil {
		return nil
	}
	for _, def := range doc.Definitions {
		var set *ast.SelectionSet
		switch d := def.(type) {
		case *ast.OperationDefinition:
			set = d.SelectionSet
		case *ast.FragmentDefinition:
			set = d.SelectionSet
		}
		if selectsIntrospection(set) {
			return ErrIntrospectionDisabled
		}
	}
	return nil
}

func selectsIntrospection(set *ast.SelectionSet) bool {
	if set == nil {
		return false
	}
	for _, sel := range set.Selections {
		switch s := sel.(type) {
		case *ast.Field:
			if s.Name != nil && (s.Name.Value == "__schema" || s.Name.Value == "__type") {
				return true
			}
			if selectsIntrospection(s.SelectionSet) {
				return true
			}
		case *ast.InlineFragment:
			if selectsIntrospection(s.SelectionSet) {
				return true
			}
		}
	}
	return false
}
