package gql

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/graphql-go/graphql"
)

var builtinScalars = map[string]bool{
	"String":  true,
	"Int":     true,
	"Float":   true,
	"Boolean": true,
	"ID":      true,
}

// PrintSchema renders schema as SDL. Fields and input fields are always
// printed in name order because graphql-go keeps them in maps. With sorted
// set, types, arguments and enum values are ordered by name too; otherwise
// Query and Mutation lead and the rest follow.
func PrintSchema(schema graphql.Schema, sorted bool) string {
	typeMap := schema.TypeMap()
	names := make([]string, 0, len(typeMap))
	for name := range typeMap {
		if strings.HasPrefix(name, "__") || builtinScalars[name] {
			continue
		}
		names = append(names, name)
	}
	if sorted {
		sort.Strings(names)
	} else {
		names = declarationOrder(schema, names)
	}

	blocks := make([]string, 0, len(names))
	for _, name := range names {
		if block := printType(typeMap[name], sorted); block != "" {
			blocks = append(blocks, block)
		}
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

// declarationOrder puts the root operation types first.
func declarationOrder(schema graphql.Schema, names []string) []string {
	sort.Strings(names)
	roots := []string{}
	if q := schema.QueryType(); q != nil {
		roots = append(roots, q.Name())
	}
	if m := schema.MutationType(); m != nil {
		roots = append(roots, m.Name())
	}
	out := append([]string{}, roots...)
	for _, n := range names {
		if !slices.Contains(roots, n) {
			out = append(out, n)
		}
	}
	return out
}

func printType(t graphql.Type, sorted bool) string {
	var b strings.Builder
	switch t := t.(type) {
	case *graphql.Scalar:
		printDescription(&b, t.Description(), "")
		fmt.Fprintf(&b, "scalar %s", t.Name())
	case *graphql.Enum:
		printDescription(&b, t.Description(), "")
		values := t.Values()
		names := make([]string, 0, len(values))
		for _, v := range values {
			names = append(names, v.Name)
		}
		if sorted {
			sort.Strings(names)
		}
		fmt.Fprintf(&b, "enum %s {\n", t.Name())
		for _, n := range names {
			fmt.Fprintf(&b, "  %s\n", n)
		}
		b.WriteString("}")
	case *graphql.InputObject:
		printDescription(&b, t.Description(), "")
		fields := t.Fields()
		fmt.Fprintf(&b, "input %s {\n", t.Name())
		for _, name := range keys(fields) {
			f := fields[name]
			printDescription(&b, f.Description(), "  ")
			fmt.Fprintf(&b, "  %s: %s\n", name, f.Type.String())
		}
		b.WriteString("}")
	case *graphql.Object:
		printDescription(&b, t.Description(), "")
		fields := t.Fields()
		fmt.Fprintf(&b, "type %s {\n", t.Name())
		for _, name := range keys(fields) {
			f := fields[name]
			printDescription(&b, f.Description, "  ")
			fmt.Fprintf(&b, "  %s%s: %s\n", name, printArgs(f.Args, sorted), f.Type.String())
		}
		b.WriteString("}")
	default:
		return ""
	}
	return b.String()
}

func printArgs(args []*graphql.Argument, sorted bool) string {
	if len(args) == 0 {
		return ""
	}
	list := append([]*graphql.Argument{}, args...)
	if sorted {
		sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	}
	parts := make([]string, len(list))
	for i, a := range list {
		parts[i] = fmt.Sprintf("%s: %s", a.Name(), a.Type.String())
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func printDescription(b *strings.Builder, desc, indent string) {
	if desc == "" {
		return
	}
	fmt.Fprintf(b, "%s\"\"\"%s\"\"\"\n", indent, strings.ReplaceAll(desc, `"""`, `\"""`))
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// WriteSchemaFile writes the SDL of schema to path.
func WriteSchemaFile(path string, schema graphql.Schema, sorted bool) error {
	if err := os.WriteFile(path, []byte(PrintSchema(schema, sorted)), 0o644); err != nil {
		return fmt.Errorf("write schema file: %w", err)
	}
	return nil
}
