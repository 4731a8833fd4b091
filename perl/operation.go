package perl

import (
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
)

// reservedSubs may not be used as operation names since the operations
// package defines or inherits them. Phase blocks are run by perl itself
// and never installed as methods.
var reservedSubs = map[string]bool{
	"new":      true,
	"import":   true,
	"unimport": true,
	"can":      true,
	"isa":      true,
	"DOES":     true,
	"VERSION":  true,
	"DESTROY":  true,
	"AUTOLOAD": true,

	"BEGIN":     true,
	"END":       true,
	"INIT":      true,
	"CHECK":     true,
	"UNITCHECK": true,
}

// variable is a resolved operation variable.
type variable struct {
	name     string
	typ      string
	isList   bool
	required bool
}

func (v variable) String() string {
	var b strings.Builder
	b.WriteString(v.name)
	b.WriteString(" (")
	b.WriteString(v.typ)
	if v.required {
		b.WriteString(", required")
	}
	if v.isList {
		b.WriteString(", list")
	}
	b.WriteByte(')')
	return b.String()
}

func operationVariables(op *ast.OperationDefinition) ([]variable, error) {
	vars := make([]variable, len(op.VariableDefinitions))
	for i, v := range op.VariableDefinitions {
		if v.Variable == "self" {
			return nil, fmt.Errorf("perl: operation %s: variable name $self is reserved", op.Name)
		}

		name, isList := unwrapType(v.Type)
		vars[i] = variable{
			name:     v.Variable,
			typ:      name,
			isList:   isList,
			required: v.Type.NonNull,
		}
	}
	return vars, nil
}

// generateOperations generates the operations package, which holds a sub
// per operation returning the request payload for it.
func (g *Generator) generateOperations(r *resolver) error {
	pkg := r.opts.PackageName + "::Operations"
	roles := r.opts.typesNamespace() + "::" + rolesName

	g.P()
	g.P("package ", pkg, ";")
	g.P()
	g.P("use strict;")
	g.P("use warnings;")
	g.P("use Carp qw(croak);")
	g.P()
	g.P("sub new {")
	g.In()
	g.P("my ($class) = @_;")
	g.P("return bless {}, $class;")
	g.Out()
	g.P("}")

	seen := make(map[string]bool, len(r.doc.Query.Operations))
	for _, op := range r.doc.Query.Operations {
		switch {
		case op.Name == "":
			return fmt.Errorf("perl: anonymous %s operations are not supported", op.Operation)
		case seen[op.Name]:
			return fmt.Errorf("perl: duplicate operation name: %s", op.Name)
		case reservedSubs[op.Name]:
			return fmt.Errorf("perl: operation name is reserved: %s", op.Name)
		}
		seen[op.Name] = true

		vars, err := operationVariables(op)
		if err != nil {
			return err
		}

		g.generateOperation(op, vars, printOperation(r.doc.Query, op), roles)
	}

	g.P()
	g.P("1;")
	return nil
}

func (g *Generator) generateOperation(op *ast.OperationDefinition, vars []variable, query, roles string) {
	params := make([]string, len(vars)+1)
	params[0] = "$self"
	for i, v := range vars {
		params[i+1] = "$" + v.name
	}

	g.P()
	if len(vars) == 0 {
		g.P("# Arguments: none")
	} else {
		descrs := make([]string, len(vars))
		for i, v := range vars {
			descrs[i] = v.String()
		}
		g.P("# Arguments: ", strings.Join(descrs, ", "))
	}
	g.P("sub ", op.Name, " {")
	g.In()
	g.P("my (", strings.Join(params, ", "), ") = @_;")
	for _, v := range vars {
		if v.required {
			g.P("croak \"Property '", v.name, "' is required\" unless defined $", v.name, ";")
		}
	}
	g.P()
	g.P("return {")
	g.In()

	// The query text is written without indentation so it reaches the
	// server as printed.
	g.P("query => qq[")
	g.WriteString(escapeQuery(query))
	g.P("],")

	g.P("operationName => '", op.Name, "',")
	if len(vars) == 0 {
		g.P("variables => {},")
	} else {
		g.P("variables => {")
		g.In()
		for _, v := range vars {
			g.P(v.name, " => ", roles, "::to_plain($", v.name, "),")
		}
		g.Out()
		g.P("},")
	}
	g.Out()
	g.P("};")
	g.Out()
	g.P("}")
}

// printOperation prints op followed by every fragment it transitively
// spreads, in the order they are first spread.
func printOperation(doc *ast.QueryDocument, op *ast.OperationDefinition) string {
	qd := &ast.QueryDocument{
		Operations: ast.OperationList{op},
		Fragments:  collectFragments(doc, op.SelectionSet),
	}

	var sb strings.Builder
	formatter.NewFormatter(&sb).FormatQueryDocument(qd)

	query := sb.String()
	if !strings.HasSuffix(query, "\n") {
		query += "\n"
	}
	return query
}

func collectFragments(doc *ast.QueryDocument, set ast.SelectionSet) ast.FragmentDefinitionList {
	var frags ast.FragmentDefinitionList
	seen := make(map[string]bool)

	var walk func(ast.SelectionSet)
	walk = func(set ast.SelectionSet) {
		for _, sel := range set {
			switch s := sel.(type) {
			case *ast.Field:
				walk(s.SelectionSet)
			case *ast.InlineFragment:
				walk(s.SelectionSet)
			case *ast.FragmentSpread:
				if seen[s.Name] {
					continue
				}
				seen[s.Name] = true

				frag := doc.Fragments.ForName(s.Name)
				if frag == nil {
					continue
				}
				frags = append(frags, frag)
				walk(frag.SelectionSet)
			}
		}
	}
	walk(set)

	return frags
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`$`, `\$`,
	`@`, `\@`,
	`[`, `\[`,
	`]`, `\]`,
)

// escapeQuery escapes GraphQL text for a Perl qq[] literal.
func escapeQuery(s string) string { return queryEscaper.Replace(s) }
