package gen

import (
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"
)

// Document is what a Generator works on: a validated schema, the schema
// declarations in the order they were written and every operation
// written against it.
//
type Document struct {
	// Name is used to derive output file names.
	Name string

	// Schema is the merged and validated schema, including built-ins.
	Schema *ast.Schema

	// Source holds the parsed schema declarations in source order.
	Source *ast.SchemaDocument

	// Query holds all operations and fragments of every operation
	// document, concatenated in the order the documents were given.
	Query *ast.QueryDocument
}

// NewDocument parses and validates the schema sources and then the
// operation sources against the resulting schema. Operation sources are
// validated as one document so fragments may be shared between files.
//
func NewDocument(name string, schema []*ast.Source, operations []*ast.Source) (*Document, error) {
	sdoc, perr := parser.ParseSchemas(schema...)
	if perr != nil {
		return nil, perr
	}

	s, lerr := gqlparser.LoadSchema(schema...)
	if lerr != nil {
		return nil, lerr
	}

	doc := &Document{
		Name:   name,
		Schema: s,
		Source: sdoc,
		Query:  new(ast.QueryDocument),
	}
	if len(operations) == 0 {
		return doc, nil
	}

	for _, src := range operations {
		q, qerr := parser.ParseQuery(src)
		if qerr != nil {
			return nil, qerr
		}

		doc.Query.Operations = append(doc.Query.Operations, q.Operations...)
		doc.Query.Fragments = append(doc.Query.Fragments, q.Fragments...)
	}

	if errs := validator.Validate(s, doc.Query); len(errs) > 0 {
		return nil, errs
	}
	return doc, nil
}

// Definitions returns the user declared type definitions in the order they
// were declared. Each entry is the merged schema definition, so fields and
// interfaces added by extensions are included.
//
func (d *Document) Definitions() []*ast.Definition {
	defs := make([]*ast.Definition, 0, len(d.Source.Definitions))
	seen := make(map[string]bool, len(d.Source.Definitions))
	for _, sd := range d.Source.Definitions {
		if seen[sd.Name] {
			continue
		}
		seen[sd.Name] = true

		def, ok := d.Schema.Types[sd.Name]
		if !ok || def.BuiltIn {
			continue
		}
		defs = append(defs, def)
	}
	return defs
}

// IsDeclared reports whether the schema declares a type with the given name.
func (d *Document) IsDeclared(name string) bool {
	_, ok := d.Schema.Types[name]
	return ok
}
