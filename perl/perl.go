// Package perl contains a Perl generator for GraphQL schemas and operations.
//
// The generated module declares a Moose class per schema type, a sub per
// operation which builds the request payload, and an HTTP client which
// hydrates responses back into the generated classes.
//
package perl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gqlc/gqlc-perl/gen"
	"go.uber.org/zap"
)

// Generator generates Perl code for a GraphQL schema and its operations.
type Generator struct {
	sync.Mutex
	bytes.Buffer

	indent []byte
}

// Reset overrides the bytes.Buffer Reset method to assist in cleaning up some Generator state.
func (g *Generator) Reset() {
	g.Buffer.Reset()
	if g.indent == nil {
		g.indent = make([]byte, 0, 16)
	}
	g.indent = g.indent[0:0]
}

var header = "# Code generated by gqlc-perl. DO NOT EDIT."

// Generate generates a Perl module for the given document.
func (g *Generator) Generate(ctx context.Context, doc *gen.Document, opts map[string]interface{}) (err error) {
	g.Lock()
	defer func() {
		if err != nil {
			err = gen.GeneratorError{
				DocName: doc.Name,
				GenName: "perl",
				Err:     err,
			}
		}
	}()
	defer g.Unlock()
	g.Reset()

	// Get generator options
	gOpts, err := getOptions(opts)
	if err != nil {
		return
	}

	filename := gOpts.Filename
	if filename == "" {
		filename = doc.Name + Extension
	}
	if err = ValidateFilename(filename); err != nil {
		return
	}

	log := zap.L().Named("perl").With(zap.String("doc", doc.Name))
	log.Debug("generating module", zap.String("package", gOpts.PackageName), zap.String("file", filename))

	defs := doc.Definitions()
	for _, def := range defs {
		if def.Name == rolesName {
			return fmt.Errorf("perl: type name is reserved: %s", def.Name)
		}
	}

	g.P(header)
	g.generateBasicTypes(log, gOpts, sortDefinitions(defs, basicKinds))

	if err = g.generateRoles(gOpts); err != nil {
		return
	}

	r := &resolver{doc: doc, opts: gOpts}
	for _, def := range sortDefinitions(defs, fullKinds) {
		if err = g.generatePackage(r, def); err != nil {
			return
		}
	}

	if err = g.generateOperations(r); err != nil {
		return
	}

	if err = g.generateClient(doc, gOpts); err != nil {
		return
	}

	// Extract generator context
	gCtx := gen.Context(ctx)
	if gCtx == nil {
		return errors.New("missing generator context")
	}

	f, err := gCtx.Open(filename)
	if err != nil {
		return
	}
	defer f.Close()

	log.Info("writing module", zap.String("file", filename), zap.Int("bytes", g.Len()))
	_, err = g.WriteTo(f)
	return
}

// P prints the arguments to the generated output.
func (g *Generator) P(str ...interface{}) {
	if len(str) > 0 {
		g.Write(g.indent)
	}
	for _, s := range str {
		switch v := s.(type) {
		case []byte:
			g.Write(v)
		case string:
			g.WriteString(v)
		case bool:
			if v {
				g.WriteByte('1')
			} else {
				g.WriteByte('0')
			}
		case int:
			fmt.Fprint(g, v)
		}
	}
	g.WriteByte('\n')
}

// In increases the indent.
func (g *Generator) In() {
	g.indent = append(g.indent, ' ', ' ', ' ', ' ')
}

// Out decreases the indent.
func (g *Generator) Out() {
	if len(g.indent) > 0 {
		g.indent = g.indent[:len(g.indent)-4]
	}
}

// printDescr prints a description as Perl comment lines.
func (g *Generator) printDescr(descr bool, text string) {
	if !descr || text == "" {
		return
	}

	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			g.P("#")
			continue
		}
		g.P("# ", line)
	}
}

// quote escapes s for use inside a single quoted Perl string.
func quote(s string) string {
	if !strings.ContainsAny(s, `\'`) {
		return s
	}
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
