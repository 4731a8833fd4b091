// Package gen contains and utils for working with generators.
package gen

//go:generate mockgen -write_package_comment=false -package=gen -destination=./mock.go github.com/gqlc/gqlc-perl/gen Generator

import (
	"context"
	"fmt"
	"io"
)

// Generator provides a simple API for creating a code generator for
// any language desired.
//
type Generator interface {
	// Generate handles converting a GraphQL schema and its operations
	// to source code.
	Generate(ctx context.Context, doc *Document, opts map[string]interface{}) error
}

// GeneratorContext represents the directory to which
// the Generator is to write to.
//
type GeneratorContext interface {
	// Open opens a file in the GeneratorContext (i.e. directory).
	Open(filename string) (io.WriteCloser, error)
}

type genCtx string

var genCtxKey = genCtx("genCtx")

// WithContext returns a prepared context.Context
// with the given GeneratorContext.
//
func WithContext(ctx context.Context, gCtx GeneratorContext) context.Context {
	return context.WithValue(ctx, genCtxKey, gCtx)
}

// Context returns the generator context.
func Context(ctx context.Context) GeneratorContext {
	gCtx, _ := ctx.Value(genCtxKey).(GeneratorContext)
	return gCtx
}

// GeneratorError represents an error from a generator.
type GeneratorError struct {
	// DocName is the document being worked on when error was encountered.
	DocName string

	// GenName is the generator name which encountered a problem.
	GenName string

	// Err is the underlying failure.
	Err error
}

func (e GeneratorError) Error() string {
	return fmt.Sprintf("gqlc: generator error occurred in %s:%s %s", e.GenName, e.DocName, e.Err)
}

// Unwrap returns the underlying failure.
func (e GeneratorError) Unwrap() error { return e.Err }
