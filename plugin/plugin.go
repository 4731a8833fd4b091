// Package plugin contains a Generator for running external plugins as Generators.
//
// A plugin is an executable which reads a JSON encoded Request from stdin
// and writes a JSON encoded Response to stdout.
//
package plugin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/gqlc/gqlc-perl/gen"
	"github.com/vektah/gqlparser/v2/formatter"
	"go.uber.org/zap"
)

// Request is sent to a plugin.
type Request struct {
	// FileToGenerate names the documents the plugin should generate output for.
	FileToGenerate []string `json:"fileToGenerate"`

	// Parameter holds the JSON encoded generator options.
	Parameter string `json:"parameter"`

	// Schema is the schema source in GraphQL IDL.
	Schema string `json:"schema"`

	// Documents holds every operation and fragment, if any.
	Documents string `json:"documents,omitempty"`
}

// File is a single output file.
type File struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Response is read back from a plugin.
type Response struct {
	// Error is set when the plugin failed to generate its output.
	Error string `json:"error,omitempty"`

	Files []*File `json:"files"`
}

// Generator executes an external plugin as a generator.
// The name of the plugin is given by the generators Prefix and Name fields.
//
type Generator struct {
	*exec.Cmd

	Name   string
	Prefix string

	lookOnce    sync.Once
	path        string
	lookPathErr error
}

// Generate executes a plugin given the GraphQL Document.
func (g *Generator) Generate(ctx context.Context, doc *gen.Document, opts map[string]interface{}) (err error) {
	defer func() {
		if err != nil {
			err = gen.GeneratorError{
				GenName: g.Prefix + g.Name,
				DocName: doc.Name,
				Err:     err,
			}
		}
	}()
	if ctx == nil {
		ctx = context.Background()
	}

	log := zap.L().Named(g.Name).With(zap.String("doc", doc.Name))

	// Encode options to JSON
	log.Info("marshalling options")
	params, err := json.Marshal(opts)
	if err != nil {
		return
	}

	cmd := g.Cmd
	g.Cmd = nil
	if cmd == nil {
		// Lookup plugin only once
		g.lookOnce.Do(func() {
			g.path, g.lookPathErr = exec.LookPath(g.Prefix + g.Name)
		})
		if g.lookPathErr != nil {
			return g.lookPathErr
		}
		cmd = exec.CommandContext(ctx, g.path)
	}

	log.Info("marshalling request")
	b, err := json.Marshal(newRequest(doc, string(params)))
	if err != nil {
		return
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(b)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Exec plugin
	log.Info("executing plugin", zap.String("path", cmd.Path))
	if err = cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return
	}

	log.Info("unmarshalling response")
	var resp Response
	if err = json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return
	}

	if resp.Error != "" {
		return errors.New(resp.Error)
	}

	gCtx := gen.Context(ctx)
	if gCtx == nil {
		return errors.New("missing generator context")
	}

	// Write plugin files
	for _, f := range resp.Files {
		log.Info("writing content from plugin", zap.String("file", f.Name))
		if err = writeFile(gCtx, f); err != nil {
			return
		}
	}
	return
}

func newRequest(doc *gen.Document, params string) *Request {
	req := &Request{
		FileToGenerate: []string{doc.Name},
		Parameter:      params,
	}

	var sb strings.Builder
	if doc.Source != nil {
		formatter.NewFormatter(&sb).FormatSchemaDocument(doc.Source)
		req.Schema = sb.String()
	}

	if doc.Query != nil && (len(doc.Query.Operations) > 0 || len(doc.Query.Fragments) > 0) {
		sb.Reset()
		formatter.NewFormatter(&sb).FormatQueryDocument(doc.Query)
		req.Documents = sb.String()
	}
	return req
}

func writeFile(gCtx gen.GeneratorContext, f *File) error {
	w, err := gCtx.Open(f.Name)
	if err != nil {
		return err
	}

	if _, err = w.Write([]byte(f.Content)); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
