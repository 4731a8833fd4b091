package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/scanner"

	"github.com/gqlc/gqlc-perl/gen"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/vektah/gqlparser/v2/ast"
	"go.uber.org/zap"
)

// rootCmd holds the state of a single invocation.
type rootCmd struct {
	*cobra.Command

	fs     afero.Fs
	client *http.Client
	prefix string

	gens    []genConfig
	genOpts map[string]map[string]interface{}

	selected   []*generator
	outDirs    []string
	headers    http.Header
	documents  []string
	schemas    []string
	configPath string
}

func (c *CommandLine) newRootCmd(gens []genConfig) *rootCmd {
	r := &rootCmd{
		fs:      c.fs,
		client:  c.client,
		prefix:  c.prefix,
		gens:    gens,
		genOpts: make(map[string]map[string]interface{}, len(gens)),
		headers: make(http.Header),
	}

	r.Command = &cobra.Command{
		Use:   "gqlc-perl",
		Short: "A GraphQL to Perl client generator",
		Long: `gqlc-perl generates Moose classes, operation wrappers and an HTTP client
from a GraphQL schema and a set of operation documents.

Schemas may be given as GraphQL files, JSON introspection results or
http(s) endpoints, which are introspected.

Generators are specified by using a *_out flag. The argument given to this
type of flag can be either:
	1) *_out=some/directory/to/output/file(s)/to
	2) *_out=comma=separated,key=val,generator=option,pairs=then:some/directory/to/output/file(s)/to

An additional flag, *_opt, can be used to pass options to a generator. The
argument given to this type of flag is the same format as the *_opt
key=value pairs above. Values containing colons must be quoted.`,
		Args:    cobra.ArbitraryArgs,
		Example: `gqlc-perl -I . -d 'ops/*.graphql' --perl_out 'packageName="My::Client",scalars.ID="Int|Str":lib/My' schema.graphql`,
		PreRunE: chainPreRunEs(
			initLogger,
			r.loadConfig,
			func(cmd *cobra.Command, _ []string) error { return validateFilenames(cmd, r.schemas) },
			validateDocuments(&r.documents),
			initGenDirs(r.fs, &r.outDirs),
		),
		RunE:          r.run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	r.Flags().StringSliceP("import_path", "I", []string{"."}, `Specify the directory in which to search for
schema and document files.  May be specified multiple
times; directories will be searched in order.  If not
given, the current working directory is used.`)
	r.Flags().StringSliceVarP(&r.documents, "documents", "d", nil, "Operation documents or glob patterns of them.")
	r.Flags().StringVarP(&r.configPath, "config", "c", "", "Path to a YAML config file.")
	r.Flags().VarP(&headerFlag{value: &r.headers}, "header", "H", "HTTP headers used when fetching remote schemas, formatted as key=value.")
	r.Flags().BoolP("verbose", "v", false, "Output logging")

	fp := &fparser{Scanner: new(scanner.Scanner)}
	for _, gc := range gens {
		opts := make(map[string]interface{})
		r.genOpts[gc.name] = opts

		r.Flags().Var(genFlag{
			g:       gc.g,
			name:    gc.name,
			opts:    opts,
			geners:  &r.selected,
			outDirs: &r.outDirs,
			fp:      fp,
		}, gc.name, gc.help)

		r.Flags().Var(genFlag{
			g:     gc.g,
			name:  gc.name,
			opts:  opts,
			fp:    fp,
			isOpt: true,
		}, gc.opt, "Pass additional options to "+strings.TrimSuffix(gc.name, "_out")+".")
	}

	r.SetUsageTemplate(usageTmpl)
	return r
}

type genCtx struct {
	fs  afero.Fs
	dir string
}

func (ctx *genCtx) Open(name string) (io.WriteCloser, error) {
	name = filepath.Join(ctx.dir, name)
	if err := ctx.fs.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return nil, err
	}
	return ctx.fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
}

func (r *rootCmd) run(cmd *cobra.Command, _ []string) (err error) {
	if len(r.schemas) == 0 {
		return cmd.Help()
	}

	importPaths, err := cmd.Flags().GetStringSlice("import_path")
	if err != nil {
		return
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	schema, err := r.loadSchema(ctx, importPaths)
	if err != nil {
		return
	}

	ops, err := r.loadDocuments(importPaths)
	if err != nil {
		return
	}

	doc, err := gen.NewDocument(docName(r.schemas[0]), schema, ops)
	if err != nil {
		return
	}

	if len(r.selected) == 0 {
		zap.L().Warn("no generators selected")
	}

	// Run code generators
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	for _, g := range r.selected {
		zap.L().Info("running generator", zap.String("generator", g.name), zap.String("dir", g.outDir))

		gCtx := gen.WithContext(ctx, &genCtx{fs: r.fs, dir: g.outDir})
		if err = g.Generate(gCtx, doc, g.opts); err != nil {
			return
		}
	}
	return
}

// loadSchema reads every schema argument into a GraphQL source.
func (r *rootCmd) loadSchema(ctx context.Context, importPaths []string) ([]*ast.Source, error) {
	srcs := make([]*ast.Source, 0, len(r.schemas))
	for _, name := range r.schemas {
		if isRemote(name) {
			if r.client == nil {
				r.client = newHTTPClient()
			}

			src, err := fetch(ctx, r.client, name, r.headers)
			if err != nil {
				return nil, err
			}
			srcs = append(srcs, src)
			continue
		}

		b, err := readFile(r.fs, importPaths, name)
		if err != nil {
			return nil, err
		}

		input := string(b)
		if filepath.Ext(name) == ".json" {
			zap.L().Info("converting introspection result", zap.String("file", name))
			if input, err = convertIntrospection(b); err != nil {
				return nil, fmt.Errorf("gqlc-perl: %s: %w", name, err)
			}
		}
		srcs = append(srcs, &ast.Source{Name: name, Input: input})
	}
	return srcs, nil
}

// loadDocuments reads every operation document matching the document patterns.
func (r *rootCmd) loadDocuments(importPaths []string) ([]*ast.Source, error) {
	var srcs []*ast.Source
	seen := make(map[string]bool)
	for _, pattern := range r.documents {
		matches, err := globFiles(r.fs, importPaths, pattern)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("gqlc-perl: no documents match: %s", pattern)
		}

		for _, name := range matches {
			if seen[name] {
				continue
			}
			seen[name] = true

			b, err := afero.ReadFile(r.fs, name)
			if err != nil {
				return nil, err
			}
			srcs = append(srcs, &ast.Source{Name: name, Input: string(b)})
		}
	}
	return srcs, nil
}

// globFiles matches pattern as given, then relative to each import path.
func globFiles(fs afero.Fs, importPaths []string, pattern string) ([]string, error) {
	matches, err := afero.Glob(fs, pattern)
	if err != nil || len(matches) > 0 || filepath.IsAbs(pattern) {
		return matches, err
	}

	for _, iPath := range importPaths {
		matches, err = afero.Glob(fs, filepath.Join(iPath, pattern))
		if err != nil || len(matches) > 0 {
			return matches, err
		}
	}
	return nil, nil
}

// readFile is just a helper for reading files relative to the import paths
func readFile(fs afero.Fs, importPaths []string, filename string) ([]byte, error) {
	if !filepath.IsAbs(filename) {
		for _, iPath := range importPaths {
			fname := filepath.Join(iPath, filename)
			exists, err := afero.Exists(fs, fname)
			if err != nil {
				return nil, err
			}

			if exists {
				filename = fname
				break
			}
		}
	}

	return afero.ReadFile(fs, filename)
}

// docName derives the document name from the first schema argument.
func docName(name string) string {
	if isRemote(name) {
		u, err := url.Parse(name)
		if err != nil {
			return "schema"
		}

		base := path.Base(u.Path)
		if base == "/" || base == "." {
			return u.Hostname()
		}
		return strings.TrimSuffix(base, path.Ext(base))
	}

	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
