package plugin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gqlc/gqlc-perl/gen"
	"github.com/vektah/gqlparser/v2/ast"
)

func helperCommand(t *testing.T, s ...string) (cmd *exec.Cmd) {
	cs := []string{"-test.run=TestHelperProcess", "--"}
	cs = append(cs, s...)
	cmd = exec.Command(os.Args[0], cs...)
	cmd.Env = []string{"GO_WANT_HELPER_PROCESS=1"}
	return cmd
}

const (
	testGql = `scalar Test

type Query {
	test: Test
}`
	testOps = `query GetTest {
	test
}`
	outDoc = `Doc received: test, Opts: {"hello":"world!"}`
)

var (
	testDoc *gen.Document
)

func TestMain(m *testing.M) {
	var err error
	testDoc, err = gen.NewDocument(
		"test",
		[]*ast.Source{{Name: "test.graphql", Input: testGql}},
		[]*ast.Source{{Name: "ops.graphql", Input: testOps}},
	)
	if err != nil {
		panic(err)
	}

	os.Exit(m.Run())
}

func TestGenerator_Generate(t *testing.T) {
	// Get helper cmd
	cmd := helperCommand(t, "generate")

	// Create generate and run generate
	var b bytes.Buffer
	g := &Generator{
		Name: "test",
		Cmd:  cmd,
	}
	ctx := gen.WithContext(context.Background(), gen.TestCtx{Writer: &b})
	err := g.Generate(ctx, testDoc, map[string]interface{}{"hello": "world!"})
	if err != nil {
		t.Error(err)
		return
	}

	if b.String() != outDoc {
		t.Errorf("unexpected plugin output: %s", b.String())
		return
	}

	if g.Cmd != nil {
		t.Error("expected command to be reset after running")
	}
}

func TestNewRequest(t *testing.T) {
	req := newRequest(testDoc, `{"a":1}`)

	if len(req.FileToGenerate) != 1 || req.FileToGenerate[0] != "test" {
		t.Errorf("unexpected files to generate: %v", req.FileToGenerate)
	}
	if req.Parameter != `{"a":1}` {
		t.Errorf("unexpected parameter: %s", req.Parameter)
	}
	if !strings.Contains(req.Schema, "scalar Test") || !strings.Contains(req.Schema, "type Query") {
		t.Errorf("unexpected schema:\n%s", req.Schema)
	}
	if !strings.Contains(req.Documents, "query GetTest") {
		t.Errorf("unexpected documents:\n%s", req.Documents)
	}

	noOps, err := gen.NewDocument("test", []*ast.Source{{Name: "test.graphql", Input: testGql}}, nil)
	if err != nil {
		t.Error(err)
		return
	}
	if req = newRequest(noOps, "null"); req.Documents != "" {
		t.Errorf("expected no documents but got:\n%s", req.Documents)
	}
}

func TestUnknownPlugin(t *testing.T) {
	g := &Generator{Name: "nonexistent", Prefix: "gqlc-gen-"}

	err1 := g.Generate(context.Background(), &gen.Document{Name: "Test"}, nil)
	if err1 == nil {
		t.Fail()
		return
	}

	err2 := g.Generate(context.Background(), &gen.Document{Name: "Test"}, nil)
	if err2 == nil {
		t.Fail()
		return
	}

	var ce1, ce2 gen.GeneratorError
	if !errors.As(err1, &ce1) || !errors.As(err2, &ce2) {
		t.Fatal("unexpected err type")
		return
	}

	if ce1.Err.Error() != ce2.Err.Error() || ce1.GenName != "gqlc-gen-nonexistent" {
		t.Fail()
	}
}

func TestMalformedResponse(t *testing.T) {
	// Get helper cmd
	cmd := helperCommand(t, "malformed")

	// Create generate and run generate
	var b bytes.Buffer
	g := &Generator{
		Name: "test",
		Cmd:  cmd,
	}
	ctx := gen.WithContext(context.Background(), gen.TestCtx{Writer: &b})
	err := g.Generate(ctx, testDoc, nil)
	if err == nil {
		t.Error("expected error")
		return
	}

	var cerr gen.GeneratorError
	if !errors.As(err, &cerr) {
		t.Fatal("unexpected err type")
		return
	}

	if b.Len() != 0 {
		t.Error("expected no output to be written")
	}
}

func TestResponseError(t *testing.T) {
	// Get helper cmd
	cmd := helperCommand(t, "error")

	// Create generate and run generate
	var b bytes.Buffer
	g := &Generator{
		Name: "test",
		Cmd:  cmd,
	}
	ctx := gen.WithContext(context.Background(), gen.TestCtx{Writer: &b})
	err := g.Generate(ctx, testDoc, nil)
	if err == nil {
		t.Error("expected error")
		return
	}

	var cerr gen.GeneratorError
	if !errors.As(err, &cerr) {
		t.Fatal("unexpected err type")
		return
	}

	if cerr.Err.Error() != "testing error response" {
		t.Fail()
	}
}

func TestPluginFailure(t *testing.T) {
	// Get helper cmd
	cmd := helperCommand(t, "fail")

	g := &Generator{
		Name: "test",
		Cmd:  cmd,
	}
	ctx := gen.WithContext(context.Background(), gen.TestCtx{Writer: io.Discard})
	err := g.Generate(ctx, testDoc, nil)
	if err == nil {
		t.Error("expected error")
		return
	}

	if !strings.Contains(err.Error(), "plugin crashed") {
		t.Errorf("expected stderr in error: %s", err)
	}
}

type testCtx struct {
	opener func(filename string) (io.WriteCloser, error)
	w      io.WriteCloser
}

func (ctx *testCtx) Open(filename string) (io.WriteCloser, error) {
	if ctx.opener != nil {
		return ctx.opener(filename)
	}
	return ctx.w, nil
}

type testErrWriter struct {
	err error
}

func (wc *testErrWriter) Write(b []byte) (int, error) { return 0, wc.err }
func (wc *testErrWriter) Close() error                { return wc.err }

func TestContextErrors(t *testing.T) {
	t.Run("ErrOnCtxOpen", func(subT *testing.T) {
		// Get helper cmd
		cmd := helperCommand(subT, "generate")

		// Create generate and run generate
		g := &Generator{
			Name: "test",
			Cmd:  cmd,
		}
		ctx := gen.WithContext(context.Background(), &testCtx{opener: func(string) (io.WriteCloser, error) { return nil, fmt.Errorf("test error") }})
		err := g.Generate(ctx, testDoc, map[string]interface{}{"hello": "world!"})
		if err == nil {
			subT.Errorf("expected error")
			return
		}

		if err.Error() != "gqlc: generator error occurred in test:test test error" {
			subT.Error(err)
			return
		}
	})

	t.Run("ErrOnCtxWrite", func(subT *testing.T) {
		// Get helper cmd
		cmd := helperCommand(subT, "generate")

		// Create generate and run generate
		g := &Generator{
			Name: "test",
			Cmd:  cmd,
		}
		ctx := gen.WithContext(context.Background(), &testCtx{w: &testErrWriter{err: io.EOF}})
		err := g.Generate(ctx, testDoc, map[string]interface{}{"hello": "world!"})
		if err == nil {
			subT.Errorf("expected error")
			return
		}

		if err.Error() != "gqlc: generator error occurred in test:test EOF" {
			subT.Error(err)
			return
		}
	})

	t.Run("MissingCtx", func(subT *testing.T) {
		cmd := helperCommand(subT, "generate")

		g := &Generator{
			Name: "test",
			Cmd:  cmd,
		}
		err := g.Generate(context.Background(), testDoc, nil)
		if err == nil {
			subT.Errorf("expected error")
		}
	})
}

// TestHelperProcess isn't a real test. It's used as a helper process
// for the plugin tests.
//
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	args := os.Args
	for len(args) > 0 {
		if args[0] == "--" {
			args = args[1:]
			break
		}
		args = args[1:]
	}
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "No command\n")
		os.Exit(2)
	}

	cmd := args[0]
	if cmd == "fail" {
		fmt.Fprintln(os.Stderr, "plugin crashed")
		os.Exit(3)
	}

	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintln(os.Stdout, err)
		os.Exit(0)
	}

	var req Request
	if err = json.Unmarshal(b, &req); err != nil {
		fmt.Fprintln(os.Stdout, err)
		os.Exit(0)
	}

	if len(req.FileToGenerate) != 1 {
		fmt.Fprintln(os.Stdout, "expected one file")
		os.Exit(0)
	}

	var resp *Response
	switch cmd {
	case "generate":
		resp = &Response{
			Files: []*File{
				{
					Name:    "test.txt",
					Content: fmt.Sprintf("Doc received: %s, Opts: %s", req.FileToGenerate[0], req.Parameter),
				},
			},
		}
	case "malformed":
		fmt.Println()
		os.Exit(0)
	case "error":
		resp = &Response{Error: "testing error response"}
	}

	b, err = json.Marshal(resp)
	if err != nil {
		fmt.Fprintln(os.Stdout, err)
		os.Exit(0)
	}

	if _, err = os.Stdout.Write(b); err != nil {
		fmt.Fprintln(os.Stdout, err)
		os.Exit(0)
	}
}
