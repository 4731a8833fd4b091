package cmd

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/scanner"

	"github.com/gqlc/gqlc-perl/gen"
)

// headerFlag represents a flag for setting HTTP headers
// Any repeats will not override. They will append.
//
// format: a=1,b=2
//
type headerFlag struct {
	value   *http.Header
	changed bool
}

func (*headerFlag) String() string { return "" }

func (*headerFlag) Type() string { return "map[string][]string" }

func (f *headerFlag) Set(val string) error {
	var ss []string
	n := strings.Count(val, "=")
	switch n {
	case 0:
		return fmt.Errorf("%s must be formatted as key=value", val)
	case 1:
		ss = append(ss, strings.Trim(val, `"`))
	default:
		r := csv.NewReader(strings.NewReader(val))
		var err error
		ss, err = r.Read()
		if err != nil {
			return err
		}
	}

	out := make(http.Header, len(ss))
	for _, pair := range ss {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return fmt.Errorf("%s must be formatted as key=value", pair)
		}
		out.Add(kv[0], strings.Trim(kv[1], "\""))
	}
	if !f.changed {
		*f.value = out
	} else {
		for k, v := range out {
			for _, s := range v {
				f.value.Add(k, s)
			}
		}
	}
	f.changed = true
	return nil
}

// generator is a generator selected by a *_out flag or the config file.
type generator struct {
	gen.Generator

	name   string
	opts   map[string]interface{}
	outDir string
}

// genFlag represents a Generator flag: *_out or *_opt
type genFlag struct {
	g    gen.Generator
	name string
	opts map[string]interface{}

	geners  *[]*generator
	outDirs *[]string
	fp      *fparser

	isOpt bool
}

func (genFlag) String() string { return "" }

func (genFlag) Type() string { return "string" }

func (f genFlag) Set(arg string) (err error) {
	if f.isOpt {
		f.fp.Init(strings.NewReader(arg))
		return f.fp.parse(parseArg, nil, f.opts)
	}
	outDir := new(string)

	f.fp.Init(strings.NewReader(arg))

	err = f.fp.parse(parseArg, outDir, f.opts)
	if err != nil {
		return err
	}
	if *outDir == "" {
		*outDir = "."
	}
	*outDir = filepath.Clean(*outDir)

	*f.outDirs = append(*f.outDirs, *outDir)
	*f.geners = append(*f.geners, &generator{Generator: f.g, name: f.name, opts: f.opts, outDir: *outDir})
	return
}

type stateFn func(*fparser, *string, map[string]interface{}) stateFn

type fparser struct {
	*scanner.Scanner
}

func (p *fparser) errorf(format string, args ...interface{}) { panic(fmt.Errorf(format, args...)) }

func (p *fparser) error(err error) { panic(err) }

func (p *fparser) recover(err *error) {
	e := recover()
	if e != nil {
		*err = e.(error)
	}
}

func (p *fparser) parse(root stateFn, dir *string, opts map[string]interface{}) (err error) {
	defer p.recover(&err)

	for state := root; state != nil; {
		state = state(p, dir, opts)
	}
	return
}

func parseArg(p *fparser, dir *string, opts map[string]interface{}) stateFn {
	switch t := p.Scan(); t {
	case os.PathSeparator:
		mustDir(p, dir)
		*dir += string(os.PathSeparator)
		return parseDir(p, dir)
	case '.':
		mustDir(p, dir)
		t = p.Peek()
		if t == '.' || t == '/' {
			*dir += p.TokenText()
			return parseDir(p, dir)
		}

		*dir = "."
		return nil
	case scanner.EOF:
		return nil
	}

	key := p.TokenText()

	// Dotted keys address nested options, e.g. scalars.Date
	tt := p.Scan()
	for tt == '.' {
		p.Scan()
		key += "." + p.TokenText()
		tt = p.Scan()
	}

	switch tt {
	case ':':
		fallthrough
	case ',':
		opts[key] = true
		return parseArg
	case '=':
		return parseValue(key)
	case os.PathSeparator:
		mustDir(p, dir)
		*dir = *dir + key + string(os.PathSeparator)
		return parseDir(p, dir)
	case scanner.EOF:
		if dir != nil {
			*dir = key
			return nil
		}
		if key != "" {
			opts[key] = true
		}
	}

	return nil
}

func parseValue(key string) stateFn {
	return func(p *fparser, dir *string, opts map[string]interface{}) stateFn {
		tt := p.Scan()
		valStr := p.TokenText()

		switch tt {
		case scanner.Int:
			v, err := strconv.ParseInt(valStr, 10, 64)
			if err != nil {
				p.error(err)
			}
			addValue(p, opts, key, v)
		case scanner.Float:
			v, err := strconv.ParseFloat(valStr, 64)
			if err != nil {
				p.error(err)
			}
			addValue(p, opts, key, v)
		case scanner.Ident:
			switch valStr {
			case "true", "false":
				addValue(p, opts, key, valStr == "true")
			default:
				addValue(p, opts, key, valStr)
			}
		case scanner.String, scanner.RawString:
			// Quoting keeps Perl package names, e.g. My::Client, intact.
			v, err := strconv.Unquote(valStr)
			if err != nil {
				p.error(err)
			}
			addValue(p, opts, key, v)
		default:
			p.errorf("gqlc-perl: unexpected character in generator option, %s, value: %s", key, string(tt))
		}

		if t := p.Scan(); t == ':' {
			return parseDir(p, dir)
		}
		return parseArg
	}
}

// addValue sets an option, collecting repeated keys into a slice.
func addValue[T any](p *fparser, opts map[string]interface{}, key string, v T) {
	switch old := opts[key].(type) {
	case nil:
		opts[key] = v
	case T:
		opts[key] = []T{old, v}
	case []T:
		opts[key] = append(old, v)
	default:
		p.errorf("gqlc-perl: generator option %s mixes value types", key)
	}
}

// mustDir fails parsing of *_opt flags, which have no output directory.
func mustDir(p *fparser, dir *string) {
	if dir == nil {
		p.errorf("gqlc-perl: unexpected output directory in generator options")
	}
}

func parseDir(p *fparser, dir *string) stateFn {
	mustDir(p, dir)

	for t := p.Scan(); t != scanner.EOF; {
		*dir += p.TokenText()
		t = p.Scan()
	}
	return nil
}
