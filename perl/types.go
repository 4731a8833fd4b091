// types.go contains the options this generator supports

package perl

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
)

// Options contains the options for the Perl generator.
type Options struct {
	// PackageName is the root Perl namespace of the generated code. (default: Types)
	PackageName string `json:"packageName"`

	// Scalars maps GraphQL scalar names to Moose type constraints or classes.
	// Entries are merged over the builtin scalar mapping.
	Scalars map[string]string `json:"scalars"`

	// AllowUnresolved falls back to namespacing field types which are
	// neither mapped scalars nor declared by the schema.
	AllowUnresolved bool `json:"allowUnresolved"`

	// Copy descriptions to Perl comments
	Descriptions bool `json:"descriptions"`

	// Filename overrides the output file name. (default: <document>.pm)
	Filename string `json:"filename"`
}

const defaultPackageName = "Types"

// builtinScalars maps the GraphQL builtin scalars to Moose type constraints.
var builtinScalars = map[string]string{
	"ID":      "Str",
	"String":  "Str",
	"Int":     "Int",
	"Float":   "Num",
	"Boolean": "Bool",
}

// typesNamespace returns the namespace all schema types are declared in.
func (o *Options) typesNamespace() string { return o.PackageName + "::Types" }

// getOptions returns a generator options struct given the option map from
// the CLI or config file. Dotted keys, e.g. "scalars.Date", are folded into
// nested maps.
//
func getOptions(opts map[string]interface{}) (*Options, error) {
	gOpts := &Options{
		PackageName: defaultPackageName,
		Scalars:     make(map[string]string, len(builtinScalars)),
	}
	for k, v := range builtinScalars {
		gOpts.Scalars[k] = v
	}

	if len(opts) == 0 {
		return gOpts, nil
	}

	b, err := json.Marshal(foldKeys(opts))
	if err != nil {
		return nil, err
	}

	var custom Options
	if err = json.Unmarshal(b, &custom); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	if custom.PackageName != "" {
		gOpts.PackageName = strings.TrimSuffix(custom.PackageName, "::")
	}
	for k, v := range custom.Scalars {
		gOpts.Scalars[k] = v
	}
	gOpts.AllowUnresolved = custom.AllowUnresolved
	gOpts.Descriptions = custom.Descriptions
	gOpts.Filename = custom.Filename

	return gOpts, nil
}

// foldKeys turns {"a.b": 1} into {"a": {"b": 1}}.
func foldKeys(opts map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(opts))
	for k, v := range opts {
		if strings.Contains(k, ".") {
			continue
		}

		if m, ok := v.(map[string]interface{}); ok {
			cp := make(map[string]interface{}, len(m))
			for mk, mv := range m {
				cp[mk] = mv
			}
			v = cp
		}
		out[k] = v
	}

	for k, v := range opts {
		if !strings.Contains(k, ".") {
			continue
		}
		parts := strings.Split(k, ".")

		m := out
		for _, p := range parts[:len(parts)-1] {
			next, ok := m[p].(map[string]interface{})
			if !ok {
				next = make(map[string]interface{})
				m[p] = next
			}
			m = next
		}
		m[parts[len(parts)-1]] = v
	}
	return out
}

// Extension is the file extension of generated Perl modules.
const Extension = ".pm"

// ValidateFilename reports whether name may be used as an output file.
func ValidateFilename(name string) error {
	if filepath.Ext(name) != Extension {
		return fmt.Errorf("perl: output file must have extension %q: %s", Extension, name)
	}
	return nil
}
