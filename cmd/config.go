// config.go loads the YAML configuration file

package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gqlc/gqlc-perl/gen"
	"github.com/gqlc/gqlc-perl/plugin"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// stringList accepts either a single string or a list of strings.
type stringList []string

func (l *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*l = stringList{value.Value}
		return nil
	case yaml.SequenceNode:
		var ss []string
		if err := value.Decode(&ss); err != nil {
			return err
		}
		*l = ss
		return nil
	}
	return fmt.Errorf("line %d: expected a string or a list of strings", value.Line)
}

// outputConfig configures the generators writing a single output file.
type outputConfig struct {
	Plugins stringList             `yaml:"plugins"`
	Config  map[string]interface{} `yaml:"config"`
}

// config mirrors the layout of a graphql-codegen configuration file.
type config struct {
	Schema    stringList               `yaml:"schema"`
	Documents stringList               `yaml:"documents"`
	Generates map[string]*outputConfig `yaml:"generates"`
}

func readConfig(fs afero.Fs, name string) (*config, error) {
	b, err := afero.ReadFile(fs, name)
	if err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	cfg := new(config)
	if err = dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("gqlc-perl: invalid config file %s: %w", name, err)
	}
	return cfg, nil
}

// outputs returns the configured output files in lexical order.
func (cfg *config) outputs() []string {
	paths := make([]string, 0, len(cfg.Generates))
	for p := range cfg.Generates {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// loadConfig reads the config file, if one was given, and applies it
// beneath anything set on the command line.
//
func (r *rootCmd) loadConfig(cmd *cobra.Command, args []string) error {
	r.schemas = args
	if r.configPath == "" {
		return nil
	}

	zap.L().Info("loading config", zap.String("file", r.configPath))
	cfg, err := readConfig(r.fs, r.configPath)
	if err != nil {
		return err
	}

	if len(r.schemas) == 0 {
		r.schemas = cfg.Schema
	}
	if len(r.documents) == 0 {
		r.documents = cfg.Documents
	}

	for _, out := range cfg.outputs() {
		gc := cfg.Generates[out]
		if gc == nil || len(gc.Plugins) == 0 {
			return fmt.Errorf("gqlc-perl: no plugins configured for output: %s", out)
		}

		for _, name := range gc.Plugins {
			name = strings.TrimSuffix(name, "_out")
			g, err := r.lookupGenerator(name)
			if err != nil {
				return err
			}

			opts := make(map[string]interface{}, len(gc.Config)+1)
			for k, v := range gc.Config {
				opts[k] = v
			}
			for k, v := range r.genOpts[name+"_out"] {
				opts[k] = v
			}
			opts["filename"] = filepath.Base(out)

			dir := filepath.Dir(out)
			r.outDirs = append(r.outDirs, dir)
			r.selected = append(r.selected, &generator{
				Generator: g,
				name:      name + "_out",
				opts:      opts,
				outDir:    dir,
			})
		}
	}
	return nil
}

// lookupGenerator finds a generator by its name, i.e. the *_out flag name
// without the suffix. Unregistered names are run as plugins when allowed.
//
func (r *rootCmd) lookupGenerator(name string) (gen.Generator, error) {
	for _, gc := range r.gens {
		if gc.name == name+"_out" {
			return gc.g, nil
		}
	}

	if r.prefix == "" {
		return nil, fmt.Errorf("gqlc-perl: unknown generator in config: %s", name)
	}
	return &plugin.Generator{Name: name, Prefix: r.prefix}, nil
}
