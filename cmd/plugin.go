package cmd

import (
	"strings"

	"github.com/gqlc/gqlc-perl/plugin"
	"go.uber.org/zap"
)

// discoverPlugins returns a generator config for every *_out flag in args
// which is not a registered generator. Plugins are only discovered once a
// plugin prefix has been set.
//
func (c *CommandLine) discoverPlugins(args []string) (gens []genConfig) {
	if c.prefix == "" {
		return
	}

	known := make(map[string]bool, len(c.gens))
	for _, g := range c.gens {
		known[g.name] = true
	}

	for _, arg := range args {
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "--") {
			continue
		}

		name := strings.TrimPrefix(arg, "--")
		if i := strings.IndexByte(name, '='); i > -1 {
			name = name[:i]
		}
		if !strings.HasSuffix(name, "_out") || known[name] {
			continue
		}
		known[name] = true

		pluginName := strings.TrimSuffix(name, "_out")
		zap.L().Debug("found plugin flag", zap.String("flag", name), zap.String("plugin", c.prefix+pluginName))

		gens = append(gens, genConfig{
			g:    &plugin.Generator{Name: pluginName, Prefix: c.prefix},
			name: name,
			opt:  pluginName + "_opt",
			help: "Generate output with the " + c.prefix + pluginName + " plugin.",
		})
	}
	return
}
