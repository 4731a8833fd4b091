package cmd

import (
	"strings"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const usageTmpl = `Usage:
  gqlc-perl [flags] schema...
  gqlc-perl [command]{{if .HasAvailableSubCommands}}

Available Commands:{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{$outs := outFlags .LocalFlags}}{{if $outs.HasFlags}}

Generator Flags:
{{$outs.FlagUsages | trimTrailingWhitespaces}}{{end}}{{$general := generalFlags .LocalFlags}}{{if $general.HasFlags}}

General Flags:
{{$general.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasExample}}

Example:
  {{.Example}}{{end}}
`

// outFlags returns the *_out flags, which select a generator.
func outFlags(set *pflag.FlagSet) *pflag.FlagSet { return filterFlags(set, true) }

// generalFlags returns every flag which does not select a generator,
// including the *_opt flags.
func generalFlags(set *pflag.FlagSet) *pflag.FlagSet { return filterFlags(set, false) }

func filterFlags(set *pflag.FlagSet, out bool) *pflag.FlagSet {
	fs := new(pflag.FlagSet)
	set.VisitAll(func(flag *pflag.Flag) {
		if strings.HasSuffix(flag.Name, "_out") == out {
			fs.AddFlag(flag)
		}
	})
	return fs
}

func init() {
	cobra.AddTemplateFuncs(template.FuncMap{
		"outFlags":     outFlags,
		"generalFlags": generalFlags,
	})
}
