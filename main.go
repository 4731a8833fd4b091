package main

import (
	"fmt"
	"os"

	"github.com/gqlc/gqlc-perl/cmd"
	"github.com/gqlc/gqlc-perl/perl"
)

var cli *cmd.CommandLine

func init() {
	cli = cmd.NewCLI()
	cli.AllowPlugins("gqlc-gen-")

	// Register Perl generator
	cli.RegisterGenerator(new(perl.Generator), "perl_out", "perl_opt",
		"Generate Perl source.")
}

func main() {
	if err := cli.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
