package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func chainPreRunEs(preRunEs ...func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		for i := 0; i < len(preRunEs) && err == nil; i++ {
			err = preRunEs[i](cmd, args)
		}
		return
	}
}

// initLogger installs the global logger. Logging is only enabled in verbose mode.
func initLogger(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if !verbose {
		zap.ReplaceGlobals(zap.NewNop())
		return nil
	}

	l, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(l.Named("gqlc-perl"))
	return nil
}

func isRemote(name string) bool {
	return strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://")
}

// validateFilenames validates that only GraphQL files, introspection
// results or endpoints are provided.
//
func validateFilenames(cmd *cobra.Command, args []string) error {
	for _, fileName := range args {
		if isRemote(fileName) {
			continue
		}

		switch filepath.Ext(fileName) {
		case ".gql", ".graphql", ".json":
		default:
			return fmt.Errorf("gqlc-perl: invalid file extension: %s", fileName)
		}
	}

	return nil
}

// validateDocuments validates that operation documents are GraphQL files.
func validateDocuments(docs *[]string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		for _, pattern := range *docs {
			if _, err := filepath.Match(pattern, ""); err != nil {
				return fmt.Errorf("gqlc-perl: malformed document pattern: %s: %w", pattern, err)
			}

			switch filepath.Ext(pattern) {
			case ".gql", ".graphql", ".*":
			default:
				return fmt.Errorf("gqlc-perl: invalid document extension: %s", pattern)
			}
		}
		return nil
	}
}

// initGenDirs initializes each directory each generator will be outputting to.
func initGenDirs(fs afero.Fs, dirs *[]string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		for _, dir := range *dirs {
			zap.L().Info("creating directory", zap.String("dir", dir))
			err = fs.MkdirAll(dir, 0755)
			if err != nil {
				break
			}
		}
		return
	}
}
