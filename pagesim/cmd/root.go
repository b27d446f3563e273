// Package cmd provides the command-line interface of pagesim.
package cmd

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pagesim",
	Short: "pagesim simulates paging between a resident and a backing tier.",
	Long: `pagesim admits randomly sized processes into a backing tier and ` +
		`demands their pages through a size-limited resident tier, ` +
		`counting accesses, faults, and swaps. Defaults of the flags can be ` +
		`set with PAGESIM_* environment variables or a .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return loadDotEnv(".env")
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func init() {
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newInspectCommand())
}

// loadDotEnv reads the file into the environment if it exists. Variables
// that are already set win.
func loadDotEnv(filename string) error {
	err := godotenv.Load(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return err
}
