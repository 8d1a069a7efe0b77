package command

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "import-csv",
	Short: "import-csv - load reviewhub seed data from CSV files",
	Long: `import-csv reads the reviewhub seed files (users, categories, genres,
titles, genre links, reviews, comments) and upserts every row by id into the
database configured through DATABASE_URL or SQLITE_PATH.

The whole load runs in one transaction.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
