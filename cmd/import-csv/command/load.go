package command

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"reviewhub/database"
	"reviewhub/internal/config"
	"reviewhub/internal/importer"
	"reviewhub/internal/shared"

	"github.com/spf13/cobra"
)

var onlyFile string

var loadCmd = &cobra.Command{
	Use:   "load <dir>",
	Short: "Load CSV files from a directory",
	Long: fmt.Sprintf(`Load reads the following files from <dir>, in this order:
  %s
Missing files are skipped with a warning.`, strings.Join(importer.Files, "\n  ")),
	Example: `  import-csv load static/data
  import-csv load static/data --only genre.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadStoreConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger := shared.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)

		db, err := database.OpenGorm(cfg, logger)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		results, err := importer.New(db, logger).Load(cmd.Context(), args[0], onlyFile)
		if err != nil {
			return fmt.Errorf("import failed, nothing was written: %w", err)
		}
		printSummary(cmd, results)
		return nil
	},
}

func printSummary(cmd *cobra.Command, results []importer.Result) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tROWS")
	total := 0
	for _, r := range results {
		if r.Skipped {
			fmt.Fprintf(w, "%s\tskipped\n", r.File)
			continue
		}
		fmt.Fprintf(w, "%s\t%d\n", r.File, r.Rows)
		total += r.Rows
	}
	fmt.Fprintf(w, "total\t%d\n", total)
	w.Flush()
}

func init() {
	loadCmd.Flags().StringVar(&onlyFile, "only", "", "load a single file, e.g. genre.csv")
	rootCmd.AddCommand(loadCmd)
}
