package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bibliotek-ia/bibliotek/internal/export"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		email  string
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a user's library to a file",
		Example: `  bibliotek export --email ana@example.com --out ana.yaml
  bibliotek export --email ana@example.com --format parquet --out ana.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				f   export.Format
				err error
			)
			if format != "" {
				f, err = export.ParseFormat(format)
			} else {
				f, err = export.FormatFromPath(out)
			}
			if err != nil {
				return err
			}

			store, err := openStore(a.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := export.NewService(store).Export(cmd.Context(), email, out, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d books to %s\n", n, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Owner of the library (required)")
	cmd.Flags().StringVar(&format, "format", "", "yaml, jsonl or parquet (default: from the --out extension)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Add the books in a YAML, JSONL or Parquet file to a user's library",
		Long: `Adds every book in the file to the user's library. Books the user
already has (same title and author, ignoring case and accents) are skipped.
The format is chosen by the file extension.`,
		Example: `  bibliotek import --email ana@example.com ana.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(a.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := export.NewService(store).Import(cmd.Context(), email, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d books, skipped %d already in the library, %d invalid\n",
				res.Added, res.Skipped, res.Invalid)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Owner of the library (required)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
