package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bibliotek-ia/bibliotek/internal/models"
	"github.com/bibliotek-ia/bibliotek/internal/stats"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show user and library statistics",
		Long: `Prints the figures behind the admin dashboard: account counts,
users active in the last five minutes, and the most common genres, authors,
publication years and titles across every library.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(a.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			svc := stats.NewService(store)
			general, err := svc.General(cmd.Context())
			if err != nil {
				return err
			}
			books, err := svc.Books(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable("Users", []string{"Metric", "Count"}, [][]string{
				{"Total users", strconv.Itoa(general.TotalUsers)},
				{"Admins", strconv.Itoa(general.TotalAdmins)},
				{"Active now", strconv.Itoa(general.ActiveNow)},
			}, []columnAlignment{alignLeft, alignRight}))

			printGroup(out, "Top genres", "Genre", books.TopGenres)
			printGroup(out, "Top authors", "Author", books.TopAuthors)
			printGroup(out, "Books by year", "Year", books.BooksByYear)
			printGroup(out, "Most saved books", "Title", books.TopBooks)
			return nil
		},
	}
}

func printGroup(w io.Writer, title, label string, rows []models.GroupCount) {
	if len(rows) == 0 {
		fmt.Fprintf(w, "%s: no data\n", title)
		return
	}
	table := make([][]string, 0, len(rows))
	for _, r := range rows {
		table = append(table, []string{r.Value, strconv.Itoa(r.Count)})
	}
	fmt.Fprintln(w, renderTable(title, []string{label, "Count"}, table, []columnAlignment{alignLeft, alignRight}))
}
