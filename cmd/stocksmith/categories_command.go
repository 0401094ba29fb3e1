package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stocksmith/internal/categories"
)

func newCategoriesCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:         "categories",
		Short:       "List the Adobe Stock categories accepted in exports",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			names := categories.All()
			if asJSON {
				return writeJSON(cmd, names)
			}
			rows := make([][]string, 0, len(names))
			for i, name := range names {
				rows = append(rows, []string{fmt.Sprintf("%d", i+1), name})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"#", "Category"}, rows, []columnAlignment{alignRight, alignLeft}))
			fmt.Fprintf(out, "Unrecognized model suggestions fall back to %q.\n", categories.DefaultName)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}
