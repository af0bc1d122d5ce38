package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Keksclan/goRawrBooks/book"
)

func newPutCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <isbn> [title]",
		Short: "Store a book in the configured SQL source",
		Long: `Insert or replace a book in the sqlite or postgres source named by the
config. Without a title the book is titled like the slow source would title it.

Examples:
  rawrbooks put -c rawrbooks.yaml isbn-1234 "Rawr and Peace"`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openSQL(a.cfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			b := book.Book{ISBN: args[0], Title: book.TitlePrefix + args[0]}
			if len(args) == 2 {
				b.Title = args[1]
			}
			if err := repo.Put(cmd.Context(), b); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %s\n", b)
			return nil
		},
	}
	return cmd
}
