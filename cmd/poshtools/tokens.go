package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chargen/poshtools/internal/syntax/parser"
	"github.com/chargen/poshtools/internal/syntax/token"
)

func newTokensCmd() *cobra.Command {
	var includeTrivia bool

	cmd := &cobra.Command{
		Use:   "tokens FILE",
		Short: "Print the token stream of a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := loadScript(args[0])
			if err != nil {
				return err
			}

			result := parser.Parse(content)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tSPAN\tTEXT")
			for _, tok := range result.Tokens {
				if !includeTrivia && isTrivia(tok.Kind) {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", tok.Kind, tok.Span, strconv.Quote(tok.Text))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&includeTrivia, "trivia", false, "include newline and comment tokens")
	return cmd
}

func isTrivia(k token.Kind) bool {
	return k == token.KindNewline || k == token.KindComment
}
