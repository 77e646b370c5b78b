package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chargen/poshtools/internal/syntax/parser"
	"github.com/chargen/poshtools/internal/syntax/structure"
)

func newOutlineCmd() *cobra.Command {
	var showBraces bool

	cmd := &cobra.Command{
		Use:   "outline FILE",
		Short: "Print the foldable regions and brace pairs of a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := loadScript(args[0])
			if err != nil {
				return err
			}

			result := parser.Parse(content)
			st := structure.NewResolver().Resolve(content, 0, result.Tokens)

			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tSPAN\tLABEL")
			for _, r := range st.Regions {
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.Kind, r.Span, r.Label)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if !showBraces {
				return nil
			}

			starts := make([]uint32, 0, len(st.StartBraces))
			for open := range st.StartBraces {
				starts = append(starts, open)
			}
			sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

			fmt.Fprintln(out)
			bw := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
			fmt.Fprintln(bw, "OPEN\tCLOSE")
			for _, open := range starts {
				fmt.Fprintf(bw, "%d\t%d\n", open, st.StartBraces[open])
			}
			return bw.Flush()
		},
	}

	cmd.Flags().BoolVar(&showBraces, "braces", false, "also print brace-match pairs")
	return cmd
}
