package root

import (
	"github.com/spf13/cobra"

	"github.com/wsp-framework/wisp/cmd/bench"

	"github.com/wsp-framework/wisp/cmd/solve"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wisp",
		Short: "Wisp is an open-source workflow satisfiability solver",
		Long: `An open-source solver for the Workflow Satisfiability Problem (WSP)
written in Go: it assigns users to workflow steps under authorization,
separation/binding-of-duty, cardinality, and team constraints, or proves
that no such assignment exists.`,
	}

	// add sub-commands
	rootCmd.AddCommand(solve.NewSolveCommand())
	rootCmd.AddCommand(bench.NewBenchCommand())

	return rootCmd
}
