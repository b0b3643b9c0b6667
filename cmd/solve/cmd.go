package solve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wsp-framework/wisp/pkg/wisp"
	"github.com/wsp-framework/wisp/pkg/wisp/parse"
	"github.com/wsp-framework/wisp/pkg/wisp/solver"
)

type options struct {
	backend   string
	trace     bool
	nodeLimit int64
	timeout   time.Duration
	outputDir string
}

func NewSolveCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "solve <instance>...",
		Short: "Solves one or more WSP instance files",
		Long: `Solves one or more WSP instance files. An instance looks like:

#Steps: 2
#Users: 2
#Constraints: 1
Authorisations u1: s1 s2
Authorisations u2: s1 s2
Separation-of-duty: s1 s2

For each file the verdict (sat/unsat), the witness assignment, and a
note on whether other solutions exist are printed. With --output, a
solution_<name>.txt file is written per instance.`,
		Args: cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("file (%s) not found", path)
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := NewSolver(opts.backend, opts.trace, opts.nodeLimit)
			if err != nil {
				return err
			}
			for _, path := range args {
				if err := run(s, opts, path); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.backend, "backend", "engine", "search backend: engine (reference backtracking) or sat (gini CNF encoding)")
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "log search conflicts to stderr")
	cmd.Flags().Int64Var(&opts.nodeLimit, "node-limit", 0, "abort each search after this many tried assignments (0 = unbounded)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "wall-clock budget per instance (0 = unbounded)")
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "directory to write solution_<name>.txt files into")
	return cmd
}

// NewSolver builds a solver from the shared CLI flags. It is reused by
// the bench command.
func NewSolver(backend string, trace bool, nodeLimit int64) (*solver.Solver, error) {
	var opts []solver.Option
	switch backend {
	case "engine":
	case "sat":
		opts = append(opts, solver.WithSATBackend())
	default:
		return nil, fmt.Errorf("unknown backend %q: expected engine or sat", backend)
	}
	if trace {
		opts = append(opts, solver.WithTracer(wisp.LoggingTracer{Writer: os.Stderr}))
	}
	if nodeLimit > 0 {
		opts = append(opts, solver.WithNodeLimit(nodeLimit))
	}
	return solver.New(opts...)
}

// Solve parses and solves a single instance file under the given
// wall-clock budget.
func Solve(s *solver.Solver, path string, timeout time.Duration) (wisp.Result, error) {
	inst, err := parse.File(path)
	if err != nil {
		return wisp.Result{}, err
	}
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.Solve(ctx, inst)
}

func run(s *solver.Solver, opts *options, path string) error {
	result, err := Solve(s, path, opts.timeout)
	if err != nil {
		return fmt.Errorf("error solving instance (%s): %w", path, err)
	}

	fmt.Println(path)
	fmt.Print(Report(result))

	if opts.outputDir != "" {
		out, err := SaveSolution(path, opts.outputDir, result)
		if err != nil {
			return err
		}
		fmt.Printf("solution written to %s\n", out)
	}
	return nil
}
