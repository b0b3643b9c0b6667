package bench

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/wsp-framework/wisp/cmd/solve"
	"github.com/wsp-framework/wisp/internal/parallel"
	"github.com/wsp-framework/wisp/pkg/wisp"
)

type options struct {
	backend   string
	workers   int
	nodeLimit int64
	timeout   time.Duration
	outputDir string
}

func NewBenchCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "bench <directory>",
		Short: "Solves every instance in a directory and prints a summary table",
		Long: `Solves every instance file in a directory on a pool of workers and
prints a summary table of verdicts and execution times. Files whose
name contains "solution" are skipped, so a previous run's output
directory can double as the input directory.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			info, err := os.Stat(args[0])
			if err != nil {
				return fmt.Errorf("directory (%s) not found", args[0])
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.backend, "backend", "engine", "search backend: engine (reference backtracking) or sat (gini CNF encoding)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "number of concurrent solves (0 = one per CPU core)")
	cmd.Flags().Int64Var(&opts.nodeLimit, "node-limit", 0, "abort each search after this many tried assignments (0 = unbounded)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "wall-clock budget per instance (0 = unbounded)")
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "directory to write solution_<name>.txt files into")
	return cmd
}

type row struct {
	path   string
	result wisp.Result
	err    error
}

func run(opts *options, dir string) error {
	files, err := listInstances(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no instance files found in %s", dir)
	}

	s, err := solve.NewSolver(opts.backend, false, opts.nodeLimit)
	if err != nil {
		return err
	}

	// Each instance is solved on its own exclusively-owned search
	// state, so the only shared structure is the results slice, with
	// one preassigned slot per task.
	rows := make([]row, len(files))
	pool := parallel.New(opts.workers)
	var wg sync.WaitGroup
	for i, path := range files {
		i, path := i, path
		wg.Add(1)
		task := func() {
			defer wg.Done()
			result, err := solve.Solve(s, path, opts.timeout)
			rows[i] = row{path: path, result: result, err: err}
		}
		if err := pool.Submit(context.Background(), task); err != nil {
			wg.Done()
			pool.Shutdown()
			return err
		}
	}
	wg.Wait()
	pool.Shutdown()

	for _, r := range rows {
		if r.err != nil {
			return fmt.Errorf("error solving instance (%s): %w", r.path, r.err)
		}
		if opts.outputDir != "" {
			if _, err := solve.SaveSolution(r.path, opts.outputDir, r.result); err != nil {
				return err
			}
		}
	}

	render(rows)
	return nil
}

// listInstances returns the directory's instance files sorted by name
// length then name, so s1.txt precedes s10.txt.
func listInstances(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading directory (%s): %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.Contains(e.Name(), "solution") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Slice(files, func(i, j int) bool {
		if len(files[i]) != len(files[j]) {
			return len(files[i]) < len(files[j])
		}
		return files[i] < files[j]
	})
	return files, nil
}

func render(rows []row) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Filename", "Status", "Execution Time", "Multiple Solutions"})
	var total time.Duration
	for _, r := range rows {
		total += r.result.Stats.Elapsed
		table.Append([]string{
			r.path,
			r.result.Verdict.String(),
			fmt.Sprintf("%dms", r.result.Stats.Elapsed.Milliseconds()),
			solve.Note(r.result),
		})
	}
	table.Render()

	fmt.Printf("\nNumber of instances: %d\n", len(rows))
	fmt.Printf("Total run time: %dms\n", total.Milliseconds())
	fmt.Printf("Average run time: %dms\n", (total / time.Duration(len(rows))).Milliseconds())
}
