package solve

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wsp-framework/wisp/pkg/wisp"
)

// Note summarizes how many solutions an instance has, in the wording
// the solution files use.
func Note(result wisp.Result) string {
	switch result.Verdict {
	case wisp.UniqueSatisfiable:
		return "this is the only solution"
	case wisp.MultipleSatisfiable:
		return "other solutions exist"
	case wisp.TimedOut:
		return "search budget exceeded"
	}
	return ""
}

// Report renders a solved instance as the text stored in solution
// files: status, execution time, the multiple-solutions note, and one
// line per step of the witness assignment.
func Report(result wisp.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Status: %s\n", result.Verdict)
	fmt.Fprintf(&b, "Execution Time: %dms\n", result.Stats.Elapsed.Milliseconds())
	if note := Note(result); note != "" {
		fmt.Fprintf(&b, "Multiple Solutions: %s\n", note)
	}
	for i, u := range result.Assignment {
		fmt.Fprintf(&b, "%s: %s\n", wisp.StepID(i+1), u)
	}
	return b.String()
}

// SaveSolution writes the report for an instance file into
// dir/solution_<base>.txt and returns the path written.
func SaveSolution(instancePath, dir string, result wisp.Result) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating solutions directory (%s): %w", dir, err)
	}
	base := filepath.Base(instancePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	out := filepath.Join(dir, fmt.Sprintf("solution_%s.txt", base))
	if err := os.WriteFile(out, []byte(Report(result)), 0o644); err != nil {
		return "", fmt.Errorf("error writing solution file (%s): %w", out, err)
	}
	return out, nil
}
