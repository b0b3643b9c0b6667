// Package parse reads WSP problem instances from their text format:
//
//	#Steps: 3
//	#Users: 2
//	#Constraints: 3
//	Authorisations u1: s1 s2 s3
//	Separation-of-duty: s1 s2
//	Binding-of-duty: s1 s3
//	At-most-k: 2 s1 s2 s3
//	One-team: s1 s2 (u1 u2) (u3)
//
// Lines are matched case-insensitively. A user with no authorisations
// line is authorized for every step. Parsing only enforces the lexical
// format and the declared ranges of authorisation lines; defects in
// constraint scopes surface later through instance validation.
package parse

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/wsp-framework/wisp/pkg/wisp"
	"github.com/wsp-framework/wisp/pkg/wisp/constraint"
)

var (
	headerLine = regexp.MustCompile(`^#(steps|users|constraints):\s*(\d+)\s*$`)
	userToken  = regexp.MustCompile(`u(\d+)`)
	stepToken  = regexp.MustCompile(`s(\d+)`)
	teamGroup  = regexp.MustCompile(`\(([^)]*)\)`)
	number     = regexp.MustCompile(`\d+`)
)

// File reads the instance stored at path.
func File(path string) (*wisp.Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening instance file (%s): %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses an instance from its text format.
func Read(r io.Reader) (*wisp.Instance, error) {
	scanner := bufio.NewScanner(r)

	steps, err := readHeader(scanner, "steps")
	if err != nil {
		return nil, err
	}
	users, err := readHeader(scanner, "users")
	if err != nil {
		return nil, err
	}
	// The constraint count is declared but redundant; the lines
	// themselves are authoritative.
	if _, err := readHeader(scanner, "constraints"); err != nil {
		return nil, err
	}

	inst := wisp.NewInstance(steps, users)
	authorised := make([]bool, users+1)

	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		switch {
		case line == "":
			continue
		case strings.Contains(line, "authorisations"):
			if err := parseAuthorisations(inst, authorised, line); err != nil {
				return nil, err
			}
		case strings.Contains(line, "separation-of-duty"):
			inst.AddConstraint(constraint.SoD(stepIDs(line)...))
		case strings.Contains(line, "binding-of-duty"):
			inst.AddConstraint(constraint.BoD(stepIDs(line)...))
		case strings.Contains(line, "at-most-k"):
			c, err := parseAtMostK(line)
			if err != nil {
				return nil, err
			}
			inst.AddConstraint(c)
		case strings.Contains(line, "one-team"):
			c, err := parseOneTeam(users, line)
			if err != nil {
				return nil, err
			}
			inst.AddConstraint(c)
		default:
			return nil, fmt.Errorf("unrecognized constraint line %q", line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading instance data: %w", err)
	}

	// Users without an authorisations line may perform every step.
	for u := 1; u <= users; u++ {
		if !authorised[u] {
			inst.AuthorizeAll(wisp.UserID(u))
		}
	}
	return inst, nil
}

func readHeader(scanner *bufio.Scanner, name string) (int, error) {
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return 0, fmt.Errorf("error reading instance data: %w", err)
		}
		return 0, fmt.Errorf("missing #%s header", name)
	}
	line := strings.ToLower(strings.TrimSpace(scanner.Text()))
	m := headerLine.FindStringSubmatch(line)
	if m == nil || m[1] != name {
		return 0, fmt.Errorf("could not parse line %q; expected the #%s attribute", line, name)
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, fmt.Errorf("invalid number in line %q: %w", line, err)
	}
	return n, nil
}

func stepIDs(line string) []wisp.StepID {
	matches := stepToken.FindAllStringSubmatch(line, -1)
	out := make([]wisp.StepID, len(matches))
	for i, m := range matches {
		n, _ := strconv.Atoi(m[1])
		out[i] = wisp.StepID(n)
	}
	return out
}

func parseAuthorisations(inst *wisp.Instance, authorised []bool, line string) error {
	um := userToken.FindStringSubmatch(line)
	if um == nil {
		return fmt.Errorf("authorisations line %q names no user", line)
	}
	u, _ := strconv.Atoi(um[1])
	if u < 1 || u > inst.Users() {
		return fmt.Errorf("authorisations line %q references undeclared user u%d", line, u)
	}
	for _, s := range stepIDs(line) {
		if s < 1 || int(s) > inst.Steps() {
			return fmt.Errorf("authorisations line %q references undeclared step %s", line, s)
		}
		inst.Authorize(wisp.UserID(u), s)
	}
	authorised[u] = true
	return nil
}

func parseAtMostK(line string) (wisp.Constraint, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return nil, fmt.Errorf("at-most-k line %q is missing the bound", line)
	}
	k, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("at-most-k line %q has a malformed bound: %w", line, err)
	}
	return constraint.AtMostK(k, stepIDs(line)...), nil
}

func parseOneTeam(users int, line string) (wisp.Constraint, error) {
	groups := teamGroup.FindAllStringSubmatch(line, -1)
	if len(groups) == 0 {
		return nil, fmt.Errorf("one-team line %q lists no teams", line)
	}
	steps := stepIDs(teamGroup.ReplaceAllString(line, ""))

	teams := make([]wisp.UserSet, len(groups))
	for i, g := range groups {
		ids := number.FindAllString(g[1], -1)
		// Size the set to hold out-of-range members too, so that
		// validation can reject them instead of dropping them here.
		top := users
		members := make([]wisp.UserID, len(ids))
		for j, id := range ids {
			n, _ := strconv.Atoi(id)
			members[j] = wisp.UserID(n)
			if n > top {
				top = n
			}
		}
		teams[i] = wisp.UserSetOf(top, members...)
	}
	return constraint.OneTeam(steps, teams...), nil
}
