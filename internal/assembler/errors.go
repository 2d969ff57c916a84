package assembler

import (
	"fmt"
	"strings"

	"github.com/docusign/api-request-builder-open-src/internal/casing"
)

// InsertionError reports a block that has no legal attachment point given
// the blocks inserted before it. The document is unchanged.
type InsertionError struct {
	ObjectType string
	// DirectParents are the parent types that are not auto-containers.
	DirectParents []string
	// ViaContainers are the parents of the auto-containers that could have
	// held the block.
	ViaContainers []string
}

// Missing returns every block type that, placed earlier, would have made the
// insertion legal. Duplicates are removed; order is DirectParents then
// ViaContainers.
func (e *InsertionError) Missing() []string {
	seen := make(map[string]bool)
	var out []string
	for _, group := range [][]string{e.DirectParents, e.ViaContainers} {
		for _, p := range group {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

func (e *InsertionError) Error() string {
	block := prettyName(e.ObjectType)
	missing := e.Missing()
	names := make([]string, len(missing))
	for i, p := range missing {
		names[i] = prettyName(p)
	}
	msg := fmt.Sprintf("Problem: Could not process block %s in its current position. ", block)
	if len(names) == 1 {
		return msg + fmt.Sprintf("The parent block %s must be before the %s block.", names[0], block)
	}
	return msg + fmt.Sprintf("One of the following parent blocks must be before the %s block: %s.",
		block, strings.Join(names, ", "))
}

// UnknownObjectError reports an object type the schema does not define.
type UnknownObjectError struct {
	ObjectType string
	Suggestion string
}

func (e *UnknownObjectError) Error() string {
	msg := fmt.Sprintf("unknown block type %q", e.ObjectType)
	if e.Suggestion != "" {
		msg += " (" + e.Suggestion + ")"
	}
	return msg
}

// StyleError reports a call through the wrong entry point: attribute maps
// for scalar-array types, or value lists for object types.
type StyleError struct {
	ObjectType  string
	ScalarArray bool
}

func (e *StyleError) Error() string {
	if e.ScalarArray {
		return fmt.Sprintf("block %q holds a list of values; use InsertValues", e.ObjectType)
	}
	return fmt.Sprintf("block %q holds attributes; use Insert", e.ObjectType)
}

func prettyName(objectType string) string {
	return "“" + casing.Spaced(objectType) + "”"
}

// Levenshtein computes the edit distance between two strings.
func Levenshtein(a, b string) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}
	prev := make([]int, lb+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr := make([]int, lb+1)
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev = curr
	}
	return prev[lb]
}

// suggest returns a "did you mean" hint for the closest candidate within
// maxDist edits, or "".
func suggest(input string, candidates []string, maxDist int) string {
	best := ""
	bestDist := maxDist + 1
	for _, c := range candidates {
		if d := Levenshtein(strings.ToLower(input), strings.ToLower(c)); d < bestDist {
			bestDist = d
			best = c
		}
	}
	if bestDist <= maxDist {
		return fmt.Sprintf("did you mean '%s'?", best)
	}
	return ""
}
