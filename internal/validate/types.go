// Package validate runs the fixed diagnostic battery over a resolved tree
// and its link graph. Validation never fails a build by itself: every rule
// records findings and the caller decides what an error-severity finding
// means for the exit status.
package validate

import (
	"sort"
	"strconv"
	"strings"

	"github.com/jasongannon/api-docs-book/internal/outline"
)

// Severity indicates the importance of a finding.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Kind identifies which check produced a finding.
type Kind string

const (
	KindEmptyPlaceholder    Kind = "EmptyPlaceholder"
	KindMissingFile         Kind = "MissingFile"
	KindBrokenLink          Kind = "BrokenLink"
	KindDuplicateTitle      Kind = "DuplicateTitle"
	KindOrphanDocument      Kind = "OrphanDocument"
	KindDuplicateReference  Kind = "DuplicateReference"
	KindNormalizedReference Kind = "NormalizedReference"
)

// Finding is one diagnostic. Node-scoped findings carry the node's dotted
// ordinal path; book-level findings (orphans) leave it empty.
type Finding struct {
	Kind     Kind
	Severity Severity
	NodeID   outline.NodeID
	NodePath string
	Title    string
	Ref      string
	// Target is the offending link destination for link findings.
	Target  string
	Line    int
	Message string
}

// Report is the complete outcome of one validation run.
type Report struct {
	Findings []Finding
}

// HasErrors reports whether any error-severity finding exists.
func (r *Report) HasErrors() bool {
	return r.ErrorCount() > 0
}

// ErrorCount returns the number of error-severity findings.
func (r *Report) ErrorCount() int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			n++
		}
	}
	return n
}

// WarningCount returns the number of warning-severity findings.
func (r *Report) WarningCount() int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == SeverityWarning {
			n++
		}
	}
	return n
}

// ByKind returns the findings of one kind, preserving report order.
func (r *Report) ByKind(kind Kind) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

// sortFindings puts findings in their canonical order: node path ordinals,
// then kind, then message, then target. Book-level findings (no node path)
// come after all node-scoped ones. Two runs over the same inputs produce
// byte-identical reports.
func sortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if c := comparePaths(a.NodePath, b.NodePath); c != 0 {
			return c < 0
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Message != b.Message {
			return a.Message < b.Message
		}
		return a.Target < b.Target
	})
}

// comparePaths orders dotted ordinal paths numerically segment by segment
// ("2.10" after "2.9"). The empty path sorts last.
func comparePaths(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}

	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		an, _ := strconv.Atoi(as[i])
		bn, _ := strconv.Atoi(bs[i])
		if an != bn {
			if an < bn {
				return -1
			}
			return 1
		}
	}
	if len(as) < len(bs) {
		return -1
	}
	if len(as) > len(bs) {
		return 1
	}
	return 0
}
