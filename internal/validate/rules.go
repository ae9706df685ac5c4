package validate

import (
	"fmt"
	"sort"

	"github.com/jasongannon/api-docs-book/internal/content"
	"github.com/jasongannon/api-docs-book/internal/linkgraph"
	"github.com/jasongannon/api-docs-book/internal/outline"
)

// Input carries everything the battery inspects. Scan may be nil when no
// content-root listing is available (the orphan check is then skipped).
type Input struct {
	Tree  *outline.Tree
	Graph *linkgraph.Graph
	Scan  *content.RootScan
	// OutlinePath is the outline document's own root-relative path, so it
	// is never reported as an orphan.
	OutlinePath string
	// Fallback mirrors the resolver's path fallback for ref comparison.
	Fallback bool
}

// Rule is one check in the battery.
type Rule interface {
	Name() string
	Check(in *Input) []Finding
}

// Rules returns the full battery in its fixed order.
func Rules() []Rule {
	return []Rule{
		&emptyPlaceholderRule{},
		&missingFileRule{},
		&brokenLinkRule{},
		&duplicateTitleRule{},
		&orphanDocumentRule{},
		&duplicateReferenceRule{},
		&normalizedReferenceRule{},
	}
}

// Run executes the battery and returns the findings in canonical order.
// Rules only record; nothing here can fail the run.
func Run(in *Input) *Report {
	var findings []Finding
	for _, rule := range Rules() {
		findings = append(findings, rule.Check(in)...)
	}
	sortFindings(findings)
	return &Report{Findings: findings}
}

func nodeFinding(n *outline.Node, kind Kind, sev Severity, msg string) Finding {
	return Finding{
		Kind:     kind,
		Severity: sev,
		NodeID:   n.ID,
		NodePath: n.Path,
		Title:    n.Title,
		Ref:      n.Ref,
		Line:     n.Line,
		Message:  msg,
	}
}

type emptyPlaceholderRule struct{}

func (r *emptyPlaceholderRule) Name() string { return "empty-placeholder" }

func (r *emptyPlaceholderRule) Check(in *Input) []Finding {
	var out []Finding
	in.Tree.Walk(func(n *outline.Node) {
		switch n.Status {
		case outline.StatusPlaceholder:
			out = append(out, nodeFinding(n, KindEmptyPlaceholder, SeverityWarning,
				fmt.Sprintf("chapter %q has no content target", n.Title)))
		case outline.StatusEmptyTarget:
			out = append(out, nodeFinding(n, KindEmptyPlaceholder, SeverityWarning,
				fmt.Sprintf("chapter %q links a fragment but no file", n.Title)))
		}
	})
	return out
}

type missingFileRule struct{}

func (r *missingFileRule) Name() string { return "missing-file" }

func (r *missingFileRule) Check(in *Input) []Finding {
	var out []Finding
	in.Tree.Walk(func(n *outline.Node) {
		if n.Status == outline.StatusMissingFile {
			out = append(out, nodeFinding(n, KindMissingFile, SeverityError,
				fmt.Sprintf("referenced document %q does not exist", n.Ref)))
		}
	})
	return out
}

type brokenLinkRule struct{}

func (r *brokenLinkRule) Name() string { return "broken-link" }

func (r *brokenLinkRule) Check(in *Input) []Finding {
	var out []Finding
	for _, edge := range in.Graph.Broken() {
		n := in.Tree.Node(edge.From)
		f := nodeFinding(n, KindBrokenLink, SeverityError,
			fmt.Sprintf("link %q matches no chapter", edge.Target))
		f.Target = edge.Target
		out = append(out, f)
	}
	return out
}

type duplicateTitleRule struct{}

func (r *duplicateTitleRule) Name() string { return "duplicate-title" }

// Check flags a node whose title repeats an earlier sibling's. Only
// siblings compete: the same title at different depths is legitimate.
func (r *duplicateTitleRule) Check(in *Input) []Finding {
	var out []Finding

	checkGroup := func(ids []outline.NodeID) {
		seen := make(map[string]*outline.Node, len(ids))
		for _, id := range ids {
			n := in.Tree.Node(id)
			if first, dup := seen[n.Title]; dup {
				out = append(out, nodeFinding(n, KindDuplicateTitle, SeverityWarning,
					fmt.Sprintf("title %q duplicates sibling entry %s", n.Title, first.Path)))
				continue
			}
			seen[n.Title] = n
		}
	}

	checkGroup(in.Tree.Roots())
	in.Tree.Walk(func(n *outline.Node) {
		if len(n.Children) > 1 {
			checkGroup(n.Children)
		}
	})
	return out
}

type orphanDocumentRule struct{}

func (r *orphanDocumentRule) Name() string { return "orphan-document" }

func (r *orphanDocumentRule) Check(in *Input) []Finding {
	if in.Scan == nil {
		return nil
	}

	referenced := make(map[string]bool)
	for _, id := range in.Tree.Chapters() {
		n := in.Tree.Node(id)
		referenced[content.EffectiveRef(n.Ref, in.Fallback)] = true
		if n.ResolvedRef != "" {
			referenced[n.ResolvedRef] = true
		}
	}
	if in.OutlinePath != "" {
		referenced[content.Normalize(in.OutlinePath)] = true
	}

	var out []Finding
	for _, doc := range in.Scan.Markdown {
		if referenced[doc] {
			continue
		}
		out = append(out, Finding{
			Kind:     KindOrphanDocument,
			Severity: SeverityWarning,
			NodeID:   outline.InvalidNode,
			Ref:      doc,
			Message:  fmt.Sprintf("document %q is not referenced by any chapter", doc),
		})
	}
	return out
}

type duplicateReferenceRule struct{}

func (r *duplicateReferenceRule) Name() string { return "duplicate-reference" }

func (r *duplicateReferenceRule) Check(in *Input) []Finding {
	byRef := make(map[string][]*outline.Node)
	for _, id := range in.Tree.Chapters() {
		n := in.Tree.Node(id)
		eff := content.EffectiveRef(n.Ref, in.Fallback)
		if eff == "" {
			continue
		}
		byRef[eff] = append(byRef[eff], n)
	}

	refs := make([]string, 0, len(byRef))
	for ref := range byRef {
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	var out []Finding
	for _, ref := range refs {
		nodes := byRef[ref]
		if len(nodes) < 2 {
			continue
		}
		first := nodes[0]
		for _, n := range nodes[1:] {
			out = append(out, nodeFinding(n, KindDuplicateReference, SeverityWarning,
				fmt.Sprintf("reference %q already used by entry %s", ref, first.Path)))
		}
	}
	return out
}

type normalizedReferenceRule struct{}

func (r *normalizedReferenceRule) Name() string { return "normalized-reference" }

func (r *normalizedReferenceRule) Check(in *Input) []Finding {
	var out []Finding
	in.Tree.Walk(func(n *outline.Node) {
		if n.NormalizedRef {
			out = append(out, nodeFinding(n, KindNormalizedReference, SeverityWarning,
				fmt.Sprintf("reference %q resolved via the .md fallback as %q", n.Ref, n.ResolvedRef)))
		}
	})
	return out
}
