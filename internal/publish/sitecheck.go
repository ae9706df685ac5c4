package publish

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// SiteFinding reports a reference in a rendered page that does not resolve
// to a file in the published site.
type SiteFinding struct {
	// Page is the site-relative path of the HTML file holding the
	// reference.
	Page string
	// Target is the reference as written in the page.
	Target string
}

func (f SiteFinding) String() string {
	return fmt.Sprintf("%s: dangling reference %q", f.Page, f.Target)
}

// CheckSite parses every HTML page under dir and verifies that internal
// href and src targets resolve to files in the site. External URLs,
// fragments, and mailto/tel/javascript pseudo-links are skipped. Findings
// are returned sorted by page then target.
func CheckSite(dir string) ([]SiteFinding, error) {
	var findings []SiteFinding

	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".html") {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		page := filepath.ToSlash(rel)

		refs, err := extractPageRefs(p)
		if err != nil {
			return fmt.Errorf("parse %s: %w", page, err)
		}
		for _, ref := range refs {
			if !checkablePageRef(ref) {
				continue
			}
			if !refExists(dir, page, ref) {
				findings = append(findings, SiteFinding{Page: page, Target: ref})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Page != findings[j].Page {
			return findings[i].Page < findings[j].Page
		}
		return findings[i].Target < findings[j].Target
	})
	return findings, nil
}

// extractPageRefs returns every href and src attribute in the document, in
// document order.
func extractPageRefs(file string) ([]string, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, err
	}

	var refs []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a", "link":
				if v := getAttr(n, "href"); v != "" {
					refs = append(refs, v)
				}
			case "img", "script":
				if v := getAttr(n, "src"); v != "" {
					refs = append(refs, v)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return refs, nil
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// checkablePageRef reports whether ref points inside the site. Anything
// with a scheme, protocol-relative URLs, and bare fragments are not ours
// to verify.
func checkablePageRef(ref string) bool {
	if ref == "" || strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "//") {
		return false
	}
	// Schemes (http:, https:, mailto:, tel:, javascript:, data:) all
	// carry a colon before any path separator.
	if i := strings.IndexByte(ref, ':'); i >= 0 && !strings.ContainsAny(ref[:i], "/?#") {
		return false
	}
	return true
}

// refExists resolves ref against the page's directory (or the site root
// for absolute paths) and checks the target file is present.
func refExists(dir, page, ref string) bool {
	target := ref
	if i := strings.IndexByte(target, '#'); i >= 0 {
		target = target[:i]
	}
	if i := strings.IndexByte(target, '?'); i >= 0 {
		target = target[:i]
	}
	if target == "" {
		return true
	}

	var resolved string
	if strings.HasPrefix(target, "/") {
		resolved = path.Clean(strings.TrimPrefix(target, "/"))
	} else {
		resolved = path.Join(path.Dir(page), target)
	}
	if resolved == ".." || strings.HasPrefix(resolved, "../") {
		return false
	}

	_, err := os.Stat(filepath.Join(dir, filepath.FromSlash(resolved)))
	return err == nil
}
