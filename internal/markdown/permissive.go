package markdown

import "strings"

// permissiveScan recovers link destinations that strict CommonMark parsing
// rejects, currently those containing unescaped whitespace. It skips fenced
// and indented code blocks and inline code spans so code samples never leak
// into the result.
func permissiveScan(body []byte) []Link {
	out := make([]Link, 0)

	inFence := false
	fenceMarker := ""
	for _, line := range strings.Split(string(body), "\n") {
		trimmed := strings.TrimSpace(line)

		if marker := fenceOf(trimmed); marker != "" {
			switch {
			case !inFence:
				inFence, fenceMarker = true, marker
			case marker == fenceMarker:
				inFence, fenceMarker = false, ""
			}
			continue
		}
		if inFence || strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
			continue
		}

		clean := stripCodeSpans(line)
		out = append(out, scanBracketTargets(clean)...)
		if l, ok := scanRefDefTarget(clean); ok {
			out = append(out, l)
		}
	}

	return out
}

func fenceOf(trimmed string) string {
	if strings.HasPrefix(trimmed, "```") {
		return "```"
	}
	if strings.HasPrefix(trimmed, "~~~") {
		return "~~~"
	}
	return ""
}

// scanBracketTargets finds "](target)" and "![...](target)" occurrences and
// keeps the targets a strict parser would have refused.
func scanBracketTargets(line string) []Link {
	links := make([]Link, 0)

	for i := 0; i+1 < len(line); i++ {
		if line[i] != ']' || line[i+1] != '(' {
			continue
		}

		open := strings.LastIndex(line[:i], "[")
		if open == -1 {
			continue
		}
		end := strings.Index(line[i+2:], ")")
		if end == -1 {
			continue
		}
		target := line[i+2 : i+2+end]
		if !containsWhitespace(target) {
			continue // strict parsing already captured it
		}

		kind := LinkKindInline
		if open > 0 && line[open-1] == '!' {
			kind = LinkKindImage
		}
		links = append(links, Link{Kind: kind, Destination: target})
	}

	return links
}

// scanRefDefTarget recovers a "[label]: target with spaces" definition.
func scanRefDefTarget(line string) (Link, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "[") {
		return Link{}, false
	}

	label, after, ok := strings.Cut(trimmed, "]:")
	if !ok {
		return Link{}, false
	}
	// Footnote definitions ([^1]: ...) are not reference link definitions.
	if strings.HasPrefix(strings.TrimSpace(label), "[^") {
		return Link{}, false
	}

	target := strings.TrimSpace(after)
	if before, _, found := strings.Cut(target, " \""); found {
		target = strings.TrimSpace(before)
	} else if before, _, found := strings.Cut(target, " '"); found {
		target = strings.TrimSpace(before)
	}

	if target == "" || !containsWhitespace(target) {
		return Link{}, false
	}
	return Link{Kind: LinkKindReferenceDefinition, Destination: target}, true
}

// stripCodeSpans removes inline `code` spans, including the delimiters.
func stripCodeSpans(s string) string {
	if !strings.Contains(s, "`") {
		return s
	}

	var out strings.Builder
	out.Grow(len(s))

	for i := 0; i < len(s); {
		if s[i] != '`' {
			out.WriteByte(s[i])
			i++
			continue
		}

		run := 1
		for i+run < len(s) && s[i+run] == '`' {
			run++
		}

		marker := strings.Repeat("`", run)
		closeRel := strings.Index(s[i+run:], marker)
		if closeRel == -1 {
			// Unclosed code span; keep the backticks and continue.
			out.WriteString(marker)
			i += run
			continue
		}

		i = i + run + closeRel + run
	}

	return out.String()
}

func containsWhitespace(s string) bool {
	return strings.ContainsAny(s, " \t")
}
