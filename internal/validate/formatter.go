package validate

import (
	"encoding/json"
	"fmt"
	"io"
)

// jsonReport is the diagnostics document shape. Field order and finding
// order are stable so repeated builds of the same inputs produce identical
// bytes; nothing volatile (timestamps, durations, ids) belongs here.
type jsonReport struct {
	Errors   int           `json:"errors"`
	Warnings int           `json:"warnings"`
	Findings []jsonFinding `json:"findings"`
}

type jsonFinding struct {
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
	Node     string `json:"node,omitempty"`
	Title    string `json:"title,omitempty"`
	Ref      string `json:"ref,omitempty"`
	Target   string `json:"target,omitempty"`
	Line     int    `json:"line,omitempty"`
	Message  string `json:"message"`
}

// EncodeJSON renders the report as the canonical diagnostics document.
func EncodeJSON(r *Report) ([]byte, error) {
	out := jsonReport{
		Errors:   r.ErrorCount(),
		Warnings: r.WarningCount(),
		Findings: make([]jsonFinding, 0, len(r.Findings)),
	}
	for _, f := range r.Findings {
		out.Findings = append(out.Findings, jsonFinding{
			Kind:     string(f.Kind),
			Severity: f.Severity.String(),
			Node:     f.NodePath,
			Title:    f.Title,
			Ref:      f.Ref,
			Target:   f.Target,
			Line:     f.Line,
			Message:  f.Message,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// WriteJSON writes the canonical diagnostics document to w.
func WriteJSON(w io.Writer, r *Report) error {
	data, err := EncodeJSON(r)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteText writes a human-readable rendering of the report.
func WriteText(w io.Writer, r *Report) error {
	if len(r.Findings) == 0 {
		_, err := fmt.Fprintln(w, "✨ Book validates cleanly.")
		return err
	}

	for _, f := range r.Findings {
		icon := "ℹ"
		switch f.Severity {
		case SeverityError:
			icon = "✗"
		case SeverityWarning:
			icon = "⚠"
		}

		where := f.NodePath
		if where == "" {
			where = "book"
		}
		if f.Line > 0 {
			where = fmt.Sprintf("%s (line %d)", where, f.Line)
		}

		if _, err := fmt.Fprintf(w, "%s [%s] %s: %s\n", icon, f.Kind, where, f.Message); err != nil {
			return err
		}
	}

	errs, warns := r.ErrorCount(), r.WarningCount()
	if _, err := fmt.Fprintf(w, "\nResults: %d error%s, %d warning%s\n",
		errs, pluralize(errs), warns, pluralize(warns)); err != nil {
		return err
	}
	if errs > 0 {
		if _, err := fmt.Fprintln(w, "❌ Errors block publication unless overridden."); err != nil {
			return err
		}
	}
	return nil
}

func pluralize(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
