package validate

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasongannon/api-docs-book/internal/outline"
)

func sampleReport() *Report {
	return &Report{Findings: []Finding{
		{
			Kind:     KindMissingFile,
			Severity: SeverityError,
			NodeID:   1,
			NodePath: "1.2",
			Title:    "Install",
			Ref:      "install.md",
			Line:     4,
			Message:  `referenced document "install.md" does not exist`,
		},
		{
			Kind:     KindOrphanDocument,
			Severity: SeverityWarning,
			NodeID:   outline.InvalidNode,
			Ref:      "stray.md",
			Message:  `document "stray.md" is not referenced by any chapter`,
		},
	}}
}

func TestEncodeJSONDeterministic(t *testing.T) {
	r := sampleReport()

	first, err := EncodeJSON(r)
	require.NoError(t, err)
	second, err := EncodeJSON(r)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var decoded struct {
		Errors   int `json:"errors"`
		Warnings int `json:"warnings"`
		Findings []struct {
			Kind     string `json:"kind"`
			Severity string `json:"severity"`
			Node     string `json:"node"`
			Line     int    `json:"line"`
			Message  string `json:"message"`
		} `json:"findings"`
	}
	require.NoError(t, json.Unmarshal(first, &decoded))
	assert.Equal(t, 1, decoded.Errors)
	assert.Equal(t, 1, decoded.Warnings)
	require.Len(t, decoded.Findings, 2)
	assert.Equal(t, "MissingFile", decoded.Findings[0].Kind)
	assert.Equal(t, "ERROR", decoded.Findings[0].Severity)
	assert.Equal(t, "1.2", decoded.Findings[0].Node)
	assert.Equal(t, 4, decoded.Findings[0].Line)
	assert.Equal(t, "OrphanDocument", decoded.Findings[1].Kind)
	assert.Empty(t, decoded.Findings[1].Node)
}

func TestEncodeJSONEmptyReport(t *testing.T) {
	data, err := EncodeJSON(&Report{})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"findings": []`)
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "✗ [MissingFile] 1.2 (line 4)")
	assert.Contains(t, out, "⚠ [OrphanDocument] book")
	assert.Contains(t, out, "Results: 1 error, 1 warning")
	assert.Contains(t, out, "Errors block publication")
}

func TestWriteTextClean(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, &Report{}))
	assert.Contains(t, buf.String(), "validates cleanly")
}
