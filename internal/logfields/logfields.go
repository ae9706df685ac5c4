package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID     = "build_id"
	KeyStage       = "stage"
	KeyDurationMS  = "duration_ms"
	KeyOutline     = "outline"
	KeyContentRoot = "content_root"
	KeyNode        = "node"
	KeyRef         = "ref"
	KeyTarget      = "target"
	KeyKind        = "kind"
	KeyCount       = "count"
	KeyPath        = "path"
	KeyTrigger     = "trigger"
	KeySubject     = "subject"
	KeyURL         = "url"
	KeyBranch      = "branch"
	KeyAddr        = "addr"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Outline(p string) slog.Attr      { return slog.String(KeyOutline, p) }
func ContentRoot(p string) slog.Attr  { return slog.String(KeyContentRoot, p) }
func Node(path string) slog.Attr      { return slog.String(KeyNode, path) }
func Ref(r string) slog.Attr          { return slog.String(KeyRef, r) }
func Target(t string) slog.Attr       { return slog.String(KeyTarget, t) }
func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Trigger(t string) slog.Attr      { return slog.String(KeyTrigger, t) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Branch(b string) slog.Attr       { return slog.String(KeyBranch, b) }
func Addr(a string) slog.Attr         { return slog.String(KeyAddr, a) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
