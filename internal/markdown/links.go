// Package markdown analyzes chapter bodies for link-like constructs. It
// never renders or rewrites content.
package markdown

// LinkKind classifies where a destination was found.
type LinkKind string

const (
	LinkKindInline              LinkKind = "inline"
	LinkKindImage               LinkKind = "image"
	LinkKindAuto                LinkKind = "auto"
	LinkKindReferenceDefinition LinkKind = "reference_definition"
)

// Link is one extracted destination, in document order.
type Link struct {
	Kind        LinkKind
	Destination string
}
