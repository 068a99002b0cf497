package model

// PayloadKind tags which variant a Payload carries.
type PayloadKind int

const (
	PayloadText PayloadKind = iota
	PayloadBytes
	PayloadStructured
)

// Payload is the tagged-variant content carried opaquely through the
// scheduler, per spec.md §9's "dynamic message payloads" redesign guidance.
// Exactly one of the three fields is meaningful, selected by Kind; the
// scheduler only ever calls Size, never branches on content.
type Payload struct {
	Kind       PayloadKind
	Text       string
	Bytes      []byte
	Structured map[string]any
}

// NewTextPayload wraps a string payload.
func NewTextPayload(s string) Payload {
	return Payload{Kind: PayloadText, Text: s}
}

// NewBytesPayload wraps a raw byte payload.
func NewBytesPayload(b []byte) Payload {
	return Payload{Kind: PayloadBytes, Bytes: b}
}

// NewStructuredPayload wraps a key/value payload.
func NewStructuredPayload(kv map[string]any) Payload {
	return Payload{Kind: PayloadStructured, Structured: kv}
}

// Size returns the wire size in bytes the core uses to validate
// bandwidth_required; it is the only thing the core ever derives from
// payload content.
func (p Payload) Size() int {
	switch p.Kind {
	case PayloadText:
		return len(p.Text)
	case PayloadBytes:
		return len(p.Bytes)
	case PayloadStructured:
		n := 0
		for k, v := range p.Structured {
			n += len(k)
			if s, ok := v.(string); ok {
				n += len(s)
			} else {
				n += 8 // advisory estimate for non-string values
			}
		}
		return n
	default:
		return 0
	}
}
