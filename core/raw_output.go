package core

// RawOutput is the closed union of shapes a backend may return. The unexported
// marker method keeps the set of variants fixed to the three types below, so a
// type switch over them in the normalizer is exhaustive.
type RawOutput interface {
	isRawOutput()
}

// PlainText is ordinary text output. It may still carry a stringified wrapper
// object, which the normalizer detects by its constructor-call preamble.
type PlainText string

// StructuredRecord is a string-keyed record such as a decoded JSON object.
type StructuredRecord map[string]any

// WrapperObjectString is output known to be the stringified form of a
// structured record, e.g. `RunResponse(content='...', thinking=None)`.
type WrapperObjectString string

func (PlainText) isRawOutput()           {}
func (StructuredRecord) isRawOutput()    {}
func (WrapperObjectString) isRawOutput() {}
