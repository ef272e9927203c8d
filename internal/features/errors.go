package features

import "fmt"

// SchemaError reports a row whose shape does not match the training schema.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return "schema mismatch: " + e.Reason
}

// DomainError reports a value outside its valid range. Upstream inputs that
// went through Manual clamping never produce one.
type DomainError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s=%v out of range: %s", e.Field, e.Value, e.Reason)
}
