package domain

import "fmt"

// Field names a single attribute of a user representation.
type Field string

// Known fields. The first four are the data fields every representation
// carries; the rest only exist on some of them.
const (
	FieldName     Field = "name"
	FieldUsername Field = "username"
	FieldEmail    Field = "email"
	FieldPhone    Field = "phone"
	FieldID       Field = "id"
	FieldEdit     Field = "edit"
	FieldRemove   Field = "remove"
)

// UserFields lists the data fields in their canonical order.
var UserFields = []Field{FieldName, FieldUsername, FieldEmail, FieldPhone}

// ParseField converts a raw field name into one of the four data fields.
func ParseField(name string) (Field, error) {
	for _, f := range UserFields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownField, name)
}

type valueKind int

const (
	kindAbsent valueKind = iota
	kindValue
	kindOpaque
)

// FieldValue is the value of one field as seen by the reconciler. A value is
// either absent (null, meaning "not set / not under test"), a plain string, or
// opaque (a UI handle that cannot be compared).
type FieldValue struct {
	kind  valueKind
	value string
}

// Absent returns a FieldValue representing null.
func Absent() FieldValue { return FieldValue{} }

// Value returns a comparable FieldValue holding s.
func Value(s string) FieldValue { return FieldValue{kind: kindValue, value: s} }

// Opaque returns a non-comparable FieldValue.
func Opaque() FieldValue { return FieldValue{kind: kindOpaque} }

// IsAbsent reports whether the value is null.
func (v FieldValue) IsAbsent() bool { return v.kind == kindAbsent }

// IsOpaque reports whether the value is a non-comparable placeholder.
func (v FieldValue) IsOpaque() bool { return v.kind == kindOpaque }

// Comparable reports whether the value holds a plain string.
func (v FieldValue) Comparable() bool { return v.kind == kindValue }

// StringValue returns the held string, or "" for absent and opaque values.
func (v FieldValue) StringValue() string { return v.value }

// Equal reports whether two values are the same. Two absent values are equal;
// opaque values are never equal to anything.
func (v FieldValue) Equal(other FieldValue) bool {
	if v.kind == kindOpaque || other.kind == kindOpaque {
		return false
	}
	return v.kind == other.kind && v.value == other.value
}

func (v FieldValue) String() string {
	switch v.kind {
	case kindValue:
		return fmt.Sprintf("%q", v.value)
	case kindOpaque:
		return "<handle>"
	default:
		return "null"
	}
}

// Fields is implemented by every user representation.
type Fields interface {
	// FieldNames lists the attributes the representation carries, in order.
	FieldNames() []Field

	// Lookup returns the value of f and whether the representation has
	// such an attribute at all.
	Lookup(f Field) (FieldValue, bool)
}
