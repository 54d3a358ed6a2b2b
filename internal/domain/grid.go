package domain

// Handle refers to an interactive element on the users page, such as a row's
// Edit button. It is resolved by the browser driver and never compared.
type Handle struct {
	selector string
}

// NewHandle returns a handle for the element matched by selector.
func NewHandle(selector string) Handle { return Handle{selector: selector} }

// Selector returns the CSS selector of the element.
func (h Handle) Selector() string { return h.selector }

// IsZero reports whether the handle points at nothing.
func (h Handle) IsZero() bool { return h.selector == "" }

// UserRow is one row of the users grid.
type UserRow struct {
	ID       string
	Name     string
	Username string
	Email    string
	Phone    string
	Edit     Handle
	Remove   Handle
}

// FieldNames implements Fields.
func (r UserRow) FieldNames() []Field {
	return []Field{FieldID, FieldName, FieldUsername, FieldEmail, FieldPhone, FieldEdit, FieldRemove}
}

// Lookup implements Fields. Action buttons are reported as opaque values.
func (r UserRow) Lookup(f Field) (FieldValue, bool) {
	switch f {
	case FieldID:
		return Value(r.ID), true
	case FieldName:
		return Value(r.Name), true
	case FieldUsername:
		return Value(r.Username), true
	case FieldEmail:
		return Value(r.Email), true
	case FieldPhone:
		return Value(r.Phone), true
	case FieldEdit, FieldRemove:
		return Opaque(), true
	}
	return Absent(), false
}

// Record converts the row into a UserRecord with all data fields defined.
func (r UserRow) Record() UserRecord {
	return NewUserRecord(r.Name, r.Username, r.Email, r.Phone)
}

// ColumnHeader is one header cell of the users grid together with its
// optional sort and menu buttons.
type ColumnHeader struct {
	Field string
	Title string
	Sort  Handle
	Menu  Handle
}
