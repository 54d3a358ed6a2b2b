package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// UserRecord is a generated or hand-written test subject. Every field is
// independently optional: an undefined value means "do not set / do not check",
// which is distinct from a defined empty string.
type UserRecord struct {
	Name     ldvalue.OptionalString
	Username ldvalue.OptionalString
	Email    ldvalue.OptionalString
	Phone    ldvalue.OptionalString
}

// NewUserRecord builds a record with all four fields defined.
func NewUserRecord(name, username, email, phone string) UserRecord {
	return UserRecord{
		Name:     ldvalue.NewOptionalString(name),
		Username: ldvalue.NewOptionalString(username),
		Email:    ldvalue.NewOptionalString(email),
		Phone:    ldvalue.NewOptionalString(phone),
	}
}

// Get returns the value stored for f.
func (u UserRecord) Get(f Field) (ldvalue.OptionalString, error) {
	switch f {
	case FieldName:
		return u.Name, nil
	case FieldUsername:
		return u.Username, nil
	case FieldEmail:
		return u.Email, nil
	case FieldPhone:
		return u.Phone, nil
	}
	return ldvalue.OptionalString{}, fmt.Errorf("%w %q", ErrUnknownField, f)
}

// Set stores v in f. Unknown fields are a configuration error.
func (u *UserRecord) Set(f Field, v ldvalue.OptionalString) error {
	switch f {
	case FieldName:
		u.Name = v
	case FieldUsername:
		u.Username = v
	case FieldEmail:
		u.Email = v
	case FieldPhone:
		u.Phone = v
	default:
		return fmt.Errorf("%w %q", ErrUnknownField, f)
	}
	return nil
}

// FieldNames implements Fields.
func (u UserRecord) FieldNames() []Field {
	return append([]Field(nil), UserFields...)
}

// Lookup implements Fields.
func (u UserRecord) Lookup(f Field) (FieldValue, bool) {
	v, err := u.Get(f)
	if err != nil {
		return Absent(), false
	}
	return optionalValue(v), true
}

func (u UserRecord) String() string {
	parts := make([]string, 0, len(UserFields))
	for _, f := range UserFields {
		v, _ := u.Lookup(f)
		parts = append(parts, fmt.Sprintf("%s=%s", f, v))
	}
	return "UserRecord{" + strings.Join(parts, ", ") + "}"
}

func optionalValue(v ldvalue.OptionalString) FieldValue {
	if s, ok := v.Get(); ok {
		return Value(s)
	}
	return Absent()
}

// User is a user record as returned by the REST API. Decoding rejects
// payloads that are missing any field or carry nulls.
type User struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// UnmarshalJSON decodes a user, requiring every field to be present.
func (u *User) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       *int    `json:"id"`
		Name     *string `json:"name"`
		Username *string `json:"username"`
		Email    *string `json:"email"`
		Phone    *string `json:"phone"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}

	var missing []string
	if raw.ID == nil {
		missing = append(missing, string(FieldID))
	}
	str := func(f Field, p *string) string {
		if p == nil {
			missing = append(missing, string(f))
			return ""
		}
		return *p
	}
	decoded := User{
		Name:     str(FieldName, raw.Name),
		Username: str(FieldUsername, raw.Username),
		Email:    str(FieldEmail, raw.Email),
		Phone:    str(FieldPhone, raw.Phone),
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing or null field(s): %s", ErrSchema, strings.Join(missing, ", "))
	}
	decoded.ID = *raw.ID
	*u = decoded
	return nil
}

// FieldNames implements Fields.
func (u User) FieldNames() []Field {
	return []Field{FieldID, FieldName, FieldUsername, FieldEmail, FieldPhone}
}

// Lookup implements Fields.
func (u User) Lookup(f Field) (FieldValue, bool) {
	switch f {
	case FieldID:
		return Value(strconv.Itoa(u.ID)), true
	case FieldName:
		return Value(u.Name), true
	case FieldUsername:
		return Value(u.Username), true
	case FieldEmail:
		return Value(u.Email), true
	case FieldPhone:
		return Value(u.Phone), true
	}
	return Absent(), false
}

// Record converts the API user into a UserRecord with all fields defined.
func (u User) Record() UserRecord {
	return NewUserRecord(u.Name, u.Username, u.Email, u.Phone)
}
