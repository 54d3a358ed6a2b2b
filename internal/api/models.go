package api

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/phrazzld/users-qa/internal/api/shared"
	"github.com/phrazzld/users-qa/internal/domain"
)

// PayloadField is one string attribute of a request body. It remembers
// whether the key was present and whether it was null, which a *string
// cannot tell apart.
type PayloadField struct {
	Present bool
	Null    bool
	Value   string
}

// UnmarshalJSON implements json.Unmarshaler. It is only called for keys
// present in the body, null included.
func (f *PayloadField) UnmarshalJSON(data []byte) error {
	f.Present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Null = true
		return nil
	}
	return json.Unmarshal(data, &f.Value)
}

// UserRequest is the body of POST /user/, PUT /user/{id} and PATCH /user/{id}.
type UserRequest struct {
	Name     PayloadField `json:"name"`
	Username PayloadField `json:"username"`
	Email    PayloadField `json:"email"`
	Phone    PayloadField `json:"phone"`
}

type namedField struct {
	name  domain.Field
	field *PayloadField
}

func (r *UserRequest) fields() []namedField {
	return []namedField{
		{domain.FieldName, &r.Name},
		{domain.FieldUsername, &r.Username},
		{domain.FieldEmail, &r.Email},
		{domain.FieldPhone, &r.Phone},
	}
}

// Validate checks the request. A full request must carry all four fields;
// a partial one at least one. Present fields may never be null. Blank names
// and usernames wrap store.ErrInvalidEntity, every other problem wraps
// ErrInvalidPayload.
func (r *UserRequest) Validate(partial bool) error {
	present := 0
	for _, f := range r.fields() {
		if !f.field.Present {
			if !partial {
				return invalidField(string(f.name), "field required")
			}
			continue
		}
		if f.field.Null {
			return invalidField(string(f.name), "must not be null")
		}
		present++
	}
	if present == 0 {
		return invalidField("body", "no fields to update")
	}

	for _, f := range []namedField{{domain.FieldName, &r.Name}, {domain.FieldUsername, &r.Username}} {
		if f.field.Present && strings.TrimSpace(f.field.Value) == "" {
			return blankField(string(f.name))
		}
	}

	for _, f := range []struct {
		namedField
		tag string
	}{
		{namedField{domain.FieldEmail, &r.Email}, "required,email"},
		{namedField{domain.FieldPhone, &r.Phone}, "required,phone"},
	} {
		if !f.field.Present {
			continue
		}
		if err := shared.ValidateVar(f.field.Value, f.tag); err != nil {
			return invalidField(string(f.name), validationReason(err))
		}
	}
	return nil
}

// Apply copies the present fields onto u.
func (r *UserRequest) Apply(u domain.User) domain.User {
	if r.Name.Present {
		u.Name = r.Name.Value
	}
	if r.Username.Present {
		u.Username = r.Username.Value
	}
	if r.Email.Present {
		u.Email = r.Email.Value
	}
	if r.Phone.Present {
		u.Phone = r.Phone.Value
	}
	return u
}
