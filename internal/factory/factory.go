// Package factory generates randomized user test data and applies
// scenario-specific field overrides on top of it.
package factory

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/phrazzld/users-qa/internal/domain"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Overrides maps raw field names to the value a scenario wants. Use Set for a
// concrete value and Null to force a field to null.
type Overrides map[string]ldvalue.OptionalString

// Null is the override value that clears a field.
var Null = ldvalue.OptionalString{}

// Set returns an override value holding s.
func Set(s string) ldvalue.OptionalString { return ldvalue.NewOptionalString(s) }

// Factory produces fake users. Fields are generated independently, so the
// username is not derived from the name and so on.
type Factory struct {
	faker *gofakeit.Faker
}

// New creates a Factory. A zero seed picks a random one.
func New(seed uint64) *Factory {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Factory{faker: gofakeit.New(seed)}
}

// Generate returns a record with every field populated.
func (f *Factory) Generate() domain.UserRecord {
	return domain.NewUserRecord(
		f.faker.FirstName(),
		f.faker.Username(),
		f.faker.Email(),
		f.faker.PhoneFormatted(),
	)
}

// Build starts from Generate and applies overrides. Unknown field names fail
// with domain.ErrConfiguration before anything is applied.
func (f *Factory) Build(overrides Overrides) (domain.UserRecord, error) {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]domain.Field, len(keys))
	for i, k := range keys {
		field, err := domain.ParseField(k)
		if err != nil {
			return domain.UserRecord{}, fmt.Errorf("invalid override: %w", err)
		}
		fields[i] = field
	}

	user := f.Generate()
	for i, field := range fields {
		if err := user.Set(field, overrides[keys[i]]); err != nil {
			return domain.UserRecord{}, err
		}
	}
	return user, nil
}

// MustBuild is like Build but panics on unknown fields. Intended for literal
// fixtures in tests.
func (f *Factory) MustBuild(overrides Overrides) domain.UserRecord {
	user, err := f.Build(overrides)
	if err != nil {
		panic(err)
	}
	return user
}

// ToPayload converts a record into a JSON-ready map. Null fields are kept as
// nil entries rather than dropped.
func ToPayload(user domain.UserRecord) map[string]any {
	payload := make(map[string]any, len(domain.UserFields))
	for _, field := range domain.UserFields {
		v, _ := user.Get(field)
		if s, ok := v.Get(); ok {
			payload[string(field)] = s
		} else {
			payload[string(field)] = nil
		}
	}
	return payload
}
