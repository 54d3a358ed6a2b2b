// Package reconcile compares user representations field by field: generated
// test data, records returned by the API and rows scraped from the UI grid.
package reconcile

import (
	"github.com/google/go-cmp/cmp"
	"github.com/phrazzld/users-qa/internal/check"
	"github.com/phrazzld/users-qa/internal/domain"
)

// Changes maps fields to the value an update is expected to leave them at.
// Absent and opaque values mark a field as not under test.
type Changes map[domain.Field]domain.FieldValue

// ChangesFrom turns a record into expected changes. Every data field becomes
// a key; undefined fields map to absent values and are therefore excluded
// from both the change check and the stability check.
func ChangesFrom(rec domain.UserRecord) Changes {
	changes := make(Changes, len(domain.UserFields))
	for _, f := range domain.UserFields {
		v, _ := rec.Lookup(f)
		changes[f] = v
	}
	return changes
}

func lookup(rec domain.Fields, f domain.Field) domain.FieldValue {
	v, ok := rec.Lookup(f)
	if !ok {
		return domain.Absent()
	}
	return v
}

// Matches reports whether name, username, email and phone are identical.
func Matches(expected, actual domain.Fields) bool {
	for _, f := range domain.UserFields {
		if !lookup(expected, f).Equal(lookup(actual, f)) {
			return false
		}
	}
	return true
}

func snapshot(rec domain.Fields) map[domain.Field]string {
	ret := make(map[domain.Field]string, len(domain.UserFields))
	for _, f := range domain.UserFields {
		ret[f] = lookup(rec, f).String()
	}
	return ret
}

// AssertMatching records a soft check that both users carry the same data.
func AssertMatching(r *check.Report, expected, actual domain.Fields) bool {
	if Matches(expected, actual) {
		return r.True(true, "users match")
	}
	return r.True(false, "users are NOT identical (-expected +actual):\n%s",
		cmp.Diff(snapshot(expected), snapshot(actual)))
}

// AssertNotMatching records a soft check that the users differ in at least
// one data field.
func AssertNotMatching(r *check.Report, first, second domain.Fields) bool {
	return r.False(Matches(first, second), "users are identical: %v", snapshot(first))
}

type options struct {
	reportCleared bool
}

// Option customizes ValidateUpdate.
type Option func(*options)

// ReportCleared fails untargeted fields that were set before the update and
// are null after it. By default a null on either side skips the field.
func ReportCleared() Option {
	return func(o *options) { o.reportCleared = true }
}

// ValidateUpdate checks that every targeted field took its new value and
// actually changed, and that every untargeted field stayed the same. Fields
// that are null on either side are not compared. All failures are
// accumulated in the returned report.
func ValidateUpdate(before, after domain.Fields, changes Changes, opts ...Option) *check.Report {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	r := check.New()

	for _, f := range orderedKeys(changes) {
		want := changes[f]
		if want.IsAbsent() || want.IsOpaque() {
			continue
		}
		beforeVal := lookup(before, f)
		afterVal := lookup(after, f)
		r.True(afterVal.Equal(want), "%q did not update to expected %s, got %s", f, want, afterVal)
		r.False(beforeVal.Equal(afterVal), "%q did not change, still %s", f, afterVal)
	}

	for _, f := range before.FieldNames() {
		if _, targeted := changes[f]; targeted {
			continue
		}
		afterVal, ok := after.Lookup(f)
		if !ok {
			continue
		}
		beforeVal := lookup(before, f)
		if beforeVal.IsAbsent() || beforeVal.IsOpaque() || afterVal.IsOpaque() {
			continue
		}
		if afterVal.IsAbsent() {
			if o.reportCleared {
				r.Failf("%q unexpectedly cleared, was %s", f, beforeVal)
			}
			continue
		}
		r.True(beforeVal.Equal(afterVal), "%q unexpectedly changed from %s to %s", f, beforeVal, afterVal)
	}
	return r
}

// orderedKeys returns the keys of changes with the data fields first in
// canonical order, followed by anything else.
func orderedKeys(changes Changes) []domain.Field {
	keys := make([]domain.Field, 0, len(changes))
	seen := make(map[domain.Field]bool, len(changes))
	for _, f := range domain.UserFields {
		if _, ok := changes[f]; ok {
			keys = append(keys, f)
			seen[f] = true
		}
	}
	for _, f := range []domain.Field{domain.FieldID, domain.FieldEdit, domain.FieldRemove} {
		if _, ok := changes[f]; ok && !seen[f] {
			keys = append(keys, f)
			seen[f] = true
		}
	}
	for f := range changes {
		if !seen[f] {
			keys = append(keys, f)
		}
	}
	return keys
}
