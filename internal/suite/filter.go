package suite

import (
	"fmt"
	"regexp"
	"strings"
)

// Filter decides whether a scenario runs.
type Filter func(TestID) bool

// RegexFilters selects scenarios by path.
//
// MustMatch works like go test -run: each pattern is split on "/" and the
// pieces are matched against the path elements level by level, so
// "api/create" runs the api group and every create scenario inside it.
// MustNotMatch is matched against the whole path; excluding a group
// excludes its children.
type RegexFilters struct {
	MustMatch    RegexList
	MustNotMatch RegexList
}

// AsFilter implements Filter.
func (r RegexFilters) AsFilter(id TestID) bool {
	return (!r.MustMatch.IsDefined() || r.MustMatch.AnyMatchPath(id.Path)) &&
		!r.MustNotMatch.AnyMatch(id.String())
}

// Describe returns a human readable summary, or "" with no filters set.
func (r RegexFilters) Describe() string {
	var lines []string
	if r.MustMatch.IsDefined() {
		lines = append(lines, fmt.Sprintf("skip any not matching %s", r.MustMatch))
	}
	if r.MustNotMatch.IsDefined() {
		lines = append(lines, fmt.Sprintf("skip any matching %s", r.MustNotMatch))
	}
	return strings.Join(lines, "\n")
}

type pattern struct {
	full   *regexp.Regexp
	levels []*regexp.Regexp
}

// RegexList is a repeatable flag.Value of regular expressions.
type RegexList struct {
	patterns []pattern
}

func (r RegexList) String() string {
	var ss []string
	for _, p := range r.patterns {
		ss = append(ss, `"`+p.full.String()+`"`)
	}
	return strings.Join(ss, " or ")
}

// Set is called by the command line parser.
func (r *RegexList) Set(value string) error {
	full, err := regexp.Compile(value)
	if err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	p := pattern{full: full}
	for _, elem := range strings.Split(value, "/") {
		rx, err := regexp.Compile(elem)
		if err != nil {
			return fmt.Errorf("invalid regex %q in %q: %w", elem, value, err)
		}
		p.levels = append(p.levels, rx)
	}
	r.patterns = append(r.patterns, p)
	return nil
}

// IsDefined reports whether any pattern was added.
func (r RegexList) IsDefined() bool {
	return len(r.patterns) != 0
}

// AnyMatch reports whether s matches at least one pattern.
func (r RegexList) AnyMatch(s string) bool {
	for _, p := range r.patterns {
		if p.full.MatchString(s) {
			return true
		}
	}
	return false
}

// AnyMatchPath reports whether path matches at least one pattern level by
// level. Path elements deeper than a pattern always match.
func (r RegexList) AnyMatchPath(path []string) bool {
	for _, p := range r.patterns {
		if p.matchPath(path) {
			return true
		}
	}
	return false
}

func (p pattern) matchPath(path []string) bool {
	for i, elem := range path {
		if i >= len(p.levels) {
			break
		}
		if !p.levels[i].MatchString(elem) {
			return false
		}
	}
	return true
}
