package streamparse

import (
	"errors"
	"regexp"
	"strings"
)

// depNameRe accepts npm-style package names, including scoped ones.
var depNameRe = regexp.MustCompile(`^(@[a-z0-9-~][a-z0-9-._~]*/)?[a-z0-9-~][a-z0-9-._~]*$`)

var errMalformedDependency = errors.New("streamparse: malformed dependency declaration")

// parseDependency reads a dependency payload: name@version with an optional
// :dev suffix.
//
//	left-pad@1.3.0
//	@scope/pkg@^2.0.0:dev
//
// Validation is intentionally permissive on the version side: anything that
// starts like a version or a range operator passes. Rejecting a plausible
// declaration mid-stream costs more than accepting a odd one.
func parseDependency(payload string) (*Dependency, error) {
	s := strings.TrimSpace(payload)
	dev := false
	if strings.HasSuffix(s, ":dev") {
		dev = true
		s = strings.TrimSuffix(s, ":dev")
	}

	// Last '@' separates name from version, so scoped names keep theirs.
	at := strings.LastIndexByte(s, '@')
	if at <= 0 {
		return nil, errMalformedDependency
	}
	name, version := s[:at], s[at+1:]
	if !depNameRe.MatchString(name) {
		return nil, errMalformedDependency
	}
	if !plausibleVersion(version) {
		return nil, errMalformedDependency
	}
	return &Dependency{Name: name, Version: version, Dev: dev}, nil
}

// plausibleVersion accepts versions starting with a digit or a range
// operator.
func plausibleVersion(v string) bool {
	if v == "" {
		return false
	}
	switch v[0] {
	case '^', '~', '>', '<', '=', '*':
		return true
	}
	return v[0] >= '0' && v[0] <= '9'
}
