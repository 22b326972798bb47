// Package filter implements the include/exclude regex predicates that
// decide which topics, consumer groups, and topic config properties are
// eligible for replication.
package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// patternList is a compiled, anchored set of regexes built from a
// comma-separated configuration string. Every pattern is anchored at both
// ends (like Kafka's own Pattern.compile(".*" + alternation + ".*") trick,
// we anchor instead of wrapping, since Go's regexp has no partial-match
// mode without it) so that "exclude_param.*" matches "exclude_param.param1"
// but not "other_exclude_param.param1".
type patternList struct {
	regexes []*regexp.Regexp
}

func newPatternList(raw string) (patternList, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return patternList{}, nil
	}
	parts := strings.Split(raw, ",")
	pl := patternList{regexes: make([]*regexp.Regexp, 0, len(parts))}
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		re, err := regexp.Compile("^(?:" + part + ")$")
		if err != nil {
			return patternList{}, fmt.Errorf("filter: invalid pattern %q: %w", part, err)
		}
		pl.regexes = append(pl.regexes, re)
	}
	return pl, nil
}

func (pl patternList) matchesAny(s string) bool {
	for _, re := range pl.regexes {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func (pl patternList) empty() bool {
	return len(pl.regexes) == 0
}
