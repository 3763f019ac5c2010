package behavior

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// kindMatcher matches entity kinds against a set of glob patterns, e.g.
// "zombie", "*spider", "item/*_log".
type kindMatcher struct {
	patterns []string
}

func newKindMatcher(patterns []string) (*kindMatcher, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid kind pattern %q", p)
		}
	}
	return &kindMatcher{patterns: patterns}, nil
}

func (k *kindMatcher) Match(kind string) bool {
	for _, p := range k.patterns {
		if ok, _ := doublestar.Match(p, kind); ok {
			return true
		}
	}
	return false
}
