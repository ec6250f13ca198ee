package headers

import (
	"sort"
	"strings"

	"github.com/buildaudit/buildaudit/query"
)

// FindBySuffix indexes headers by their reversed path, so a query with a
// shorter tail (e.g. just a basename) can still find a provider fuzzily,
// scored by how many leading characters of the reversed strings match.
type FindBySuffix struct {
	reversed []reversedEntry // sorted by reversed path
}

type reversedEntry struct {
	reversedPath string
	header       string
	targets      []query.Target
}

func reverseString(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

func newFindBySuffix(headerToTargets map[string][]query.Target) *FindBySuffix {
	f := &FindBySuffix{}
	for header, targets := range headerToTargets {
		f.reversed = append(f.reversed, reversedEntry{
			reversedPath: reverseString(header),
			header:       header,
			targets:      targets,
		})
	}
	sort.Slice(f.reversed, func(i, j int) bool {
		return f.reversed[i].reversedPath < f.reversed[j].reversedPath
	})
	return f
}

// commonPrefixLen returns how many leading characters a and b share.
func commonPrefixLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

// Query looks up tail (e.g. "foo.h" or "sub/foo.h") against every indexed
// header's suffix, returning the header whose reversed path shares the
// longest leading run with the reversed tail. On a tie, the first tied
// header is named and targets is the union of every tied header's
// providers.
func (f *FindBySuffix) Query(tail string) (bestHeader string, targets []query.Target, score int) {
	reversedTail := reverseString(tail)
	best := -1
	var bestHeaders []reversedEntry
	for _, e := range f.reversed {
		if !strings.HasSuffix(e.header, tail) && !strings.HasPrefix(e.reversedPath, reversedTail) {
			continue
		}
		n := commonPrefixLen(e.reversedPath, reversedTail)
		if n > best {
			best = n
			bestHeaders = bestHeaders[:0]
			bestHeaders = append(bestHeaders, e)
		} else if n == best {
			bestHeaders = append(bestHeaders, e)
		}
	}
	if len(bestHeaders) == 0 {
		return "", nil, 0
	}
	winner := bestHeaders[0]
	if len(bestHeaders) == 1 {
		return winner.header, winner.targets, best
	}
	seen := map[query.Target]bool{}
	var union []query.Target
	for _, e := range bestHeaders {
		for _, t := range e.targets {
			if !seen[t] {
				seen[t] = true
				union = append(union, t)
			}
		}
	}
	return winner.header, union, best
}
