package domain

import (
	"sort"
	"strings"
)

const keySeparator = "|"

// QualifiedKey names one result inside a checked-result collection:
// "<signalPathName>|<measurementName>|<resultName>".
type QualifiedKey string

func NewKey(signalPath, measurement, result string) QualifiedKey {
	return QualifiedKey(signalPath + keySeparator + measurement + keySeparator + result)
}

// Parts splits the key back into its three names.
func (k QualifiedKey) Parts() (signalPath, measurement, result string, ok bool) {
	parts := strings.SplitN(string(k), keySeparator, 3)
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// KeySet is an unordered set of qualified keys.
type KeySet map[QualifiedKey]struct{}

func NewKeySet(keys ...QualifiedKey) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

func (s KeySet) Has(k QualifiedKey) bool {
	_, ok := s[k]
	return ok
}

func (s KeySet) Add(k QualifiedKey) { s[k] = struct{}{} }

func (s KeySet) Remove(k QualifiedKey) { delete(s, k) }

// Sorted returns the keys in ascending order.
func (s KeySet) Sorted() []QualifiedKey {
	out := make([]QualifiedKey, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Difference returns a \ b in ascending key order.
func Difference(a, b KeySet) []QualifiedKey {
	out := make([]QualifiedKey, 0)
	for k := range a {
		if !b.Has(k) {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
