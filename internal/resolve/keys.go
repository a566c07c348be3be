// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"fmt"
	"strings"
)

// KeyKind distinguishes the identity key variants. Keys of different kinds
// never collide, even when their values are equal strings.
type KeyKind uint8

const (
	KindProviderID KeyKind = iota + 1
	KindTitle
	KindDOI
)

func (k KeyKind) String() string {
	switch k {
	case KindProviderID:
		return "provider"
	case KindTitle:
		return "title"
	case KindDOI:
		return "doi"
	default:
		return "unknown"
	}
}

// Key is one identity key of a paper.
type Key struct {
	Kind  KeyKind
	Value string
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.Kind, k.Value)
}

// doiPrefixes are the resolver URL forms stripped from DOIs, checked after
// lower-casing.
var doiPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi.org/",
	"doi:",
}

// NormalizeTitle lower-cases the title and collapses whitespace. No other
// folding is applied: titles that differ in any other way stay distinct.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

// NormalizeDOI lower-cases and trims the DOI and strips a leading resolver
// URL prefix (e.g. "https://doi.org/10.1/ABC" → "10.1/abc").
func NormalizeDOI(doi string) string {
	d := strings.ToLower(strings.TrimSpace(doi))
	for _, p := range doiPrefixes {
		if strings.HasPrefix(d, p) {
			d = strings.TrimSpace(d[len(p):])
			break
		}
	}
	return d
}

// ProviderKey returns the provider-scoped id key. ok is false when id is empty.
func ProviderKey(provider, id string) (key Key, ok bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Key{}, false
	}
	return Key{Kind: KindProviderID, Value: provider + ":" + id}, true
}

// TitleKey returns the normalized title key. ok is false when the title is blank.
func TitleKey(title string) (key Key, ok bool) {
	t := NormalizeTitle(title)
	if t == "" {
		return Key{}, false
	}
	return Key{Kind: KindTitle, Value: t}, true
}

// DOIKey returns the normalized DOI key. ok is false when doi is blank.
func DOIKey(doi string) (key Key, ok bool) {
	d := NormalizeDOI(doi)
	if d == "" {
		return Key{}, false
	}
	return Key{Kind: KindDOI, Value: d}, true
}

// KeysFor builds every available key of a record. Absent values contribute
// no key.
func KeysFor(provider, id, title string, doi *string) []Key {
	var keys []Key
	if k, ok := ProviderKey(provider, id); ok {
		keys = append(keys, k)
	}
	if k, ok := TitleKey(title); ok {
		keys = append(keys, k)
	}
	if doi != nil {
		if k, ok := DOIKey(*doi); ok {
			keys = append(keys, k)
		}
	}
	return keys
}
