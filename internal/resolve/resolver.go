// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve maps heterogeneous identity keys (provider id, normalized
// title, normalized DOI) of paper records to one canonical paper id.
//
// Clusters are kept in a disjoint-set forest with path compression. Clusters
// only grow: a merge keeps the cluster created first and re-points the
// absorbed one to it, and the absorbed canonical id stays resolvable as an
// alias of the survivor.
package resolve

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrNoKeys is returned when a record carries no usable identity key.
var ErrNoKeys = errors.New("no identity keys")

// Resolver is safe for concurrent use; every operation holds one mutex, so
// two concurrent resolves of the same new paper never allocate two ids.
type Resolver struct {
	mu      sync.Mutex
	keys    map[Key]int
	parent  []int
	ids     []string
	byID    map[string]int
	members map[int][]Key
	merges  int

	newID   func() string
	onMerge func(survivor, absorbed string)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithIDGenerator replaces the default UUID generator.
func WithIDGenerator(fn func() string) Option {
	return func(r *Resolver) { r.newID = fn }
}

// WithMergeHook registers a callback invoked on every cluster merge. It runs
// under the resolver lock and must not call back into the Resolver.
func WithMergeHook(fn func(survivor, absorbed string)) Option {
	return func(r *Resolver) { r.onMerge = fn }
}

// New creates an empty Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		keys:    make(map[Key]int),
		byID:    make(map[string]int),
		members: make(map[int][]Key),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the canonical id for a record with the given keys.
//
// If no key is known a new cluster is allocated. If keys match one cluster
// the unseen keys join it. If they match several clusters, all of them are
// merged into the one created first. Keys with an empty value are ignored;
// ErrNoKeys is returned when none remain.
func (r *Resolver) Resolve(keys ...Key) (string, error) {
	valid := usable(keys)
	if len(valid) == 0 {
		return "", ErrNoKeys
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	survivor := -1
	var roots []int
	for _, k := range valid {
		n, ok := r.keys[k]
		if !ok {
			continue
		}
		root := r.find(n)
		if !containsInt(roots, root) {
			roots = append(roots, root)
		}
		if survivor < 0 || root < survivor {
			survivor = root
		}
	}

	if survivor < 0 {
		survivor = r.allocate()
	}
	for _, root := range roots {
		if root != survivor {
			r.union(survivor, root)
		}
	}
	for _, k := range valid {
		if _, ok := r.keys[k]; !ok {
			r.keys[k] = survivor
			r.members[survivor] = append(r.members[survivor], k)
		}
	}
	return r.ids[survivor], nil
}

// Lookup returns the canonical id of the oldest cluster matched by keys
// without registering anything.
func (r *Resolver) Lookup(keys ...Key) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	best := -1
	for _, k := range usable(keys) {
		n, ok := r.keys[k]
		if !ok {
			continue
		}
		if root := r.find(n); best < 0 || root < best {
			best = root
		}
	}
	if best < 0 {
		return "", false
	}
	return r.ids[best], true
}

// Canonical returns the surviving canonical id for any id this Resolver has
// allocated. Ids it does not know are returned unchanged.
func (r *Resolver) Canonical(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.byID[id]
	if !ok {
		return id
	}
	return r.ids[r.find(n)]
}

// Keys returns the keys of the cluster id belongs to, in registration order.
func (r *Resolver) Keys(id string) []Key {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.byID[id]
	if !ok {
		return nil
	}
	return append([]Key(nil), r.members[r.find(n)]...)
}

// Clusters returns the number of live clusters.
func (r *Resolver) Clusters() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Merges returns the number of cluster merges performed so far.
func (r *Resolver) Merges() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.merges
}

func (r *Resolver) allocate() int {
	n := len(r.parent)
	id := r.newID()
	r.parent = append(r.parent, n)
	r.ids = append(r.ids, id)
	r.byID[id] = n
	r.members[n] = nil
	return n
}

// find returns the root of n and compresses the path behind it.
func (r *Resolver) find(n int) int {
	root := n
	for r.parent[root] != root {
		root = r.parent[root]
	}
	for r.parent[n] != root {
		next := r.parent[n]
		r.parent[n] = root
		n = next
	}
	return root
}

// union absorbs the cluster rooted at absorbed into survivor. Roots are
// node indexes in creation order, so survivor < absorbed always holds.
func (r *Resolver) union(survivor, absorbed int) {
	r.parent[absorbed] = survivor
	r.members[survivor] = append(r.members[survivor], r.members[absorbed]...)
	delete(r.members, absorbed)
	r.merges++
	if r.onMerge != nil {
		r.onMerge(r.ids[survivor], r.ids[absorbed])
	}
}

func usable(keys []Key) []Key {
	out := make([]Key, 0, len(keys))
	for _, k := range keys {
		if k.Value == "" || k.Kind == 0 {
			continue
		}
		dup := false
		for _, o := range out {
			if o == k {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, k)
		}
	}
	return out
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
