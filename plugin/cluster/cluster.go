// Package cluster groups related notes into connected components and assigns
// each component a display color.
package cluster

import "slices"

// Edge is an undirected relation between two notes. A record that reports an
// empty endpoint, or panics when read (a nil pointer), is skipped.
type Edge interface {
	Source() string
	Target() string
}

// Pair is the plain Edge implementation.
type Pair struct {
	SourceID string `json:"source_note_id"`
	TargetID string `json:"target_note_id"`
}

func (p Pair) Source() string { return p.SourceID }
func (p Pair) Target() string { return p.TargetID }

// Map is a note ID -> cluster index lookup.
// Notes without relations are absent, which is distinct from cluster 0.
type Map map[string]int

// Index returns the cluster index of noteID and whether it has one.
func (m Map) Index(noteID string) (int, bool) {
	idx, ok := m[noteID]
	return idx, ok
}

// Has reports whether noteID belongs to any cluster.
func (m Map) Has(noteID string) bool {
	_, ok := m[noteID]
	return ok
}

// Count returns the number of distinct clusters. Indices are dense from 0, so
// this is the highest index plus one.
func (m Map) Count() int {
	count := 0
	for _, idx := range m {
		if idx >= count {
			count = idx + 1
		}
	}
	return count
}

// Group lists the members of a single cluster.
type Group struct {
	Index   int      `json:"index"`
	NoteIDs []string `json:"note_ids"`
	Color   Color    `json:"color"`
}

// BuildRelationClusters partitions every note referenced by edges into connected
// components. Indices are handed out from 0 in the order roots are first met while
// walking notes in first-appearance order, so the result is deterministic for a
// given edge order. Malformed edges are skipped.
func BuildRelationClusters[E Edge](edges []E) Map {
	clusters := make(Map)
	if len(edges) == 0 {
		return clusters
	}

	ds := NewDisjointSet()
	noteIDs := make([]string, 0, len(edges)*2)
	seen := make(map[string]struct{}, len(edges)*2)
	collect := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		noteIDs = append(noteIDs, id)
	}

	for _, edge := range edges {
		source, target, ok := endpoints(edge)
		if !ok {
			continue
		}
		ds.Union(source, target)
		collect(source)
		collect(target)
	}

	rootIndex := make(map[string]int)
	for _, noteID := range noteIDs {
		root := ds.Find(noteID)
		idx, ok := rootIndex[root]
		if !ok {
			idx = len(rootIndex)
			rootIndex[root] = idx
		}
		clusters[noteID] = idx
	}
	return clusters
}

// endpoints reads both ends of edge. ok is false for an empty endpoint or a
// record that cannot be read.
func endpoints[E Edge](edge E) (source, target string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			source, target, ok = "", "", false
		}
	}()
	source, target = edge.Source(), edge.Target()
	return source, target, source != "" && target != ""
}

// Groups returns the clusters of m ordered by index with members sorted lexically.
func Groups(m Map) []Group {
	if len(m) == 0 {
		return []Group{}
	}

	byIndex := make(map[int][]string)
	maxIndex := 0
	for noteID, idx := range m {
		byIndex[idx] = append(byIndex[idx], noteID)
		if idx > maxIndex {
			maxIndex = idx
		}
	}

	groups := make([]Group, 0, len(byIndex))
	for idx := 0; idx <= maxIndex; idx++ {
		members, ok := byIndex[idx]
		if !ok {
			continue
		}
		slices.Sort(members)
		groups = append(groups, Group{
			Index:   idx,
			NoteIDs: members,
			Color:   PaletteColor(idx),
		})
	}
	return groups
}
