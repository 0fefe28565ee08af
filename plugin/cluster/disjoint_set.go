package cluster

// DisjointSet is a union-find structure over string keys.
// Keys are added lazily on first use, so no universe needs to be declared up front.
type DisjointSet struct {
	parent map[string]string
	rank   map[string]int
}

// NewDisjointSet creates an empty DisjointSet.
func NewDisjointSet() *DisjointSet {
	return &DisjointSet{
		parent: make(map[string]string),
		rank:   make(map[string]int),
	}
}

// Find returns the representative of the set containing x.
// An unseen x becomes its own singleton set.
func (d *DisjointSet) Find(x string) string {
	if _, ok := d.parent[x]; !ok {
		d.parent[x] = x
		d.rank[x] = 0
		return x
	}

	root := x
	for d.parent[root] != root {
		root = d.parent[root]
	}

	// Path compression
	for x != root {
		next := d.parent[x]
		d.parent[x] = root
		x = next
	}
	return root
}

// Union merges the sets containing x and y using union by rank.
// Joining two members of the same set is a no-op.
func (d *DisjointSet) Union(x, y string) {
	rootX, rootY := d.Find(x), d.Find(y)
	if rootX == rootY {
		return
	}

	rankX, rankY := d.rank[rootX], d.rank[rootY]
	switch {
	case rankX < rankY:
		d.parent[rootX] = rootY
	case rankX > rankY:
		d.parent[rootY] = rootX
	default:
		d.parent[rootY] = rootX
		d.rank[rootX] = rankX + 1
	}
}

// Connected reports whether x and y share a set.
func (d *DisjointSet) Connected(x, y string) bool {
	return d.Find(x) == d.Find(y)
}

// Len returns the number of keys seen so far.
func (d *DisjointSet) Len() int {
	return len(d.parent)
}
