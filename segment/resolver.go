package segment

// Resolver is a union-find forest over integer labels.
// The root of every class is the smallest label ever unioned into it.
// Resolver is not safe for concurrent use: create one per labeling or merging pass.
type Resolver struct {
	parent map[int]int
}

// NewResolver creates empty forest
func NewResolver() *Resolver {
	return &Resolver{
		parent: make(map[int]int),
	}
}

// Find returns canonical label of x's class and compresses the path to it.
// Labels never passed to Union are their own roots and are not recorded.
func (r *Resolver) Find(x int) int {
	root := x
	for {
		p, ok := r.parent[root]
		if !ok || p == root {
			break
		}
		root = p
	}
	// Second walk: point every node on the path straight at the root
	for x != root {
		next := r.parent[x]
		r.parent[x] = root
		x = next
	}
	return root
}

// Union merges classes of x and y. The larger root is attached under the smaller one.
func (r *Resolver) Union(x, y int) {
	rootX := r.Find(x)
	rootY := r.Find(y)
	if rootX == rootY {
		return
	}
	if rootX < rootY {
		r.parent[rootY] = rootX
	} else {
		r.parent[rootX] = rootY
	}
}

// Len returns number of recorded parent links
func (r *Resolver) Len() int {
	return len(r.parent)
}
