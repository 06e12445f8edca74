package scan

// Target is a directory node in the build graph. Targets are built once per
// run by Scan and must not be mutated afterwards.
type Target struct {
	// Path is the absolute directory path.
	Path string
	// ID is "." for the root, otherwise the "/"-joined path from the root.
	ID string
	// Files holds the direct source-like file names, sorted.
	Files []string
	// Children holds the kept child directories, sorted by ID.
	Children []*Target
	// HasArtifact reports whether an artifact file existed at scan time.
	HasArtifact bool
}

// Walk visits t and every descendant in pre-order. Returning false from fn
// stops the walk below that node.
func (t *Target) Walk(fn func(*Target) bool) {
	if t == nil {
		return
	}
	if !fn(t) {
		return
	}
	for _, c := range t.Children {
		c.Walk(fn)
	}
}

// Find returns the Target with the given ID in t's subtree, or nil.
func (t *Target) Find(id string) *Target {
	if id == "" {
		id = "."
	}
	var found *Target
	t.Walk(func(n *Target) bool {
		if found != nil {
			return false
		}
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Len returns the number of Targets in t's subtree, including t.
func (t *Target) Len() int {
	n := 0
	t.Walk(func(*Target) bool {
		n++
		return true
	})
	return n
}

// IDs returns the IDs of t's subtree in pre-order.
func (t *Target) IDs() []string {
	var ids []string
	t.Walk(func(n *Target) bool {
		ids = append(ids, n.ID)
		return true
	})
	return ids
}

// IsLeaf reports whether t has no kept children.
func (t *Target) IsLeaf() bool {
	return len(t.Children) == 0
}
