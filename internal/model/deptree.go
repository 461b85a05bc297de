package model

import "sort"

// TreeNode is a single node in the recursive dependency tree.
// Each node carries its full subtree of children inline, like npm's
// package-lock.json, so the tree can be rendered at any depth.
//
// Example:
//
//	app@1 -> children: [A@1 -> children: [B@1]]
type TreeNode struct {
	UID          string      `json:"uid"`
	Name         string      `json:"name"`
	Version      string      `json:"version,omitempty"`
	PURL         string      `json:"purl,omitempty"`
	Relationship string      `json:"relationship,omitempty"` // edge type from the parent
	Children     []*TreeNode `json:"children,omitempty"`
}

// DependencyTree is the relationship graph of a document unfolded into trees.
type DependencyTree struct {
	// ByUID provides O(1) lookup of any component by uid.
	ByUID map[string]*Component

	// Roots holds the root component when the document has one, otherwise
	// every component that no relationship points at.
	Roots []*TreeNode
}

// BuildDependencyTree unfolds the relationships of doc.
func BuildDependencyTree(doc *Document) *DependencyTree {
	tree := &DependencyTree{
		ByUID: make(map[string]*Component, len(doc.Components)+1),
	}
	for _, c := range doc.AllComponents() {
		if c.UID != nil {
			tree.ByUID[*c.UID] = c
		}
	}
	tree.Roots = tree.buildTree(doc)
	return tree
}

// workItem holds a pending node to be expanded along with the set of ancestor
// uids on the path from the root to this node (used for cycle detection).
type workItem struct {
	uid       string
	node      *TreeNode
	ancestors map[string]bool
}

func (t *DependencyTree) rootUIDs(doc *Document) []string {
	if doc.RootComponent != nil && doc.RootComponent.UID != nil {
		return []string{*doc.RootComponent.UID}
	}
	targeted := map[string]bool{}
	for _, rels := range doc.Relationships {
		for _, rel := range rels {
			targeted[rel.OtherUID] = true
		}
	}
	var roots []string
	for uid := range t.ByUID {
		if !targeted[uid] {
			roots = append(roots, uid)
		}
	}
	sort.Slice(roots, func(i, j int) bool {
		li, lj := t.ByUID[roots[i]].Label(), t.ByUID[roots[j]].Label()
		if li != lj {
			return li < lj
		}
		return roots[i] < roots[j]
	})
	return roots
}

func (t *DependencyTree) newNode(uid, relType string) *TreeNode {
	node := &TreeNode{UID: uid, Relationship: relType}
	c := t.ByUID[uid]
	if c == nil {
		// Referenced in an edge but not in the component list.
		node.Name = uid
		return node
	}
	node.Name = Deref(c.Name)
	node.Version = Deref(c.Version)
	if len(c.PURLs) > 0 {
		node.PURL = c.PURLs[0]
	}
	return node
}

// buildTree builds the tree iteratively, level by level, using a queue
// instead of recursion. Cycles are broken by tracking the ancestor set on
// the path from the root to the current node: a child that would close a
// cycle is emitted as a leaf.
func (t *DependencyTree) buildTree(doc *Document) []*TreeNode {
	uids := t.rootUIDs(doc)
	roots := make([]*TreeNode, 0, len(uids))
	queue := make([]workItem, 0, len(uids))

	for _, uid := range uids {
		node := t.newNode(uid, "")
		roots = append(roots, node)
		queue = append(queue, workItem{uid: uid, node: node, ancestors: map[string]bool{uid: true}})
	}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		rels := append([]Relationship(nil), doc.Relationships[item.uid]...)
		sort.Slice(rels, func(i, j int) bool {
			if rels[i].OtherUID != rels[j].OtherUID {
				return rels[i].OtherUID < rels[j].OtherUID
			}
			return rels[i].Type < rels[j].Type
		})

		for _, rel := range rels {
			child := t.newNode(rel.OtherUID, rel.Type)
			item.node.Children = append(item.node.Children, child)

			if item.ancestors[rel.OtherUID] || t.ByUID[rel.OtherUID] == nil {
				continue
			}

			childAncestors := make(map[string]bool, len(item.ancestors)+1)
			for k := range item.ancestors {
				childAncestors[k] = true
			}
			childAncestors[rel.OtherUID] = true

			queue = append(queue, workItem{uid: rel.OtherUID, node: child, ancestors: childAncestors})
		}
	}

	return roots
}
