package tree

import (
	"errors"
	"math"
)

func (node *Node) replaceChild(old, new *Node) {
	for i, child := range node.childNodes {
		if child == old {
			node.childNodes[i] = new
			return
		}
	}
	panic("replaceChild: not a child")
}

func (node *Node) removeChild(child *Node) {
	for i, c := range node.childNodes {
		if c == child {
			node.childNodes = append(node.childNodes[:i], node.childNodes[i+1:]...)
			return
		}
	}
	panic("removeChild: not a child")
}

// Reroot places the root on the branch above n, in the middle of it.
func (tree *Tree) Reroot(n *Node) {
	tree.RerootAt(n, -1)
}

// RerootAt places the root on the branch above n at distance d from n.
// Negative d puts the root in the middle of the branch.
//
// Rerooting on a child of a bifurcating root keeps the topology and only
// redistributes branch lengths. A bifurcating old root is removed, a
// multifurcating one stays as an internal node. Node ids stay in the
// range 0..NNodes()-1: the new root takes the id of the removed old root,
// or the next free id.
func (tree *Tree) RerootAt(n *Node, d float64) {
	if n.IsRoot() || tree.NLeaves() < 2 {
		return
	}
	nextId := tree.NSubNodes()
	p := n.Parent

	if p.IsRoot() {
		if len(p.childNodes) == 2 {
			if d >= 0 {
				other := p.childNodes[0]
				if other == n {
					other = p.childNodes[1]
				}
				total := n.BranchLength + other.BranchLength
				n.BranchLength = d
				other.BranchLength = math.Max(total-d, 0)
			}
			return
		}
		dn := n.BranchLength
		p.removeChild(n)
		root := NewNode(nil, nextId)
		root.AddChild(n)
		root.AddChild(p)
		if d >= 0 {
			n.BranchLength = d
			p.BranchLength = math.Max(dn-d, 0)
		} else {
			n.BranchLength = dn / 2
			p.BranchLength = dn / 2
		}
		tree.Node = root
		tree.ClearCache()
		return
	}

	a := n
	b := p
	c := b.Parent
	root := NewNode(nil, nextId)

	carried := c.BranchLength
	c.BranchLength = b.BranchLength
	if d >= 0 {
		rest := a.BranchLength - d
		a.BranchLength = d
		b.BranchLength = math.Max(rest, 0)
	} else {
		a.BranchLength /= 2
		b.BranchLength = a.BranchLength
	}
	b.replaceChild(a, c)
	root.childNodes = []*Node{a, b}
	a.Parent = root
	b.Parent = root

	// Reverse the path up to the old root.
	for !c.IsRoot() {
		a = b
		b = c
		c = c.Parent
		b.replaceChild(a, c)
		b.Parent = a
		c.BranchLength, carried = carried, c.BranchLength
	}

	if len(c.childNodes) == 2 {
		other := c.childNodes[0]
		if other == b {
			other = c.childNodes[1]
		}
		other.Parent = b
		other.BranchLength = math.Max(other.BranchLength, 0) + math.Max(c.BranchLength, 0)
		b.replaceChild(c, other)
		root.Id = c.Id
	} else {
		c.Parent = b
		c.removeChild(b)
	}
	tree.Node = root
	tree.ClearCache()
}

// DeleteSubtree removes n and everything below it. With collapse, a
// parent left with a single child is replaced by that child and the
// branch lengths are added. Ids are not renumbered; call PreOrderReID
// before using Nodes() or Copy().
func (tree *Tree) DeleteSubtree(n *Node, collapse bool) error {
	if n.IsRoot() {
		return errors.New("cannot delete the root")
	}
	p := n.Parent
	switch {
	case !collapse || len(p.childNodes) != 2:
		p.removeChild(n)
	case p.IsRoot():
		p.removeChild(n)
		sibling := p.childNodes[0]
		sibling.Parent = nil
		tree.Node = sibling
	default:
		p.removeChild(n)
		sibling := p.childNodes[0]
		sibling.BranchLength += p.BranchLength
		p.Parent.replaceChild(p, sibling)
		sibling.Parent = p.Parent
	}
	n.Parent = nil
	tree.ClearCache()
	return nil
}

// RemoveSingleDescendantNodes splices out internal nodes with one child
// and renumbers the tree. Returns the number of removed nodes.
func (tree *Tree) RemoveSingleDescendantNodes() (removed int) {
	for _, node := range tree.NodeOrder() {
		if len(node.childNodes) != 1 {
			continue
		}
		child := node.childNodes[0]
		if node.IsRoot() {
			child.Parent = nil
			tree.Node = child
		} else {
			child.BranchLength += node.BranchLength
			node.Parent.replaceChild(node, child)
			child.Parent = node.Parent
		}
		removed++
	}
	if removed > 0 {
		tree.PreOrderReID()
	}
	return
}

// furthestLeaf returns the leaf below node with the largest distance to
// it; the first one on ties.
func furthestLeaf(node *Node) (leaf *Node) {
	max := -1.0
	for _, l := range node.Leaves() {
		if d := l.DistanceTo(node); d > max {
			max = d
			leaf = l
		}
	}
	return
}

// MidpointRoot roots the tree in the middle of the longest leaf to leaf
// path. Trees without positive branch lengths are left untouched.
func (tree *Tree) MidpointRoot() {
	if tree.NLeaves() < 2 || tree.MaxDistanceToRoot() <= 0 {
		return
	}
	total := tree.NNodes()
	for counter := 0; ; counter++ {
		if counter > total {
			panic("midpoint rooting does not converge")
		}
		var a *Node
		da, db := 0.0, 0.0
		for _, child := range tree.childNodes {
			f := furthestLeaf(child)
			df := f.DistanceTo(tree.Node)
			if df > 0 {
				if df > da {
					db = da
					da = df
					a = f
				} else if df > db {
					db = df
				}
			}
		}
		diff := da - db
		if diff < 0.000001 {
			break
		}
		x := da - diff/2
		for x > a.BranchLength && !a.IsRoot() {
			x -= math.Max(a.BranchLength, 0)
			a = a.Parent
		}
		tree.RerootAt(a, x)
	}
}
