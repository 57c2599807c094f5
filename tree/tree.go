// Package tree implements rooted phylogenetic trees with the operations
// needed for gene tree/species tree reconciliation: traversal orders, node
// numbering, copying, rerooting and subtree removal.
package tree

import (
	"fmt"
	"strings"
)

type Tree struct {
	*Node
	nNodes    int
	nodes     []*Node
	nodeOrder []*Node
}

// ClearCache drops cached node lists. It has to be called after every
// topology change.
func (tree *Tree) ClearCache() {
	tree.nNodes = 0
	tree.nodes = nil
	tree.nodeOrder = nil
}

func (tree *Tree) NNodes() int {
	if tree.nNodes == 0 {
		tree.nNodes = tree.NSubNodes()
	}
	return tree.nNodes
}

// Nodes returns all the nodes indexed by Id. Ids must be 0..NNodes()-1,
// which holds after parsing, PreOrderReID and the topology operations of
// this package.
func (tree *Tree) Nodes() []*Node {
	if tree.nodes == nil {
		tree.nodes = make([]*Node, tree.NNodes())
		for node := range tree.Walker(nil) {
			if node.Id < 0 || node.Id >= len(tree.nodes) || tree.nodes[node.Id] != nil {
				panic(fmt.Sprintf("node id mismatch: %v", node.LongString()))
			}
			tree.nodes[node.Id] = node
		}
	}
	return tree.nodes
}

func (tree *Tree) Terminals() <-chan *Node {
	return tree.Walker(func(n *Node) bool {
		return n.IsTerminal()
	})
}

func (tree *Tree) NonTerminals() <-chan *Node {
	return tree.Walker(func(node *Node) bool {
		return !node.IsTerminal()
	})
}

func (tree *Tree) NLeaves() (i int) {
	for range tree.Terminals() {
		i++
	}
	return
}

// NInternal returns the number of non-terminal nodes including the root.
func (tree *Tree) NInternal() int {
	return tree.NNodes() - tree.NLeaves()
}

func (tree *Tree) Walker(filter func(*Node) bool) <-chan *Node {
	ch := make(chan *Node, tree.NNodes())
	tree.Walk(ch, filter)
	close(ch)
	return ch
}

// Leaves returns terminal nodes in preorder (left to right).
func (tree *Tree) Leaves() []*Node {
	leaves := make([]*Node, 0, tree.NNodes()/2+1)
	for node := range tree.Terminals() {
		leaves = append(leaves, node)
	}
	return leaves
}

// PreOrder returns all nodes, parents before children.
func (tree *Tree) PreOrder() []*Node {
	nodes := make([]*Node, 0, tree.NNodes())
	for node := range tree.Walker(nil) {
		nodes = append(nodes, node)
	}
	return nodes
}

// LevelOrder returns all nodes breadth first starting from the root.
func (tree *Tree) LevelOrder() []*Node {
	nodes := make([]*Node, 0, tree.NNodes())
	nodes = append(nodes, tree.Node)
	for i := 0; i < len(nodes); i++ {
		nodes = append(nodes, nodes[i].childNodes...)
	}
	return nodes
}

// Copy creates independent copy of the tree. Node ids are preserved.
func (tree *Tree) Copy() (newTree *Tree) {
	nNodes := tree.NNodes()
	newTree = &Tree{
		nNodes: nNodes,
		nodes:  make([]*Node, nNodes),
	}

	// Create node list.
	for i, node := range tree.Nodes() {
		newTree.nodes[i] = node.Copy()
	}

	// Rewire node/parent connections.
	for i, node := range tree.Nodes() {
		newNode := newTree.nodes[i]
		for _, child := range node.childNodes {
			newNode.AddChild(newTree.nodes[child.Id])
		}
	}

	newTree.Node = newTree.nodes[tree.Node.Id]

	return
}

// NodeOrder returns all the nodes in postorder, children before parents.
func (tree *Tree) NodeOrder() []*Node {
	if tree.nodeOrder == nil {
		tree.nodeOrder = make([]*Node, 0, tree.NNodes())
		var visit func(*Node)
		visit = func(node *Node) {
			for _, child := range node.childNodes {
				visit(child)
			}
			tree.nodeOrder = append(tree.nodeOrder, node)
		}
		visit(tree.Node)
	}
	return tree.nodeOrder
}

// PreOrderReID assigns ids 0, 1, ... in preorder starting from the root.
func (tree *Tree) PreOrderReID() {
	id := 0
	for node := range tree.Walker(nil) {
		node.Id = id
		id++
	}
	tree.ClearCache()
}

// LevelOrderReID assigns ids 0, 1, ... breadth first starting from the
// root.
func (tree *Tree) LevelOrderReID() {
	for i, node := range tree.LevelOrder() {
		node.Id = i
	}
	tree.ClearCache()
}

// Depths returns the number of edges between every node and the root.
func (tree *Tree) Depths() map[*Node]int {
	depths := make(map[*Node]int, tree.NNodes())
	for _, node := range tree.LevelOrder() {
		if node.IsRoot() {
			depths[node] = 0
		} else {
			depths[node] = depths[node.Parent] + 1
		}
	}
	return depths
}

// FindByName returns all the nodes with a given name or sequence name.
func (tree *Tree) FindByName(name string) (nodes []*Node) {
	for node := range tree.Walker(func(n *Node) bool {
		return n.Label() == name
	}) {
		nodes = append(nodes, node)
	}
	return
}

// IsBinary is true if every internal node has exactly two children.
func (tree *Tree) IsBinary() bool {
	for node := range tree.NonTerminals() {
		if len(node.childNodes) != 2 {
			return false
		}
	}
	return true
}

// MaxDistanceToRoot returns the largest sum of branch lengths between the
// root and a leaf.
func (tree *Tree) MaxDistanceToRoot() (max float64) {
	for node := range tree.Terminals() {
		if d := node.DistanceTo(tree.Node); d > max {
			max = d
		}
	}
	return
}

type Node struct {
	Name         string
	BranchLength float64
	Parent       *Node
	childNodes   []*Node
	Id           int
	Taxonomy     *Taxonomy
	SequenceName string
	Event        Event
}

func NewNode(parent *Node, nodeId int) (node *Node) {
	node = &Node{Parent: parent, Id: nodeId}
	return
}

// Copy creates copy of node with empty parent and children.
func (node *Node) Copy() *Node {
	newNode := &Node{
		Name:         node.Name,
		BranchLength: node.BranchLength,
		childNodes:   make([]*Node, 0, len(node.childNodes)),
		Id:           node.Id,
		SequenceName: node.SequenceName,
		Event:        node.Event,
	}
	if node.Taxonomy != nil {
		tax := *node.Taxonomy
		newNode.Taxonomy = &tax
	}
	return newNode
}

func (node *Node) AddChild(subNode *Node) {
	subNode.Parent = node
	node.childNodes = append(node.childNodes, subNode)
}

// Label returns the sequence name if set, the node name otherwise.
func (node *Node) Label() string {
	if node.SequenceName != "" {
		return node.SequenceName
	}
	return node.Name
}

func (node *Node) String() (s string) {
	if node.IsTerminal() {
		return fmt.Sprintf("%s:%0.6f", node.Name, node.BranchLength)
	}
	s += "("
	for i, child := range node.childNodes {
		s += child.String()
		if i != len(node.childNodes)-1 {
			s += ","
		}
	}
	s += fmt.Sprintf(")%s:%0.6f", node.Name, node.BranchLength)
	if node.IsRoot() {
		s += ";"
	}
	return s
}

func (node *Node) LongString() (s string) {
	s = "<"
	if node.Parent == nil {
		s += "root, "
	}
	if node.Name != "" {
		s += "name=" + node.Name + ", "
	}
	s += fmt.Sprintf("Id=%v, BranchLength=%v", node.Id, node.BranchLength)
	if node.Taxonomy != nil {
		s += ", Taxonomy=" + node.Taxonomy.String()
	}
	if node.Event != NoEvent {
		s += fmt.Sprintf(", Event=%v", node.Event)
	}
	s += ">"
	return
}

func (node *Node) FullString() string {
	return strings.TrimSpace(node.prefixString(""))
}

func (node *Node) prefixString(prefix string) (s string) {
	s = prefix + node.LongString() + "\n"
	for _, node := range node.childNodes {
		s += node.prefixString(prefix + "    ")
	}
	return
}

func (node *Node) ChildNodes() []*Node {
	return node.childNodes
}

// ChildIndex returns the position of the node among its siblings.
func (node *Node) ChildIndex() int {
	if node.Parent == nil {
		return -1
	}
	for i, child := range node.Parent.childNodes {
		if child == node {
			return i
		}
	}
	panic("node is not a child of its parent")
}

func (node *Node) Walk(ch chan *Node, filter func(*Node) bool) {
	if filter == nil || filter(node) {
		ch <- node
	}
	for _, node := range node.childNodes {
		node.Walk(ch, filter)
	}
}

func (node *Node) NSubNodes() (size int) {
	for _, node := range node.childNodes {
		size += node.NSubNodes()
	}
	return size + 1
}

// Leaves returns the terminal descendants of the node, or the node itself
// if it is terminal.
func (node *Node) Leaves() (leaves []*Node) {
	if node.IsTerminal() {
		return []*Node{node}
	}
	for _, child := range node.childNodes {
		leaves = append(leaves, child.Leaves()...)
	}
	return
}

// DistanceTo returns the sum of branch lengths on the path up to an
// ancestor.
func (node *Node) DistanceTo(ancestor *Node) (d float64) {
	for n := node; n != ancestor && n != nil; n = n.Parent {
		if n.BranchLength > 0 {
			d += n.BranchLength
		}
	}
	return
}

func (node *Node) IsRoot() bool {
	return node.Parent == nil
}

func (node *Node) IsTerminal() bool {
	return len(node.childNodes) == 0
}

func (node *Node) IsDuplication() bool {
	return node.Event == Duplication
}

// LCA returns the last common ancestor of two nodes of a tree numbered
// with PreOrderReID. The node with the larger id cannot be an ancestor of
// the other one, so it is the one moved up.
func LCA(a, b *Node) *Node {
	for a != b {
		if a.Id > b.Id {
			a = a.Parent
		} else {
			b = b.Parent
		}
		if a == nil || b == nil {
			panic("nodes do not share a root or ids are not in preorder")
		}
	}
	return a
}
