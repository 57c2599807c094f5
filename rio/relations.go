package rio

import "bitbucket.org/Davydov/gsdi/tree"

// Orthologs returns the external nodes whose last common ancestor with
// the query is not a duplication. The tree must be numbered in preorder.
func Orthologs(t *tree.Tree, query *tree.Node) (nodes []*tree.Node) {
	for _, n := range t.Leaves() {
		if n != query && !tree.LCA(query, n).IsDuplication() {
			nodes = append(nodes, n)
		}
	}
	return
}

// SuperOrthologs returns the external nodes connected to the query by
// speciations only: the subtree above the query up to the first
// duplication is searched without entering duplication nodes.
func SuperOrthologs(query *tree.Node) (nodes []*tree.Node) {
	top := query
	for !top.IsRoot() && !top.Parent.IsDuplication() {
		top = top.Parent
	}
	var visit func(*tree.Node)
	visit = func(n *tree.Node) {
		if n.IsTerminal() {
			if n != query {
				nodes = append(nodes, n)
			}
			return
		}
		if n.IsDuplication() {
			return
		}
		for _, child := range n.ChildNodes() {
			visit(child)
		}
	}
	visit(top)
	return
}

func allDuplications(n *tree.Node) bool {
	if n.IsTerminal() {
		return true
	}
	if !n.IsDuplication() {
		return false
	}
	for _, child := range n.ChildNodes() {
		if !allDuplications(child) {
			return false
		}
	}
	return true
}

// UltraParalogs returns the external nodes of the largest subtree around
// the query whose internal nodes are all duplications.
func UltraParalogs(query *tree.Node) (nodes []*tree.Node) {
	top := query
	for !top.IsRoot() && top.Parent.IsDuplication() && allDuplications(top.Parent) {
		top = top.Parent
	}
	for _, n := range top.Leaves() {
		if n != query {
			nodes = append(nodes, n)
		}
	}
	return
}
