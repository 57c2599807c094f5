package tree

import (
	"bytes"
	"sort"
	"strings"
	"testing"
)

const (
	tree2 = "((a:1,b:2):3,c:1):0;"
	tree3 = "(a:1,b:2,c:3):0;"
)

func leafNames(t *Tree) string {
	var names []string
	for _, node := range t.Leaves() {
		names = append(names, node.Name)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

func TestReroot1(tst *testing.T) {
	t, err := ParseNewick(bytes.NewBufferString(tree2))
	if err != nil {
		tst.Fatal("Error parsing tree", err)
	}

	t.Reroot(t.FindByName("a")[0])
	tst.Log("Rerooted:", t)
	if t.String() != "(a:0.500000,(c:4.000000,b:2.000000):0.500000):0.000000;" {
		tst.Error("Error rerooting tree, got:", t)
	}
	if t.NNodes() != 5 || len(t.Nodes()) != 5 {
		tst.Error("wrong number of nodes after rerooting")
	}
}

func TestRerootMultifurcating(tst *testing.T) {
	t, err := ParseNewick(bytes.NewBufferString(tree3))
	if err != nil {
		tst.Fatal("Error parsing tree", err)
	}

	t.Reroot(t.FindByName("b")[0])
	tst.Log("Rerooted:", t)
	if t.String() != "(b:1.000000,(a:1.000000,c:3.000000):1.000000):0.000000;" {
		tst.Error("Error rerooting tree, got:", t)
	}
	if t.Node.Id != 4 {
		tst.Error("new root should get the next free id, got", t.Node.Id)
	}
	if len(t.Nodes()) != 5 {
		tst.Error("wrong number of nodes after rerooting")
	}
}

func TestRerootNoop(tst *testing.T) {
	t, err := ParseNewick(bytes.NewBufferString(tree2))
	if err != nil {
		tst.Fatal("Error parsing tree", err)
	}
	before := t.String()
	t.Reroot(t.FindByName("c")[0])
	t.Reroot(t.Node)
	if t.String() != before {
		tst.Error("rerooting on a root child changed the tree:", t)
	}
}

func TestRerootAll(tst *testing.T) {
	t, err := ParseNewick(bytes.NewBufferString(tree1))
	if err != nil {
		tst.Fatal("Error parsing tree", err)
	}
	names := leafNames(t)
	n := t.NNodes()
	for id := 0; id < n; id++ {
		c := t.Copy()
		c.Reroot(c.Nodes()[id])
		if leafNames(c) != names {
			tst.Error("leaf set changed after rerooting at", id)
		}
		if c.NNodes() != n {
			tst.Error("node count changed after rerooting at", id)
		}
		if !c.IsBinary() {
			tst.Error("tree is not binary after rerooting at", id)
		}
		// Copy panics on id mismatch.
		c.Copy()
	}
}

func TestDeleteSubtree(tst *testing.T) {
	t, err := ParseNewick(bytes.NewBufferString(tree2))
	if err != nil {
		tst.Fatal("Error parsing tree", err)
	}
	if err := t.DeleteSubtree(t.FindByName("a")[0], true); err != nil {
		tst.Fatal(err)
	}
	if t.String() != "(b:5.000000,c:1.000000):0.000000;" {
		tst.Error("Error deleting subtree, got:", t)
	}

	t, _ = ParseNewick(bytes.NewBufferString(tree2))
	if err := t.DeleteSubtree(t.FindByName("c")[0], true); err != nil {
		tst.Fatal(err)
	}
	if t.String() != "(a:1.000000,b:2.000000):3.000000;" {
		tst.Error("Error deleting subtree, got:", t)
	}

	t, _ = ParseNewick(bytes.NewBufferString(tree3))
	if err := t.DeleteSubtree(t.FindByName("c")[0], true); err != nil {
		tst.Fatal(err)
	}
	if t.String() != "(a:1.000000,b:2.000000):0.000000;" {
		tst.Error("Error deleting subtree, got:", t)
	}

	if err := t.DeleteSubtree(t.Node, true); err == nil {
		tst.Error("deleting the root should fail")
	}
}

func TestRemoveSingleDescendantNodes(tst *testing.T) {
	t, err := ParseNewick(bytes.NewBufferString("(((a:1):1,b:1):1):1;"))
	if err != nil {
		tst.Fatal("Error parsing tree", err)
	}
	if r := t.RemoveSingleDescendantNodes(); r != 2 {
		tst.Error("expected 2 removed nodes, got", r)
	}
	if t.String() != "(a:2.000000,b:1.000000):1.000000;" {
		tst.Error("wrong tree:", t)
	}
	if len(t.Nodes()) != 3 {
		tst.Error("wrong number of nodes")
	}
}

func TestMidpointRoot(tst *testing.T) {
	t, err := ParseNewick(bytes.NewBufferString("((a:1,b:1):1,c:10);"))
	if err != nil {
		tst.Fatal("Error parsing tree", err)
	}
	t.MidpointRoot()
	tst.Log("Midpoint:", t)
	c := t.FindByName("c")[0]
	if c.BranchLength != 6 || !c.Parent.IsRoot() {
		tst.Error("wrong midpoint rooting:", t)
	}
	if t.MaxDistanceToRoot() != 6 {
		tst.Error("wrong maximal distance to root", t.MaxDistanceToRoot())
	}
}
