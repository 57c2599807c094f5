package tree

import (
	"bytes"
	"testing"
)

const (
	tree1 = "((((a001:0.242690,a002:0.268555):0.073424,a003:0.252510):0.198740,((((((a004:0.001000,a005:0.014869):0.045007,a006:0.050606):0.056908,a007:0.166439):0.023217,a008:0.094788):0.429852,a009:0.558116):0.130317,(a010:0.009332,a011:0.024271):0.315124):0.217376):0.464470,a012:0.144369):0.0;"
)

func TestCopy1(tst *testing.T) {
	t, err := ParseNewick(bytes.NewBufferString(tree1))
	if err != nil {
		tst.Fatal("Error parsing tree", err)
	}
	t.Leaves()[0].Taxonomy = &Taxonomy{Code: "HUMAN"}
	t.Node.Event = Duplication

	t1 := t.Copy()
	t2 := t1.Copy()

	t.ClearCache()
	t1.ClearCache()

	tNodes := t.Nodes()
	t1Nodes := t1.Nodes()
	t2Nodes := t2.Nodes()

	if len(tNodes) != len(t1Nodes) {
		tst.Error("node length differ between t and t1")
	}
	if len(t1Nodes) != len(t2Nodes) {
		tst.Error("node length differ between t1 and t2")
	}

	for i := 0; i < len(tNodes); i++ {
		if tNodes[i] == t1Nodes[i] ||
			t1Nodes[i] == t2Nodes[i] {
			tst.Error("node pointers match between trees")
		}
		if tNodes[i].BranchLength != t1Nodes[i].BranchLength ||
			t1Nodes[i].BranchLength != t2Nodes[i].BranchLength {
			tst.Error("node length differ")
		}
		if tNodes[i].Name != t1Nodes[i].Name ||
			t1Nodes[i].Name != t2Nodes[i].Name {
			tst.Error("node name differ")
		}
		if tNodes[i].Event != t1Nodes[i].Event ||
			t1Nodes[i].Event != t2Nodes[i].Event {
			tst.Error("node event differ")
		}
	}

	if t2.Leaves()[0].Taxonomy == nil || t2.Leaves()[0].Taxonomy.Code != "HUMAN" {
		tst.Error("taxonomy was not copied")
	}
	t2.Leaves()[0].Taxonomy.Code = "MOUSE"
	if t.Leaves()[0].Taxonomy.Code != "HUMAN" {
		tst.Error("taxonomy is shared between copies")
	}

	for _, node := range t1.Nodes() {
		node.BranchLength = 2
	}

	for i := 0; i < len(tNodes); i++ {
		if t.Nodes()[i].BranchLength == t1.Nodes()[i].BranchLength {
			tst.Error("node length still match after change")
		}
	}

	for _, node := range t2.Nodes() {
		node.BranchLength = 0.5
	}

	for i := 0; i < len(tNodes); i++ {
		if t1.Nodes()[i].BranchLength <= t2.Nodes()[i].BranchLength {
			tst.Error("node length is wrong")
		}
	}
}

func TestCopyRerooted(tst *testing.T) {
	t, err := ParseNewick(bytes.NewBufferString(tree1))
	if err != nil {
		tst.Fatal("Error parsing tree", err)
	}
	t.Reroot(t.FindByName("a007")[0])
	c := t.Copy()
	if c.String() != t.String() {
		tst.Error("copy differs from rerooted tree:", c, t)
	}
}

func TestLevelOrder(tst *testing.T) {
	t, err := ParseNewickString("((a,b)x,(c,(d,e)y)z)r;", ExtractNone)
	if err != nil {
		tst.Fatal("Error parsing tree", err)
	}
	names := ""
	for _, node := range t.LevelOrder() {
		names += node.Name
	}
	if names != "rxzabcyde" {
		tst.Error("wrong level order:", names)
	}
	depths := t.Depths()
	if depths[t.FindByName("d")[0]] != 3 || depths[t.Node] != 0 {
		tst.Error("wrong depths")
	}

	t.LevelOrderReID()
	if t.FindByName("c")[0].Id != 5 {
		tst.Error("wrong level order id:", t.FindByName("c")[0].Id)
	}
	t.PreOrderReID()
	if t.FindByName("c")[0].Id != 5 || t.FindByName("y")[0].Id != 6 {
		tst.Error("wrong preorder id")
	}
}

func TestLCA(tst *testing.T) {
	t, err := ParseNewickString("((a,b)x,(c,(d,e)y)z)r;", ExtractNone)
	if err != nil {
		tst.Fatal("Error parsing tree", err)
	}
	t.PreOrderReID()
	find := func(name string) *Node {
		return t.FindByName(name)[0]
	}
	if LCA(find("d"), find("c")) != find("z") {
		tst.Error("wrong LCA of d and c")
	}
	if LCA(find("a"), find("e")) != t.Node {
		tst.Error("wrong LCA of a and e")
	}
	if LCA(find("y"), find("e")) != find("y") {
		tst.Error("wrong LCA of y and e")
	}
}
