// Evmatch compares events of two reconciled trees with the same topology
// (e.g. SDI and GSDI output of one gene tree) and prints the nodes where
// they differ.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"bitbucket.org/Davydov/gsdi/tree"
)

func read(fn string) *tree.Tree {
	f, err := os.Open(fn)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	t, err := tree.ParseNewick(f)
	if err != nil {
		log.Fatal(err)
	}
	t.PreOrderReID()
	return t
}

// clade lists leaf labels below a node in preorder.
func clade(n *tree.Node) string {
	var l []string
	for _, leaf := range n.Leaves() {
		l = append(l, leaf.Label())
	}
	return strings.Join(l, ",")
}

func main() {
	all := flag.Bool("all", false, "print all internal nodes, not only differences")
	flag.Parse()

	if flag.NArg() < 2 {
		log.Fatal("Please provide two files")
	}

	t1 := read(flag.Arg(0))
	t2 := read(flag.Arg(1))

	nodes1 := t1.Nodes()
	nodes2 := t2.Nodes()
	if len(nodes1) != len(nodes2) {
		log.Fatal("Two trees have different number of nodes")
	}

	diff := 0
	for i, n1 := range nodes1 {
		n2 := nodes2[i]
		if n1.IsTerminal() != n2.IsTerminal() || clade(n1) != clade(n2) {
			log.Fatalf("Topologies differ at node %d", i)
		}
		if n1.IsTerminal() {
			continue
		}
		if n1.Event != n2.Event {
			diff++
		} else if !*all {
			continue
		}
		fmt.Printf("%d\t%s\t%s\t%s\n", i, n1.Event, n2.Event, clade(n1))
	}
	log.Printf("%d of %d internal nodes differ", diff, t1.NInternal())
}
