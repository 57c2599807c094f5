// Support prints the exact binomial interval of a replicate frequency,
// e.g. of an ortholog found in k of n gene trees.
package main

import (
	"flag"
	"fmt"

	"bitbucket.org/Davydov/gsdi/dist"
)

func main() {
	k := flag.Int("k", 50, "successes")
	n := flag.Int("n", 100, "replicates")
	level := flag.Float64("level", 0.95, "confidence level")
	flag.Parse()

	lo, hi := dist.SupportInterval(*k, *n, *level)
	fmt.Printf("%.2f%% [%.2f%%, %.2f%%]\n", 100*float64(*k)/float64(*n), 100*lo, 100*hi)
}
