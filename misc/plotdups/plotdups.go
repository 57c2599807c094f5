// plotdups plots the histogram of duplication counts from a gsdi or
// gsdi-rio JSON summary.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"gonum.org/v1/plot/vg"

	"bitbucket.org/Davydov/gsdi/dist"
)

func main() {
	in := flag.String("in", "summary.json", "json summary (-json of gsdi or gsdi-rio)")
	out := flag.String("out", "dups.png", "output file, format by extension")
	title := flag.String("title", "duplications", "plot title")
	size := flag.Float64("size", 4, "plot height in inches")
	flag.Parse()

	b, err := os.ReadFile(*in)
	if err != nil {
		panic(err)
	}
	var summary struct {
		DuplicationCounts []int `json:"duplicationCounts"`
	}
	if err := json.Unmarshal(b, &summary); err != nil {
		panic(err)
	}
	fmt.Println(dist.DescribeInts(summary.DuplicationCounts))

	p, err := dist.Histogram(summary.DuplicationCounts, *title, "duplications")
	if err != nil {
		panic(err)
	}

	h := vg.Length(*size) * vg.Inch
	if err := p.Save(h*5/4, h, *out); err != nil {
		panic(err)
	}
}
