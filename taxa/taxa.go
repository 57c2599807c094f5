// Package taxa resolves synonyms of species names using a taxonomy in
// the GBIF-derived TSV format (columns name, author, taxonKey, rank,
// status, parent).
package taxa

import (
	"fmt"
	"os"

	"github.com/js-arias/gbifer/taxonomy"
	"github.com/op/go-logging"

	"bitbucket.org/Davydov/gsdi/sdi"
)

var log = logging.MustGetLogger("taxa")

// Resolver maps a name to its accepted, ranked name.
type Resolver struct {
	tx *taxonomy.Taxonomy
}

// New wraps a taxonomy.
func New(tx *taxonomy.Taxonomy) *Resolver {
	return &Resolver{tx: tx}
}

// Open reads a taxonomy file.
func Open(path string) (*Resolver, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tx, err := taxonomy.Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return New(tx), nil
}

// Resolve returns the accepted name of a synonym. Names which are
// unknown, or homonyms resolving to different accepted names, are not
// resolved.
func (r *Resolver) Resolve(name string) (string, bool) {
	accepted := ""
	for _, id := range r.tx.ByName(name) {
		tax := r.tx.AcceptedAndRanked(id)
		if tax.Name == "" {
			continue
		}
		if accepted != "" && accepted != tax.Name {
			log.Warningf("%q is ambiguous: %s or %s", name, accepted, tax.Name)
			return "", false
		}
		accepted = tax.Name
	}
	return accepted, accepted != ""
}

// Chain tries resolvers in turn.
type Chain []sdi.NameResolver

func (c Chain) Resolve(name string) (string, bool) {
	for _, r := range c {
		if accepted, ok := r.Resolve(name); ok {
			return accepted, true
		}
	}
	return "", false
}
