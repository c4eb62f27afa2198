package service

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/GTDGit/pdv_api/internal/models"
)

// childKeywords mark the children's variant of a ticket, both in external
// names and in internal product names. Matching happens after accent folding.
var childKeywords = map[string]bool{
	"infantil": true,
	"crianca":  true,
	"criancas": true,
	"kids":     true,
	"kid":      true,
	"children": true,
	"child":    true,
}

// ClassifierMatch is the product and attraction an external item resolves to.
type ClassifierMatch struct {
	ProductID    int
	AttractionID int
}

type classifierCandidate struct {
	productID    int
	attractionID int
	base         []string
	phrase       string
	child        bool
}

// Classifier resolves free-text external product names to internal products.
//
// A product matches a name when both agree on being a children's ticket and
// either every non-keyword token of the product name appears in the external
// name or, failing that, the product name without keywords is a substring of
// the external name without keywords ("Ingresso DreamhouseVIP"). "Dreamhouse
// Adulto" therefore resolves to "Dreamhouse", never to "Dreamhouse Infantil".
// Token matches beat substring matches, then the product with the most tokens
// wins and ties go to the lowest product id.
type Classifier struct {
	candidates []classifierCandidate
}

// NewClassifier builds a classifier over the active products linked to an attraction.
func NewClassifier(products []models.Product) *Classifier {
	sorted := make([]models.Product, len(products))
	copy(sorted, products)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	c := &Classifier{}
	for _, p := range sorted {
		if !p.IsActive || p.AttractionID == nil {
			continue
		}
		base, child := splitKeywords(tokenize(p.Name))
		if len(base) == 0 {
			continue
		}
		c.candidates = append(c.candidates, classifierCandidate{
			productID:    p.ID,
			attractionID: *p.AttractionID,
			base:         base,
			phrase:       strings.Join(base, " "),
			child:        child,
		})
	}
	return c
}

// Len returns the number of products the classifier can resolve to.
func (c *Classifier) Len() int { return len(c.candidates) }

// Classify returns the best match for name, or false when nothing matches.
func (c *Classifier) Classify(name string) (ClassifierMatch, bool) {
	tokens := tokenize(name)
	if len(tokens) == 0 {
		return ClassifierMatch{}, false
	}
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	nameBase, child := splitKeywords(tokens)
	phrase := strings.Join(nameBase, " ")

	var best *classifierCandidate
	bestByToken := false
	for i := range c.candidates {
		cand := &c.candidates[i]
		if cand.child != child {
			continue
		}
		byToken := containsAll(set, cand.base)
		if !byToken && !strings.Contains(phrase, cand.phrase) {
			continue
		}
		if best == nil || (byToken && !bestByToken) ||
			(byToken == bestByToken && len(cand.base) > len(best.base)) {
			best, bestByToken = cand, byToken
		}
	}
	if best == nil {
		return ClassifierMatch{}, false
	}
	return ClassifierMatch{ProductID: best.productID, AttractionID: best.attractionID}, true
}

// NormalizeName lowercases s and strips diacritics.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(FoldAccents(s)))
}

// FoldAccents strips diacritics, so "Criança" becomes "Crianca".
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

func tokenize(s string) []string {
	return strings.FieldsFunc(NormalizeName(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func splitKeywords(tokens []string) (base []string, child bool) {
	for _, t := range tokens {
		if childKeywords[t] {
			child = true
			continue
		}
		base = append(base, t)
	}
	return base, child
}

func containsAll(set map[string]bool, tokens []string) bool {
	for _, t := range tokens {
		if !set[t] {
			return false
		}
	}
	return true
}
