package parsers

import (
	"regexp"
	"strconv"
	"strings"
)

// ProductFilters is the structured reading of a product search message.
type ProductFilters struct {
	Query    string   `json:"query"`
	Category string   `json:"category,omitempty"`
	MinPrice float64  `json:"min_price,omitempty"`
	MaxPrice float64  `json:"max_price,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// HasPrice reports whether any price bound was found.
func (f ProductFilters) HasPrice() bool {
	return f.MinPrice > 0 || f.MaxPrice > 0
}

// PriceArgument renders the bounds in the {min,max} shape the catalogue tool takes.
func (f ProductFilters) PriceArgument() map[string]any {
	p := map[string]any{}
	if f.MinPrice > 0 {
		p["min"] = f.MinPrice
	}
	if f.MaxPrice > 0 {
		p["max"] = f.MaxPrice
	}
	return p
}

const amount = `(?:rs\.?|inr|₹|\$)?\s*(\d[\d,]*(?:\.\d+)?)`

var (
	betweenPrice = regexp.MustCompile(`(?i)\b(?:between|from)\s+` + amount + `\s*(?:and|to|-)\s*` + amount)
	maxPrice     = regexp.MustCompile(`(?i)\b(?:under|below|less than|cheaper than|up to|upto|within|max(?:imum)?|at most)\s+` + amount)
	minPrice     = regexp.MustCompile(`(?i)\b(?:over|above|more than|at least|min(?:imum)?|starting at)\s+` + amount)
	wordPattern  = regexp.MustCompile(`[a-z]+(?:-[a-z]+)?`)
)

// categories maps singular and plural forms to the catalogue product type.
var categories = map[string]string{
	"shirt": "shirts", "shirts": "shirts",
	"t-shirt": "t-shirts", "t-shirts": "t-shirts", "tee": "t-shirts", "tees": "t-shirts",
	"top": "tops", "tops": "tops", "blouse": "tops", "blouses": "tops",
	"dress": "dresses", "dresses": "dresses",
	"skirt": "skirts", "skirts": "skirts",
	"jean": "jeans", "jeans": "jeans", "trouser": "trousers", "trousers": "trousers", "pants": "trousers",
	"jacket": "jackets", "jackets": "jackets", "coat": "jackets", "coats": "jackets",
	"earring": "earrings", "earrings": "earrings",
	"necklace": "necklaces", "necklaces": "necklaces",
	"bag": "bags", "bags": "bags", "handbag": "bags", "handbags": "bags",
	"shoe": "shoes", "shoes": "shoes", "sneakers": "shoes", "sandals": "shoes",
}

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "me": true, "my": true, "i": true, "im": true,
	"show": true, "find": true, "search": true, "looking": true, "look": true, "for": true,
	"want": true, "need": true, "some": true, "any": true, "do": true, "you": true, "have": true,
	"please": true, "can": true, "with": true, "and": true, "or": true, "of": true, "in": true,
	"under": true, "below": true, "less": true, "than": true, "over": true, "above": true,
	"more": true, "between": true, "from": true, "to": true, "up": true, "upto": true, "at": true,
	"least": true, "most": true, "price": true, "priced": true, "rs": true, "inr": true,
	"cheaper": true, "within": true, "max": true, "maximum": true, "min": true, "minimum": true,
	"starting": true, "is": true, "are": true, "what": true, "there": true, "get": true,
	"products": true, "product": true, "items": true, "item": true, "something": true,
}

// ExtractProductFilters reads category, price bounds and keywords from a
// product search message with regular expressions. It never fails; a message
// with nothing recognisable yields only Query.
func ExtractProductFilters(text string) ProductFilters {
	f := ProductFilters{}
	rest := text

	if m := betweenPrice.FindStringSubmatch(rest); m != nil {
		lo, hi := parseAmount(m[1]), parseAmount(m[2])
		if lo > hi {
			lo, hi = hi, lo
		}
		f.MinPrice, f.MaxPrice = lo, hi
		rest = strings.Replace(rest, m[0], " ", 1)
	}
	if m := maxPrice.FindStringSubmatch(rest); m != nil {
		f.MaxPrice = parseAmount(m[1])
		rest = strings.Replace(rest, m[0], " ", 1)
	}
	if m := minPrice.FindStringSubmatch(rest); m != nil {
		f.MinPrice = parseAmount(m[1])
		rest = strings.Replace(rest, m[0], " ", 1)
	}

	seen := map[string]bool{}
	for _, w := range wordPattern.FindAllString(strings.ToLower(rest), -1) {
		if stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		if c, ok := categories[w]; ok && f.Category == "" {
			f.Category = c
		}
		f.Keywords = append(f.Keywords, w)
	}

	f.Query = strings.Join(f.Keywords, " ")
	if f.Query == "" {
		f.Query = strings.TrimSpace(text)
	}
	return f
}

func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}
