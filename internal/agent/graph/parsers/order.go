package parsers

import (
	"regexp"
	"strconv"
	"strings"
)

// Order field names recorded on the conversation state.
const (
	FieldVariantID = "variant_id"
	FieldEmail     = "email"
	FieldQuantity  = "quantity"
	FieldOrderID   = "order_id"
)

// OrderFields is what could be read from an order creation message.
// Zero values mean the field was not found.
type OrderFields struct {
	VariantID int64
	Email     string
	Quantity  int
}

// Missing lists the required fields that were not found, in a stable order.
// Quantity is required only when requireQuantity is set.
func (o OrderFields) Missing(requireQuantity bool) []string {
	var missing []string
	if o.VariantID == 0 {
		missing = append(missing, FieldVariantID)
	}
	if o.Email == "" {
		missing = append(missing, FieldEmail)
	}
	if requireQuantity && o.Quantity == 0 {
		missing = append(missing, FieldQuantity)
	}
	return missing
}

var (
	labelledVariant = regexp.MustCompile(`(?i)\bvariant(?:[\s_-]*id)?\s*(?:is|=|:|#)?\s*(\d{5,})`)
	longNumber      = regexp.MustCompile(`\b(\d{10,})\b`)
	emailPattern    = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	labelledQty     = regexp.MustCompile(`(?i)\b(?:qty|quantity)\s*(?:of|is|=|:)?\s*(\d{1,3})\b`)
	countedQty      = regexp.MustCompile(`(?i)\b(\d{1,3})\s*(?:x|pcs|pieces|units|items|qty)\b`)
	verbQty         = regexp.MustCompile(`(?i)\b(?:buy|order|purchase|get|want)\s+(\d{1,3})\b`)
	wordQty         = regexp.MustCompile(`(?i)\b(?:buy|order|purchase|get|want)\s+(one|two|three|four|five|six|seven|eight|nine|ten)\b`)

	labelledOrderID = regexp.MustCompile(`(?i)\border(?:\s*(?:id|number|no\.?|#))?\s*(?:is|:|=)?\s*#?\s*(\d{4,})\b`)
	bareOrderID     = regexp.MustCompile(`#?\b(\d{4,})\b`)
)

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

// ExtractOrderFields reads variant ID, email and quantity from an order message.
func ExtractOrderFields(text string) OrderFields {
	var o OrderFields

	if m := labelledVariant.FindStringSubmatch(text); m != nil {
		o.VariantID, _ = strconv.ParseInt(m[1], 10, 64)
	} else if m := longNumber.FindStringSubmatch(text); m != nil {
		o.VariantID, _ = strconv.ParseInt(m[1], 10, 64)
	}

	o.Email = strings.ToLower(emailPattern.FindString(text))

	for _, re := range []*regexp.Regexp{labelledQty, countedQty, verbQty} {
		if m := re.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 && int64(n) != o.VariantID {
				o.Quantity = n
				break
			}
		}
	}
	if o.Quantity == 0 {
		if m := wordQty.FindStringSubmatch(text); m != nil {
			o.Quantity = numberWords[strings.ToLower(m[1])]
		}
	}
	return o
}

// ExtractOrderID returns the first order identifier token: a run of at least
// four digits, preferring one introduced by "order".
func ExtractOrderID(text string) (string, bool) {
	if m := labelledOrderID.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	if m := bareOrderID.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	return "", false
}
