package rag

import (
	"regexp"
	"strings"
)

// Topics of the info search answer.
const (
	TopicReturnPolicy  = "return_policy"
	TopicContact       = "contact_details"
	TopicCurrentOffers = "current_offers"
	TopicGeneral       = "general"
)

var (
	offerTerms   = regexp.MustCompile(`(?i)\b(offers?|discounts?|sales?|flash|deals?|coupons?|membership|loyalty|promotions?|promos?)\b`)
	returnTerms  = regexp.MustCompile(`(?i)\b(returns?|refunds?|exchanges?|policy|policies)\b`)
	contactTerms = regexp.MustCompile(`(?i)\b(contact|phone|e-?mail|support|address|reach|call)\b`)
)

// IsOfferRelated reports whether any text carries discount or offer terms.
func IsOfferRelated(texts ...string) bool {
	for _, t := range texts {
		if offerTerms.MatchString(t) {
			return true
		}
	}
	return false
}

// TopicOf classifies an info question into a coarse topic.
func TopicOf(query string) string {
	switch {
	case returnTerms.MatchString(query):
		return TopicReturnPolicy
	case contactTerms.MatchString(query):
		return TopicContact
	case offerTerms.MatchString(query):
		return TopicCurrentOffers
	default:
		return TopicGeneral
	}
}

var staticAnswers = map[string]string{
	TopicReturnPolicy: "Our standard return/exchange window is 7-14 days for unused items with original tags and receipt. " +
		"Certain items may be non-returnable. For exact policy details, please refer to our Return Policy page or contact support.",
	TopicContact: "You can reach support via email at support@example.com or phone at +1-000-000-0000. " +
		"Business hours: Mon-Fri, 9am-6pm IST.",
	TopicCurrentOffers: "Current promotions vary by season. Please check the Offers page or sign up for our newsletter " +
		"or app notifications for the latest discounts and coupon codes.",
	TopicGeneral: "I can help with our return policy, contact details, or current offers. Please specify your question.",
}

// StaticAnswer returns the built-in answer for a question's topic. It is used
// when the knowledge base cannot be reached.
func StaticAnswer(query string) (topic, text string) {
	topic = TopicOf(query)
	return topic, staticAnswers[topic]
}

// uniqueSources returns non-empty sources in first-seen order.
func uniqueSources(sources []string) []string {
	seen := make(map[string]bool, len(sources))
	out := make([]string, 0, len(sources))
	for _, s := range sources {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
