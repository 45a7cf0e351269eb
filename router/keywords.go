package router

import "github.com/Abraxas-365/supportdesk/category"

// KeywordSets maps each domain category to its keyword list
type KeywordSets map[category.Category][]string

// DefaultKeywords are the built-in keyword sets
func DefaultKeywords() KeywordSets {
	return KeywordSets{
		category.Order: {
			"order", "orders", "track", "tracking", "shipment", "shipping",
			"delivery", "deliver", "package", "cancel", "status", "where is",
			"arrive", "modify",
		},
		category.Billing: {
			"bill", "billing", "payment", "pay", "charge", "charged", "refund",
			"invoice", "receipt", "price", "credit card", "transaction", "money",
		},
		category.Support: {
			"help", "support", "account", "password", "login", "contact",
			"hours", "problem", "issue", "ticket", "agent", "human", "thank",
		},
	}
}

// Clone returns a deep copy
func (k KeywordSets) Clone() KeywordSets {
	out := make(KeywordSets, len(k))
	for c, words := range k {
		out[c] = append([]string(nil), words...)
	}
	return out
}
