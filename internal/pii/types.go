package pii

import "strings"

// Type identifies a category of sensitive information. The set is closed:
// redaction pattern rules switch over it exhaustively.
type Type string

const (
	TypeEmail        Type = "email"
	TypePhone        Type = "phone"
	TypeSSN          Type = "ssn"
	TypeCreditCard   Type = "credit_card"
	TypeURL          Type = "url"
	TypeIPAddress    Type = "ip_address"
	TypeName         Type = "name"
	TypeOrganization Type = "organization"
	TypeLocation     Type = "location"
	TypeDate         Type = "date"
	TypeFinancial    Type = "financial"
)

// AllTypes lists every detectable type.
func AllTypes() []Type {
	return []Type{
		TypeEmail, TypePhone, TypeSSN, TypeCreditCard, TypeURL,
		TypeIPAddress, TypeName, TypeOrganization, TypeLocation,
		TypeDate, TypeFinancial,
	}
}

// Valid reports whether t is a member of the closed type set.
func (t Type) Valid() bool {
	switch t {
	case TypeEmail, TypePhone, TypeSSN, TypeCreditCard, TypeURL,
		TypeIPAddress, TypeName, TypeOrganization, TypeLocation,
		TypeDate, TypeFinancial:
		return true
	}
	return false
}

// Item is a single detected piece of sensitive information. Immutable once
// produced. Two items are the same detection when their Key matches.
type Item struct {
	Type  Type   `json:"type"`
	Value string `json:"value"`
}

// Key returns the deduplication key: type plus lowercased value.
func (i Item) Key() string {
	return string(i.Type) + "_" + strings.ToLower(i.Value)
}

// Result is the merged, deduplicated detection set. Order follows first
// insertion; redaction re-sorts by value length before substituting.
type Result struct {
	Items []Item `json:"items"`
}

// Empty reports whether nothing was detected.
func (r Result) Empty() bool {
	return len(r.Items) == 0
}

// CountsByType aggregates the result for audit records.
func (r Result) CountsByType() map[Type]int {
	counts := make(map[Type]int)
	for _, item := range r.Items {
		counts[item.Type]++
	}
	return counts
}

// Types returns the distinct detected types in insertion order.
func (r Result) Types() []Type {
	seen := make(map[Type]bool)
	var types []Type
	for _, item := range r.Items {
		if !seen[item.Type] {
			seen[item.Type] = true
			types = append(types, item.Type)
		}
	}
	return types
}
