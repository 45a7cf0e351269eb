// Package category defines the closed set of conversation categories a
// message can be routed to.
package category

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Category is a responder domain. The zero value None means "unset".
type Category uint8

const (
	None Category = iota
	Order
	Billing
	Support
	// Router is a meta marker and never the category of a final response
	Router
)

var names = [...]string{
	None:    "",
	Order:   "order",
	Billing: "billing",
	Support: "support",
	Router:  "router",
}

// Domains returns the routable categories in enumeration order
func Domains() []Category {
	return []Category{Order, Billing, Support}
}

func (c Category) String() string {
	if int(c) < len(names) {
		return names[c]
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// IsDomain reports whether c is one of the routable categories
func (c Category) IsDomain() bool {
	return c == Order || c == Billing || c == Support
}

// IsValid reports whether c is a known value, including None and Router
func (c Category) IsValid() bool {
	return int(c) < len(names)
}

// Parse converts a name (case-insensitive) into a Category
func Parse(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range names {
		if name == s {
			return Category(i), nil
		}
	}
	return None, fmt.Errorf("unknown category %q", s)
}

func (c Category) MarshalText() ([]byte, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("invalid category %d", uint8(c))
	}
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Scan implements sql.Scanner
func (c *Category) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*c = None
		return nil
	case string:
		return c.UnmarshalText([]byte(v))
	case []byte:
		return c.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into Category", src)
	}
}

// Value implements driver.Valuer
func (c Category) Value() (driver.Value, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("invalid category %d", uint8(c))
	}
	return c.String(), nil
}
