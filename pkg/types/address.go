package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Address is a shipping address snapshot stored as jsonb on orders.
type Address struct {
	RecipientName string  `json:"recipientName" validate:"required,max=120"`
	Phone         string  `json:"phone" validate:"required,min=8,max=20"`
	Line1         string  `json:"line1" validate:"required,max=255"`
	Line2         *string `json:"line2,omitempty" validate:"omitempty,max=255"`
	Ward          string  `json:"ward,omitempty" validate:"max=120"`
	District      string  `json:"district" validate:"required,max=120"`
	City          string  `json:"city" validate:"required,max=120"`
	Country       string  `json:"country,omitempty" validate:"omitempty,len=2"`
}

// Normalize trims every field and defaults the country to VN.
func (a Address) Normalize() Address {
	out := Address{
		RecipientName: strings.TrimSpace(a.RecipientName),
		Phone:         strings.TrimSpace(a.Phone),
		Line1:         strings.TrimSpace(a.Line1),
		Ward:          strings.TrimSpace(a.Ward),
		District:      strings.TrimSpace(a.District),
		City:          strings.TrimSpace(a.City),
		Country:       strings.ToUpper(strings.TrimSpace(a.Country)),
	}
	if a.Line2 != nil {
		if line2 := strings.TrimSpace(*a.Line2); line2 != "" {
			out.Line2 = &line2
		}
	}
	if out.Country == "" {
		out.Country = "VN"
	}
	return out
}

// Value implements driver.Valuer.
func (a Address) Value() (driver.Value, error) {
	if strings.TrimSpace(a.Line1) == "" {
		return nil, fmt.Errorf("address: missing line1")
	}
	if strings.TrimSpace(a.City) == "" {
		return nil, fmt.Errorf("address: missing city")
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("address: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (a *Address) Scan(value any) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("address: unsupported scan type %T", value)
	}
	return json.Unmarshal(raw, a)
}
