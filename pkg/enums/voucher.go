package enums

import "fmt"

// VoucherScope says who funds a voucher: one shop or the whole platform.
type VoucherScope string

const (
	VoucherScopeShop     VoucherScope = "shop"
	VoucherScopePlatform VoucherScope = "platform"
)

var validVoucherScopes = []VoucherScope{VoucherScopeShop, VoucherScopePlatform}

func (s VoucherScope) String() string {
	return string(s)
}

func (s VoucherScope) IsValid() bool {
	for _, candidate := range validVoucherScopes {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseVoucherScope(value string) (VoucherScope, error) {
	for _, candidate := range validVoucherScopes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid voucher scope %q", value)
}

// VoucherKind selects how the discount amount is computed.
type VoucherKind string

const (
	VoucherKindFixed      VoucherKind = "fixed"
	VoucherKindPercentage VoucherKind = "percentage"
)

var validVoucherKinds = []VoucherKind{VoucherKindFixed, VoucherKindPercentage}

func (k VoucherKind) String() string {
	return string(k)
}

func (k VoucherKind) IsValid() bool {
	for _, candidate := range validVoucherKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

func ParseVoucherKind(value string) (VoucherKind, error) {
	for _, candidate := range validVoucherKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid voucher kind %q", value)
}
