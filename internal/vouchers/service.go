package vouchers

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/taomall/marketplace-backend/pkg/db"
	"github.com/taomall/marketplace-backend/pkg/db/models"
	"github.com/taomall/marketplace-backend/pkg/enums"
	pkgerrors "github.com/taomall/marketplace-backend/pkg/errors"
	"github.com/taomall/marketplace-backend/pkg/metrics"
	"github.com/taomall/marketplace-backend/pkg/pagination"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9_-]{3,32}$`)

// Actor is the authenticated caller managing vouchers.
type Actor struct {
	UserID uuid.UUID
	Role   enums.Role
	ShopID *uuid.UUID
}

// ApplyInput asks what a code is worth against OrderTotal. ShopID is the shop
// whose items the total covers and is required for shop vouchers.
type ApplyInput struct {
	Code       string
	OrderTotal int64
	ShopID     *uuid.UUID
}

// CreateInput describes a new voucher. Scope and shop follow from the actor.
type CreateInput struct {
	Code              string
	Kind              enums.VoucherKind
	Value             decimal.Decimal
	MinOrderAmount    int64
	MaxDiscountAmount *int64
	UsageLimit        *int
	StartsAt          *time.Time
	ExpiresAt         *time.Time
}

type Service interface {
	Apply(ctx context.Context, input ApplyInput) (*ApplyResult, error)
	// Claim evaluates code inside tx against the total returned by totalFor
	// and consumes one use.
	Claim(ctx context.Context, tx *gorm.DB, code string, scope enums.VoucherScope, totalFor func(*models.Voucher) (int64, *uuid.UUID)) (*ApplyResult, error)
	Create(ctx context.Context, actor Actor, input CreateInput) (*VoucherDTO, error)
	List(ctx context.Context, actor Actor, params pagination.Params) (*VoucherListResult, error)
	Deactivate(ctx context.Context, actor Actor, id uuid.UUID) error
}

type service struct {
	repo    *Repository
	metrics *metrics.DomainMetrics
	now     func() time.Time
}

func NewService(repo *Repository, m *metrics.DomainMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("voucher repository required")
	}
	return &service{repo: repo, metrics: m, now: time.Now}, nil
}

// NormalizeCode trims and upper-cases a voucher code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *service) Apply(ctx context.Context, input ApplyInput) (*ApplyResult, error) {
	code := NormalizeCode(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	if input.OrderTotal < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orderTotal cannot be negative")
	}
	v, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.IncVoucherApply("unknown", false)
			return nil, rejection(code, ReasonNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load voucher")
	}
	return s.evaluate(v, input.OrderTotal, input.ShopID)
}

func (s *service) Claim(ctx context.Context, tx *gorm.DB, code string, scope enums.VoucherScope, totalFor func(*models.Voucher) (int64, *uuid.UUID)) (*ApplyResult, error) {
	code = NormalizeCode(code)
	repo := s.repo.WithTx(tx)
	v, err := repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.IncVoucherApply(string(scope), false)
			return nil, rejection(code, ReasonNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load voucher")
	}
	if v.Scope != scope {
		s.metrics.IncVoucherApply(string(scope), false)
		return nil, rejection(code, ReasonScopeMismatch)
	}
	total, shopID := totalFor(v)
	result, err := s.evaluate(v, total, shopID)
	if err != nil {
		return nil, err
	}
	if err := s.redeem(ctx, repo, v); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) redeem(ctx context.Context, repo *Repository, v *models.Voucher) error {
	ok, err := repo.Redeem(ctx, v.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redeem voucher")
	}
	if !ok {
		return pkgerrors.Newf(pkgerrors.CodeStateConflict, "voucher %s usage limit reached", v.Code).
			WithDetails(map[string]any{"code": v.Code, "reason": ReasonUsageExhausted})
	}
	return nil
}

func (s *service) evaluate(v *models.Voucher, total int64, shopID *uuid.UUID) (*ApplyResult, error) {
	if reason := Check(v, total, shopID, s.now()); reason != "" {
		s.metrics.IncVoucherApply(string(v.Scope), false)
		return nil, rejection(v.Code, reason)
	}
	s.metrics.IncVoucherApply(string(v.Scope), true)
	return &ApplyResult{
		Code:           v.Code,
		DiscountAmount: Discount(v, total),
		Scope:          v.Scope,
		ShopID:         v.ShopID,
	}, nil
}

func (s *service) Create(ctx context.Context, actor Actor, input CreateInput) (*VoucherDTO, error) {
	scope, shopID, err := scopeFor(actor)
	if err != nil {
		return nil, err
	}
	code := NormalizeCode(input.Code)
	if err := validateCreate(code, input); err != nil {
		return nil, err
	}
	startsAt := s.now().UTC()
	if input.StartsAt != nil {
		startsAt = input.StartsAt.UTC()
	}
	if input.ExpiresAt != nil && !input.ExpiresAt.After(startsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expiresAt must be after startsAt")
	}

	v := &models.Voucher{
		Code:              code,
		Scope:             scope,
		ShopID:            shopID,
		Kind:              input.Kind,
		Value:             input.Value,
		MinOrderAmount:    input.MinOrderAmount,
		MaxDiscountAmount: input.MaxDiscountAmount,
		UsageLimit:        input.UsageLimit,
		StartsAt:          startsAt,
		ExpiresAt:         input.ExpiresAt,
		IsActive:          true,
		CreatedBy:         actor.UserID,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		if db.IsUniqueViolation(err, "ux_vouchers_code") {
			return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "voucher code %s already exists", code)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create voucher")
	}
	dto := NewVoucherDTO(v)
	return &dto, nil
}

func (s *service) List(ctx context.Context, actor Actor, params pagination.Params) (*VoucherListResult, error) {
	scope, shopID, err := scopeFor(actor)
	if err != nil {
		return nil, err
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, ListFilter{Scope: scope, ShopID: shopID, Pagination: params})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vouchers")
	}
	page, next := pagination.Trim(rows, params.Limit, func(v models.Voucher) pagination.Cursor {
		return pagination.Cursor{CreatedAt: v.CreatedAt, ID: v.ID}
	})
	out := &VoucherListResult{Items: make([]VoucherDTO, len(page)), NextCursor: next}
	for i := range page {
		out.Items[i] = NewVoucherDTO(&page[i])
	}
	return out, nil
}

func (s *service) Deactivate(ctx context.Context, actor Actor, id uuid.UUID) error {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "voucher not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load voucher")
	}
	if actor.Role != enums.RoleAdmin {
		if actor.ShopID == nil || v.ShopID == nil || *v.ShopID != *actor.ShopID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "voucher does not belong to shop")
		}
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate voucher")
	}
	return nil
}

// scopeFor maps the caller to the voucher scope it manages: sellers their own
// shop, admins the platform.
func scopeFor(actor Actor) (enums.VoucherScope, *uuid.UUID, error) {
	switch actor.Role {
	case enums.RoleAdmin:
		return enums.VoucherScopePlatform, nil, nil
	case enums.RoleSeller:
		if actor.ShopID == nil || *actor.ShopID == uuid.Nil {
			return "", nil, pkgerrors.New(pkgerrors.CodeForbidden, "seller has no shop")
		}
		shop := *actor.ShopID
		return enums.VoucherScopeShop, &shop, nil
	default:
		return "", nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot manage vouchers")
	}
}

func validateCreate(code string, input CreateInput) error {
	switch {
	case !codePattern.MatchString(code):
		return pkgerrors.New(pkgerrors.CodeValidation, "code must be 3-32 letters, digits, '-' or '_'")
	case !input.Kind.IsValid():
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid kind %q", input.Kind)
	case !input.Value.IsPositive():
		return pkgerrors.New(pkgerrors.CodeValidation, "value must be positive")
	case input.Kind == enums.VoucherKindPercentage && input.Value.GreaterThan(hundred):
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage cannot exceed 100")
	case input.MinOrderAmount < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "minOrderAmount cannot be negative")
	case input.MaxDiscountAmount != nil && *input.MaxDiscountAmount <= 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "maxDiscountAmount must be positive")
	case input.UsageLimit != nil && *input.UsageLimit <= 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "usageLimit must be positive")
	}
	return nil
}

func rejection(code, reason string) error {
	return pkgerrors.Newf(pkgerrors.CodeValidation, "voucher %s cannot be applied", code).
		WithDetails(map[string]any{"code": code, "reason": reason})
}
