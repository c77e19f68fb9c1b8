package service

import (
	"context"
	"strings"
	"time"

	"github.com/bookstore-next/internal/constants"
	"github.com/bookstore-next/internal/models"
	"github.com/bookstore-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PromoDecision 优惠码校验结果
type PromoDecision struct {
	PromoCodeID     uint         `json:"-"`
	Code            string       `json:"code"`
	Type            string       `json:"type"`
	Discount        models.Money `json:"discount"`
	DiscountPercent *int         `json:"discount_percent,omitempty"`
	FreeShipping    bool         `json:"free_shipping"`
}

// CreatePromoCodeInput 创建优惠码输入
type CreatePromoCodeInput struct {
	Code             string
	Type             string
	DiscountPercent  int
	FixedAmount      models.Money
	ExpiryDate       *time.Time
	MinPurchase      *models.Money
	GlobalUsageLimit *int
	PerUserLimit     *int
	IsActive         bool
}

// PromoService 优惠码服务
type PromoService struct {
	promoRepo repository.PromoCodeRepository
	usageRepo repository.PromoCodeUsageRepository
	now       func() time.Time
}

// NewPromoService 创建优惠码服务
func NewPromoService(promoRepo repository.PromoCodeRepository, usageRepo repository.PromoCodeUsageRepository) *PromoService {
	return &PromoService{
		promoRepo: promoRepo,
		usageRepo: usageRepo,
		now:       time.Now,
	}
}

// NormalizePromoCode 统一优惠码格式
func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate 按顺序校验优惠码并计算折扣，不产生任何写入
// 顺序：存在且启用 -> 未过期 -> 满足最低消费 -> 剩余次数 -> 每人限用
func (s *PromoService) Validate(ctx context.Context, code string, userID uint, subtotal models.Money) (*PromoDecision, error) {
	normalized := NormalizePromoCode(code)
	if normalized == "" {
		return nil, &PromoRejectedError{Code: normalized, Reason: constants.PromoRejectNotFound}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	promo, err := s.promoRepo.GetByCode(normalized)
	if err != nil {
		return nil, err
	}
	if promo == nil {
		return nil, &PromoRejectedError{Code: normalized, Reason: constants.PromoRejectNotFound}
	}
	if !promo.IsActive {
		return nil, &PromoRejectedError{Code: normalized, Reason: constants.PromoRejectInactive}
	}
	if promo.ExpiryDate != nil && s.now().After(*promo.ExpiryDate) {
		return nil, &PromoRejectedError{Code: normalized, Reason: constants.PromoRejectExpired}
	}
	if promo.MinPurchase != nil && subtotal.Decimal.LessThan(promo.MinPurchase.Decimal) {
		return nil, &PromoRejectedError{Code: normalized, Reason: constants.PromoRejectMinPurchase}
	}
	if promo.RemainingUses != nil && *promo.RemainingUses <= 0 {
		return nil, &PromoRejectedError{Code: normalized, Reason: constants.PromoRejectExhausted}
	}
	if err := s.checkPerUserLimit(s.usageRepo, promo, userID); err != nil {
		return nil, err
	}
	return buildPromoDecision(promo, subtotal), nil
}

// Redeem 在结算提交事务内核销优惠码
// 先锁定优惠码行，再重新校验每人限用，写入核销记录并条件扣减剩余次数
func (s *PromoService) Redeem(tx *gorm.DB, decision *PromoDecision, userID, orderID uint, usedAt time.Time) error {
	if decision == nil {
		return nil
	}
	promoRepo := s.promoRepo.WithTx(tx)
	usageRepo := s.usageRepo.WithTx(tx)

	promo, err := promoRepo.GetByIDForUpdate(decision.PromoCodeID)
	if err != nil {
		return err
	}
	if promo == nil {
		return &PromoRejectedError{Code: decision.Code, Reason: constants.PromoRejectNotFound}
	}
	if err := s.checkPerUserLimit(usageRepo, promo, userID); err != nil {
		return err
	}
	usage := &models.PromoCodeUsage{
		PromoCodeID:    promo.ID,
		UserID:         userID,
		OrderID:        orderID,
		DiscountAmount: decision.Discount,
		UsedAt:         usedAt,
	}
	if err := usageRepo.Create(usage); err != nil {
		return err
	}
	rows, err := promoRepo.DecrementRemainingUses(promo.ID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return &PromoRejectedError{Code: decision.Code, Reason: constants.PromoRejectExhausted}
	}
	return nil
}

func (s *PromoService) checkPerUserLimit(usageRepo repository.PromoCodeUsageRepository, promo *models.PromoCode, userID uint) error {
	if promo.PerUserLimit == nil || userID == 0 {
		return nil
	}
	count, err := usageRepo.CountByUser(promo.ID, userID)
	if err != nil {
		return err
	}
	if count >= int64(*promo.PerUserLimit) {
		return &PromoRejectedError{Code: promo.Code, Reason: constants.PromoRejectPerUserLimit}
	}
	return nil
}

// Revoke 在订单取消事务内撤销该订单的核销，归还剩余次数
func (s *PromoService) Revoke(tx *gorm.DB, orderID uint) (int, error) {
	promoRepo := s.promoRepo.WithTx(tx)
	usageRepo := s.usageRepo.WithTx(tx)

	usages, err := usageRepo.ListByOrder(orderID)
	if err != nil {
		return 0, err
	}
	if len(usages) == 0 {
		return 0, nil
	}
	if _, err := usageRepo.DeleteByOrder(orderID); err != nil {
		return 0, err
	}
	for _, usage := range usages {
		if err := promoRepo.IncrementRemainingUses(usage.PromoCodeID); err != nil {
			return 0, err
		}
	}
	return len(usages), nil
}

func buildPromoDecision(promo *models.PromoCode, subtotal models.Money) *PromoDecision {
	decision := &PromoDecision{
		PromoCodeID: promo.ID,
		Code:        promo.Code,
		Type:        promo.Type,
		Discount:    models.NewMoneyFromDecimal(decimal.Zero),
	}
	switch promo.Type {
	case constants.PromoTypePercentage:
		pct := promo.DiscountPercent
		decision.DiscountPercent = &pct
		discount := subtotal.Decimal.Mul(decimal.NewFromInt(int64(pct))).Div(decimal.NewFromInt(100))
		decision.Discount = models.NewMoneyFromDecimal(discount)
	case constants.PromoTypeFixed:
		discount := promo.FixedAmount.Decimal
		if discount.GreaterThan(subtotal.Decimal) {
			discount = subtotal.Decimal
		}
		decision.Discount = models.NewMoneyFromDecimal(discount)
	case constants.PromoTypeFreeShipping:
		decision.FreeShipping = true
	}
	return decision
}

// Create 创建优惠码
func (s *PromoService) Create(ctx context.Context, input CreatePromoCodeInput) (*models.PromoCode, error) {
	code := NormalizePromoCode(input.Code)
	if code == "" {
		return nil, ErrPromoCodeInvalid
	}
	promoType := strings.ToLower(strings.TrimSpace(input.Type))
	promo := &models.PromoCode{
		Code:             code,
		Type:             promoType,
		IsActive:         input.IsActive,
		ExpiryDate:       input.ExpiryDate,
		MinPurchase:      input.MinPurchase,
		GlobalUsageLimit: input.GlobalUsageLimit,
		PerUserLimit:     input.PerUserLimit,
		FixedAmount:      models.NewMoneyFromDecimal(decimal.Zero),
	}
	switch promoType {
	case constants.PromoTypePercentage:
		if input.DiscountPercent <= 0 || input.DiscountPercent > 100 {
			return nil, ErrPromoCodeInvalid
		}
		promo.DiscountPercent = input.DiscountPercent
	case constants.PromoTypeFixed:
		if !input.FixedAmount.IsPositive() {
			return nil, ErrPromoCodeInvalid
		}
		promo.FixedAmount = input.FixedAmount
	case constants.PromoTypeFreeShipping:
	default:
		return nil, ErrPromoCodeInvalid
	}
	if input.MinPurchase != nil && input.MinPurchase.IsNegative() {
		return nil, ErrPromoCodeInvalid
	}
	if input.GlobalUsageLimit != nil {
		if *input.GlobalUsageLimit < 0 {
			return nil, ErrPromoCodeInvalid
		}
		remaining := *input.GlobalUsageLimit
		promo.RemainingUses = &remaining
	}
	if input.PerUserLimit != nil && *input.PerUserLimit < 0 {
		return nil, ErrPromoCodeInvalid
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	existing, err := s.promoRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrPromoCodeExists
	}
	if err := s.promoRepo.Create(promo); err != nil {
		return nil, err
	}
	return promo, nil
}

// SetActive 启用或停用优惠码
func (s *PromoService) SetActive(ctx context.Context, id uint, active bool) (*models.PromoCode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.promoRepo.SetActive(id, active)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrPromoCodeNotFound
	}
	return s.Get(ctx, id)
}

// Get 获取优惠码
func (s *PromoService) Get(ctx context.Context, id uint) (*models.PromoCode, error) {
	promo, err := s.promoRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if promo == nil {
		return nil, ErrPromoCodeNotFound
	}
	return promo, nil
}

// List 优惠码列表
func (s *PromoService) List(ctx context.Context, filter repository.PromoCodeListFilter) ([]models.PromoCode, int64, error) {
	if filter.Code != "" {
		filter.Code = NormalizePromoCode(filter.Code)
	}
	return s.promoRepo.List(filter)
}
