package shipping

import (
	"context"
	"fmt"
	"strings"

	"github.com/bookstore-next/internal/config"
	"github.com/bookstore-next/internal/models"

	"github.com/shopspring/decimal"
)

type regionRule struct {
	rate     models.Money
	freeOver *decimal.Decimal
}

// TableResolver 基于配置表的运费计算
type TableResolver struct {
	defaultRule *regionRule
	regions     map[string]regionRule
}

// NewTableResolver 从配置构建运费表
func NewTableResolver(cfg config.ShippingConfig) (*TableResolver, error) {
	globalFreeOver, err := parseOptionalDecimal(cfg.FreeOver)
	if err != nil {
		return nil, fmt.Errorf("invalid shipping.free_over: %w", err)
	}
	resolver := &TableResolver{regions: map[string]regionRule{}}
	if strings.TrimSpace(cfg.DefaultRate) != "" {
		rate, err := models.NewMoneyFromString(strings.TrimSpace(cfg.DefaultRate))
		if err != nil {
			return nil, fmt.Errorf("invalid shipping.default_rate: %w", err)
		}
		resolver.defaultRule = &regionRule{rate: rate, freeOver: globalFreeOver}
	}
	for name, item := range cfg.Regions {
		key := normalizeRegion(name)
		if key == "" {
			continue
		}
		rate, err := models.NewMoneyFromString(strings.TrimSpace(item.Rate))
		if err != nil {
			return nil, fmt.Errorf("invalid shipping rate for region %s: %w", name, err)
		}
		freeOver, err := parseOptionalDecimal(item.FreeOver)
		if err != nil {
			return nil, fmt.Errorf("invalid free_over for region %s: %w", name, err)
		}
		if freeOver == nil {
			freeOver = globalFreeOver
		}
		resolver.regions[key] = regionRule{rate: rate, freeOver: freeOver}
	}
	return resolver, nil
}

// Rate 计算运费
func (r *TableResolver) Rate(ctx context.Context, region string, subtotal models.Money) (models.Money, error) {
	if err := ctx.Err(); err != nil {
		return models.Money{}, err
	}
	rule, ok := r.regions[normalizeRegion(region)]
	if !ok {
		if r.defaultRule == nil {
			return models.Money{}, fmt.Errorf("%w: %s", ErrRegionUnsupported, region)
		}
		rule = *r.defaultRule
	}
	if rule.freeOver != nil && subtotal.Decimal.GreaterThanOrEqual(*rule.freeOver) {
		return models.NewMoneyFromDecimal(decimal.Zero), nil
	}
	return rule.rate, nil
}

func normalizeRegion(region string) string {
	return strings.ToUpper(strings.TrimSpace(region))
}

func parseOptionalDecimal(raw string) (*decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
