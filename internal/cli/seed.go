package cli

import (
	"context"
	"fmt"

	"github.com/bookstore-next/internal/constants"
	"github.com/bookstore-next/internal/logger"
	"github.com/bookstore-next/internal/models"
	"github.com/bookstore-next/internal/provider"
	"github.com/bookstore-next/internal/service"

	"github.com/spf13/cobra"
)

type seedBook struct {
	ISBN   string
	Title  string
	Author string
	Price  string
	Stock  int
}

var seedBooks = []seedBook{
	{ISBN: "9780262033848", Title: "Introduction to Algorithms", Author: "Cormen, Leiserson, Rivest, Stein", Price: "89.99", Stock: 12},
	{ISBN: "9780134190440", Title: "The Go Programming Language", Author: "Donovan, Kernighan", Price: "39.99", Stock: 25},
	{ISBN: "9781449373320", Title: "Designing Data-Intensive Applications", Author: "Martin Kleppmann", Price: "45.50", Stock: 8},
	{ISBN: "9780201633610", Title: "Design Patterns", Author: "Gamma, Helm, Johnson, Vlissides", Price: "54.00", Stock: 3},
	{ISBN: "9780131103627", Title: "The C Programming Language", Author: "Kernighan, Ritchie", Price: "42.00", Stock: 0},
}

func newSeedCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load a demo catalog, suppliers and promo codes into an empty database",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := opts.openContainer()
			if err != nil {
				return err
			}
			defer container.Close()

			seeded, err := seedDemoData(cmd.Context(), container)
			if err != nil {
				return err
			}
			if !seeded {
				fmt.Fprintln(cmd.OutOrStdout(), "catalog not empty, seed skipped")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d books\n", len(seedBooks))
			return nil
		},
	}
}

// seedDemoData 目录为空时写入演示数据
func seedDemoData(ctx context.Context, c *provider.Container) (bool, error) {
	var count int64
	if err := c.DB.WithContext(ctx).Model(&models.Product{}).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	for _, book := range seedBooks {
		price, err := models.NewMoneyFromString(book.Price)
		if err != nil {
			return false, err
		}
		product, err := c.ProductService.Create(service.CreateProductInput{
			ISBN:         book.ISBN,
			Title:        book.Title,
			Author:       book.Author,
			Price:        price,
			InitialStock: book.Stock,
			IsActive:     true,
		})
		if err != nil {
			return false, fmt.Errorf("seed product %s: %w", book.ISBN, err)
		}
		logger.Debugw("seed_product_created", "product_id", product.ID, "isbn", product.ISBN)
	}

	for _, input := range []service.CreateSupplierInput{
		{Name: "Northwind Books Distribution", ContactEmail: "orders@northwind.example", Phone: "+1-555-0100"},
		{Name: "Harbor Academic Press", ContactEmail: "trade@harbor.example"},
	} {
		if _, err := c.PurchaseOrderService.CreateSupplier(input); err != nil {
			return false, fmt.Errorf("seed supplier %s: %w", input.Name, err)
		}
	}

	minPurchase := models.MustMoney("50.00")
	perUser := 1
	promos := []service.CreatePromoCodeInput{
		{Code: "WELCOME10", Type: constants.PromoTypePercentage, DiscountPercent: 10, PerUserLimit: &perUser, IsActive: true},
		{Code: "SAVE5", Type: constants.PromoTypeFixed, FixedAmount: models.MustMoney("5.00"), MinPurchase: &minPurchase, IsActive: true},
		{Code: "FREESHIP", Type: constants.PromoTypeFreeShipping, IsActive: true},
	}
	for _, input := range promos {
		if _, err := c.PromoService.Create(ctx, input); err != nil {
			return false, fmt.Errorf("seed promo code %s: %w", input.Code, err)
		}
	}
	logger.Infow("seed_completed", "books", len(seedBooks), "promo_codes", len(promos))
	return true, nil
}
