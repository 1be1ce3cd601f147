package cmd

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/models"
	"github.com/Madhav-Gupta-28/o2herbal-backend-go/services"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the starter catalog when no products exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, lg, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = lg.Sync() }()

		ctx := cmd.Context()
		st, err := openStores(ctx, cfg, lg)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close(context.Background()) }()

		n, err := seedCatalog(ctx, services.NewCatalogService(st.catalog, cfg.LowStockThreshold, lg), lg)
		if err != nil {
			return err
		}
		lg.Info("Seed finished", zap.Int("created", n))
		return nil
	},
}

func starterProducts() []models.Product {
	price := decimal.RequireFromString
	return []models.Product{
		{
			Name:        "Neem Tulsi Soap",
			Category:    models.CategorySoap,
			Description: "Cold-processed soap with neem and holy basil for oily skin.",
			Price:       price("149"),
			Stock:       120,
			Ingredients: []string{"Neem", "Tulsi", "Coconut oil"},
			SkinType:    []string{"Oily", "Combination"},
		},
		{
			Name:        "Bhringraj Hair Oil",
			Category:    models.CategoryOil,
			Description: "Bhringraj and amla infused sesame oil for hair fall.",
			Price:       price("399"),
			Stock:       60,
			Ingredients: []string{"Bhringraj", "Amla", "Sesame oil"},
			HairType:    []string{"Dry", "Normal"},
		},
		{
			Name:        "Reetha Shikakai Shampoo",
			Category:    models.CategoryShampoo,
			Description: "Sulphate-free shampoo with soapnut and shikakai.",
			Price:       price("299"),
			Stock:       80,
			Ingredients: []string{"Reetha", "Shikakai"},
			HairType:    []string{"All"},
		},
		{
			Name:        "Kumkumadi Night Cream",
			Category:    models.CategoryCream,
			Description: "Saffron night cream for dull skin.",
			Price:       price("649"),
			Stock:       40,
			Ingredients: []string{"Saffron", "Sandalwood"},
			SkinType:    []string{"Dry", "Normal"},
		},
		{
			Name:        "Aloe Vera Gel",
			Category:    models.CategoryGel,
			Description: "Soothing aloe vera gel.",
			Price:       price("199"),
			Stock:       150,
			Ingredients: []string{"Aloe vera"},
			SkinType:    []string{"All"},
		},
	}
}

func seedCatalog(ctx context.Context, catalog *services.CatalogService, lg *zap.Logger) (int, error) {
	existing, err := catalog.ListAllProducts(ctx, models.ProductFilter{OmitReviews: true})
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		lg.Info("Catalog already has products, skipping seed", zap.Int("products", len(existing)))
		return 0, nil
	}

	created := 0
	for _, p := range starterProducts() {
		p.IsActive = true
		if _, err := catalog.CreateProduct(ctx, &p); err != nil {
			return created, errors.Wrapf(err, "seed %s", p.Name)
		}
		created++
	}
	return created, nil
}
