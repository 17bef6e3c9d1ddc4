package inventoryControllers

import (
	"fmt"
	"testing"

	"github.com/CreedTech/blackrose-backend-sub000/models"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{DisableForeignKeyConstraintWhenMigrating: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Product{},
		&models.ProductVariant{},
	))
	return db
}

func createProduct(t *testing.T, db *gorm.DB, stock int, availability models.AvailabilityType) *models.Product {
	t.Helper()
	product := models.Product{
		Title:            "Midnight Rose Print",
		Slug:             fmt.Sprintf("midnight-rose-%s-%d", t.Name(), stock),
		Price:            200,
		AvailabilityType: availability,
		Active:           true,
		Stock:            stock,
	}
	require.NoError(t, db.Create(&product).Error)
	return &product
}

func createVariant(t *testing.T, db *gorm.DB, product *models.Product, stock int, backorder bool) *models.ProductVariant {
	t.Helper()
	variant := models.ProductVariant{
		ProductID:        product.ID,
		Name:             "A3 / Matte",
		Size:             "A3",
		Finish:           "matte",
		Stock:            stock,
		Active:           true,
		InventoryManaged: true,
		BackorderAllowed: backorder,
	}
	require.NoError(t, db.Create(&variant).Error)
	require.NoError(t, db.Model(product).Update("has_variants", true).Error)
	require.NoError(t, RecomputeProductStock(db, product.ID))
	return &variant
}

func TestCheckAvailabilityInStock(t *testing.T) {
	db := newTestDB(t)
	product := createProduct(t, db, 10, models.AvailabilityInStock)

	av, err := CheckAvailability(db, product.ID, nil, 4, false)
	require.NoError(t, err)
	assert.True(t, av.Available)
	assert.False(t, av.IsPreorder)
	assert.Equal(t, 10, av.StockRemaining)
}

func TestCheckAvailabilityInsufficientNoPreorder(t *testing.T) {
	db := newTestDB(t)
	product := createProduct(t, db, 2, models.AvailabilityInStock)

	av, err := CheckAvailability(db, product.ID, nil, 5, false)
	require.NoError(t, err)
	assert.False(t, av.Available)
	assert.Equal(t, 2, av.StockRemaining)
}

func TestCheckAvailabilityPreorderPaths(t *testing.T) {
	cases := []struct {
		availability models.AvailabilityType
		estimate     string
	}{
		{models.AvailabilityPreorder, "7-14 days"},
		{models.AvailabilityMadeToOrder, "14-21 days"},
		{models.AvailabilityLimitedEdition, "3-7 days"},
	}
	for _, tc := range cases {
		t.Run(string(tc.availability), func(t *testing.T) {
			db := newTestDB(t)
			product := createProduct(t, db, 0, tc.availability)

			av, err := CheckAvailability(db, product.ID, nil, 3, false)
			require.NoError(t, err)
			assert.True(t, av.Available)
			assert.True(t, av.IsPreorder)
			assert.Equal(t, tc.estimate, av.EstimatedDelivery)
		})
	}
}

func TestCheckAvailabilityExplicitOptIn(t *testing.T) {
	db := newTestDB(t)
	product := createProduct(t, db, 0, models.AvailabilityInStock)

	av, err := CheckAvailability(db, product.ID, nil, 1, true)
	require.NoError(t, err)
	assert.True(t, av.Available)
	assert.True(t, av.IsPreorder)
	assert.Equal(t, "7-14 days", av.EstimatedDelivery)
}

func TestCheckAvailabilityBackorderVariant(t *testing.T) {
	db := newTestDB(t)
	product := createProduct(t, db, 0, models.AvailabilityInStock)
	variant := createVariant(t, db, product, 0, true)

	av, err := CheckAvailability(db, product.ID, &variant.ID, 2, false)
	require.NoError(t, err)
	assert.True(t, av.Available)
	assert.True(t, av.IsPreorder)
}

func TestCheckAvailabilityPartialStockNote(t *testing.T) {
	db := newTestDB(t)
	product := createProduct(t, db, 2, models.AvailabilityPreorder)

	av, err := CheckAvailability(db, product.ID, nil, 5, false)
	require.NoError(t, err)
	assert.True(t, av.Available)
	assert.True(t, av.IsPreorder)
	assert.Contains(t, av.Note, "2 of 5 in stock")
}

func TestDecrementNeverGoesNegative(t *testing.T) {
	db := newTestDB(t)
	product := createProduct(t, db, 5, models.AvailabilityInStock)

	require.NoError(t, Decrement(db, product.ID, nil, 3))

	err := Decrement(db, product.ID, nil, 3)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	var got models.Product
	require.NoError(t, db.First(&got, "id = ?", product.ID).Error)
	assert.Equal(t, 2, got.Stock)
}

func TestDecrementVariantRecomputesParent(t *testing.T) {
	db := newTestDB(t)
	product := createProduct(t, db, 0, models.AvailabilityInStock)
	v1 := createVariant(t, db, product, 6, false)
	v2 := createVariant(t, db, product, 4, false)

	require.NoError(t, Decrement(db, product.ID, &v1.ID, 2))

	var got models.Product
	require.NoError(t, db.First(&got, "id = ?", product.ID).Error)
	assert.Equal(t, 8, got.Stock, "parent stock is the sum of active variants")

	var gotV2 models.ProductVariant
	require.NoError(t, db.First(&gotV2, "id = ?", v2.ID).Error)
	assert.Equal(t, 4, gotV2.Stock)
}

func TestDecrementWithoutVariantOnVariantProduct(t *testing.T) {
	db := newTestDB(t)
	product := createProduct(t, db, 0, models.AvailabilityInStock)
	createVariant(t, db, product, 6, false)

	err := Decrement(db, product.ID, nil, 1)
	assert.ErrorIs(t, err, ErrVariantRequired)
}

func TestIncrementRestores(t *testing.T) {
	db := newTestDB(t)
	product := createProduct(t, db, 0, models.AvailabilityInStock)
	variant := createVariant(t, db, product, 3, false)

	require.NoError(t, Decrement(db, product.ID, &variant.ID, 3))
	require.NoError(t, Increment(db, product.ID, &variant.ID, 2))

	var gotV models.ProductVariant
	require.NoError(t, db.First(&gotV, "id = ?", variant.ID).Error)
	assert.Equal(t, 2, gotV.Stock)

	var got models.Product
	require.NoError(t, db.First(&got, "id = ?", product.ID).Error)
	assert.Equal(t, 2, got.Stock)
}

func TestReserveReleaseClampsAtZero(t *testing.T) {
	db := newTestDB(t)
	product := createProduct(t, db, 0, models.AvailabilityInStock)
	variant := createVariant(t, db, product, 5, false)

	require.NoError(t, Reserve(db, variant.ID, 3))
	require.NoError(t, Release(db, variant.ID, 5))

	var got models.ProductVariant
	require.NoError(t, db.First(&got, "id = ?", variant.ID).Error)
	assert.Equal(t, 0, got.Reserved)
}
