package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiritgear-io/spiritgear/internal/models"
)

func seedProduct(t *testing.T, repo *ProductRepository) *models.Product {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	p := &models.Product{
		ID:             uuid.NewString(),
		Slug:           "spirit-tee-" + uuid.NewString()[:8],
		Name:           "Spirit Tee",
		Category:       "apparel",
		BasePriceCents: 1500,
		Active:         true,
		Options:        "[]",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestOrderCreateWithItems(t *testing.T) {
	db := testDB(t)
	orders := NewOrderRepository(db)
	product := seedProduct(t, NewProductRepository(db))
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	order := &models.Order{
		ID:            uuid.NewString(),
		OrderNumber:   "SG-1001",
		SchoolName:    "Jefferson Elementary",
		ContactEmail:  "pat@example.com",
		Status:        models.OrderPending,
		SubtotalCents: 3000,
		TotalCents:    3000,
		CreatedAt:     now,
		UpdatedAt:     now,
		Items: []models.OrderItem{
			{ID: uuid.NewString(), ProductID: product.ID, ProductName: product.Name, Quantity: 2, UnitPriceCents: 1500, SelectedOptions: "[]"},
		},
	}
	require.NoError(t, orders.Create(ctx, order))

	got, err := orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "SG-1001", got.OrderNumber)
	require.Len(t, got.Items, 1)
	assert.Equal(t, order.ID, got.Items[0].OrderID)
	assert.Equal(t, 2, got.Items[0].Quantity)
}

func TestOrderFindMissingReturnsNil(t *testing.T) {
	db := testDB(t)
	got, err := NewOrderRepository(db).FindByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOrderStatusAndCounts(t *testing.T) {
	db := testDB(t)
	orders := NewOrderRepository(db)
	ctx := context.Background()

	a := seedOrder(t, db)
	b := seedOrder(t, db)
	require.NoError(t, orders.UpdateStatus(ctx, b.ID, models.OrderInProduction, time.Now().UTC()))

	counts, err := orders.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[models.OrderPending])
	assert.Equal(t, 1, counts[models.OrderInProduction])

	listed, err := orders.List(ctx, models.OrderPending, 10, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, a.ID, listed[0].ID)

	assert.ErrorIs(t, orders.UpdateStatus(ctx, "nope", models.OrderShipped, time.Now().UTC()), ErrOrderNotFound)
}

func TestOrderRevenueByMonth(t *testing.T) {
	db := testDB(t)
	orders := NewOrderRepository(db)
	ctx := context.Background()

	now := time.Date(2024, 4, 10, 8, 0, 0, 0, time.UTC)
	for i, total := range []int64{1000, 2500} {
		order := &models.Order{
			ID:           uuid.NewString(),
			OrderNumber:  "SG-200" + uuid.NewString()[:4],
			ContactEmail: "pat@example.com",
			Status:       models.OrderShipped,
			TotalCents:   total,
			CreatedAt:    now.AddDate(0, 0, i),
			UpdatedAt:    now,
		}
		require.NoError(t, orders.Create(ctx, order))
	}
	cancelled := &models.Order{
		ID:           uuid.NewString(),
		OrderNumber:  "SG-CXL1",
		ContactEmail: "pat@example.com",
		Status:       models.OrderCancelled,
		TotalCents:   99999,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, orders.Create(ctx, cancelled))

	revenue, err := orders.RevenueByMonth(ctx)
	require.NoError(t, err)
	require.Len(t, revenue, 1)
	assert.Equal(t, "2024-04", revenue[0].Month)
	assert.Equal(t, int64(3500), revenue[0].TotalCents)
	assert.Equal(t, 2, revenue[0].Orders)
}

func TestProductUpdateAndDelete(t *testing.T) {
	db := testDB(t)
	products := NewProductRepository(db)
	ctx := context.Background()

	p := seedProduct(t, products)
	p.Name = "Spirit Hoodie"
	p.BasePriceCents = 3200
	p.UpdatedAt = time.Now().UTC()
	require.NoError(t, products.Update(ctx, p))

	got, err := products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Spirit Hoodie", got.Name)
	assert.Equal(t, int64(3200), got.BasePriceCents)

	bySlug, err := products.GetBySlug(ctx, p.Slug)
	require.NoError(t, err)
	assert.Equal(t, p.ID, bySlug.ID)

	require.NoError(t, products.Delete(ctx, p.ID))
	_, err = products.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}
