package implementation

import (
	"context"
	"testing"

	"commerce-assistant/internal/repository/specification"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductRepository_FindOne(t *testing.T) {
	t.Run("not found returns nil", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewProductRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE LOWER\(products.name\) = LOWER\(\$1\)`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

		p, err := repo.FindOne(context.Background(), specification.ByName{Name: "Kemeja Linen"})
		require.NoError(t, err)
		assert.Nil(t, p)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("loads variants", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewProductRepository(db)
		id := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "products"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "category", "status"}).
				AddRow(id.String(), "Kemeja Linen", "shirt", "active"))
		mock.ExpectQuery(`SELECT \* FROM "product_variants" WHERE "product_variants"."product_id" = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "color", "size", "price", "quantity", "is_active"}).
				AddRow(uuid.New().String(), id.String(), "Navy", "M", 250000.0, 4, true).
				AddRow(uuid.New().String(), id.String(), "White", "L", 250000.0, 0, true))

		p, err := repo.FindOne(context.Background(), specification.ByID{ID: id})
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "Kemeja Linen", p.Name)
		assert.Len(t, p.Variants, 2)
		assert.Equal(t, []string{"M"}, p.AvailableSizes())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProductRepository_DistinctColors(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectQuery(`SELECT DISTINCT .*color.* FROM "product_variants"`).
		WillReturnRows(sqlmock.NewRows([]string{"color"}).AddRow("Navy").AddRow("Dusty Pink"))

	colors, err := repo.DistinctColors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Navy", "Dusty Pink"}, colors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_FindVariants(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectQuery(`SELECT product_variants.\*, products.name AS product_name FROM "product_variants" JOIN products`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "sku", "color", "size", "quantity", "is_active", "product_name"}).
			AddRow(uuid.New().String(), uuid.New().String(), "KL-NV-M", "Navy", "M", 2, true, "Kemeja Linen"))

	variants, err := repo.FindVariants(context.Background(),
		specification.ActiveVariants{}, specification.QuantityAtMost{Threshold: 5})
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Equal(t, "Kemeja Linen", variants[0].ProductName)
	assert.Equal(t, 2, variants[0].Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_SearchSimilarEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectQuery(`FROM "product_embeddings" JOIN products`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "similarity"}))

	res, err := repo.SearchSimilar(context.Background(), []float32{0.1, 0.2}, 5, 0.75)
	require.NoError(t, err)
	assert.Empty(t, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}
