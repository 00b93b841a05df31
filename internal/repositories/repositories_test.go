package repositories_test

import (
	"fmt"
	"testing"

	"crackerstore/internal/models"
	"crackerstore/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB opens a private in-memory SQLite database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.CartRecord{}, &models.AdminSession{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func lines() []models.CartLine {
	return []models.CartLine{
		{ProductID: "p2", Name: "Rocket", UnitPrice: decimal.RequireFromString("49.50"), Quantity: 2, Stock: 4},
		{ProductID: "p1", Name: "Sparkler", UnitPrice: decimal.NewFromInt(10), Quantity: 1, Stock: 9, ImageRef: "https://img/p1.png"},
	}
}

func testCartRepository(t *testing.T, repo repositories.CartRepository) {
	_, err := repo.Load("s1")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	require.NoError(t, repo.Save("s1", lines()))
	require.NoError(t, repo.Save("s2", lines()[:1]))

	got, err := repo.Load("s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p2", got[0].ProductID, "cart order is preserved")
	assert.True(t, got[0].UnitPrice.Equal(decimal.RequireFromString("49.5")))
	assert.Equal(t, 2, got[0].Quantity)
	assert.Equal(t, "https://img/p1.png", got[1].ImageRef)

	// Save replaces rather than appends.
	require.NoError(t, repo.Save("s1", lines()[1:]))
	got, err = repo.Load("s1")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// Saving an empty cart forgets it.
	require.NoError(t, repo.Save("s1", nil))
	_, err = repo.Load("s1")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	require.NoError(t, repo.Delete("s2"))
	_, err = repo.Load("s2")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.NoError(t, repo.Delete("missing"))
}

func TestGORMCartRepository(t *testing.T) {
	testCartRepository(t, repositories.NewGORMCartRepository(openTestDB(t)))
}

func TestMockCartRepository(t *testing.T) {
	testCartRepository(t, repositories.NewMockCartRepository())
}

func TestMockCartRepository_LoadReturnsCopy(t *testing.T) {
	repo := repositories.NewMockCartRepository()
	require.NoError(t, repo.Save("s1", lines()))

	got, err := repo.Load("s1")
	require.NoError(t, err)
	got[0].Quantity = 99

	again, err := repo.Load("s1")
	require.NoError(t, err)
	assert.Equal(t, 2, again[0].Quantity)
}

func catalogue() []models.Product {
	return []models.Product{
		{ID: "b", Name: "Bomb", Price: decimal.NewFromInt(30), Stock: 3, InStock: true},
		{ID: "a", Name: "Anar", Price: decimal.NewFromInt(20), Stock: 0},
		{ID: "", Name: "ghost"},
		{ID: "c", Name: "Chakkar", Price: decimal.RequireFromString("12.75"), Stock: 8, InStock: true},
	}
}

func testProductRepository(t *testing.T, repo repositories.ProductRepository) {
	all, err := repo.GetAll()
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, repo.ReplaceAll(catalogue()))
	all, err = repo.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})

	p, err := repo.GetByID("c")
	require.NoError(t, err)
	assert.Equal(t, "Chakkar", p.Name)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("12.75")))

	_, err = repo.GetByID("zzz")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	require.NoError(t, repo.ReplaceAll([]models.Product{{ID: "a", Name: "Anar", Stock: 5}}))
	all, err = repo.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 5, all[0].Stock)
	_, err = repo.GetByID("b")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestGORMProductRepository(t *testing.T) {
	testProductRepository(t, repositories.NewGORMProductRepository(openTestDB(t)))
}

func TestMockProductRepository(t *testing.T) {
	testProductRepository(t, repositories.NewMockProductRepository())
}

func testAdminSessionRepository(t *testing.T, repo repositories.AdminSessionRepository) {
	session := &models.AdminSession{
		Username:    "admin",
		Credentials: models.AdminCredentials{AdminID: "7", AuthToken: "tok"},
	}
	require.NoError(t, repo.Create(session))
	require.NotEmpty(t, session.ID)

	got, err := repo.GetByID(session.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", got.Username)
	assert.Equal(t, "7", got.Credentials.AdminID)
	assert.Equal(t, "tok", got.Credentials.AuthToken)

	require.NoError(t, repo.Delete(session.ID))
	_, err = repo.GetByID(session.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestGORMAdminSessionRepository(t *testing.T) {
	testAdminSessionRepository(t, repositories.NewGORMAdminSessionRepository(openTestDB(t)))
}

func TestMockAdminSessionRepository(t *testing.T) {
	testAdminSessionRepository(t, repositories.NewMockAdminSessionRepository())
}
