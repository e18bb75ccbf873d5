package repository_test

import (
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/models"
	repository "github.com/aaravmahajanofficial/ebike-storefront/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCartRepoTest(t *testing.T) (repository.CartStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "Failed to create sqlmock")

	t.Cleanup(func() {
		db.Close()
	})

	repo := repository.NewCartRepo(db)
	require.NotNil(t, repo, "NewCartRepo should return a non-nil repository")

	return repo, mock
}

func sampleItems() []models.CartItem {
	return []models.CartItem{
		{
			Product:                models.ProductSnapshot{ID: "p1", Name: "City Cruiser", Price: 100000, Category: "city"},
			Quantity:               2,
			SelectedBattery:        models.BatteryLithiumPremium,
			SelectedCondition:      models.ConditionNew,
			BatteryPriceAdjustment: 5000,
		},
	}
}

func TestCartKey(t *testing.T) {
	assert.Equal(t, "ebike-cart:abc", repository.CartKey("abc"))
}

func TestCartRepositoryLoad(t *testing.T) {
	ctx := t.Context()
	key := repository.CartKey("session-1")
	now := time.Now()

	expectedSQL := regexp.QuoteMeta(`
		SELECT items, updated_at
		FROM carts
		WHERE session_key = $1
	`)

	t.Run("Success", func(t *testing.T) {
		// Arrange
		repo, mock := setupCartRepoTest(t)
		items := sampleItems()
		itemsJSON, err := json.Marshal(items)
		require.NoError(t, err)

		mock.ExpectQuery(expectedSQL).
			WithArgs(key).
			WillReturnRows(sqlmock.NewRows([]string{"items", "updated_at"}).AddRow(itemsJSON, now))

		// Act
		cart, err := repo.Load(ctx, key)

		// Assert
		require.NoError(t, err)
		require.NotNil(t, cart)
		assert.Equal(t, items, cart.Items)
		assert.WithinDuration(t, now, cart.UpdatedAt, time.Second)
		assert.Equal(t, int64(210000), cart.TotalPrice())
		require.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
	})

	t.Run("Success - Missing Row Yields Empty Cart", func(t *testing.T) {
		// Arrange
		repo, mock := setupCartRepoTest(t)
		mock.ExpectQuery(expectedSQL).WithArgs(key).WillReturnError(sql.ErrNoRows)

		// Act
		cart, err := repo.Load(ctx, key)

		// Assert
		require.NoError(t, err)
		require.NotNil(t, cart)
		assert.Empty(t, cart.Items)
		assert.NotNil(t, cart.Items)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success - Null Items", func(t *testing.T) {
		// Arrange
		repo, mock := setupCartRepoTest(t)
		mock.ExpectQuery(expectedSQL).
			WithArgs(key).
			WillReturnRows(sqlmock.NewRows([]string{"items", "updated_at"}).AddRow([]byte(`null`), now))

		// Act
		cart, err := repo.Load(ctx, key)

		// Assert
		require.NoError(t, err)
		assert.NotNil(t, cart.Items)
		assert.Empty(t, cart.Items)
	})

	t.Run("Failure - Database Error", func(t *testing.T) {
		// Arrange
		repo, mock := setupCartRepoTest(t)
		dbError := errors.New("database query error")
		mock.ExpectQuery(expectedSQL).WithArgs(key).WillReturnError(dbError)

		// Act
		cart, err := repo.Load(ctx, key)

		// Assert
		require.Error(t, err)
		assert.ErrorIs(t, err, dbError)
		assert.Nil(t, cart)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Unmarshal Error", func(t *testing.T) {
		// Arrange
		repo, mock := setupCartRepoTest(t)
		mock.ExpectQuery(expectedSQL).
			WithArgs(key).
			WillReturnRows(sqlmock.NewRows([]string{"items", "updated_at"}).AddRow([]byte(`{"invalid"`), now))

		// Act
		cart, err := repo.Load(ctx, key)

		// Assert
		require.Error(t, err)
		assert.ErrorContains(t, err, "failed to unmarshal cart items")
		assert.Nil(t, cart)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCartRepositorySave(t *testing.T) {
	ctx := t.Context()
	key := repository.CartKey("session-1")

	expectedSQL := regexp.QuoteMeta(`
		INSERT INTO carts (session_key, items, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_key)
		DO UPDATE SET items = EXCLUDED.items, updated_at = EXCLUDED.updated_at
	`)

	cart := &models.Cart{Items: sampleItems(), UpdatedAt: time.Now()}
	itemsJSON, err := json.Marshal(cart.Items)
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		// Arrange
		repo, mock := setupCartRepoTest(t)
		mock.ExpectExec(expectedSQL).
			WithArgs(key, itemsJSON, cart.UpdatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		// Act
		err := repo.Save(ctx, key, cart)

		// Assert
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Database Error", func(t *testing.T) {
		// Arrange
		repo, mock := setupCartRepoTest(t)
		dbError := errors.New("database insertion error")
		mock.ExpectExec(expectedSQL).
			WithArgs(key, itemsJSON, cart.UpdatedAt).
			WillReturnError(dbError)

		// Act
		err := repo.Save(ctx, key, cart)

		// Assert
		require.Error(t, err)
		assert.ErrorIs(t, err, dbError)
		assert.ErrorContains(t, err, "failed to save the cart")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMemoryCartStore(t *testing.T) {
	ctx := t.Context()

	t.Run("Success - Unknown Key", func(t *testing.T) {
		store := repository.NewMemoryCartStore()

		cart, err := store.Load(ctx, "missing")

		require.NoError(t, err)
		assert.Empty(t, cart.Items)
	})

	t.Run("Success - Saved Cart Is Isolated From Caller", func(t *testing.T) {
		// Arrange
		store := repository.NewMemoryCartStore()
		cart := &models.Cart{Items: sampleItems()}
		require.NoError(t, store.Save(ctx, "k", cart))

		// Act
		cart.Items[0].Quantity = 99
		loaded, err := store.Load(ctx, "k")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 2, loaded.Items[0].Quantity)

		loaded.Items[0].Quantity = 7
		again, err := store.Load(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, 2, again.Items[0].Quantity)
	})
}
