package estimates

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/souqly/souqly-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  status TEXT NOT NULL,
  created_at DATETIME NOT NULL,
  total_amount TEXT NOT NULL DEFAULT '0'
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, status string, createdAt time.Time, total string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, db.Exec(
		`INSERT INTO orders (id, status, created_at, total_amount) VALUES (?, ?, ?, ?)`,
		id, status, createdAt, total,
	).Error)
	return id
}

func TestRecentSamplesLookbackWindow(t *testing.T) {
	db := setupOrdersTestDB(t)
	reader, err := NewSampleReader(db)
	require.NoError(t, err)

	cutoff := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	oldID := seedOrder(t, db, "delivered", cutoff.Add(-time.Hour), "100")
	recentID := seedOrder(t, db, "shipped", cutoff.Add(time.Hour), "250")

	samples, err := reader.RecentSamples(context.Background(), cutoff)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, recentID, samples[0].OrderID)
	assert.NotEqual(t, oldID, samples[0].OrderID)
	assert.Equal(t, enums.OrderStatusShipped, samples[0].Status)
	assert.Equal(t, 250.0, samples[0].TotalAmount.InexactFloat64())
}

func TestRecentSamplesOrderedOldestFirst(t *testing.T) {
	db := setupOrdersTestDB(t)
	reader, err := NewSampleReader(db)
	require.NoError(t, err)

	base := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	second := seedOrder(t, db, "pending", base.Add(2*time.Hour), "10")
	first := seedOrder(t, db, "pending", base.Add(time.Hour), "10")

	samples, err := reader.RecentSamples(context.Background(), base)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, first, samples[0].OrderID)
	assert.Equal(t, second, samples[1].OrderID)
}

func TestRecentSamplesMalformedAmountCarriedAsZero(t *testing.T) {
	db := setupOrdersTestDB(t)
	reader, err := NewSampleReader(db)
	require.NoError(t, err)

	base := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	seedOrder(t, db, "delivered", base.Add(time.Hour), "-50")

	samples, err := reader.RecentSamples(context.Background(), base)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.True(t, samples[0].TotalAmount.IsZero())
}

func TestRecentSamplesEmptyTable(t *testing.T) {
	db := setupOrdersTestDB(t)
	reader, err := NewSampleReader(db)
	require.NoError(t, err)

	samples, err := reader.RecentSamples(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, samples)
}
