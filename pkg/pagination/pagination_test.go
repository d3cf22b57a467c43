package pagination

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taomall/marketplace-backend/pkg/db/dbtest"
	"github.com/taomall/marketplace-backend/pkg/db/models"
	"github.com/taomall/marketplace-backend/pkg/enums"
)

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-3))
	assert.Equal(t, 7, NormalizeLimit(7))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+50))
	assert.Equal(t, 8, LimitWithBuffer(7))
}

func TestCursorRoundTrip(t *testing.T) {
	c := Cursor{CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 123, time.UTC), ID: uuid.New()}
	parsed, err := ParseCursor(EncodeCursor(c))
	require.NoError(t, err)
	require.NotNil(t, parsed)
	assert.True(t, c.CreatedAt.Equal(parsed.CreatedAt))
	assert.Equal(t, c.ID, parsed.ID)

	empty, err := ParseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = ParseCursor("%%%")
	assert.ErrorIs(t, err, errMalformedCursor)

	_, err = ParseCursor(EncodeCursor(Cursor{}))
	assert.ErrorIs(t, err, errMalformedCursor)
}

func TestSeekWalksPages(t *testing.T) {
	conn := dbtest.Open(t)
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, conn.Create(&models.Voucher{
			ID:        uuid.New(),
			Code:      fmt.Sprintf("PAGE%d", i),
			Scope:     enums.VoucherScopePlatform,
			Kind:      enums.VoucherKindFixed,
			Value:     decimal.NewFromInt(1000),
			StartsAt:  base,
			IsActive:  true,
			CreatedBy: uuid.New(),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	var seen []string
	params := Params{Limit: 2}
	for page := 0; page < 5; page++ {
		var rows []models.Voucher
		require.NoError(t, conn.Scopes(Seek(params)).Find(&rows).Error)
		rows, next := Trim(rows, params.Limit, func(v models.Voucher) Cursor {
			return Cursor{CreatedAt: v.CreatedAt, ID: v.ID}
		})
		for _, v := range rows {
			seen = append(seen, v.Code)
		}
		if next == "" {
			break
		}
		params.Cursor = next
	}
	assert.Equal(t, []string{"PAGE4", "PAGE3", "PAGE2", "PAGE1", "PAGE0"}, seen)

	err := conn.Scopes(Seek(Params{Cursor: "%%%"})).Find(&[]models.Voucher{}).Error
	assert.ErrorIs(t, err, errMalformedCursor)
}

func TestTrim(t *testing.T) {
	type row struct {
		id uuid.UUID
		at time.Time
	}
	now := time.Now().UTC()
	rows := []row{{uuid.New(), now}, {uuid.New(), now.Add(-time.Minute)}, {uuid.New(), now.Add(-2 * time.Minute)}}
	key := func(r row) Cursor { return Cursor{CreatedAt: r.at, ID: r.id} }

	page, next := Trim(rows, 2, key)
	require.Len(t, page, 2)
	require.NotEmpty(t, next)
	cur, err := ParseCursor(next)
	require.NoError(t, err)
	assert.Equal(t, rows[1].id, cur.ID)

	page, next = Trim(rows[:2], 2, key)
	assert.Len(t, page, 2)
	assert.Empty(t, next)
}
