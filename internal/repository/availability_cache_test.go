package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskhub/internal/entities"
)

func TestAvailabilityKey(t *testing.T) {
	assert.Equal(t, "availability:space:12", availabilityKey(12))
}

func TestDecodeEntryMissesOnOtherDay(t *testing.T) {
	view := &entities.AvailabilityView{
		SpaceID:          3,
		UnavailableDates: []civil.Date{date(2025, 5, 1), date(2025, 5, 2)},
	}
	data, err := json.Marshal(cacheEntry{AsOf: date(2025, 4, 30), View: view})
	require.NoError(t, err)

	got, ok, err := decodeEntry(data, date(2025, 4, 30))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, view.UnavailableDates, got.UnavailableDates)

	_, ok, err = decodeEntry(data, date(2025, 5, 1))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNoopCacheAlwaysMisses(t *testing.T) {
	var c AvailabilityCache = NoopAvailabilityCache{}
	_, ok, err := c.Get(context.Background(), 1, civil.DateOf(time.Now()))
	assert.NoError(t, err)
	assert.False(t, ok)
}
