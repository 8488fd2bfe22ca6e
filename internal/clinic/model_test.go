package clinic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotLookups(t *testing.T) {
	snap, err := LoadSnapshot(context.Background(), SeedCatalog())
	require.NoError(t, err)
	require.Len(t, snap.Practitioners, 3)

	p, ok := snap.Practitioner(2)
	require.True(t, ok)
	assert.Equal(t, "Marko Horvat", p.Name)
	_, ok = snap.Practitioner(99)
	assert.False(t, ok)

	sub, ok := snap.SubService(10)
	require.True(t, ok)
	assert.Equal(t, 60, sub.DurationMinutes)
	assert.True(t, snap.Eligible(1, 10))
	assert.False(t, snap.Eligible(3, 10))
	assert.False(t, snap.Eligible(1, 999))

	cat, ok := snap.Category(4)
	require.True(t, ok)
	assert.Len(t, cat.SubServices, 3)
}

func TestEligibleCategoriesDropsEmptyCategories(t *testing.T) {
	snap, err := LoadSnapshot(context.Background(), SeedCatalog())
	require.NoError(t, err)

	cats := snap.EligibleCategories(3)
	var names []string
	for _, c := range cats {
		names = append(names, c.Name)
		for _, sub := range c.SubServices {
			assert.True(t, sub.EligibleFor(3), "%s not eligible for 3", sub.Name)
		}
	}
	assert.Equal(t, []string{"Fizikalne procedure i tehnologija", "Prevencija, trening i edukacija"}, names)
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "50 €", FormatPrice(5000))
	assert.Equal(t, "35,50 €", FormatPrice(3550))
	assert.Equal(t, "0,05 €", FormatPrice(5))
}

func TestMemoryCatalogReturnsCopies(t *testing.T) {
	catalog := SeedCatalog()
	cats, err := catalog.ListServices(context.Background())
	require.NoError(t, err)
	cats[0].SubServices[0].Name = "changed"

	again, err := catalog.ListServices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Cjelovita klinička procjena", again[0].SubServices[0].Name)
	assert.True(t, catalog.Eligible(3, 7))
	assert.False(t, catalog.Eligible(1, 7))
}
