package dataset

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"challenge-harvester/internal/models"
)

func fixture() []models.Challenge {
	return []models.Challenge{
		{Title: "Ocean Mapping", Summary: "old"},
		{Title: "Moon Dust"},
		{Title: "Wildfire Watch"},
	}
}

func TestUpsertAppendsNewKey(t *testing.T) {
	rows := fixture()
	rec := models.Challenge{Title: "Solar Storms", Summary: "new"}

	out, replaced := Upsert(rows, rec)
	assert.False(t, replaced)
	require.Len(t, out, len(rows)+1)
	assert.Equal(t, rows, out[:len(rows)])
	assert.Equal(t, rec, out[len(rows)])
}

func TestUpsertReplacesWholeRow(t *testing.T) {
	rows := fixture()
	rec := models.Challenge{Title: "  OCEAN mapping ", Fields: "GIS"}

	out, replaced := Upsert(rows, rec)
	assert.True(t, replaced)
	require.Len(t, out, len(rows))
	assert.Equal(t, rec, out[0])
	assert.Empty(t, out[0].Summary, "old columns are not carried over")
	assert.Equal(t, "old", rows[0].Summary, "input is left untouched")
}

func TestUpsertIdempotent(t *testing.T) {
	for _, rec := range []models.Challenge{
		{Title: "Moon Dust", Summary: "x"},
		{Title: "brand new", Category: "Space"},
	} {
		once, _ := Upsert(fixture(), rec)
		twice, _ := Upsert(once, rec)
		assert.Equal(t, once, twice)
	}
}

func TestUpsertDuplicateKeysReplacesFirstOnly(t *testing.T) {
	rows := []models.Challenge{{Title: "A", Summary: "1"}, {Title: "b"}, {Title: "a", Summary: "2"}}
	out, replaced := Upsert(rows, models.Challenge{Title: "A", Summary: "3"})
	assert.True(t, replaced)
	assert.Equal(t, "3", out[0].Summary)
	assert.Equal(t, "2", out[2].Summary)
}

func TestDatasetFindAndRows(t *testing.T) {
	d := New(SectionManual, "Manual")
	assert.False(t, d.Upsert(models.Challenge{Title: "Ocean Mapping"}))
	assert.True(t, d.Upsert(models.Challenge{Title: "ocean mapping", Summary: "s"}))

	got, ok := d.Find("ocean mapping")
	require.True(t, ok)
	assert.Equal(t, "s", got.Summary)
	assert.Equal(t, 1, d.Len())

	rows := d.Rows()
	rows[0].Summary = "mutated"
	got, _ = d.Find("ocean mapping")
	assert.Equal(t, "s", got.Summary)
}

func TestGuardExclusive(t *testing.T) {
	d := New(SectionUpload, "Uploaded")
	release, err := d.Acquire("analyze")
	require.NoError(t, err)
	assert.Equal(t, "analyze", d.Holder())

	_, err = d.Acquire("add")
	assert.ErrorIs(t, err, ErrBusy)

	release()
	release()
	assert.Empty(t, d.Holder())

	release2, err := d.Acquire("add")
	require.NoError(t, err)
	release2()
}

func TestGuardConcurrentAcquire(t *testing.T) {
	d := New(SectionScrape, "Scraped")
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := d.Acquire("op"); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{SectionManual, SectionScrape, SectionUpload}, r.Names())
	d, err := r.Get(SectionUpload)
	require.NoError(t, err)
	assert.Equal(t, "Uploaded", d.Sheet)
	_, err = r.Get("nope")
	assert.ErrorIs(t, err, ErrUnknownSection)
}
