package sparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type audit struct {
	UpdatedBy *string `db:"updated_by"`
}

type vehiclePatch struct {
	audit
	Plate     *string          `db:"plate"`
	Mileage   *int             `db:"mileage"`
	Notes     string           `json:"notes,omitempty"`
	Photos    []string         `db:"photos"`
	Meta      map[string]any   `db:"meta"`
	Extra     any              `db:"extra"`
	NextVisit time.Time        `db:"next_visit"`
	Secret    string           `db:"-" json:"secret"`
	internal  string
}

func TestUpdate_DropsUnsetFields(t *testing.T) {
	plate := "AB-123-CD"
	zero := 0

	got := Update(&vehiclePatch{Plate: &plate, Mileage: &zero, Secret: "x", internal: "y"})

	assert.Equal(t, map[string]any{
		"plate":   "AB-123-CD",
		"mileage": 0,
		"notes":   "",
	}, got)
}

func TestUpdate_KeepsSetCollectionsAndTime(t *testing.T) {
	by := "u-1"
	when := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	got := Update(vehiclePatch{
		audit:     audit{UpdatedBy: &by},
		Photos:    []string{},
		NextVisit: when,
		Extra:     42,
	})

	assert.Equal(t, "u-1", got["updated_by"])
	assert.Equal(t, []string{}, got["photos"])
	assert.Equal(t, when, got["next_visit"])
	assert.Equal(t, 42, got["extra"])
	assert.NotContains(t, got, "meta")
	assert.NotContains(t, got, "plate")
}

func TestUpdate_NonStruct(t *testing.T) {
	assert.Empty(t, Update(nil))
	assert.Empty(t, Update((*vehiclePatch)(nil)))
	assert.Empty(t, Update(42))
}
