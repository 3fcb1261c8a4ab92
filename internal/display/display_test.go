package display

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rfboard/internal/store"
)

func TestListFor_GroupZeroDemoModeIsFixedSet(t *testing.T) {
	out := ListFor(0, nil, nil, true)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, out)
}

func TestListFor_GroupZeroLiveModeFollowsConfigOrder(t *testing.T) {
	cfg := []store.SlotConfig{{Slot: 5}, {Slot: 2}, {Slot: 9}}

	out := ListFor(0, cfg, nil, false)

	assert.Equal(t, []int{5, 2, 9}, out, "configuration order, not sorted")
}

func TestListFor_StoredGroupIsVerbatim(t *testing.T) {
	groups := map[int]store.Group{
		3: {Group: 3, Title: "Band", Slots: []int{7, 7, 99}},
	}

	out := ListFor(3, nil, groups, false)

	assert.Equal(t, []int{7, 7, 99}, out, "duplicates and unconfigured slots pass through")
}

func TestListFor_UnknownGroupIsEmpty(t *testing.T) {
	assert.Empty(t, ListFor(4, nil, map[int]store.Group{}, false))
}
