package bucketlist

import (
	"testing"

	"github.com/klokku/daybook/pkg/partition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func source() []partition.BucketItem {
	return []partition.BucketItem{
		{Id: 3, Task: "Climb Kilimanjaro", Completed: false},
		{Id: 1, Task: "Learn Japanese", Completed: true},
		{Id: 2, Task: "Write a book", Completed: false},
	}
}

func TestChecklist_ItemsKeepSourceOrder(t *testing.T) {
	checklist := NewChecklist(source())

	assert.Equal(t, source(), checklist.Items())
}

func TestChecklist_Toggle(t *testing.T) {
	// given
	items := source()
	checklist := NewChecklist(items)

	// when
	toggled, err := checklist.Toggle(3)

	// then
	require.NoError(t, err)
	assert.True(t, toggled.Completed)
	assert.True(t, checklist.Items()[0].Completed)
	assert.False(t, items[0].Completed, "source list must not change")

	toggled, err = checklist.Toggle(3)
	require.NoError(t, err)
	assert.False(t, toggled.Completed)
}

func TestChecklist_ToggleUnknown(t *testing.T) {
	checklist := NewChecklist(source())

	_, err := checklist.Toggle(42)

	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestChecklist_Progress(t *testing.T) {
	checklist := NewChecklist(source())
	assert.Equal(t, 33, checklist.Progress())

	_, _ = checklist.Toggle(2)
	assert.Equal(t, 67, checklist.Progress())

	assert.Equal(t, 0, NewChecklist(nil).Progress())
}

func TestChecklist_Reset(t *testing.T) {
	checklist := NewChecklist(source())
	_, _ = checklist.Toggle(1)

	checklist.Reset(source())

	assert.Equal(t, source(), checklist.Items())
}

func TestChecklist_ItemsIsACopy(t *testing.T) {
	checklist := NewChecklist(source())

	items := checklist.Items()
	items[0].Completed = true

	assert.False(t, checklist.Items()[0].Completed)
	assert.Equal(t, []partition.BucketItem{}, NewChecklist(nil).Items())
}
