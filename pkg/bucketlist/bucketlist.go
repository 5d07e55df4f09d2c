package bucketlist

import (
	"errors"
	"math"
	"slices"
	"sync"

	"github.com/klokku/daybook/pkg/partition"
)

var ErrItemNotFound = errors.New("bucket list item not found")

// Checklist is a working copy of the bucket list. Toggles change the copy
// only; the source list is never written back.
type Checklist struct {
	mu    sync.RWMutex
	items []partition.BucketItem
}

func NewChecklist(items []partition.BucketItem) *Checklist {
	return &Checklist{items: slices.Clone(items)}
}

// Reset replaces the working copy, dropping local toggles.
func (c *Checklist) Reset(items []partition.BucketItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = slices.Clone(items)
}

// Items returns the items in source order.
func (c *Checklist) Items() []partition.BucketItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	items := slices.Clone(c.items)
	if items == nil {
		items = []partition.BucketItem{}
	}
	return items
}

func (c *Checklist) Toggle(id int) (partition.BucketItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].Id == id {
			c.items[i].Completed = !c.items[i].Completed
			return c.items[i], nil
		}
	}
	return partition.BucketItem{}, ErrItemNotFound
}

// Progress is the rounded percentage of completed items, 0 for an empty list.
func (c *Checklist) Progress() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	completed := 0
	for _, item := range c.items {
		if item.Completed {
			completed++
		}
	}
	return int(math.Round(float64(completed) / float64(max(len(c.items), 1)) * 100))
}
