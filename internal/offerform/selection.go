package offerform

import (
	"slices"

	"github.com/erazemk/storefront/internal/model"
)

// Selection is the ordered set of item ids an offer applies to.
type Selection struct {
	IDs []string `json:"ids"`
}

// NewSelection returns a selection holding ids, without duplicates.
func NewSelection(ids ...string) Selection {
	var s Selection
	for _, id := range ids {
		s.add(id)
	}
	return s
}

// Has reports whether id is selected.
func (s *Selection) Has(id string) bool {
	return slices.Contains(s.IDs, id)
}

// Len returns the number of selected ids.
func (s *Selection) Len() int { return len(s.IDs) }

// Toggle selects id if unselected and unselects it otherwise.
func (s *Selection) Toggle(id string) {
	if s.Has(id) {
		s.remove(id)
		return
	}
	s.add(id)
}

func (s *Selection) add(id string) {
	if !s.Has(id) {
		s.IDs = append(s.IDs, id)
	}
}

func (s *Selection) remove(id string) {
	s.IDs = slices.DeleteFunc(s.IDs, func(v string) bool { return v == id })
}

// CategoryGroup is one category of the item selection panel.
type CategoryGroup struct {
	Name  string
	Items []model.Item
}

// GroupByCategory groups items by category, keeping categories in the order
// they first appear.
func GroupByCategory(items []model.Item) []CategoryGroup {
	var groups []CategoryGroup
	index := make(map[string]int)
	for _, item := range items {
		i, ok := index[item.Category]
		if !ok {
			i = len(groups)
			index[item.Category] = i
			groups = append(groups, CategoryGroup{Name: item.Category})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}

func categoryIDs(items []model.Item, category string) []string {
	var ids []string
	for _, item := range items {
		if item.Category == category {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

// CategoryAllSelected reports whether every item in the category is
// selected. An empty category counts as fully selected.
func (s *Selection) CategoryAllSelected(items []model.Item, category string) bool {
	for _, id := range categoryIDs(items, category) {
		if !s.Has(id) {
			return false
		}
	}
	return true
}

// ToggleCategory deselects every item of the category when all of them are
// selected, and otherwise selects the ones that are not.
func (s *Selection) ToggleCategory(items []model.Item, category string) {
	ids := categoryIDs(items, category)
	if s.CategoryAllSelected(items, category) {
		s.IDs = slices.DeleteFunc(s.IDs, func(v string) bool { return slices.Contains(ids, v) })
		return
	}
	for _, id := range ids {
		s.add(id)
	}
}
