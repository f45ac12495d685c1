package posdb

import (
	"github.com/vileopratama/vitech/pkg/types"
)

// AddCategories merges categories into the tree and recomputes the
// parent/child maps and the ancestor closure. Every category must be
// reachable from the root; a parent loop or a dangling parent leaves the
// previous tree in place and returns ErrCategoryCycle.
func (idx *Index) AddCategories(categories []types.Category) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	merged := make(map[int]*types.Category, len(idx.categoryByID)+len(categories))
	for id, c := range idx.categoryByID {
		merged[id] = c
	}
	for i := range categories {
		c := categories[i]
		if c.ID == types.RootCategoryID {
			continue
		}
		merged[c.ID] = &c
	}

	parent := make(map[int]int, len(merged))
	children := make(map[int][]int, len(merged))
	for id, c := range merged {
		if id == types.RootCategoryID {
			continue
		}
		parentID := c.ParentID
		if _, ok := merged[parentID]; !ok {
			parentID = types.RootCategoryID
		}
		parent[id] = parentID
		children[parentID] = append(children[parentID], id)
	}

	// Walk the tree from the root; anything left unvisited sits on a
	// parent loop.
	ancestors := make(map[int][]int, len(merged))
	ancestors[types.RootCategoryID] = nil
	stack := append([]int(nil), children[types.RootCategoryID]...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, visited := ancestors[id]; visited {
			return types.ErrCategoryCycle
		}
		parentID := parent[id]
		ancestors[id] = append(append([]int(nil), ancestors[parentID]...), parentID)
		stack = append(stack, children[id]...)
	}
	if len(ancestors) != len(merged) {
		return types.ErrCategoryCycle
	}

	idx.categoryByID = merged
	idx.categoryParent = parent
	idx.categoryChildren = children
	idx.categoryAncestors = ancestors
	idx.rebuildProductsLocked()
	return nil
}

// CategoryByID returns a category, or nil when unknown.
func (idx *Index) CategoryByID(id int) *types.Category {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.categoryByID[id]
}

// ChildrenOf returns the direct child category ids.
func (idx *Index) ChildrenOf(id int) []int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return append([]int(nil), idx.categoryChildren[id]...)
}

// AncestorsOf returns the ancestor ids from the root down to the direct
// parent. The root has none.
func (idx *Index) AncestorsOf(id int) []int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return append([]int(nil), idx.categoryAncestors[id]...)
}

// IsProductInCategory reports whether the product's category equals or
// descends from any of the given categories. The root contains
// everything; no categories means no match.
func (idx *Index) IsProductInCategory(productID int, categoryIDs ...int) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	p, ok := idx.productByID[productID]
	if !ok {
		return false
	}
	for _, categoryID := range categoryIDs {
		if categoryID == types.RootCategoryID || p.CategoryID == categoryID {
			return true
		}
		for _, ancestor := range idx.categoryAncestors[p.CategoryID] {
			if ancestor == categoryID {
				return true
			}
		}
	}
	return false
}
