package catalog

import "strings"

// Index is a read-only view over a product list.
type Index struct {
	products   []Product
	byID       map[int64]int
	categories []string
}

// NewIndex builds an index. Category order is first-seen order.
func NewIndex(products []Product) *Index {
	idx := &Index{
		products: products,
		byID:     make(map[int64]int, len(products)),
	}
	seen := make(map[string]bool)
	for i, p := range products {
		idx.byID[p.ID] = i
		name := CategoryName(p)
		if !seen[name] {
			seen[name] = true
			idx.categories = append(idx.categories, name)
		}
	}
	return idx
}

// Categories returns the unique category names.
func (idx *Index) Categories() []string {
	out := make([]string, len(idx.categories))
	copy(out, idx.categories)
	return out
}

// DefaultCategory is the category preselected when browsing starts.
func (idx *Index) DefaultCategory() string {
	if len(idx.categories) == 0 {
		return ""
	}
	return idx.categories[0]
}

// Product looks up a product by id.
func (idx *Index) Product(id int64) (Product, bool) {
	i, ok := idx.byID[id]
	if !ok {
		return Product{}, false
	}
	return idx.products[i], true
}

// ByCategory returns available products in the named category.
func (idx *Index) ByCategory(name string) []Product {
	var out []Product
	for _, p := range idx.products {
		if p.Available && CategoryName(p) == name {
			out = append(out, p)
		}
	}
	return out
}

// Search matches term case-insensitively against product names.
// An empty term matches every product.
func (idx *Index) Search(term string) []Product {
	term = strings.ToLower(strings.TrimSpace(term))
	var out []Product
	for _, p := range idx.products {
		if term == "" || strings.Contains(strings.ToLower(p.Name), term) {
			out = append(out, p)
		}
	}
	return out
}

// Visible intersects the category view with the search term.
func (idx *Index) Visible(category, term string) []Product {
	term = strings.ToLower(strings.TrimSpace(term))
	var out []Product
	for _, p := range idx.ByCategory(category) {
		if term == "" || strings.Contains(strings.ToLower(p.Name), term) {
			out = append(out, p)
		}
	}
	return out
}
