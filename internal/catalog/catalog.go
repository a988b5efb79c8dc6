// Package catalog models the product catalog consumed from the productos
// service and the indexing used to browse it by category and search term.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/comandas-pos/pos/internal/enum"
	"github.com/shopspring/decimal"
)

// Errors returned by catalog validation.
var (
	ErrNoInventoryMode   = errors.New("product must track either manual stock or a recipe")
	ErrBothInventoryMode = errors.New("product cannot track manual stock and a recipe at the same time")
	ErrInvalidRecipeQty  = errors.New("cantidad_receta must be > 0")
)

// InventoryMode tells how a product's availability is tracked.
type InventoryMode int

const (
	ModeManual InventoryMode = iota + 1
	ModeRecipe
)

// Category groups products for browsing.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"nombre"`
	Description string `json:"descripcion,omitempty"`
}

// UnmarshalJSON accepts both the nested object and the bare category name
// (slug form) the productos service emits depending on the endpoint.
func (c *Category) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var name string
		if err := json.Unmarshal(b, &name); err != nil {
			return err
		}
		*c = Category{Name: name}
		return nil
	}
	type plain Category
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*c = Category(p)
	return nil
}

// Product is a sellable catalog entry.
type Product struct {
	ID             int64            `json:"id"`
	Name           string           `json:"nombre"`
	Description    string           `json:"descripcion"`
	UnitPrice      decimal.Decimal  `json:"precio_unitario"`
	Available      bool             `json:"disponible"`
	Category       *Category        `json:"categoria"`
	Stock          *decimal.Decimal `json:"stock"`
	RecipeID       *int64           `json:"receta"`
	RecipeQuantity decimal.Decimal  `json:"cantidad_receta"`
}

// InventoryMode reports the active mode. It returns 0 when the product is
// misconfigured; see Validate.
func (p Product) InventoryMode() InventoryMode {
	switch {
	case p.RecipeID != nil && p.Stock == nil:
		return ModeRecipe
	case p.RecipeID == nil && p.Stock != nil:
		return ModeManual
	}
	return 0
}

// Validate checks that exactly one inventory mode is active.
func (p Product) Validate() error {
	switch {
	case p.RecipeID != nil && p.Stock != nil:
		return fmt.Errorf("product %d: %w", p.ID, ErrBothInventoryMode)
	case p.RecipeID == nil && p.Stock == nil:
		return fmt.Errorf("product %d: %w", p.ID, ErrNoInventoryMode)
	case p.RecipeID != nil && !p.RecipeQuantity.IsPositive():
		return fmt.Errorf("product %d: %w", p.ID, ErrInvalidRecipeQty)
	}
	return nil
}

// CategoryName returns the grouping key for p.
func CategoryName(p Product) string {
	if p.Category == nil || p.Category.Name == "" {
		return enum.DefaultCategoryName
	}
	return p.Category.Name
}
