package catalog

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrRecipeNotFound = errors.New("recipe not found")
	ErrInsumoNotFound = errors.New("insumo not found")
	ErrRecipeCycle    = errors.New("recipe references itself")
)

// Insumo is a raw ingredient tracked by stock.
type Insumo struct {
	ID          int64           `json:"id"`
	Name        string          `json:"nombre"`
	Description string          `json:"descripcion,omitempty"`
	Unit        string          `json:"unidad_medida"`
	Stock       decimal.Decimal `json:"stock_actual"`
	UnitCost    decimal.Decimal `json:"costo_unitario"`
}

// RecipeIngredient is an insumo quantity inside a recipe.
type RecipeIngredient struct {
	Insumo   Insumo          `json:"insumo"`
	Quantity decimal.Decimal `json:"cantidad"`
}

// SubRecipe is a child recipe quantity inside a recipe.
type SubRecipe struct {
	RecipeID int64           `json:"receta_hija"`
	Quantity decimal.Decimal `json:"cantidad"`
}

// Recipe describes what a recipe-tracked product consumes per unit.
type Recipe struct {
	ID          int64              `json:"id"`
	Name        string             `json:"nombre"`
	Description string             `json:"descripcion,omitempty"`
	Ingredients []RecipeIngredient `json:"insumos"`
	SubRecipes  []SubRecipe        `json:"sub_recetas"`
}

// Shortage reports a product line that cannot be fully served from stock.
type Shortage struct {
	ProductID   int64
	ProductName string
	InsumoID    int64 // zero for manual stock
	Required    decimal.Decimal
	Available   decimal.Decimal
}

func (s Shortage) String() string {
	if s.InsumoID == 0 {
		return fmt.Sprintf("%s: requiere %s, disponible %s", s.ProductName, s.Required, s.Available)
	}
	return fmt.Sprintf("%s: insumo %d requiere %s, disponible %s", s.ProductName, s.InsumoID, s.Required, s.Available)
}

// Inventory holds recipes and insumo stock.
type Inventory struct {
	recipes map[int64]Recipe
	insumos map[int64]Insumo
}

// NewInventory indexes recipes and insumos by id. Insumos embedded in recipe
// ingredients are used only when the insumo list does not carry them.
func NewInventory(recipes []Recipe, insumos []Insumo) *Inventory {
	inv := &Inventory{
		recipes: make(map[int64]Recipe, len(recipes)),
		insumos: make(map[int64]Insumo, len(insumos)),
	}
	for _, in := range insumos {
		inv.insumos[in.ID] = in
	}
	for _, r := range recipes {
		inv.recipes[r.ID] = r
		for _, ing := range r.Ingredients {
			if _, ok := inv.insumos[ing.Insumo.ID]; !ok {
				inv.insumos[ing.Insumo.ID] = ing.Insumo
			}
		}
	}
	return inv
}

// Insumo returns the current state of an insumo.
func (inv *Inventory) Insumo(id int64) (Insumo, bool) {
	in, ok := inv.insumos[id]
	return in, ok
}

// Requirements flattens the insumo quantities needed to produce qty units of
// the recipe, walking sub-recipes recursively.
func (inv *Inventory) Requirements(recipeID int64, qty decimal.Decimal) (map[int64]decimal.Decimal, error) {
	out := make(map[int64]decimal.Decimal)
	if err := inv.walk(recipeID, qty, make(map[int64]bool), out); err != nil {
		return nil, err
	}
	return out, nil
}

func (inv *Inventory) walk(recipeID int64, qty decimal.Decimal, path map[int64]bool, out map[int64]decimal.Decimal) error {
	if path[recipeID] {
		return fmt.Errorf("recipe %d: %w", recipeID, ErrRecipeCycle)
	}
	r, ok := inv.recipes[recipeID]
	if !ok {
		return fmt.Errorf("recipe %d: %w", recipeID, ErrRecipeNotFound)
	}
	path[recipeID] = true
	defer delete(path, recipeID)

	for _, ing := range r.Ingredients {
		out[ing.Insumo.ID] = out[ing.Insumo.ID].Add(ing.Quantity.Mul(qty))
	}
	for _, sub := range r.SubRecipes {
		if err := inv.walk(sub.RecipeID, sub.Quantity.Mul(qty), path, out); err != nil {
			return err
		}
	}
	return nil
}

// RecipeCost is the cost of one unit of the recipe: insumo unit costs times
// quantities, plus sub-recipe costs times quantities.
func (inv *Inventory) RecipeCost(recipeID int64) (decimal.Decimal, error) {
	req, err := inv.Requirements(recipeID, decimal.NewFromInt(1))
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for id, qty := range req {
		in, ok := inv.insumos[id]
		if !ok {
			return decimal.Zero, fmt.Errorf("insumo %d: %w", id, ErrInsumoNotFound)
		}
		total = total.Add(in.UnitCost.Mul(qty))
	}
	return total.Round(2), nil
}

// Check reports shortages for selling qty units of p. Products with a broken
// inventory configuration report no shortages.
func (inv *Inventory) Check(p Product, qty decimal.Decimal) ([]Shortage, error) {
	switch p.InventoryMode() {
	case ModeManual:
		if qty.GreaterThan(*p.Stock) {
			return []Shortage{{
				ProductID:   p.ID,
				ProductName: p.Name,
				Required:    qty,
				Available:   *p.Stock,
			}}, nil
		}
	case ModeRecipe:
		req, err := inv.Requirements(*p.RecipeID, p.RecipeQuantity.Mul(qty))
		if err != nil {
			return nil, err
		}
		var out []Shortage
		for id, need := range req {
			in := inv.insumos[id]
			if need.GreaterThan(in.Stock) {
				out = append(out, Shortage{
					ProductID:   p.ID,
					ProductName: p.Name,
					InsumoID:    id,
					Required:    need,
					Available:   in.Stock,
				})
			}
		}
		return out, nil
	}
	return nil, nil
}

// Consume applies the sale of qty units of p. Manual stock is decremented on
// p itself; recipe products decrement insumo stock. Stock never goes below
// zero.
func (inv *Inventory) Consume(p *Product, qty decimal.Decimal) error {
	switch p.InventoryMode() {
	case ModeManual:
		left := p.Stock.Sub(qty)
		if left.IsNegative() {
			left = decimal.Zero
		}
		p.Stock = &left
	case ModeRecipe:
		req, err := inv.Requirements(*p.RecipeID, p.RecipeQuantity.Mul(qty))
		if err != nil {
			return err
		}
		for id, need := range req {
			in := inv.insumos[id]
			in.Stock = in.Stock.Sub(need)
			if in.Stock.IsNegative() {
				in.Stock = decimal.Zero
			}
			inv.insumos[id] = in
		}
	default:
		return p.Validate()
	}
	return nil
}
