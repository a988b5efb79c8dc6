package catalog_test

import (
	"testing"

	"github.com/comandas-pos/pos/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInventory() *catalog.Inventory {
	harina := catalog.Insumo{ID: 10, Name: "Harina", Unit: "kg", Stock: dec("2"), UnitCost: dec("100")}
	queso := catalog.Insumo{ID: 11, Name: "Queso", Unit: "kg", Stock: dec("1"), UnitCost: dec("800")}
	salsa := catalog.Insumo{ID: 12, Name: "Tomate", Unit: "kg", Stock: dec("5"), UnitCost: dec("50")}

	masa := catalog.Recipe{
		ID:          2,
		Name:        "Masa",
		Ingredients: []catalog.RecipeIngredient{{Insumo: harina, Quantity: dec("0.25")}},
	}
	pizza := catalog.Recipe{
		ID:   1,
		Name: "Pizza",
		Ingredients: []catalog.RecipeIngredient{
			{Insumo: queso, Quantity: dec("0.2")},
			{Insumo: salsa, Quantity: dec("0.1")},
		},
		SubRecipes: []catalog.SubRecipe{{RecipeID: 2, Quantity: dec("2")}},
	}
	return catalog.NewInventory([]catalog.Recipe{pizza, masa}, nil)
}

func TestRequirements_Recursive(t *testing.T) {
	inv := sampleInventory()
	req, err := inv.Requirements(1, dec("2"))
	require.NoError(t, err)
	assert.True(t, req[10].Equal(dec("1")), "harina %s", req[10])
	assert.True(t, req[11].Equal(dec("0.4")), "queso %s", req[11])
	assert.True(t, req[12].Equal(dec("0.2")), "tomate %s", req[12])
}

func TestRequirements_Cycle(t *testing.T) {
	a := catalog.Recipe{ID: 1, SubRecipes: []catalog.SubRecipe{{RecipeID: 2, Quantity: dec("1")}}}
	b := catalog.Recipe{ID: 2, SubRecipes: []catalog.SubRecipe{{RecipeID: 1, Quantity: dec("1")}}}
	inv := catalog.NewInventory([]catalog.Recipe{a, b}, nil)
	_, err := inv.Requirements(1, dec("1"))
	assert.ErrorIs(t, err, catalog.ErrRecipeCycle)
}

func TestRequirements_Unknown(t *testing.T) {
	_, err := sampleInventory().Requirements(99, dec("1"))
	assert.ErrorIs(t, err, catalog.ErrRecipeNotFound)
}

func TestRecipeCost(t *testing.T) {
	// queso 0.2*800 + tomate 0.1*50 + masa 2*(0.25*100)
	cost, err := sampleInventory().RecipeCost(1)
	require.NoError(t, err)
	assert.True(t, cost.Equal(dec("215")), "cost %s", cost)
}

func TestCheck_RecipeShortage(t *testing.T) {
	inv := sampleInventory()
	p := catalog.Product{ID: 3, Name: "Pizza", RecipeID: idPtr(1), RecipeQuantity: dec("1")}

	short, err := inv.Check(p, dec("5"))
	require.NoError(t, err)
	// queso needs 1.0 (ok), harina needs 2.5 (> 2)
	require.Len(t, short, 1)
	assert.Equal(t, int64(10), short[0].InsumoID)
}

func TestCheck_ManualShortage(t *testing.T) {
	p := catalog.Product{ID: 5, Name: "Servilletas", Stock: decPtr("3")}
	short, err := sampleInventory().Check(p, dec("4"))
	require.NoError(t, err)
	require.Len(t, short, 1)
	assert.Equal(t, int64(0), short[0].InsumoID)
}

func TestConsume_FloorsAtZero(t *testing.T) {
	inv := sampleInventory()
	p := catalog.Product{ID: 3, Name: "Pizza", RecipeID: idPtr(1), RecipeQuantity: dec("1")}
	require.NoError(t, inv.Consume(&p, dec("10")))

	harina, _ := inv.Insumo(10)
	assert.True(t, harina.Stock.IsZero())
	tomate, _ := inv.Insumo(12)
	assert.True(t, tomate.Stock.Equal(dec("4")), "tomate %s", tomate.Stock)

	manual := catalog.Product{ID: 5, Stock: decPtr("3")}
	require.NoError(t, inv.Consume(&manual, dec("5")))
	assert.True(t, manual.Stock.IsZero())
}

func TestConsume_MisconfiguredProduct(t *testing.T) {
	p := catalog.Product{ID: 7}
	assert.ErrorIs(t, sampleInventory().Consume(&p, dec("1")), catalog.ErrNoInventoryMode)
}
