package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/comandas-pos/pos/internal/catalog"
)

// Resource is the listar/crear/editar?id=/eliminar?id= resource shape shared by
// the productos service and the payment method registry.
type Resource[T any] struct {
	c    *Client
	base string
}

func (r Resource[T]) List(ctx context.Context, sess *Session) ([]T, error) {
	var out []T
	if err := r.c.do(ctx, sess, http.MethodGet, r.base+"/listar/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r Resource[T]) Create(ctx context.Context, sess *Session, v T) (T, error) {
	var out T
	err := r.c.do(ctx, sess, http.MethodPost, r.base+"/crear/", v, &out)
	return out, err
}

func (r Resource[T]) Update(ctx context.Context, sess *Session, id int64, v T) (T, error) {
	var out T
	err := r.c.do(ctx, sess, http.MethodPut, withQuery(r.base+"/editar/", idQuery(id)), v, &out)
	return out, err
}

func (r Resource[T]) Delete(ctx context.Context, sess *Session, id int64) error {
	return r.c.do(ctx, sess, http.MethodPost, withQuery(r.base+"/eliminar/", idQuery(id)), nil, nil)
}

func idQuery(id int64) url.Values {
	return url.Values{"id": {strconv.FormatInt(id, 10)}}
}

// Products is the product resource of the productos service.
func (c *Client) Products() Resource[catalog.Product] {
	return Resource[catalog.Product]{c: c, base: c.endpoints.Productos}
}

// Categories is the category resource of the productos service.
func (c *Client) Categories() Resource[catalog.Category] {
	return Resource[catalog.Category]{c: c, base: c.endpoints.Productos + "/categoria"}
}

// Recipes is the recipe resource of the productos service.
func (c *Client) Recipes() Resource[catalog.Recipe] {
	return Resource[catalog.Recipe]{c: c, base: c.endpoints.Productos + "/receta"}
}

// Insumos is the raw-ingredient resource of the productos service.
func (c *Client) Insumos() Resource[catalog.Insumo] {
	return Resource[catalog.Insumo]{c: c, base: c.endpoints.Productos + "/insumo"}
}

// LoadCatalog fetches products, recipes and insumos and builds the indexes
// the order builder works on.
func (c *Client) LoadCatalog(ctx context.Context, sess *Session) (*catalog.Index, *catalog.Inventory, error) {
	products, err := c.Products().List(ctx, sess)
	if err != nil {
		return nil, nil, err
	}
	recipes, err := c.Recipes().List(ctx, sess)
	if err != nil {
		return nil, nil, err
	}
	insumos, err := c.Insumos().List(ctx, sess)
	if err != nil {
		return nil, nil, err
	}
	return catalog.NewIndex(products), catalog.NewInventory(recipes, insumos), nil
}
