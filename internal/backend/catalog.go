package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/linemk/damio-storefront/internal/domain/models"
)

func (c *Client) AllProducts(ctx context.Context) ([]models.Product, error) {
	return c.products(ctx, "allproducts", "/allproducts")
}

func (c *Client) NewCollections(ctx context.Context) ([]models.Product, error) {
	return c.products(ctx, "newcollections", "/newcollections")
}

// Popular - популярные товары раздела
func (c *Client) Popular(ctx context.Context, category string) ([]models.Product, error) {
	return c.products(ctx, "popular", "/popular?category="+url.QueryEscape(category))
}

func (c *Client) Search(ctx context.Context, query string) ([]models.Product, error) {
	return c.products(ctx, "search", "/search?q="+url.QueryEscape(query))
}

func (c *Client) Product(ctx context.Context, id int64) (*models.Product, error) {
	raw, err := c.call(ctx, "product", http.MethodGet, fmt.Sprintf("/product/%d", id), "", nil)
	if err != nil {
		return nil, err
	}
	var p models.Product
	if err := decodeEnvelope(raw, &p, "product"); err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	raw, err := c.call(ctx, "categories", http.MethodGet, "/categories", "", nil)
	if err != nil {
		return nil, err
	}
	var out []models.Category
	if err := decodeEnvelope(raw, &out, "categories"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Collections(ctx context.Context) ([]models.Collection, error) {
	raw, err := c.call(ctx, "collections", http.MethodGet, "/collections", "", nil)
	if err != nil {
		return nil, err
	}
	var out []models.Collection
	if err := decodeEnvelope(raw, &out, "collections"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ShopImages(ctx context.Context) ([]models.ShopImage, error) {
	raw, err := c.call(ctx, "shopimages", http.MethodGet, "/shopimages", "", nil)
	if err != nil {
		return nil, err
	}
	var out []models.ShopImage
	if err := decodeEnvelope(raw, &out, "images"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) products(ctx context.Context, endpoint, path string) ([]models.Product, error) {
	raw, err := c.call(ctx, endpoint, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, err
	}
	var out []models.Product
	if err := decodeEnvelope(raw, &out, "products"); err != nil {
		return nil, err
	}
	return out, nil
}
