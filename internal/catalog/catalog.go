// Package catalog provides the product menu items are picked from, either by
// category and product name or directly by product code.
package catalog

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/points-grouper/internal/grouping"
)

// PriceAttribute is the auxiliary attribute name a product price is carried under.
const PriceAttribute = "price"

// Product is a catalog entry worth Points towards a group target.
type Product struct {
	Name   string   `yaml:"name" json:"name"`
	Code   string   `yaml:"code,omitempty" json:"code,omitempty"`
	Points float64  `yaml:"points" json:"points"`
	Price  *float64 `yaml:"price,omitempty" json:"price,omitempty"`
}

// Category groups products under a menu heading.
type Category struct {
	Name     string    `yaml:"name" json:"name"`
	Products []Product `yaml:"products" json:"products"`
}

// Catalog is an immutable, validated set of categories with a code index.
type Catalog struct {
	categories []Category
	byCode     map[string]Product
}

type catalogFile struct {
	Categories []Category `yaml:"categories"`
}

func price(v float64) *float64 {
	return &v
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New([]Category{
		{
			Name: "Electronics",
			Products: []Product{
				{Name: "Phone", Code: "A001", Points: 5000},
				{Name: "Tablet", Code: "B002", Points: 3000},
				{Name: "Earphones", Code: "C003", Points: 1200},
			},
		},
		{
			Name: "Household",
			Products: []Product{
				{Name: "Cup", Points: 200},
				{Name: "Towel", Points: 100},
				{Name: "Pillow", Points: 450, Price: price(19.9)},
			},
		},
	})
	if err != nil {
		panic(fmt.Sprintf("default catalog: %v", err))
	}
	return c
}

// New validates categories and builds a Catalog.
func New(categories []Category) (*Catalog, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("%w: no categories", ErrInvalidCatalog)
	}

	c := &Catalog{
		categories: make([]Category, 0, len(categories)),
		byCode:     make(map[string]Product),
	}
	seenCategories := make(map[string]struct{}, len(categories))
	for _, category := range categories {
		name := strings.TrimSpace(category.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: category name is empty", ErrInvalidCatalog)
		}
		if _, ok := seenCategories[name]; ok {
			return nil, fmt.Errorf("%w: duplicate category %q", ErrInvalidCatalog, name)
		}
		seenCategories[name] = struct{}{}

		products := make([]Product, 0, len(category.Products))
		seenProducts := make(map[string]struct{}, len(category.Products))
		for _, product := range category.Products {
			product.Name = strings.TrimSpace(product.Name)
			product.Code = strings.TrimSpace(product.Code)
			if product.Name == "" {
				return nil, fmt.Errorf("%w: product without name in %q", ErrInvalidCatalog, name)
			}
			if _, ok := seenProducts[product.Name]; ok {
				return nil, fmt.Errorf("%w: duplicate product %q in %q", ErrInvalidCatalog, product.Name, name)
			}
			seenProducts[product.Name] = struct{}{}
			if math.IsNaN(product.Points) || math.IsInf(product.Points, 0) {
				return nil, fmt.Errorf("%w: product %q has non-finite points", ErrInvalidCatalog, product.Name)
			}
			if product.Price != nil && (math.IsNaN(*product.Price) || math.IsInf(*product.Price, 0)) {
				return nil, fmt.Errorf("%w: product %q has non-finite price", ErrInvalidCatalog, product.Name)
			}
			if product.Code != "" {
				if _, ok := c.byCode[product.Code]; ok {
					return nil, fmt.Errorf("%w: duplicate code %q", ErrInvalidCatalog, product.Code)
				}
				c.byCode[product.Code] = product
			}
			products = append(products, product)
		}
		c.categories = append(c.categories, Category{Name: name, Products: products})
	}

	return c, nil
}

// Load reads a YAML catalog definition from path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	return New(file.Categories)
}

// Categories returns a copy of the catalog categories in definition order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	for i, category := range c.categories {
		out[i] = Category{Name: category.Name, Products: append([]Product(nil), category.Products...)}
	}
	return out
}

// Product finds a product by category and name.
func (c *Catalog) Product(category, name string) (Product, error) {
	for _, cat := range c.categories {
		if cat.Name != category {
			continue
		}
		for _, product := range cat.Products {
			if product.Name == name {
				return product, nil
			}
		}
		return Product{}, fmt.Errorf("%w: %q in %q", ErrUnknownProduct, name, category)
	}
	return Product{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
}

// LookupCode finds a product by its code.
func (c *Catalog) LookupCode(code string) (Product, error) {
	product, ok := c.byCode[strings.TrimSpace(code)]
	if !ok {
		return Product{}, fmt.Errorf("%w: %q", ErrUnknownCode, code)
	}
	return product, nil
}

// Item converts the product into a grouping item labelled label.
func (p Product) Item(label string) grouping.Item {
	item := grouping.Item{Label: label, Weight: p.Points}
	if p.Price != nil {
		item.Auxiliary = map[string]float64{PriceAttribute: *p.Price}
	}
	return item
}
