package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	categories := c.Categories()
	require.Len(t, categories, 2)
	assert.Equal(t, "Electronics", categories[0].Name)
	assert.Equal(t, "Household", categories[1].Name)

	phone, err := c.Product("Electronics", "Phone")
	require.NoError(t, err)
	assert.Equal(t, 5000.0, phone.Points)

	byCode, err := c.LookupCode("B002")
	require.NoError(t, err)
	assert.Equal(t, "Tablet", byCode.Name)
	assert.Equal(t, 3000.0, byCode.Points)
}

func TestProductLookupErrors(t *testing.T) {
	c := Default()

	_, err := c.Product("Garden", "Hose")
	assert.ErrorIs(t, err, ErrUnknownCategory)

	_, err = c.Product("Electronics", "Toaster")
	assert.ErrorIs(t, err, ErrUnknownProduct)

	_, err = c.LookupCode("Z999")
	assert.ErrorIs(t, err, ErrUnknownCode)
}

func TestCategoriesReturnsCopy(t *testing.T) {
	c := Default()

	categories := c.Categories()
	categories[0].Products[0].Points = 1

	again, err := c.Product("Electronics", "Phone")
	require.NoError(t, err)
	assert.Equal(t, 5000.0, again.Points)
}

func TestProductItem(t *testing.T) {
	c := Default()

	pillow, err := c.Product("Household", "Pillow")
	require.NoError(t, err)
	item := pillow.Item(pillow.Name)
	assert.Equal(t, "Pillow", item.Label)
	assert.Equal(t, 450.0, item.Weight)
	assert.Equal(t, map[string]float64{PriceAttribute: 19.9}, item.Auxiliary)

	phone, err := c.LookupCode("A001")
	require.NoError(t, err)
	item = phone.Item("A001")
	assert.Equal(t, "A001", item.Label)
	assert.Nil(t, item.Auxiliary)
}

func TestNewRejectsInvalidDefinitions(t *testing.T) {
	tests := []struct {
		name       string
		categories []Category
	}{
		{name: "Empty"},
		{name: "BlankCategory", categories: []Category{{Name: " "}}},
		{name: "DuplicateCategory", categories: []Category{{Name: "A"}, {Name: "A"}}},
		{name: "BlankProduct", categories: []Category{{Name: "A", Products: []Product{{Points: 1}}}}},
		{name: "DuplicateProduct", categories: []Category{{Name: "A", Products: []Product{{Name: "p", Points: 1}, {Name: "p", Points: 2}}}}},
		{name: "DuplicateCode", categories: []Category{
			{Name: "A", Products: []Product{{Name: "p", Code: "X1", Points: 1}}},
			{Name: "B", Products: []Product{{Name: "q", Code: "X1", Points: 2}}},
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.categories)
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `
categories:
  - name: Stationery
    products:
      - name: Pen
        code: P100
        points: 15
        price: 1.5
      - name: Notebook
        points: 40
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	c, err := Load(path)
	require.NoError(t, err)

	pen, err := c.LookupCode("P100")
	require.NoError(t, err)
	assert.Equal(t, "Pen", pen.Name)
	require.NotNil(t, pen.Price)
	assert.Equal(t, 1.5, *pen.Price)

	notebook, err := c.Product("Stationery", "Notebook")
	require.NoError(t, err)
	assert.Nil(t, notebook.Price)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories: [::"), 0o600))
	_, err = Load(path)
	require.Error(t, err)
}
