package market

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/ariefcatur/go-threshing-market/internal/validate"
)

// Catalog is the ordered product list a session shops from. Products themselves are
// never modified; new listings are appended.
type Catalog struct {
	mu       sync.RWMutex
	products []Product
	byID     map[string]int
}

func NewCatalog(products []Product) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]int, len(products))}
	for _, p := range products {
		if err := c.add(p); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// add rejects products that could not be bought: a cart line needs a type to describe
// and a farmer to send the purchase request to.
func (c *Catalog) add(p Product) error {
	if p.ID == "" {
		return fmt.Errorf("product without id: %q", p.Type)
	}
	if err := validate.Required(
		validate.Field{Name: "type", Value: p.Type},
		validate.Field{Name: "farmer", Value: p.Farmer},
	); err != nil {
		return fmt.Errorf("product %s: %w", p.ID, err)
	}
	if _, dup := c.byID[p.ID]; dup {
		return fmt.Errorf("duplicate product id %q", p.ID)
	}
	c.byID[p.ID] = len(c.products)
	c.products = append(c.products, p)
	return nil
}

func (c *Catalog) Add(p Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.add(p)
}

func (c *Catalog) Get(id string) (Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	return c.products[i], nil
}

func (c *Catalog) All() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Product(nil), c.products...)
}

// Search matches term case-insensitively against the product type. An empty term
// returns everything.
func (c *Catalog) Search(term string) []Product {
	term = strings.ToLower(strings.TrimSpace(term))
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		if strings.Contains(strings.ToLower(p.Type), term) {
			out = append(out, p)
		}
	}
	return out
}

type catalogFile struct {
	Products []struct {
		ID       string `yaml:"id"`
		Type     string `yaml:"type"`
		Quantity int    `yaml:"quantity"`
		Price    string `yaml:"price"`
		Farmer   string `yaml:"farmer"`
		Location string `yaml:"location"`
	} `yaml:"products"`
}

// LoadCatalogFile reads a YAML catalog:
//
//	products:
//	  - {id: "1", type: Paddy Husk, quantity: 25000, price: 11, farmer: Srinivas Farms, location: "Guntur, AP"}
func LoadCatalogFile(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	products := make([]Product, 0, len(f.Products))
	for _, p := range f.Products {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, fmt.Errorf("product %s: price %q: %w", p.ID, p.Price, err)
		}
		if p.Quantity < 0 || price.IsNegative() {
			return nil, fmt.Errorf("product %s: negative quantity or price", p.ID)
		}
		products = append(products, Product{
			ID: p.ID, Type: p.Type, Quantity: p.Quantity, Price: price,
			Farmer: p.Farmer, Location: p.Location,
		})
	}
	return NewCatalog(products)
}

func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultProducts())
	if err != nil {
		panic(err)
	}
	return c
}

func defaultProducts() []Product {
	p := func(id, typ string, qty int, price, farmer, location string) Product {
		return Product{ID: id, Type: typ, Quantity: qty, Price: decimal.RequireFromString(price), Farmer: farmer, Location: location}
	}
	return []Product{
		p("1", "Paddy Husk", 25000, "11", "Srinivas Farms", "Guntur, AP"),
		p("2", "Rice Straw", 20000, "12", "Lakshmi Agriculture", "Vijayawada, AP"),
		p("3", "Maize Stover", 18000, "13", "Reddy Agro", "Visakhapatnam, AP"),
		p("4", "Groundnut Shells", 30000, "9", "Anantapur Fields", "Anantapur, AP"),
		p("5", "Cotton Stalks", 15000, "14", "Kurnool Growers", "Kurnool, AP"),
		p("6", "Sugarcane Trash", 22000, "10", "Tirupati Sugars", "Tirupati, AP"),
		p("7", "Paddy Husk", 12000, "11.5", "Nellore Harvest", "Nellore, AP"),
		p("8", "Rice Straw", 17000, "12.5", "Rajahmundry Farms", "Rajahmundry, AP"),
		p("9", "Maize Stover", 28000, "13.5", "Kakinada Crops", "Kakinada, AP"),
		p("10", "Groundnut Shells", 24000, "9.5", "Chittoor Agro", "Chittoor, AP"),
		p("11", "Cotton Stalks", 19000, "14.5", "Guntur Cotton Co.", "Guntur, AP"),
		p("12", "Sugarcane Trash", 16000, "10.5", "Godavari Sugars", "Vijayawada, AP"),
		p("13", "Paddy Husk", 35000, "10.8", "Rayalaseema Farms", "Anantapur, AP"),
		p("14", "Rice Straw", 21000, "12.2", "Krishna Delta Farms", "Kurnool, AP"),
		p("15", "Maize Stover", 14000, "13.2", "Coastal Agro", "Tirupati, AP"),
	}
}
