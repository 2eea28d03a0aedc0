// Package catalog supplies the store's product snapshots, loaded from a YAML
// file or from the built-in list.
package catalog

import (
	"context"
	"fmt"
	"os"
	"sync"

	"eternals-backend/domain/core/entities"
	"eternals-backend/domain/core/valueobjects"
	pkgerrors "eternals-backend/pkg/errors"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a catalog file
type File struct {
	Products []entities.ProductSnapshot `yaml:"products"`
}

// Catalog is a read-mostly product list implementing ports.ProductCatalog
type Catalog struct {
	mu       sync.RWMutex
	products []entities.ProductSnapshot
	index    map[string]int
}

// New builds a catalog from products, rejecting invalid or duplicate ids
func New(products []entities.ProductSnapshot) (*Catalog, error) {
	c := &Catalog{}
	if err := c.Replace(products); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads path when it is set and exists, and falls back to the built-in
// products otherwise.
func Load(path string, logger *zap.Logger) (*Catalog, error) {
	if path == "" {
		logger.Info("Using built-in product catalog")
		return New(Defaults())
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logger.Warn("Catalog file not found, using built-in products", zap.String("path", path))
		return New(Defaults())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	products, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}

	logger.Info("Loaded product catalog", zap.String("path", path), zap.Int("products", len(products)))
	return New(products)
}

// Parse decodes a YAML catalog document
func Parse(data []byte) ([]entities.ProductSnapshot, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f.Products, nil
}

// Replace swaps the product list atomically
func (c *Catalog) Replace(products []entities.ProductSnapshot) error {
	index := make(map[string]int, len(products))
	list := make([]entities.ProductSnapshot, 0, len(products))
	for _, p := range products {
		if err := p.Validate(); err != nil {
			return err
		}
		if _, dup := index[p.ID]; dup {
			return pkgerrors.NewConflictError("duplicate product id").WithDetail("product_id", p.ID)
		}
		index[p.ID] = len(list)
		list = append(list, p.Clone())
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = list
	c.index = index
	return nil
}

// List returns every product in catalog order
func (c *Catalog) List(ctx context.Context) ([]entities.ProductSnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]entities.ProductSnapshot, len(c.products))
	for i, p := range c.products {
		out[i] = p.Clone()
	}
	return out, nil
}

// Get returns one product
func (c *Catalog) Get(ctx context.Context, productID string) (entities.ProductSnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[productID]
	if !ok {
		return entities.ProductSnapshot{}, pkgerrors.NewNotFoundError("product").WithDetail("product_id", productID)
	}
	return c.products[i].Clone(), nil
}

// Defaults is the product list the storefront ships with
func Defaults() []entities.ProductSnapshot {
	return []entities.ProductSnapshot{
		{
			ID:          "logo-design",
			Title:       "Logo Design",
			Description: "Custom logo with three concepts and two revision rounds",
			Image:       "/images/store/logo-design.png",
			Tags:        []string{"branding", "design"},
			Price:       valueobjects.MustParsePrice("$149.99"),
		},
		{
			ID:          "stream-overlay-pack",
			Title:       "Stream Overlay Pack",
			Description: "Animated overlays, alerts and panels for Twitch and YouTube",
			Image:       "/images/store/overlay-pack.png",
			Tags:        []string{"streaming", "animation"},
			Price:       valueobjects.MustParsePrice("$79.99"),
		},
		{
			ID:          "youtube-banner",
			Title:       "YouTube Banner",
			Description: "Channel art sized for every device",
			Image:       "/images/store/youtube-banner.png",
			Tags:        []string{"design", "social"},
			Price:       valueobjects.MustParsePrice("$39.99"),
		},
		{
			ID:          "intro-animation",
			Title:       "Intro Animation",
			Description: "Ten second animated intro with sound design",
			Image:       "/images/store/intro-animation.png",
			Tags:        []string{"animation", "video"},
			Price:       valueobjects.MustParsePrice("$199.99"),
		},
		{
			ID:          "emote-bundle",
			Title:       "Emote Bundle",
			Description: "Five custom emotes in all required sizes",
			Image:       "/images/store/emote-bundle.png",
			Tags:        []string{"streaming", "illustration"},
			Price:       valueobjects.MustParsePrice("$4.99"),
		},
		{
			ID:          "brand-identity",
			Title:       "Brand Identity Package",
			Description: "Logo, palette, typography and brand guidelines",
			Image:       "/images/store/brand-identity.png",
			Tags:        []string{"branding"},
			Price:       valueobjects.MustParsePrice("$1,299.00"),
		},
	}
}
