package store

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Products []seedProduct `yaml:"products"`
}

type seedProduct struct {
	ID          int64   `yaml:"id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Price       float64 `yaml:"price"`
	Game        string  `yaml:"game"`
	Subcategory string  `yaml:"subcategory"`
	InStock     *bool   `yaml:"in_stock"`
	ImageFileID string  `yaml:"image_file_id"`
	ImagePath   string  `yaml:"image_path"`
}

// SeedFromFile loads the catalog from a YAML file, upserting by product id.
// Products default to in stock unless the entry says otherwise.
func (s *Store) SeedFromFile(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("store: read seed: %w", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return 0, fmt.Errorf("store: parse seed: %w", err)
	}

	for i, p := range seed.Products {
		if p.ID <= 0 {
			return 0, fmt.Errorf("store: seed product %d: id is required", i)
		}
		if p.Name == "" {
			return 0, fmt.Errorf("store: seed product %d: name is required", p.ID)
		}
		inStock := true
		if p.InStock != nil {
			inStock = *p.InStock
		}
		row := Product{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Game:        p.Game,
			Subcategory: p.Subcategory,
			InStock:     inStock,
			ImageFileID: p.ImageFileID,
			ImagePath:   p.ImagePath,
		}
		if err := s.UpsertProduct(row); err != nil {
			return 0, fmt.Errorf("store: seed product %d: %w", p.ID, err)
		}
	}
	s.logger.Info("catalog seeded", zap.Int("products", len(seed.Products)))
	return len(seed.Products), nil
}
