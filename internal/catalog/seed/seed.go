// Package seed loads the reference lists shipped with the application.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	catalog "equip-manager/internal/catalog/domain"
	"equip-manager/internal/observability/metrics"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// TxRunner runs a unit of work atomically.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type catalogFile struct {
	Manufacturers       []string `yaml:"manufacturers"`
	EquipmentTypes      []string `yaml:"equipment_types"`
	Sites               []string `yaml:"sites"`
	Units               []string `yaml:"units"`
	Classifications     []string `yaml:"classifications"`
	TestNatures         []string `yaml:"test_natures"`
	Statuses            []string `yaml:"statuses"`
	UncertaintyServices []string `yaml:"uncertainty_services"`
	AcceptanceCriteria  []string `yaml:"acceptance_criteria"`
}

// Set is one reference list to seed.
type Set struct {
	Kind  catalog.Kind
	Names []string
}

func (c catalogFile) sets() []Set {
	return []Set{
		{catalog.KindManufacturers, c.Manufacturers},
		{catalog.KindEquipmentTypes, c.EquipmentTypes},
		{catalog.KindSites, c.Sites},
		{catalog.KindUnits, c.Units},
		{catalog.KindClassifications, c.Classifications},
		{catalog.KindTestNatures, c.TestNatures},
		{catalog.KindStatuses, c.Statuses},
		{catalog.KindUncertaintyServices, c.UncertaintyServices},
		{catalog.KindAcceptanceCriteria, c.AcceptanceCriteria},
	}
}

// Parse decodes a catalogue document.
func Parse(data []byte) ([]Set, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("seed: parse catalogue: %w", err)
	}
	sets := file.sets()
	if len(file.Manufacturers) == 0 {
		return nil, errors.New("seed: catalogue has no manufacturers")
	}
	return sets, nil
}

// Result summarises a run.
type Result struct {
	Skipped  bool `json:"skipped"`
	Inserted int  `json:"inserted"`
}

// Seeder inserts the reference lists once.
type Seeder struct {
	repo   catalog.Repository
	tx     TxRunner
	logger *zap.Logger
	sets   []Set
}

// Option configures a Seeder.
type Option func(*Seeder)

// WithCatalogue replaces the embedded catalogue.
func WithCatalogue(sets []Set) Option {
	return func(s *Seeder) {
		s.sets = sets
	}
}

// NewSeeder constructs a seeder over the embedded catalogue.
func NewSeeder(repo catalog.Repository, tx TxRunner, logger *zap.Logger, opts ...Option) (*Seeder, error) {
	if repo == nil {
		return nil, errors.New("seed: nil repository")
	}
	if tx == nil {
		return nil, errors.New("seed: nil tx runner")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	sets, err := Parse(defaultCatalog)
	if err != nil {
		return nil, err
	}
	s := &Seeder{repo: repo, tx: tx, logger: logger, sets: sets}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Seed inserts every list in one transaction unless manufacturers already has
// rows, in which case nothing is touched.
func (s *Seeder) Seed(ctx context.Context) (Result, error) {
	var result Result
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.Count(ctx, catalog.KindManufacturers)
		if err != nil {
			return err
		}
		if existing > 0 {
			result.Skipped = true
			return nil
		}
		for _, set := range s.sets {
			for _, name := range set.Names {
				lookup := &catalog.Lookup{Kind: set.Kind, Name: name}
				if err := lookup.Validate(); err != nil {
					return fmt.Errorf("seed %s: %w", set.Kind, err)
				}
				if err := s.repo.Create(ctx, lookup); err != nil {
					return fmt.Errorf("seed %s %q: %w", set.Kind, name, err)
				}
				result.Inserted++
			}
		}
		return nil
	})
	if err != nil {
		metrics.IncSeedRun(metrics.ResultError)
		return Result{}, err
	}

	if result.Skipped {
		metrics.IncSeedRun(metrics.SeedResultSkipped)
		s.logger.Info("Reference data already present, seed skipped")
	} else {
		metrics.IncSeedRun(metrics.SeedResultInserted)
		s.logger.Info("Seeded reference data", zap.Int("rows", result.Inserted))
	}
	return result, nil
}
