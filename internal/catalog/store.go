package catalog

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/DoyleJ11/rts-session/internal/engine"
)

// templateRow is the relational shape of a catalog entry. The base template
// is stored alongside the buildings and flagged with IsBase.
type templateRow struct {
	ID      int `gorm:"primaryKey;autoIncrement:false"`
	Name    string
	Price   int
	Health  int
	IsBase  bool
	CenterX float64
	CenterY float64
	CenterZ float64
	SizeX   float64
	SizeY   float64
	SizeZ   float64
}

func (templateRow) TableName() string { return "building_templates" }

// Store loads the catalog from postgres.
type Store struct {
	db *gorm.DB
}

func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	return NewStore(db), nil
}

func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&templateRow{})
}

// Load reads every row once; the result is not refreshed afterwards.
func (s *Store) Load(ctx context.Context) (*Catalog, error) {
	var rows []templateRow
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return fromRows(rows)
}

// Seed upserts c so a fresh database starts with the same catalog as the binary.
func (s *Store) Seed(ctx context.Context, c *Catalog) error {
	rows := toRows(c)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func fromRows(rows []templateRow) (*Catalog, error) {
	var base *BaseTemplate
	templates := make([]BuildingTemplate, 0, len(rows))
	for _, r := range rows {
		fp := engine.Footprint{
			Center: engine.Vec3{X: r.CenterX, Y: r.CenterY, Z: r.CenterZ},
			Size:   engine.Vec3{X: r.SizeX, Y: r.SizeY, Z: r.SizeZ},
		}
		if r.IsBase {
			base = &BaseTemplate{Health: r.Health, Footprint: fp}
			continue
		}
		templates = append(templates, BuildingTemplate{
			ID:        r.ID,
			Name:      r.Name,
			Price:     r.Price,
			Health:    r.Health,
			Footprint: fp,
		})
	}
	if base == nil {
		return nil, ErrNoBase
	}
	return New(*base, templates)
}

// baseRowID keeps the base row clear of building ids, which are positive.
const baseRowID = -1

func toRows(c *Catalog) []templateRow {
	rows := make([]templateRow, 0, len(c.templates)+1)
	b := c.base
	rows = append(rows, templateRow{
		ID:      baseRowID,
		Name:    "base",
		Health:  b.Health,
		IsBase:  true,
		CenterX: b.Footprint.Center.X, CenterY: b.Footprint.Center.Y, CenterZ: b.Footprint.Center.Z,
		SizeX: b.Footprint.Size.X, SizeY: b.Footprint.Size.Y, SizeZ: b.Footprint.Size.Z,
	})
	for _, t := range c.templates {
		rows = append(rows, templateRow{
			ID:      t.ID,
			Name:    t.Name,
			Price:   t.Price,
			Health:  t.Health,
			CenterX: t.Footprint.Center.X, CenterY: t.Footprint.Center.Y, CenterZ: t.Footprint.Center.Z,
			SizeX: t.Footprint.Size.X, SizeY: t.Footprint.Size.Y, SizeZ: t.Footprint.Size.Z,
		})
	}
	return rows
}
