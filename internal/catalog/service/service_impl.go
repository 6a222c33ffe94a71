package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/scrapline/internal/catalog/domain"
	"github.com/smallbiznis/scrapline/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  catalogdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  catalogdomain.Repository
}

func New(p Params) catalogdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) ListCategories(ctx context.Context) ([]catalogdomain.ScrapCategory, error) {
	return s.repo.ListCategories(ctx, s.db)
}

func (s *Service) GetCategory(ctx context.Context, id string) (*catalogdomain.ScrapCategory, error) {
	categoryID, err := parseCategoryID(id)
	if err != nil {
		return nil, err
	}

	category, err := s.repo.FindCategoryByID(ctx, s.db, categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, catalogdomain.ErrCategoryNotFound
	}
	return category, nil
}

func (s *Service) ActiveRate(ctx context.Context, categoryID string) (*catalogdomain.ScrapRate, error) {
	id, err := parseCategoryID(categoryID)
	if err != nil {
		return nil, err
	}

	rate, err := s.repo.ActiveRate(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if rate == nil {
		return nil, catalogdomain.ErrRateNotFound
	}
	return rate, nil
}

func (s *Service) ActiveRatesByCategory(ctx context.Context, categoryIDs []snowflake.ID) (map[snowflake.ID]catalogdomain.ScrapRate, error) {
	rates, err := s.repo.ActiveRates(ctx, s.db, categoryIDs)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[snowflake.ID]catalogdomain.ScrapRate, len(rates))
	for _, rate := range rates {
		byCategory[rate.CategoryID] = rate
	}
	return byCategory, nil
}

// SetRate retires the current active rate for the category and activates the
// new one in a single transaction. Existing bookings keep their snapshots.
func (s *Service) SetRate(ctx context.Context, req catalogdomain.SetRateRequest) (*catalogdomain.ScrapRate, error) {
	categoryID, err := parseCategoryID(req.CategoryID)
	if err != nil {
		return nil, err
	}
	if req.PricePerKgPaise <= 0 {
		return nil, catalogdomain.ErrInvalidRate
	}

	category, err := s.repo.FindCategoryByID(ctx, s.db, categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, catalogdomain.ErrCategoryNotFound
	}

	now := s.clock.Now()
	effectiveFrom := now
	if req.EffectiveFrom != nil {
		effectiveFrom = req.EffectiveFrom.UTC()
	}

	rate := &catalogdomain.ScrapRate{
		ID:              s.genID.Generate(),
		CategoryID:      categoryID,
		PricePerKgPaise: req.PricePerKgPaise,
		Active:          true,
		EffectiveFrom:   effectiveFrom,
		CreatedAt:       now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.RetireActiveRate(ctx, tx, categoryID, now); err != nil {
			return err
		}
		return s.repo.InsertRate(ctx, tx, rate)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("rate updated",
		zap.String("category_id", categoryID.String()),
		zap.Int64("price_per_kg_paise", rate.PricePerKgPaise),
	)
	return rate, nil
}

func (s *Service) ListRates(ctx context.Context, categoryID string) ([]catalogdomain.ScrapRate, error) {
	id, err := parseCategoryID(categoryID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListRates(ctx, s.db, id)
}

func parseCategoryID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, catalogdomain.ErrInvalidCategory
	}
	return id, nil
}
