package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scrapline/internal/clock"
	partnerdomain "github.com/smallbiznis/scrapline/internal/partner/domain"
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
	Repo  partnerdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  partnerdomain.Repository
}

func New(p Params) partnerdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("partner.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req partnerdomain.CreateRequest) (*partnerdomain.Partner, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, partnerdomain.ErrInvalidName
	}
	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		return nil, partnerdomain.ErrInvalidPhone
	}

	now := s.clock.Now()
	entity := &partnerdomain.Partner{
		ID:        s.genID.Generate(),
		Name:      name,
		Phone:     phone,
		Vehicle:   strings.TrimSpace(req.Vehicle),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, entity); err != nil {
		return nil, err
	}

	s.log.Info("partner created", zap.String("partner_id", entity.ID.String()))
	return entity, nil
}

func (s *Service) Get(ctx context.Context, id string) (*partnerdomain.Partner, error) {
	partnerID, err := parsePartnerID(id)
	if err != nil {
		return nil, err
	}

	partner, err := s.repo.FindByID(ctx, s.db, partnerID)
	if err != nil {
		return nil, err
	}
	if partner == nil {
		return nil, partnerdomain.ErrPartnerNotFound
	}
	return partner, nil
}

func (s *Service) List(ctx context.Context) ([]partnerdomain.Partner, error) {
	return s.repo.List(ctx, s.db)
}

func (s *Service) SetActive(ctx context.Context, id string, active bool) (*partnerdomain.Partner, error) {
	partnerID, err := parsePartnerID(id)
	if err != nil {
		return nil, err
	}

	partner, err := s.repo.FindByID(ctx, s.db, partnerID)
	if err != nil {
		return nil, err
	}
	if partner == nil {
		return nil, partnerdomain.ErrPartnerNotFound
	}

	now := s.clock.Now()
	if err := s.repo.SetActive(ctx, s.db, partnerID, active, now); err != nil {
		return nil, err
	}

	partner.Active = active
	partner.UpdatedAt = now
	return partner, nil
}

func parsePartnerID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, partnerdomain.ErrInvalidPartner
	}
	return id, nil
}
