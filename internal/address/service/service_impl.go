package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	addressdomain "github.com/smallbiznis/scrapline/internal/address/domain"
	"github.com/smallbiznis/scrapline/internal/usercontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo addressdomain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo addressdomain.Repository
}

func New(p Params) addressdomain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("address.service"),
		repo: p.Repo,
	}
}

func (s *Service) Get(ctx context.Context, id string) (*addressdomain.Address, error) {
	addressID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || addressID == 0 {
		return nil, addressdomain.ErrInvalidAddress
	}

	address, err := s.repo.FindByID(ctx, s.db, addressID)
	if err != nil {
		return nil, err
	}
	if address == nil {
		return nil, addressdomain.ErrAddressNotFound
	}
	return address, nil
}

func (s *Service) ListMine(ctx context.Context) ([]addressdomain.Address, error) {
	principal, ok := usercontext.PrincipalFromContext(ctx)
	if !ok || principal.UserID == 0 {
		return nil, addressdomain.ErrNotAuthorized
	}
	return s.repo.ListByUser(ctx, s.db, principal.UserID)
}
