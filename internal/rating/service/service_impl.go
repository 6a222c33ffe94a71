package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/scrapline/internal/audit/domain"
	bookingdomain "github.com/smallbiznis/scrapline/internal/booking/domain"
	"github.com/smallbiznis/scrapline/internal/clock"
	obsmetrics "github.com/smallbiznis/scrapline/internal/observability/metrics"
	ratingdomain "github.com/smallbiznis/scrapline/internal/rating/domain"
	"github.com/smallbiznis/scrapline/internal/usercontext"
	"github.com/smallbiznis/scrapline/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        ratingdomain.Repository
	BookingRepo bookingdomain.Repository
	Audit       auditdomain.Service
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        ratingdomain.Repository
	bookingRepo bookingdomain.Repository
	audit       auditdomain.Service
	metrics     *obsmetrics.Metrics
}

func New(p Params) ratingdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("rating.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		bookingRepo: p.BookingRepo,
		audit:       p.Audit,
		metrics:     p.Metrics,
	}
}

func (s *Service) Submit(ctx context.Context, bookingID string, req ratingdomain.SubmitRequest) (*ratingdomain.Rating, error) {
	principal, ok := usercontext.PrincipalFromContext(ctx)
	if !ok || principal.UserID == 0 {
		return nil, ratingdomain.ErrNotAuthorized
	}
	id, err := parseBookingID(bookingID)
	if err != nil {
		return nil, err
	}
	if req.Stars < 1 || req.Stars > 5 {
		return nil, ratingdomain.ErrInvalidStars
	}

	var rating *ratingdomain.Rating
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := s.bookingRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if booking == nil {
			return bookingdomain.ErrBookingNotFound
		}
		if !principal.IsAdmin() && booking.UserID != principal.UserID {
			return ratingdomain.ErrNotAuthorized
		}
		// Only completed pickups close with a rating.
		if booking.Status != bookingdomain.StatusCompleted {
			return ratingdomain.ErrNotRatable
		}
		if booking.PartnerID == nil {
			return ratingdomain.ErrNotRatable
		}

		existing, err := s.repo.FindByBookingID(ctx, tx, booking.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ratingdomain.ErrAlreadyRated
		}

		rating = &ratingdomain.Rating{
			ID:        s.genID.Generate(),
			BookingID: booking.ID,
			UserID:    booking.UserID,
			PartnerID: *booking.PartnerID,
			Stars:     req.Stars,
			Comment:   strings.TrimSpace(req.Comment),
			CreatedAt: s.clock.Now(),
		}
		if err := s.repo.Insert(ctx, tx, rating); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return ratingdomain.ErrAlreadyRated
			}
			return err
		}

		actorID := principal.UserID.String()
		targetID := booking.ID.String()
		return s.audit.Record(ctx, tx, string(principal.Role), &actorID, "booking.rated", "booking", &targetID, map[string]any{
			"stars":      req.Stars,
			"partner_id": rating.PartnerID.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRating(ctx, rating.Stars)
	return rating, nil
}

func (s *Service) GetForBooking(ctx context.Context, bookingID string) (*ratingdomain.Rating, error) {
	principal, ok := usercontext.PrincipalFromContext(ctx)
	if !ok {
		return nil, ratingdomain.ErrNotAuthorized
	}
	id, err := parseBookingID(bookingID)
	if err != nil {
		return nil, err
	}

	rating, err := s.repo.FindByBookingID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if rating == nil {
		return nil, ratingdomain.ErrRatingNotFound
	}
	if !principal.IsAdmin() && rating.UserID != principal.UserID && rating.PartnerID != principal.PartnerID {
		return nil, ratingdomain.ErrNotAuthorized
	}
	return rating, nil
}

func (s *Service) ListByPartner(ctx context.Context, partnerID string) ([]ratingdomain.Rating, error) {
	principal, ok := usercontext.PrincipalFromContext(ctx)
	if !ok || !principal.IsAdmin() {
		return nil, ratingdomain.ErrNotAuthorized
	}
	id, err := snowflake.ParseString(strings.TrimSpace(partnerID))
	if err != nil || id == 0 {
		return nil, ratingdomain.ErrRatingNotFound
	}
	return s.repo.ListByPartner(ctx, s.db, id)
}

func parseBookingID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, bookingdomain.ErrInvalidBooking
	}
	return id, nil
}
