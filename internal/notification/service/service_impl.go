package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scrapline/internal/clock"
	notificationdomain "github.com/smallbiznis/scrapline/internal/notification/domain"
	obsmetrics "github.com/smallbiznis/scrapline/internal/observability/metrics"
	"github.com/smallbiznis/scrapline/internal/usercontext"
	"github.com/smallbiznis/scrapline/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    notificationdomain.Repository
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    notificationdomain.Repository
	metrics *obsmetrics.Metrics
}

func New(p Params) notificationdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("notification.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) Emit(ctx context.Context, db *gorm.DB, req notificationdomain.EmitRequest) error {
	if req.UserID == 0 {
		return notificationdomain.ErrInvalidRecipient
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return notificationdomain.ErrInvalidMessage
	}

	entity := &notificationdomain.Notification{
		ID:        s.genID.Generate(),
		UserID:    req.UserID,
		Icon:      strings.TrimSpace(req.Icon),
		Title:     title,
		Message:   strings.TrimSpace(req.Message),
		CreatedAt: s.clock.Now(),
	}

	if db == nil {
		db = s.db
	}
	if err := s.repo.Insert(ctx, db, entity); err != nil {
		return err
	}

	s.metrics.RecordNotification(ctx)
	return nil
}

func (s *Service) ListMine(ctx context.Context, req notificationdomain.ListRequest) (notificationdomain.ListResponse, error) {
	principal, ok := usercontext.PrincipalFromContext(ctx)
	if !ok || principal.UserID == 0 {
		return notificationdomain.ListResponse{}, notificationdomain.ErrNotAuthorized
	}

	var cursor *snowflake.ID
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return notificationdomain.ListResponse{}, notificationdomain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return notificationdomain.ListResponse{}, notificationdomain.ErrInvalidPageToken
		}
		cursor = &id
	}

	limit := req.Limit()
	items, err := s.repo.List(ctx, s.db, notificationdomain.ListFilter{
		UserID: principal.UserID,
		Cursor: cursor,
		Limit:  limit,
	})
	if err != nil {
		return notificationdomain.ListResponse{}, err
	}

	resp := notificationdomain.ListResponse{}
	if len(items) > limit {
		items = items[:limit]
		resp.HasMore = true
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: items[len(items)-1].ID.String()})
		if err == nil {
			resp.NextPageToken = token
		}
	}

	notifications := make([]notificationdomain.Notification, 0, len(items))
	for _, item := range items {
		notifications = append(notifications, *item)
	}
	resp.Notifications = notifications
	return resp, nil
}
