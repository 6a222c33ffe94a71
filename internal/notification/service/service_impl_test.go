package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/scrapline/internal/clock"
	notificationdomain "github.com/smallbiznis/scrapline/internal/notification/domain"
	"github.com/smallbiznis/scrapline/internal/usercontext"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type memoryNotificationRepo struct {
	mu   sync.Mutex
	rows []notificationdomain.Notification
}

func (r *memoryNotificationRepo) Insert(ctx context.Context, db *gorm.DB, notification *notificationdomain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *notification)
	return nil
}

func (r *memoryNotificationRepo) List(ctx context.Context, db *gorm.DB, filter notificationdomain.ListFilter) ([]*notificationdomain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []notificationdomain.Notification
	for _, row := range r.rows {
		if row.UserID != filter.UserID {
			continue
		}
		if filter.Cursor != nil && row.ID >= *filter.Cursor {
			continue
		}
		matched = append(matched, row)
	}
	// Newest first, mirroring the SQL ordering.
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	if filter.Limit > 0 && len(matched) > filter.Limit+1 {
		matched = matched[:filter.Limit+1]
	}

	out := make([]*notificationdomain.Notification, 0, len(matched))
	for i := range matched {
		clone := matched[i]
		out = append(out, &clone)
	}
	return out, nil
}

func setupNotificationService(t *testing.T) (notificationdomain.Service, *memoryNotificationRepo, *snowflake.Node) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	node, err := snowflake.NewNode(13)
	require.NoError(t, err)

	repo := &memoryNotificationRepo{}
	svc := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2025, 6, 7, 12, 0, 0, 0, time.UTC)),
		Repo:  repo,
	})
	return svc, repo, node
}

func userCtx(userID snowflake.ID) context.Context {
	return usercontext.WithPrincipal(context.Background(), usercontext.Principal{
		UserID: userID,
		Role:   usercontext.RoleCustomer,
	})
}

func TestEmitValidation(t *testing.T) {
	svc, repo, node := setupNotificationService(t)

	err := svc.Emit(context.Background(), nil, notificationdomain.EmitRequest{
		Title: "Pickup confirmed",
	})
	require.ErrorIs(t, err, notificationdomain.ErrInvalidRecipient)

	err = svc.Emit(context.Background(), nil, notificationdomain.EmitRequest{
		UserID: node.Generate(),
		Title:  "   ",
	})
	require.ErrorIs(t, err, notificationdomain.ErrInvalidMessage)

	err = svc.Emit(context.Background(), nil, notificationdomain.EmitRequest{
		UserID:  node.Generate(),
		Icon:    "truck",
		Title:   "Pickup confirmed",
		Message: "  On the schedule for tomorrow  ",
	})
	require.NoError(t, err)
	require.Len(t, repo.rows, 1)
	require.Equal(t, "On the schedule for tomorrow", repo.rows[0].Message)
}

func TestListMineScopedToCaller(t *testing.T) {
	svc, _, node := setupNotificationService(t)

	me := node.Generate()
	other := node.Generate()
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Emit(context.Background(), nil, notificationdomain.EmitRequest{
			UserID: me,
			Title:  "Pickup update",
		}))
	}
	require.NoError(t, svc.Emit(context.Background(), nil, notificationdomain.EmitRequest{
		UserID: other,
		Title:  "Pickup update",
	}))

	resp, err := svc.ListMine(userCtx(me), notificationdomain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Notifications, 3)
	require.False(t, resp.HasMore)

	_, err = svc.ListMine(context.Background(), notificationdomain.ListRequest{})
	require.ErrorIs(t, err, notificationdomain.ErrNotAuthorized)
}

func TestListMinePaginates(t *testing.T) {
	svc, _, node := setupNotificationService(t)

	me := node.Generate()
	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Emit(context.Background(), nil, notificationdomain.EmitRequest{
			UserID: me,
			Title:  "Pickup update",
		}))
	}

	req := notificationdomain.ListRequest{}
	req.PageSize = 2

	first, err := svc.ListMine(userCtx(me), req)
	require.NoError(t, err)
	require.Len(t, first.Notifications, 2)
	require.True(t, first.HasMore)
	require.NotEmpty(t, first.NextPageToken)

	req.PageToken = first.NextPageToken
	second, err := svc.ListMine(userCtx(me), req)
	require.NoError(t, err)
	require.Len(t, second.Notifications, 2)
	require.True(t, second.HasMore)

	req.PageToken = second.NextPageToken
	last, err := svc.ListMine(userCtx(me), req)
	require.NoError(t, err)
	require.Len(t, last.Notifications, 1)
	require.False(t, last.HasMore)

	// Tokens are opaque; garbage is rejected.
	req.PageToken = "not-base64!"
	_, err = svc.ListMine(userCtx(me), req)
	require.ErrorIs(t, err, notificationdomain.ErrInvalidPageToken)
}
