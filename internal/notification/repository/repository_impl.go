package repository

import (
	"context"

	notificationdomain "github.com/smallbiznis/scrapline/internal/notification/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() notificationdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, n *notificationdomain.Notification) error {
	if n == nil {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO notifications (
			id, user_id, icon, title, message, read, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID,
		n.UserID,
		n.Icon,
		n.Title,
		n.Message,
		n.Read,
		n.CreatedAt,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter notificationdomain.ListFilter) ([]*notificationdomain.Notification, error) {
	var items []*notificationdomain.Notification
	stmt := db.WithContext(ctx).Model(&notificationdomain.Notification{}).
		Where("user_id = ?", filter.UserID)

	if filter.Cursor != nil {
		stmt = stmt.Where("id < ?", *filter.Cursor)
	}

	stmt = stmt.Order("id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
