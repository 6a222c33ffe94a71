package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scrapline/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListRequest struct {
	pagination.Pagination
}

type ListResponse struct {
	pagination.PageInfo
	Notifications []Notification `json:"notifications"`
}

type EmitRequest struct {
	UserID  snowflake.ID
	Icon    string
	Title   string
	Message string
}

type Service interface {
	// Emit appends one notification, using the caller's transaction when given.
	Emit(ctx context.Context, db *gorm.DB, req EmitRequest) error
	ListMine(ctx context.Context, req ListRequest) (ListResponse, error)
}

var (
	ErrInvalidRecipient = errors.New("invalid_recipient")
	ErrInvalidMessage   = errors.New("invalid_message")
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrNotAuthorized    = errors.New("not_authorized")
)
