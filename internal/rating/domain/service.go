package domain

import (
	"context"
	"errors"
)

type Service interface {
	Submit(ctx context.Context, bookingID string, req SubmitRequest) (*Rating, error)
	GetForBooking(ctx context.Context, bookingID string) (*Rating, error)
	ListByPartner(ctx context.Context, partnerID string) ([]Rating, error)
}

type SubmitRequest struct {
	Stars   int    `json:"stars"`
	Comment string `json:"comment"`
}

var (
	ErrAlreadyRated   = errors.New("already_rated")
	ErrInvalidStars   = errors.New("invalid_stars")
	ErrNotRatable     = errors.New("booking_not_ratable")
	ErrRatingNotFound = errors.New("rating_not_found")
	ErrNotAuthorized  = errors.New("not_authorized")
)
