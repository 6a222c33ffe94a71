package domain

import (
	"context"
	"errors"
)

type Service interface {
	Get(ctx context.Context, id string) (*Address, error)
	ListMine(ctx context.Context) ([]Address, error)
}

var (
	ErrInvalidAddress  = errors.New("invalid_address")
	ErrAddressNotFound = errors.New("address_not_found")
	ErrNotAuthorized   = errors.New("not_authorized")
)
