package domain

import (
	"context"
	"errors"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Partner, error)
	Get(ctx context.Context, id string) (*Partner, error)
	List(ctx context.Context) ([]Partner, error)
	SetActive(ctx context.Context, id string, active bool) (*Partner, error)
}

type CreateRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Vehicle string `json:"vehicle"`
}

var (
	ErrInvalidPartner  = errors.New("invalid_partner")
	ErrPartnerNotFound = errors.New("partner_not_found")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidPhone    = errors.New("invalid_phone")
)
