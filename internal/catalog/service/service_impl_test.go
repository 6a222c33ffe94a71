package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	catalogdomain "github.com/smallbiznis/scrapline/internal/catalog/domain"
	"github.com/smallbiznis/scrapline/internal/clock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type memoryCatalogRepo struct {
	mu         sync.Mutex
	categories map[snowflake.ID]*catalogdomain.ScrapCategory
	rates      []catalogdomain.ScrapRate
}

func newMemoryCatalogRepo() *memoryCatalogRepo {
	return &memoryCatalogRepo{categories: make(map[snowflake.ID]*catalogdomain.ScrapCategory)}
}

func (r *memoryCatalogRepo) ListCategories(ctx context.Context, db *gorm.DB) ([]catalogdomain.ScrapCategory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []catalogdomain.ScrapCategory
	for _, category := range r.categories {
		out = append(out, *category)
	}
	return out, nil
}

func (r *memoryCatalogRepo) FindCategoryByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*catalogdomain.ScrapCategory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	category, ok := r.categories[id]
	if !ok {
		return nil, nil
	}
	clone := *category
	return &clone, nil
}

func (r *memoryCatalogRepo) ActiveRate(ctx context.Context, db *gorm.DB, categoryID snowflake.ID) (*catalogdomain.ScrapRate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rate := range r.rates {
		if rate.CategoryID == categoryID && rate.Active {
			clone := rate
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memoryCatalogRepo) ActiveRates(ctx context.Context, db *gorm.DB, categoryIDs []snowflake.ID) ([]catalogdomain.ScrapRate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[snowflake.ID]struct{}, len(categoryIDs))
	for _, id := range categoryIDs {
		wanted[id] = struct{}{}
	}
	var out []catalogdomain.ScrapRate
	for _, rate := range r.rates {
		if _, ok := wanted[rate.CategoryID]; ok && rate.Active {
			out = append(out, rate)
		}
	}
	return out, nil
}

func (r *memoryCatalogRepo) ListRates(ctx context.Context, db *gorm.DB, categoryID snowflake.ID) ([]catalogdomain.ScrapRate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []catalogdomain.ScrapRate
	for _, rate := range r.rates {
		if rate.CategoryID == categoryID {
			out = append(out, rate)
		}
	}
	return out, nil
}

func (r *memoryCatalogRepo) RetireActiveRate(ctx context.Context, db *gorm.DB, categoryID snowflake.ID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rates {
		if r.rates[i].CategoryID == categoryID && r.rates[i].Active {
			retired := at
			r.rates[i].Active = false
			r.rates[i].RetiredAt = &retired
		}
	}
	return nil
}

func (r *memoryCatalogRepo) InsertRate(ctx context.Context, db *gorm.DB, rate *catalogdomain.ScrapRate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rates = append(r.rates, *rate)
	return nil
}

type catalogFixture struct {
	svc     catalogdomain.Service
	repo    *memoryCatalogRepo
	clock   *clock.FakeClock
	node    *snowflake.Node
	metalID snowflake.ID
	paperID snowflake.ID
}

func setupCatalogService(t *testing.T) *catalogFixture {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	node, err := snowflake.NewNode(12)
	require.NoError(t, err)

	repo := newMemoryCatalogRepo()
	fakeClock := clock.NewFakeClock(time.Date(2025, 6, 5, 8, 0, 0, 0, time.UTC))

	metalID := node.Generate()
	paperID := node.Generate()
	repo.categories[metalID] = &catalogdomain.ScrapCategory{ID: metalID, Name: "Metal", Unit: "kg"}
	repo.categories[paperID] = &catalogdomain.ScrapCategory{ID: paperID, Name: "Paper", Unit: "kg"}

	svc := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fakeClock,
		Repo:  repo,
	})

	return &catalogFixture{
		svc:     svc,
		repo:    repo,
		clock:   fakeClock,
		node:    node,
		metalID: metalID,
		paperID: paperID,
	}
}

func TestSetRateRetiresPrevious(t *testing.T) {
	f := setupCatalogService(t)
	ctx := context.Background()

	first, err := f.svc.SetRate(ctx, catalogdomain.SetRateRequest{
		CategoryID:      f.metalID.String(),
		PricePerKgPaise: 3000,
	})
	require.NoError(t, err)
	require.True(t, first.Active)

	f.clock.Advance(time.Hour)
	second, err := f.svc.SetRate(ctx, catalogdomain.SetRateRequest{
		CategoryID:      f.metalID.String(),
		PricePerKgPaise: 3500,
	})
	require.NoError(t, err)

	active, err := f.svc.ActiveRate(ctx, f.metalID.String())
	require.NoError(t, err)
	require.Equal(t, second.ID, active.ID)
	require.Equal(t, int64(3500), active.PricePerKgPaise)

	history, err := f.svc.ListRates(ctx, f.metalID.String())
	require.NoError(t, err)
	require.Len(t, history, 2)

	// Exactly one active rate per category at a time.
	activeCount := 0
	for _, rate := range history {
		if rate.Active {
			activeCount++
		} else {
			require.NotNil(t, rate.RetiredAt)
		}
	}
	require.Equal(t, 1, activeCount)
}

func TestSetRateValidation(t *testing.T) {
	f := setupCatalogService(t)
	ctx := context.Background()

	_, err := f.svc.SetRate(ctx, catalogdomain.SetRateRequest{
		CategoryID:      f.metalID.String(),
		PricePerKgPaise: 0,
	})
	require.ErrorIs(t, err, catalogdomain.ErrInvalidRate)

	_, err = f.svc.SetRate(ctx, catalogdomain.SetRateRequest{
		CategoryID:      "not-a-number",
		PricePerKgPaise: 3000,
	})
	require.ErrorIs(t, err, catalogdomain.ErrInvalidCategory)

	_, err = f.svc.SetRate(ctx, catalogdomain.SetRateRequest{
		CategoryID:      f.node.Generate().String(),
		PricePerKgPaise: 3000,
	})
	require.ErrorIs(t, err, catalogdomain.ErrCategoryNotFound)
}

func TestActiveRatesByCategory(t *testing.T) {
	f := setupCatalogService(t)
	ctx := context.Background()

	_, err := f.svc.SetRate(ctx, catalogdomain.SetRateRequest{
		CategoryID:      f.metalID.String(),
		PricePerKgPaise: 3000,
	})
	require.NoError(t, err)

	rates, err := f.svc.ActiveRatesByCategory(ctx, []snowflake.ID{f.metalID, f.paperID})
	require.NoError(t, err)
	require.Len(t, rates, 1)
	require.Equal(t, int64(3000), rates[f.metalID].PricePerKgPaise)

	// Paper has no active rate yet.
	_, ok := rates[f.paperID]
	require.False(t, ok)
}

func TestActiveRateMissing(t *testing.T) {
	f := setupCatalogService(t)

	_, err := f.svc.ActiveRate(context.Background(), f.paperID.String())
	require.ErrorIs(t, err, catalogdomain.ErrRateNotFound)
}
