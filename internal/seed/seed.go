package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	addressdomain "github.com/smallbiznis/scrapline/internal/address/domain"
	catalogdomain "github.com/smallbiznis/scrapline/internal/catalog/domain"
	partnerdomain "github.com/smallbiznis/scrapline/internal/partner/domain"
	"gorm.io/gorm"
)

// DemoUserID is the gateway user id the seeded address belongs to. Local
// clients send it as X-User-ID.
const DemoUserID snowflake.ID = 1

type seedCategory struct {
	name         string
	children     []string
	ratePerKg    int64
	childRatePer []int64
}

// EnsureDevData provisions categories, rates, partners and a demo address so
// a fresh local environment can book pickups immediately. Idempotent.
func EnsureDevData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&catalogdomain.ScrapCategory{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		if err := seedCatalog(tx, node, now); err != nil {
			return err
		}
		if err := seedPartners(tx, node, now); err != nil {
			return err
		}
		return seedAddress(tx, node, now)
	})
}

func seedCatalog(tx *gorm.DB, node *snowflake.Node, now time.Time) error {
	catalog := []seedCategory{
		{name: "Paper", ratePerKg: 1400, children: []string{"Newspaper", "Books"}, childRatePer: []int64{1600, 1200}},
		{name: "Plastic", ratePerKg: 1000, children: []string{"PET Bottles"}, childRatePer: []int64{2500}},
		{name: "Metal", ratePerKg: 3000, children: []string{"Aluminium", "Copper"}, childRatePer: []int64{10500, 42500}},
		{name: "E-Waste", ratePerKg: 2000},
	}

	for _, entry := range catalog {
		parent := catalogdomain.ScrapCategory{
			ID:        node.Generate(),
			Name:      entry.name,
			Unit:      "kg",
			CreatedAt: now,
		}
		if err := tx.Create(&parent).Error; err != nil {
			return err
		}
		if err := createRate(tx, node, parent.ID, entry.ratePerKg, now); err != nil {
			return err
		}

		for i, childName := range entry.children {
			child := catalogdomain.ScrapCategory{
				ID:        node.Generate(),
				Name:      childName,
				ParentID:  &parent.ID,
				Unit:      "kg",
				CreatedAt: now,
			}
			if err := tx.Create(&child).Error; err != nil {
				return err
			}
			if err := createRate(tx, node, child.ID, entry.childRatePer[i], now); err != nil {
				return err
			}
		}
	}
	return nil
}

func createRate(tx *gorm.DB, node *snowflake.Node, categoryID snowflake.ID, pricePerKgPaise int64, now time.Time) error {
	return tx.Create(&catalogdomain.ScrapRate{
		ID:              node.Generate(),
		CategoryID:      categoryID,
		PricePerKgPaise: pricePerKgPaise,
		Active:          true,
		EffectiveFrom:   now,
		CreatedAt:       now,
	}).Error
}

func seedPartners(tx *gorm.DB, node *snowflake.Node, now time.Time) error {
	partners := []partnerdomain.Partner{
		{ID: node.Generate(), Name: "Ravi Kumar", Phone: "+919800000001", Vehicle: "Tata Ace", Active: true, CreatedAt: now, UpdatedAt: now},
		{ID: node.Generate(), Name: "Suresh Yadav", Phone: "+919800000002", Vehicle: "E-Rickshaw", Active: true, CreatedAt: now, UpdatedAt: now},
	}
	for i := range partners {
		if err := tx.Create(&partners[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedAddress(tx *gorm.DB, node *snowflake.Node, now time.Time) error {
	return tx.Create(&addressdomain.Address{
		ID:        node.Generate(),
		UserID:    DemoUserID,
		Label:     "Home",
		Line1:     "14 MG Road",
		City:      "Bengaluru",
		Pincode:   "560001",
		CreatedAt: now,
	}).Error
}
