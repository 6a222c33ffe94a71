package migration

import (
	addressdomain "github.com/smallbiznis/scrapline/internal/address/domain"
	auditdomain "github.com/smallbiznis/scrapline/internal/audit/domain"
	bookingdomain "github.com/smallbiznis/scrapline/internal/booking/domain"
	catalogdomain "github.com/smallbiznis/scrapline/internal/catalog/domain"
	"github.com/smallbiznis/scrapline/internal/config"
	notificationdomain "github.com/smallbiznis/scrapline/internal/notification/domain"
	partnerdomain "github.com/smallbiznis/scrapline/internal/partner/domain"
	ratingdomain "github.com/smallbiznis/scrapline/internal/rating/domain"
	"github.com/smallbiznis/scrapline/internal/seed"
	settlementdomain "github.com/smallbiznis/scrapline/internal/settlement/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// Non-postgres targets are dev/test conveniences; gorm derives
			// the schema from the models there.
			if err := conn.AutoMigrate(
				&catalogdomain.ScrapCategory{},
				&catalogdomain.ScrapRate{},
				&partnerdomain.Partner{},
				&addressdomain.Address{},
				&bookingdomain.Booking{},
				&bookingdomain.BookingItem{},
				&settlementdomain.Payment{},
				&ratingdomain.Rating{},
				&notificationdomain.Notification{},
				&auditdomain.AuditLog{},
			); err != nil {
				return err
			}
		}

		if cfg.SeedDevData && !cfg.IsProduction() {
			return seed.EnsureDevData(conn)
		}
		return nil
	}),
)
