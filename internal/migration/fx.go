package migration

import (
	"github.com/smallbiznis/reelgate/internal/config"
	ledgerdomain "github.com/smallbiznis/reelgate/internal/ledger/domain"
	paymentdomain "github.com/smallbiznis/reelgate/internal/payment/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// The versioned migrations are written for postgres; other
			// drivers get the schema straight from the models.
			return conn.AutoMigrate(
				&ledgerdomain.CreditAccount{},
				&paymentdomain.EventRecord{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
