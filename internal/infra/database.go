package infra

import (
	"fmt"

	"stockroom/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every table owned by the service, in dependency order.
var Models = []interface{}{
	&model.User{},
	&model.Category{},
	&model.Vendor{},
	&model.InventoryItem{},
	&model.VendorPrice{},
	&model.PurchaseOrder{},
	&model.PurchaseOrderItem{},
	&model.Order{},
	&model.OrderItem{},
	&model.StockMovement{},
	&model.AuditLog{},
}

// dialector picks the GORM driver for DB_DRIVER. PostgreSQL is the default.
func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "", "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlserver":
		return sqlserver.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

// NewDatabase opens the connection pool, runs AutoMigrate and then applies the
// idempotent patches GORM cannot express.
// TranslateError is on so unique violations surface as gorm.ErrDuplicatedKey.
func NewDatabase(driver, dsn string) (*gorm.DB, error) {
	d, err := dialector(driver, dsn)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(d, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := db.AutoMigrate(Models...); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}

	if err := applySchemaPatches(db); err != nil {
		return nil, fmt.Errorf("schema patches: %w", err)
	}

	return db, nil
}

// applySchemaPatches adds the database-level non-negative guards on stock and
// money columns. Each statement is a no-op when the constraint already exists.
func applySchemaPatches(db *gorm.DB) error {
	checks := []struct{ table, name, expr string }{
		{"inventory_items", "chk_inventory_items_quantity_nonneg", "quantity >= 0"},
		{"inventory_items", "chk_inventory_items_price_nonneg", "price >= 0"},
		{"purchase_order_items", "chk_po_items_quantity_pos", "quantity > 0"},
		{"order_items", "chk_order_items_quantity_pos", "quantity > 0"},
	}

	for _, c := range checks {
		if db.Migrator().HasConstraint(c.table, c.name) {
			continue
		}
		sql := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s)", c.table, c.name, c.expr)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
	}
	return nil
}
