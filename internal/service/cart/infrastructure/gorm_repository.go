package infrastructure

import (
	"context"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/service/cart/domain"
)

var _ domain.CartRepository = (*GormCartRepository)(nil)

// GormCartRepository 是 CartRepository 的 GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository 创建一个新的 GORM 仓储实例
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// OpenMySQL 校验 DSN 并打开连接，parseTime 是读取时间列所必需的
func OpenMySQL(dsn string) (*gorm.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "parse mysql dsn")
	}
	cfg.ParseTime = true
	db, err := gorm.Open(gormmysql.Open(cfg.FormatDSN()), &gorm.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "open mysql")
	}
	return db, nil
}

// AutoMigrate 创建或更新 cart / cart_item 表
func (r *GormCartRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&CartModel{}, &CartItemModel{})
}

// Load 使用 GORM 加载购物车及其所有行
func (r *GormCartRepository) Load(ctx context.Context, cartID string) (*domain.Cart, error) {
	var model CartModel
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ?", cartID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCartNotFound
		}
		return nil, err
	}
	return ToDomainCart(&model), nil
}

// Save 在一个事务中覆盖购物车头和全部行
func (r *GormCartRepository) Save(ctx context.Context, snap domain.Snapshot) error {
	model := ToCartModel(snap)
	items := model.Items
	model.Items = nil

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"item_count", "subtotal_minor_units", "updated_at"}),
		}).Create(model).Error
		if err != nil {
			return errors.Wrap(err, "upsert cart")
		}
		if err := tx.Where("cart_id = ?", snap.CartID).Delete(&CartItemModel{}).Error; err != nil {
			return errors.Wrap(err, "delete cart items")
		}
		if len(items) == 0 {
			return nil
		}
		if err := tx.Create(&items).Error; err != nil {
			return errors.Wrap(err, "insert cart items")
		}
		return nil
	})
}
