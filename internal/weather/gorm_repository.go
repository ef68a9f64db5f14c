package weather

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/ceyewan/cityweather/db"
)

// GormRepository 基于 db 组件的天气数据源
type GormRepository struct {
	db db.DB
}

// NewGormRepository 创建 GormRepository，Close 时关闭 database
func NewGormRepository(database db.DB) *GormRepository {
	return &GormRepository{db: database}
}

// AutoMigrate 创建表结构，仅用于嵌入式 SQLite 开发模式
func (r *GormRepository) AutoMigrate(ctx context.Context) error {
	return storeErr("migrate", r.db.DB(ctx).AutoMigrate(&Record{}))
}

func (r *GormRepository) FindByCity(ctx context.Context, city string) (*Record, error) {
	var rec Record
	err := r.db.DB(ctx).Where("city = ?", city).Take(&rec).Error
	if db.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("find", err)
	}
	return &rec, nil
}

// Upsert 写入或覆盖记录，供种子数据使用
func (r *GormRepository) Upsert(ctx context.Context, recs ...Record) error {
	if len(recs) == 0 {
		return nil
	}
	err := r.db.DB(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&recs).Error
	return storeErr("upsert", err)
}

func (r *GormRepository) Close() error {
	return r.db.Close()
}

var _ Repository = (*GormRepository)(nil)
