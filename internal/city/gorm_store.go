package city

import (
	"context"
	"iter"

	"github.com/ceyewan/cityweather/clog"
	"github.com/ceyewan/cityweather/db"
)

// GormStore 基于 db 组件的关系型实现。
//
// StreamAll 按主键做 keyset 分批读取，每批一次短查询，迭代期间不长期占用连接。
type GormStore struct {
	db        db.DB
	batchSize int
	logger    clog.Logger
}

// NewGormStore 创建 GormStore，database 由调用方关闭
func NewGormStore(database db.DB, cfg *StoreConfig, opts ...Option) *GormStore {
	if cfg == nil {
		cfg = &StoreConfig{}
	}
	cfg.setDefaults()
	o := applyOptions(opts...)
	return &GormStore{
		db:        database,
		batchSize: cfg.BatchSize,
		logger:    o.logger.With(clog.String("store", "gorm")),
	}
}

// AutoMigrate 创建表结构，仅用于嵌入式 SQLite 开发模式
func (s *GormStore) AutoMigrate(ctx context.Context) error {
	return storeErr("migrate", s.db.DB(ctx).AutoMigrate(&City{}))
}

func (s *GormStore) StreamAll(ctx context.Context) iter.Seq2[*City, error] {
	return func(yield func(*City, error) bool) {
		var lastID uint64
		for {
			var batch []*City
			err := s.db.DB(ctx).
				Where("id > ?", lastID).
				Order("id").
				Limit(s.batchSize).
				Find(&batch).Error
			if err != nil {
				yield(nil, storeErr("stream", err))
				return
			}
			for _, c := range batch {
				if !yield(c, nil) {
					return
				}
			}
			if len(batch) < s.batchSize {
				return
			}
			lastID = batch[len(batch)-1].ID
		}
	}
}

func (s *GormStore) FindByName(ctx context.Context, name string) (*City, error) {
	var c City
	err := s.db.DB(ctx).Where("name = ?", name).Take(&c).Error
	if db.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("find", err)
	}
	return &c, nil
}

func (s *GormStore) Create(ctx context.Context, c *City) (*City, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	rec := *c
	rec.ID = 0
	if err := s.db.DB(ctx).Create(&rec).Error; err != nil {
		if db.IsDuplicateKey(err) {
			return nil, ErrDuplicateKey
		}
		return nil, storeErr("create", err)
	}
	s.logger.DebugContext(ctx, "city created", clog.String("name", rec.Name))
	return &rec, nil
}

func (s *GormStore) DeleteByName(ctx context.Context, name string) error {
	res := s.db.DB(ctx).Where("name = ?", name).Delete(&City{})
	if res.Error != nil {
		return storeErr("delete", res.Error)
	}
	if res.RowsAffected > 0 {
		s.logger.DebugContext(ctx, "city deleted", clog.String("name", name))
	}
	return nil
}

func (s *GormStore) Close() error {
	return s.db.Close()
}

var _ Store = (*GormStore)(nil)
