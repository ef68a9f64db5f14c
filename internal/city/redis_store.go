package city

import (
	"context"
	"errors"
	"iter"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ceyewan/cityweather/clog"
	"github.com/ceyewan/cityweather/connector"
)

// RedisStore 基于 Redis 的文档存储实现。
//
// 布局（以 Prefix 为前缀）：
//
//	doc:<name>  msgpack 编码的文档
//	index       ZSET，member 为 name，score 为写入序号
//	seq         写入序号计数器
//
// StreamAll 按 score 以排他游标分批读取，顺序即写入顺序。
type RedisStore struct {
	client    *redis.Client
	prefix    string
	batchSize int
	logger    clog.Logger
}

type cityDoc struct {
	Seq        int64          `msgpack:"seq"`
	Name       string         `msgpack:"name"`
	Attributes map[string]any `msgpack:"attrs,omitempty"`
	CreatedAt  time.Time      `msgpack:"created_at"`
}

// NewRedisStore 借用 Redis 连接器创建 RedisStore，连接器由调用方关闭
func NewRedisStore(conn connector.RedisConnector, cfg *StoreConfig, opts ...Option) *RedisStore {
	if cfg == nil {
		cfg = &StoreConfig{}
	}
	cfg.setDefaults()
	o := applyOptions(opts...)
	return &RedisStore{
		client:    conn.GetClient(),
		prefix:    cfg.Prefix,
		batchSize: cfg.BatchSize,
		logger:    o.logger.With(clog.String("store", "redis")),
	}
}

func (s *RedisStore) docKey(name string) string { return s.prefix + "doc:" + name }
func (s *RedisStore) indexKey() string          { return s.prefix + "index" }
func (s *RedisStore) seqKey() string            { return s.prefix + "seq" }

func (s *RedisStore) StreamAll(ctx context.Context) iter.Seq2[*City, error] {
	return func(yield func(*City, error) bool) {
		cursor := "-inf"
		for {
			entries, err := s.client.ZRangeByScoreWithScores(ctx, s.indexKey(), &redis.ZRangeBy{
				Min:   cursor,
				Max:   "+inf",
				Count: int64(s.batchSize),
			}).Result()
			if err != nil {
				yield(nil, storeErr("stream", err))
				return
			}
			if len(entries) == 0 {
				return
			}

			keys := make([]string, len(entries))
			for i, e := range entries {
				keys[i] = s.docKey(e.Member.(string))
			}
			values, err := s.client.MGet(ctx, keys...).Result()
			if err != nil {
				yield(nil, storeErr("stream", err))
				return
			}

			for _, v := range values {
				raw, ok := v.(string)
				if !ok {
					// 读取索引与文档之间被删除
					continue
				}
				c, err := decodeDoc([]byte(raw))
				if err != nil {
					yield(nil, storeErr("stream", err))
					return
				}
				if !yield(c, nil) {
					return
				}
			}

			if len(entries) < s.batchSize {
				return
			}
			cursor = "(" + strconv.FormatFloat(entries[len(entries)-1].Score, 'f', -1, 64)
		}
	}
}

func (s *RedisStore) FindByName(ctx context.Context, name string) (*City, error) {
	raw, err := s.client.Get(ctx, s.docKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("find", err)
	}
	c, err := decodeDoc(raw)
	if err != nil {
		return nil, storeErr("find", err)
	}
	return c, nil
}

func (s *RedisStore) Create(ctx context.Context, c *City) (*City, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	seq, err := s.client.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return nil, storeErr("create", err)
	}
	doc := cityDoc{Seq: seq, Name: c.Name, Attributes: c.Attributes, CreatedAt: time.Now().UTC()}
	data, err := msgpack.Marshal(&doc)
	if err != nil {
		return nil, storeErr("create", err)
	}

	ok, err := s.client.SetNX(ctx, s.docKey(c.Name), data, 0).Result()
	if err != nil {
		return nil, storeErr("create", err)
	}
	if !ok {
		return nil, ErrDuplicateKey
	}
	if err := s.client.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(seq), Member: c.Name}).Err(); err != nil {
		_ = s.client.Del(context.WithoutCancel(ctx), s.docKey(c.Name)).Err()
		return nil, storeErr("create", err)
	}

	s.logger.DebugContext(ctx, "city created", clog.String("name", c.Name), clog.Int64("seq", seq))
	return doc.toCity(), nil
}

func (s *RedisStore) DeleteByName(ctx context.Context, name string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.docKey(name))
		pipe.ZRem(ctx, s.indexKey(), name)
		return nil
	})
	return storeErr("delete", err)
}

// Close 连接器由调用方管理
func (s *RedisStore) Close() error {
	return nil
}

func decodeDoc(raw []byte) (*City, error) {
	var doc cityDoc
	if err := msgpack.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc.toCity(), nil
}

func (d *cityDoc) toCity() *City {
	return &City{
		ID:         uint64(d.Seq),
		Name:       d.Name,
		Attributes: d.Attributes,
		CreatedAt:  d.CreatedAt,
	}
}

var _ Store = (*RedisStore)(nil)
