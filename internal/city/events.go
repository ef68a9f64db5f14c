package city

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ceyewan/cityweather/clog"
	"github.com/ceyewan/cityweather/connector"
	"github.com/ceyewan/cityweather/xerrors"
)

// 事件类型，同时作为 subject 后缀
const (
	EventCreated = "created"
	EventDeleted = "deleted"
)

// Event 城市变更事件
type Event struct {
	Type string    `json:"type"`
	Name string    `json:"name"`
	City *City     `json:"city,omitempty"`
	At   time.Time `json:"at"`
}

// Publisher 事件发布
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NATSPublisher 发布到 "<subject>.<type>"
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher 借用已连接的 NATS 连接器
func NewNATSPublisher(conn connector.NATSConnector, subject string) (*NATSPublisher, error) {
	nc := conn.GetClient()
	if nc == nil {
		return nil, xerrors.Wrap(connector.ErrNotConnected, "city: nats publisher")
	}
	if subject == "" {
		subject = "cities"
	}
	return &NATSPublisher{conn: nc, subject: subject}, nil
}

func (p *NATSPublisher) Publish(_ context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return xerrors.Wrap(err, "marshal city event")
	}
	return p.conn.Publish(p.subject+"."+ev.Type, data)
}

// publishingStore 在写操作成功后发布事件，发布失败只记录日志
type publishingStore struct {
	Store
	pub    Publisher
	logger clog.Logger
}

// WithEvents 用事件发布包装 Store
func WithEvents(s Store, pub Publisher, opts ...Option) Store {
	if pub == nil {
		return s
	}
	o := applyOptions(opts...)
	return &publishingStore{Store: s, pub: pub, logger: o.logger}
}

func (s *publishingStore) Create(ctx context.Context, c *City) (*City, error) {
	created, err := s.Store.Create(ctx, c)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, Event{Type: EventCreated, Name: created.Name, City: created, At: time.Now().UTC()})
	return created, nil
}

func (s *publishingStore) DeleteByName(ctx context.Context, name string) error {
	if err := s.Store.DeleteByName(ctx, name); err != nil {
		return err
	}
	s.publish(ctx, Event{Type: EventDeleted, Name: name, At: time.Now().UTC()})
	return nil
}

func (s *publishingStore) publish(ctx context.Context, ev Event) {
	if err := s.pub.Publish(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "failed to publish city event",
			clog.String("type", ev.Type), clog.String("name", ev.Name), clog.Error(err))
	}
}
