package registry

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/cityweather/testkit"
)

func TestEtcdClient_Lifecycle(t *testing.T) {
	conn := testkit.GetEtcdConnector(t)
	client, err := NewEtcdClient(conn, &Config{Driver: DriverEtcd, Namespace: "/test-" + testkit.NewID(), TTL: 5 * time.Second})
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	desc := &ServiceDescriptor{Name: "city-service", Address: "127.0.0.1", Port: 8080}
	require.NoError(t, client.Register(ctx, desc))

	ec := client.(*etcdClient)
	key := ec.buildKey(desc.Name, desc.ServiceID())
	resp, err := conn.GetClient().Get(ctx, key)
	require.NoError(t, err)
	require.Len(t, resp.Kvs, 1)

	var got ServiceDescriptor
	require.NoError(t, json.Unmarshal(resp.Kvs[0].Value, &got))
	assert.Equal(t, desc.Name, got.Name)
	assert.Equal(t, desc.Port, got.Port)
	firstLease := resp.Kvs[0].Lease

	// 重复注册替换租约，key 仍只有一个
	require.NoError(t, client.Register(ctx, desc))
	resp, err = conn.GetClient().Get(ctx, key)
	require.NoError(t, err)
	require.Len(t, resp.Kvs, 1)
	assert.NotEqual(t, firstLease, resp.Kvs[0].Lease)

	require.NoError(t, client.Deregister(ctx, desc.ServiceID()))
	resp, err = conn.GetClient().Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, resp.Kvs)

	// 注销不存在的实例不报错
	assert.NoError(t, client.Deregister(ctx, "missing"))
}

func TestEtcdClient_BuildKey(t *testing.T) {
	c := newEtcdClient(nil, &Config{Namespace: "/services"}, false)
	assert.Equal(t, "/services/city-service/id-1", c.buildKey("city-service", "id-1"))
}
