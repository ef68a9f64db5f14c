package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Service struct {
		Name string `mapstructure:"name"`
		Port int    `mapstructure:"port"`
	} `mapstructure:"service"`
	Registry struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	} `mapstructure:"registry"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoad_DefaultsOnly(t *testing.T) {
	l, err := Load(context.Background(),
		WithConfigPaths(t.TempDir()),
		WithEnvPrefix("CWTEST_DEFAULTS"),
		WithDefaults(map[string]any{
			"service.name":  "city-service",
			"service.port":  8080,
			"registry.host": "localhost",
			"registry.port": 8500,
		}),
	)
	require.NoError(t, err)
	assert.Empty(t, l.ConfigFileUsed())

	var cfg testConfig
	require.NoError(t, l.Unmarshal(&cfg))
	assert.Equal(t, "city-service", cfg.Service.Name)
	assert.Equal(t, 8500, cfg.Registry.Port)
}

func TestLoad_FileEnvAndOverlay(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "service:\n  name: city-service\n  port: 9000\nregistry:\n  host: consul.local\n")
	writeFile(t, dir, "config.prod.yaml", "registry:\n  host: consul.prod\n")

	t.Setenv("CWTEST_ENV", "prod")
	t.Setenv("CWTEST_SERVICE_PORT", "9100")

	l, err := Load(context.Background(),
		WithConfigPaths(dir),
		WithEnvPrefix("CWTEST"),
		WithDefaults(map[string]any{"registry.port": 8500}),
	)
	require.NoError(t, err)

	var cfg testConfig
	require.NoError(t, l.Unmarshal(&cfg))
	assert.Equal(t, "city-service", cfg.Service.Name)
	assert.Equal(t, 9100, cfg.Service.Port, "环境变量优先于文件")
	assert.Equal(t, "consul.prod", cfg.Registry.Host, "环境特定配置覆盖基础配置")
	assert.Equal(t, 8500, cfg.Registry.Port)
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "weather.yaml", "service:\n  name: weather-service\n")

	l, err := Load(context.Background(), WithConfigFile(p), WithEnvPrefix("CWTEST_FILE"))
	require.NoError(t, err)
	assert.Equal(t, p, l.ConfigFileUsed())
	assert.Equal(t, "weather-service", l.Get("service.name"))
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "broken.yaml", "service: [unclosed\n")

	_, err := Load(context.Background(), WithConfigFile(p), WithEnvPrefix("CWTEST_BROKEN"))
	assert.ErrorIs(t, err, ErrReadConfig)
}

func TestWatch(t *testing.T) {
	_, err := New().Watch(context.Background(), "log.level")
	assert.ErrorIs(t, err, ErrNotLoaded)

	dir := t.TempDir()
	p := writeFile(t, dir, "config.yaml", "log:\n  level: info\n")

	l, err := Load(context.Background(), WithConfigFile(p), WithEnvPrefix("CWTEST_WATCH"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := l.Watch(ctx, "log.level")
	require.NoError(t, err)

	// 等待 fsnotify 完成注册
	time.Sleep(100 * time.Millisecond)
	writeFile(t, dir, "config.yaml", "log:\n  level: debug\n")

	// 写文件可能触发多次事件，中间态可能读到空值
	deadline := time.After(3 * time.Second)
	for got := false; !got; {
		select {
		case ev := <-ch:
			if ev.Value != "debug" {
				continue
			}
			assert.Equal(t, "log.level", ev.Key)
			got = true
		case <-deadline:
			t.Skip("文件监听事件未在超时内到达，当前文件系统可能不支持 fsnotify")
		}
	}

	cancel()
	assert.Eventually(t, func() bool {
		_, ok := <-ch
		return !ok
	}, time.Second, 10*time.Millisecond)
}
