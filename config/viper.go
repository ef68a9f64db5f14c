package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ceyewan/cityweather/clog"
	"github.com/ceyewan/cityweather/xerrors"
)

type loader struct {
	v         *viper.Viper
	opts      *options
	mu        sync.Mutex
	loaded    bool
	watches   map[string][]chan Event
	oldValues map[string]any
}

func newLoader(opts ...Option) *loader {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &loader{
		v:         viper.New(),
		opts:      o,
		watches:   make(map[string][]chan Event),
		oldValues: make(map[string]any),
	}
}

// Load 初始化并从所有来源加载配置
func (l *loader) Load(ctx context.Context) error {
	for k, v := range l.opts.defaults {
		l.v.SetDefault(k, v)
	}

	if l.opts.file != "" {
		l.v.SetConfigFile(l.opts.file)
	} else {
		l.v.SetConfigName(l.opts.name)
		l.v.SetConfigType(l.opts.fileType)
		for _, path := range l.opts.paths {
			l.v.AddConfigPath(path)
		}
	}

	l.v.SetEnvPrefix(l.opts.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	l.loadDotEnv()

	hasFile := true
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return xerrors.Wrapf(ErrReadConfig, "%s: %v", l.opts.name, err)
		}
		hasFile = false
		l.opts.logger.Warn("no configuration file found, using defaults and environment",
			clog.String("name", l.opts.name))
	}

	if hasFile {
		if err := l.mergeEnvironmentConfig(); err != nil {
			return err
		}
		l.opts.logger.Info("configuration loaded", clog.String("file", l.v.ConfigFileUsed()))

		l.v.OnConfigChange(func(e fsnotify.Event) {
			if err := l.mergeEnvironmentConfig(); err != nil {
				l.opts.logger.Error("reload environment config failed", clog.Error(err))
			}
			l.notifyWatches(e)
		})
		l.v.WatchConfig()
	}

	l.mu.Lock()
	l.loaded = true
	l.mu.Unlock()
	return nil
}

// loadDotEnv 依次尝试工作目录与搜索路径下的 .env，godotenv 不覆盖已存在的环境变量
func (l *loader) loadDotEnv() {
	candidates := []string{".env"}
	for _, path := range l.opts.paths {
		candidates = append(candidates, filepath.Join(path, ".env"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			l.opts.logger.Warn("load .env failed", clog.String("path", p), clog.Error(err))
		}
	}
}

// mergeEnvironmentConfig 合并 <name>.<env>.<type>，env 来自 <PREFIX>_ENV
func (l *loader) mergeEnvironmentConfig() error {
	env := os.Getenv(fmt.Sprintf("%s_ENV", l.opts.envPrefix))
	if env == "" {
		return nil
	}

	base := l.v.ConfigFileUsed()
	ext := filepath.Ext(base)
	envFile := strings.TrimSuffix(base, ext) + "." + env + ext
	f, err := os.Open(envFile)
	if err != nil {
		if os.IsNotExist(err) {
			l.opts.logger.Debug("no environment configuration file", clog.String("env", env))
			return nil
		}
		return xerrors.Wrapf(ErrReadConfig, "%s: %v", envFile, err)
	}
	defer f.Close()

	if err := l.v.MergeConfig(f); err != nil {
		return xerrors.Wrapf(ErrReadConfig, "%s: %v", envFile, err)
	}
	l.opts.logger.Info("environment configuration merged", clog.String("env", env))
	return nil
}

func (l *loader) Get(key string) any {
	return l.v.Get(key)
}

func (l *loader) Unmarshal(v any) error {
	return l.v.Unmarshal(v)
}

func (l *loader) UnmarshalKey(key string, v any) error {
	return l.v.UnmarshalKey(key, v)
}

func (l *loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Watch 订阅特定 key 的变更
func (l *loader) Watch(ctx context.Context, key string) (<-chan Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.loaded {
		return nil, ErrNotLoaded
	}

	ch := make(chan Event, 10)
	l.watches[key] = append(l.watches[key], ch)
	l.oldValues[key] = l.v.Get(key)

	go func() {
		<-ctx.Done()
		l.removeWatch(key, ch)
	}()

	return ch, nil
}

func (l *loader) removeWatch(key string, ch chan Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	chans := l.watches[key]
	for i, c := range chans {
		if c == ch {
			l.watches[key] = append(chans[:i], chans[i+1:]...)
			break
		}
	}
	if len(l.watches[key]) == 0 {
		delete(l.watches, key)
		delete(l.oldValues, key)
	}
	close(ch)
}

func (l *loader) notifyWatches(_ fsnotify.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, channels := range l.watches {
		newValue := l.v.Get(key)
		oldValue := l.oldValues[key]
		if reflect.DeepEqual(oldValue, newValue) {
			continue
		}
		l.oldValues[key] = newValue

		event := Event{
			Key:       key,
			Value:     newValue,
			OldValue:  oldValue,
			Source:    "file",
			Timestamp: time.Now(),
		}
		for _, ch := range channels {
			select {
			case ch <- event:
			default:
				l.opts.logger.Warn("watch channel is full, event dropped", clog.String("key", key))
			}
		}
	}
}
