package config

import "github.com/ceyewan/cityweather/xerrors"

var (
	// ErrReadConfig 配置文件存在但无法解析
	ErrReadConfig = xerrors.New("config: read config failed")
	// ErrNotLoaded 在 Load 之前调用了 Watch
	ErrNotLoaded = xerrors.New("config: loader not loaded")
)
