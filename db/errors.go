package db

import (
	"gorm.io/gorm"

	"github.com/ceyewan/cityweather/xerrors"
)

// IsDuplicateKey 判断是否为唯一约束冲突，要求连接开启 TranslateError
func IsDuplicateKey(err error) bool {
	return xerrors.Is(err, gorm.ErrDuplicatedKey)
}

// IsNotFound 判断是否为 gorm 的记录不存在
func IsNotFound(err error) bool {
	return xerrors.Is(err, gorm.ErrRecordNotFound)
}
