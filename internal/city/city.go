// Package city 实现城市目录服务：文档存储上的 CRUD 与分页流式列表。
package city

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/ceyewan/cityweather/xerrors"
)

// City 以 name 为自然主键，其余属性原样保存与返回
//
// JSON 形态是扁平对象：{"name": "Paris", "country": "FR", ...}。
type City struct {
	ID         uint64         `json:"-" gorm:"primaryKey;autoIncrement"`
	Name       string         `json:"name" gorm:"uniqueIndex;size:255;not null"`
	Attributes map[string]any `json:"-" gorm:"serializer:json;type:text"`
	CreatedAt  time.Time      `json:"-"`
}

// TableName gorm 表名
func (City) TableName() string {
	return "cities"
}

// Validate 创建前校验。名称作为单个路径段出现在 /cities/{name} 中，不能含 '/'
func (c *City) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "city: name is required")
	}
	if strings.Contains(c.Name, "/") {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "city: name must not contain '/'")
	}
	return nil
}

func (c City) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Attributes)+1)
	for k, v := range c.Attributes {
		out[k] = v
	}
	out["name"] = c.Name
	return json.Marshal(out)
}

func (c *City) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "city: body must be a JSON object")
	}

	name, ok := raw["name"].(string)
	if v, present := raw["name"]; present && !ok && v != nil {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "city: name must be a string")
	}
	delete(raw, "name")

	c.Name = name
	c.Attributes = nil
	if len(raw) > 0 {
		c.Attributes = raw
	}
	return nil
}
