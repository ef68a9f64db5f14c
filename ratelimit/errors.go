package ratelimit

import "github.com/ceyewan/cityweather/xerrors"

var (
	// ErrKeyEmpty 限流键为空
	ErrKeyEmpty = xerrors.Wrap(xerrors.ErrInvalidInput, "ratelimit: key is empty")

	// ErrInvalidLimit 限流规则无效
	ErrInvalidLimit = xerrors.Wrap(xerrors.ErrInvalidInput, "ratelimit: invalid limit")
)

// MetricRejectedTotal 被限流拒绝的请求数 (Counter)
const MetricRejectedTotal = "ratelimit_rejected_total"
