// Package stream 将存储层的惰性序列切分为固定大小的页，并以 JSON 增量写出。
//
// 序列统一使用 iter.Seq2[T, error]：存储层按需拉取，消费方停止迭代即停止读取，
// 内存中最多同时持有一页数据。
//
//	pages := stream.Pages(store.StreamAll(ctx), 20)
//	for page, err := range pages {
//		if err != nil {
//			return err
//		}
//		send(page)
//	}
package stream

import (
	"iter"

	"github.com/ceyewan/cityweather/xerrors"
)

// DefaultPageSize 默认页大小
const DefaultPageSize = 20

// ErrInvalidPageSize 页大小必须为正数
var ErrInvalidPageSize = xerrors.Wrap(xerrors.ErrInvalidInput, "stream: page size must be positive")

// Pages 按序将 seq 切分为页。
//
// 除最后一页外每页恰好 size 个元素；最后一页长度在 [1, size]。
// 空序列不产生任何页，集合大小是 size 的整数倍时也不会产生空的尾页。
// 源序列出错时丢弃未满的缓冲，产出 (nil, err) 并结束，已交付的页不受影响。
// 每页是独立分配的切片，消费方可以安全持有。
func Pages[T any](seq iter.Seq2[T, error], size int) iter.Seq2[[]T, error] {
	return func(yield func([]T, error) bool) {
		if size <= 0 {
			yield(nil, ErrInvalidPageSize)
			return
		}

		buf := make([]T, 0, size)
		for item, err := range seq {
			if err != nil {
				yield(nil, err)
				return
			}
			buf = append(buf, item)
			if len(buf) == size {
				if !yield(buf, nil) {
					return
				}
				buf = make([]T, 0, size)
			}
		}
		if len(buf) > 0 {
			yield(buf, nil)
		}
	}
}

// Collect 将整个序列读入内存，遇到错误立即返回
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	out := []T{}
	for item, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// FromSlice 将切片包装为无错误的序列，测试与内存实现使用
func FromSlice[T any](items []T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}
