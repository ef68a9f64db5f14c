package stream

import (
	"context"
	"encoding/json"
	"iter"
	"net/http"

	"github.com/ceyewan/cityweather/xerrors"
)

// ErrAborted 已经开始写出响应后发生错误，响应被截断
var ErrAborted = xerrors.New("stream: response aborted after first element")

// WriteJSON 将序列写为一个 JSON 数组，每个元素写出后立即 Flush。
//
// 第一个元素就绪前出错时不写任何内容并原样返回错误，调用方仍可返回 5xx；
// 之后出错只能截断响应，返回值 Is ErrAborted 并包装原始错误。
// ctx 取消（客户端断开）时停止拉取序列并返回 ctx.Err()。
func WriteJSON[E any](ctx context.Context, w http.ResponseWriter, seq iter.Seq2[E, error]) error {
	next, stop := iter.Pull2(seq)
	defer stop()

	item, err, ok := next()
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	if _, err := w.Write([]byte{'['}); err != nil {
		return xerrors.Join(ErrAborted, err)
	}

	enc := json.NewEncoder(w)
	for i := 0; ok; i++ {
		if i > 0 {
			if _, err := w.Write([]byte{','}); err != nil {
				return xerrors.Join(ErrAborted, err)
			}
		}
		// Encoder 会追加换行，作为元素间的空白是合法的 JSON
		if err := enc.Encode(item); err != nil {
			return xerrors.Join(ErrAborted, err)
		}
		if flusher != nil {
			flusher.Flush()
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		item, err, ok = next()
		if err != nil {
			return xerrors.Join(ErrAborted, err)
		}
	}

	_, err = w.Write([]byte{']'})
	if err != nil {
		return xerrors.Join(ErrAborted, err)
	}
	if flusher != nil {
		flusher.Flush()
	}
	return nil
}
