package pipeline

import (
	"context"
	"runtime/debug"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Result is the settled outcome of one concurrent stage.
type Result[T any] struct {
	Value T
	Err   error
}

// Settle runs fn and captures its value, error or panic as a Result. It
// never panics itself, so one stage cannot take down its siblings.
func Settle[T any](ctx context.Context, fn func(context.Context) (T, error)) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("pipeline: stage panicked",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			res = Result[T]{Err: eris.Errorf("panic: %v", r)}
		}
	}()
	v, err := fn(ctx)
	if err != nil {
		return Result[T]{Err: err}
	}
	return Result[T]{Value: v}
}
