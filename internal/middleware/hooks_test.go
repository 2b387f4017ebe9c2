package middleware

import (
	"context"
	"net"

	"github.com/redis/go-redis/v9"
)

// commandHook lets a test observe or fail individual Redis commands. after
// runs once the command has completed; fail short-circuits it.
type commandHook struct {
	after func(ctx context.Context, cmd redis.Cmder)
	fail  func(cmd redis.Cmder) error
}

func (h commandHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h commandHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if h.fail != nil {
			if err := h.fail(cmd); err != nil {
				cmd.SetErr(err)
				return err
			}
		}
		err := next(ctx, cmd)
		if h.after != nil {
			h.after(ctx, cmd)
		}
		return err
	}
}

func (h commandHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}
