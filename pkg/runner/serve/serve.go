// Package serve provides the runner behind `chronos serve`.
package serve

import (
	"context"
	"errors"
	"time"

	"tableflip.dev/chronos/pkg/api"
	"tableflip.dev/chronos/pkg/runner/env"
)

// Serve runs the HTTP surface until ctx is done, then flushes staged writes.
type Serve struct {
	Env  *env.Env
	Addr string
	// Ready, when set, receives the listening address once serving.
	Ready func(addr string)
}

func (n *Serve) Do(ctx context.Context) error {
	if n.Env == nil {
		return errors.New("can not serve, no environment")
	}
	addr := n.Addr
	if addr == "" {
		addr = n.Env.Settings.Listen
	}
	srv := api.NewServer(n.Env.Session, n.Env.Scheduler, api.Config{Addr: addr, Logger: n.Env.Logger})
	if err := srv.Start(); err != nil {
		return err
	}
	if n.Ready != nil {
		n.Ready(srv.Addr())
	}

	<-ctx.Done()

	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := n.Env.Flush(flushCtx); err != nil {
		n.Env.Logger.Warnw("pending writes not flushed", "error", err)
	}
	return srv.Stop()
}
