package comm

import (
	"context"
	"errors"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/perictl/pkg/framework"
	"github.com/robotalks/perictl/pkg/l1/msgs"
)

// ErrHubNotRunning indicates the Hub is not added to a running loop.
var ErrHubNotRunning = errors.New("hub not running")

// Hub is a Registrar accepting any number of client connections
// after the loop starts, e.g. from a listener.
// Commands from all clients are posted to the loop, and events are
// sent to every connected client.
type Hub struct {
	ctx   context.Context
	ready chan struct{}
	pipes map[*Pipe]struct{}
	lock  sync.Mutex
	wg    sync.WaitGroup
}

// NewHub creates a Hub.
func NewHub() *Hub {
	return &Hub{
		ready: make(chan struct{}),
		pipes: make(map[*Pipe]struct{}),
	}
}

// Ready is closed once the Hub starts running.
func (h *Hub) Ready() <-chan struct{} {
	return h.ready
}

// Serve runs a Pipe over rw until the client disconnects or the loop stops.
func (h *Hub) Serve(rw PacketReadWriter) error {
	h.lock.Lock()
	ctx := h.ctx
	if ctx == nil {
		h.lock.Unlock()
		return ErrHubNotRunning
	}
	pipe := NewPipe(rw)
	pipe.Handler = msgs.HandleTypedMsgFunc(func(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
		postTyped(fx.LoopCtlFrom(ctx), pipe, msg, typed)
		return nil
	})
	h.pipes[pipe] = struct{}{}
	h.wg.Add(1)
	h.lock.Unlock()

	defer func() {
		h.lock.Lock()
		delete(h.pipes, pipe)
		h.lock.Unlock()
		h.wg.Done()
	}()
	glog.V(1).Info("client connected")
	err := pipe.Run(ctx)
	glog.V(1).Infof("client disconnected: %v", err)
	return err
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.pipes)
}

// SendEvent implements Registrar.
func (h *Hub) SendEvent(ctx context.Context, msg fx.Message) error {
	h.lock.Lock()
	pipes := make([]*Pipe, 0, len(h.pipes))
	for pipe := range h.pipes {
		pipes = append(pipes, pipe)
	}
	h.lock.Unlock()
	for _, pipe := range pipes {
		// A failed client is dropped by its own Serve.
		if err := pipe.SendEventMsg(msg); err != nil {
			if err == ErrNotEvent || err == msgs.ErrNotSerializable {
				return err
			}
			glog.V(1).Infof("send event error: %v", err)
		}
	}
	return nil
}

// Run implements Runnable.
func (h *Hub) Run(ctx context.Context) error {
	h.lock.Lock()
	h.ctx = ctx
	h.lock.Unlock()
	close(h.ready)
	<-ctx.Done()
	h.lock.Lock()
	h.ctx = nil
	h.lock.Unlock()
	h.wg.Wait()
	return ctx.Err()
}

// AddToLoop implements LoopAdder.
func (h *Hub) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(h)
}
