package comm

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/perictl/pkg/framework"
	"github.com/robotalks/perictl/pkg/l1"
	"github.com/robotalks/perictl/pkg/l1/msgs"
)

// DefaultCommandExpiration is the default time waiting for a reply.
const DefaultCommandExpiration = 1 * time.Second

// ControllerConn is the connector side of a Pipe, it implements
// l1.ControllerConn by matching replies to commands by sequence.
// A command without reply before Expiration fails with
// context.DeadlineExceeded, and all pending commands fail with
// context.Canceled when the loop stops.
type ControllerConn struct {
	Expiration time.Duration

	pipe    Pipe
	lastSeq uint32
	pending map[uint32]*commandFuture
	lock    sync.Mutex
}

// Init initializes ControllerConn with defaults.
func (c *ControllerConn) Init(rw PacketReadWriter) {
	c.Expiration = DefaultCommandExpiration
	c.pipe.ReadWriter = rw
	c.pipe.Handler = msgs.HandleTypedMsgFunc(c.handleTypedMsg)
	c.pending = make(map[uint32]*commandFuture)
}

// DoCommand implements l1.ControllerConn.
func (c *ControllerConn) DoCommand(msg fx.Message) l1.CommandFuture {
	c.lock.Lock()
	defer c.lock.Unlock()
	// sequence 0 is never used by commands
	if c.lastSeq++; c.lastSeq == 0 {
		c.lastSeq++
	}
	f := &commandFuture{
		seq:      c.lastSeq,
		expireAt: time.Now().Add(c.Expiration),
		result:   make(chan l1.Result, 1),
	}
	if err := c.pipe.SendCommandMsg(msg, f.seq); err != nil {
		f.done(l1.Result{Err: err})
		return f
	}
	c.pending[f.seq] = f
	return f
}

// Pending returns the number of commands waiting for replies.
func (c *ControllerConn) Pending() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.pending)
}

// AddToLoop implements LoopAdder.
func (c *ControllerConn) AddToLoop(l *fx.Loop) {
	l.Add(&c.pipe)
	l.AddController(fx.PrLvIdle, fx.ControlFunc(c.expire))
	l.AddRunnable(fx.RunnableFunc(func(ctx context.Context) error {
		<-ctx.Done()
		c.failAll(context.Canceled)
		return ctx.Err()
	}))
}

func (c *ControllerConn) handleTypedMsg(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
	switch {
	case typed.IsEvent():
		loopCtl := fx.LoopCtlFrom(ctx)
		loopCtl.PostMessage(msg)
		loopCtl.TriggerNext()
		return nil
	case !typed.IsReply():
		glog.V(2).Infof("ignore command %x from controller", typed.TypeID)
		return nil
	}
	c.lock.Lock()
	f := c.pending[typed.Sequence]
	delete(c.pending, typed.Sequence)
	c.lock.Unlock()
	if f == nil {
		glog.V(2).Infof("ignore reply seq=%d without command", typed.Sequence)
		return nil
	}
	result := l1.Result{Msg: msg}
	if cmdErr, ok := msg.(*msgs.CommandErr); ok {
		result.Err = cmdErr
	}
	f.done(result)
	return nil
}

func (c *ControllerConn) expire(cc fx.ControlContext) error {
	now := cc.Time()
	var expired []*commandFuture
	c.lock.Lock()
	for seq, f := range c.pending {
		if !f.expireAt.After(now) {
			expired = append(expired, f)
			delete(c.pending, seq)
		}
	}
	c.lock.Unlock()
	for _, f := range expired {
		glog.V(2).Infof("command seq=%d expired", f.seq)
		f.done(l1.Result{Err: context.DeadlineExceeded})
	}
	return nil
}

func (c *ControllerConn) failAll(err error) {
	c.lock.Lock()
	pending := c.pending
	c.pending = make(map[uint32]*commandFuture)
	c.lock.Unlock()
	for _, f := range pending {
		f.done(l1.Result{Err: err})
	}
}

type commandFuture struct {
	seq      uint32
	expireAt time.Time
	result   chan l1.Result
}

func (f *commandFuture) done(r l1.Result) {
	f.result <- r
	close(f.result)
}

func (f *commandFuture) ResultChan() <-chan l1.Result {
	return f.result
}
