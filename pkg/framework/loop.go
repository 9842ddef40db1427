package framework

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the iteration interval when no message triggers one.
const DefaultInterval = 100 * time.Millisecond

// Loop runs controllers by priority on each iteration.
// Messages posted from any goroutine are delivered to the next iteration.
type Loop struct {
	Interval time.Duration

	levels  [PriorityLevels][]Controller
	runners []Runnable

	queue  []Message
	lock   sync.Mutex
	wakeUp chan struct{}
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type loopCtxKeyType struct{}

var loopCtxKey loopCtxKeyType

// LoopCtlFrom gets LoopControl from the context given to loop runners
// or ControlContext.Context.
func LoopCtlFrom(ctx context.Context) LoopControl {
	return ctx.Value(loopCtxKey).(LoopControl)
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{
		Interval: DefaultInterval,
		wakeUp:   make(chan struct{}, 1),
	}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers at a priority level.
// A controller also implementing Runnable is started with the loop.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	l.levels[priorityLevel] = append(l.levels[priorityLevel], ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnable implementions.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Run implements Runnable.
func (l *Loop) Run(ctx context.Context) error {
	l.lock.Lock()
	if l.wakeUp == nil {
		l.wakeUp = make(chan struct{}, 1)
	}
	wakeUp := l.wakeUp
	l.lock.Unlock()

	ctx = context.WithValue(ctx, loopCtxKey, LoopControl(l))
	runner := NewRunnerWith(ctx).Go(l.runners...)
	defer func() {
		if err := runner.Wait(); err != nil {
			glog.Errorf("loop runners: %v", err)
		}
	}()

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-wakeUp:
		}
		l.iterate(ctx)
	}
}

// PostMessage implements LoopControl.
func (l *Loop) PostMessage(msg Message) {
	l.lock.Lock()
	l.queue = append(l.queue, msg)
	l.lock.Unlock()
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	l.lock.Lock()
	if l.wakeUp == nil {
		l.wakeUp = make(chan struct{}, 1)
	}
	ch := l.wakeUp
	l.lock.Unlock()
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (l *Loop) iterate(ctx context.Context) {
	it := &iteration{loop: l, ctx: ctx, time: time.Now()}
	l.lock.Lock()
	it.msgs, l.queue = l.queue, nil
	l.lock.Unlock()
	for lv, ctls := range l.levels {
		it.level = lv
		for _, ctl := range ctls {
			if err := ctl.Control(it); err != nil {
				glog.Errorf("controller %T: %v", ctl, err)
			}
		}
	}
	if len(it.msgs) > 0 {
		glog.V(4).Infof("%d messages dropped", len(it.msgs))
	}
}

// iteration implements ControlContext.
type iteration struct {
	loop  *Loop
	ctx   context.Context
	time  time.Time
	level int
	msgs  []Message
}

func (it *iteration) Context() context.Context { return it.ctx }
func (it *iteration) Time() time.Time          { return it.time }
func (it *iteration) PriorityLevel() int       { return it.level }
func (it *iteration) Messages() MessageStore   { return it }
func (it *iteration) PostMessage(msg Message)  { it.loop.PostMessage(msg) }
func (it *iteration) TriggerNext()             { it.loop.TriggerNext() }
func (it *iteration) Len() int                 { return len(it.msgs) }

func (it *iteration) AddMessages(msgs ...Message) {
	it.msgs = append(it.msgs, msgs...)
}

type messageContext struct {
	it    *iteration
	msg   Message
	taken bool
	stop  bool
}

func (c *messageContext) CurrentMessage() Message     { return c.msg }
func (c *messageContext) MessageTaken()               { c.taken = true }
func (c *messageContext) StopProcessing()             { c.stop = true }
func (c *messageContext) AddMessages(msgs ...Message) { c.it.AddMessages(msgs...) }

// ProcessMessages implements MessageStore.
// Messages added during processing are kept after the current ones.
func (it *iteration) ProcessMessages(proc MessageProcessor) {
	msgs := it.msgs
	it.msgs = nil
	remains := make([]Message, 0, len(msgs))
	for n, msg := range msgs {
		mctx := &messageContext{it: it, msg: msg}
		proc.ProcessMessage(mctx)
		if !mctx.taken {
			remains = append(remains, msg)
		}
		if mctx.stop {
			remains = append(remains, msgs[n+1:]...)
			break
		}
	}
	it.msgs = append(remains, it.msgs...)
}
