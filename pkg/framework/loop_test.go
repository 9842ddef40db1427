package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testMsg struct{ n int }

func (m *testMsg) NewMessage() Message { return &testMsg{} }

func TestLoopPriorityAndMessages(t *testing.T) {
	loop := NewLoop()
	loop.Interval = time.Hour
	seen := make(chan []int, 1)
	var order []int
	var postProcLen int
	loop.AddController(PrLvIdle, ControlFunc(func(cc ControlContext) error {
		var left []int
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			left = append(left, mctx.CurrentMessage().(*testMsg).n)
		}))
		order = append(order, cc.PriorityLevel())
		seen <- left
		return nil
	}))
	loop.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		order = append(order, cc.PriorityLevel())
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			if mctx.CurrentMessage().(*testMsg).n == 1 {
				mctx.MessageTaken()
				mctx.AddMessages(&testMsg{n: 10})
			}
		}))
		return errors.New("logged and ignored")
	}))
	loop.AddController(PrLvPostProc, ControlFunc(func(cc ControlContext) error {
		order = append(order, cc.PriorityLevel())
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			mctx.StopProcessing()
		}))
		postProcLen = cc.Messages().Len()
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	loop.PostMessage(&testMsg{n: 1})
	loop.PostMessage(&testMsg{n: 2})
	loop.PostMessage(&testMsg{n: 3})
	loop.TriggerNext()

	select {
	case left := <-seen:
		require.Equal(t, []int{2, 3, 10}, left)
		require.Equal(t, []int{PrLvControl, PrLvPostProc, PrLvIdle}, order)
		require.Equal(t, 3, postProcLen)
	case <-time.After(time.Second):
		t.Fatal("iteration not triggered")
	}
	cancel()
	require.Equal(t, context.Canceled, <-done)
}

func TestLoopRunnables(t *testing.T) {
	loop := NewLoop()
	posted := make(chan struct{})
	loop.AddRunnable(RunnableFunc(func(ctx context.Context) error {
		LoopCtlFrom(ctx).PostMessage(&testMsg{n: 7})
		LoopCtlFrom(ctx).TriggerNext()
		close(posted)
		<-ctx.Done()
		return ctx.Err()
	}))
	got := make(chan int, 1)
	loop.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			select {
			case got <- mctx.CurrentMessage().(*testMsg).n:
			default:
			}
		}))
		return nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)
	<-posted
	select {
	case n := <-got:
		require.Equal(t, 7, n)
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestRunner(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	failure := errors.New("failure")
	r := NewRunnerWith(ctx).Go(
		NamedRun("canceled", RunnableFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})),
		RunnableFunc(func(context.Context) error { return failure }),
		RunnableFunc(func(context.Context) error { return nil }),
	)
	cancel()
	err := r.Wait()
	require.Error(t, err)
	require.True(t, errors.Is(err, failure))
	require.Equal(t, "failure", err.Error())

	require.NoError(t, NewRunner().Wait())
}

type testCloser struct{ closed int }

func (c *testCloser) Close() error {
	c.closed++
	return nil
}

func TestRunWithContextCloser(t *testing.T) {
	var c testCloser
	require.NoError(t, RunWithContextCloser(context.Background(), &c, func() error { return nil }))
	require.Equal(t, 1, c.closed)

	ctx, cancel := context.WithCancel(context.Background())
	unblock := make(chan struct{})
	c.closed = 0
	cancel()
	err := RunWithContextCloser(ctx, closerFunc(func() error {
		c.closed++
		close(unblock)
		return nil
	}), func() error {
		<-unblock
		return errors.New("closed")
	})
	require.Equal(t, context.Canceled, err)
	require.Equal(t, 1, c.closed)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil).Aggregate())
	a, b := errors.New("a"), errors.New("b")
	err := errs.Add(a, nil, b).Aggregate()
	require.Equal(t, "2 errors: a; b", err.Error())
	require.True(t, errors.Is(err, b))
	require.False(t, errors.Is(err, context.Canceled))
}
