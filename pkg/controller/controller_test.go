package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/perictl/pkg/framework"
	"github.com/robotalks/perictl/pkg/l0/dispatch"
	"github.com/robotalks/perictl/pkg/l1"
	"github.com/robotalks/perictl/pkg/l1/msgs"
	"github.com/robotalks/perictl/pkg/periph"
	"github.com/robotalks/perictl/pkg/periph/sim"
)

type testCommand struct {
	msg   fx.Message
	reply chan fx.Message
}

func (c *testCommand) Msg() fx.Message { return c.msg }

func (c *testCommand) Done(msg fx.Message) error {
	c.reply <- msg
	return nil
}

type testRegistrar struct {
	events chan fx.Message
}

func (r *testRegistrar) SendEvent(ctx context.Context, msg fx.Message) error {
	select {
	case r.events <- msg:
	default:
	}
	return nil
}

type testEnv struct {
	board *sim.Board
	ctl   *Controller
	loop  *fx.Loop
	reg   *testRegistrar
}

func newTestEnv(t *testing.T, ctx context.Context) *testEnv {
	board := sim.NewBoard()
	d, err := dispatch.New(board.Collection())
	require.NoError(t, err)
	reg := &testRegistrar{events: make(chan fx.Message, 16)}
	e := &testEnv{
		board: board,
		ctl:   NewController(d, reg),
		loop:  fx.NewLoop(),
		reg:   reg,
	}
	e.loop.Interval = 10 * time.Millisecond
	e.loop.Add(e.ctl)
	go e.loop.Run(ctx)
	return e
}

func (e *testEnv) do(t *testing.T, msg fx.Message) fx.Message {
	cmd := &testCommand{msg: msg, reply: make(chan fx.Message, 1)}
	e.loop.PostMessage(&l1.CommandMsg{Command: cmd})
	e.loop.TriggerNext()
	select {
	case reply := <-cmd.reply:
		return reply
	case <-time.After(time.Second):
		t.Fatalf("no reply for %T", msg)
		return nil
	}
}

func request(addr periph.Address, cmd periph.Command, data uint32) *msgs.PeriphRequest {
	return msgs.NewPeriphRequest(periph.Request{Address: addr, Command: cmd, Data: data})
}

func TestPeriphRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e := newTestEnv(t, ctx)

	require.Equal(t, &msgs.PeriphResult{}, e.do(t, request(periph.AddrDigOut0, dispatch.CmdStart, 0)))
	require.Equal(t, &msgs.PeriphResult{}, e.do(t, request(periph.AddrDigOut0, dispatch.DigOutWrite, 0x5a)))
	require.Equal(t, &msgs.PeriphResult{Result: 0x5a}, e.do(t, request(periph.AddrDigOut0, dispatch.CmdRead, 0)))
	require.Equal(t, byte(0x5a), e.board.DigOuts[0].Pins())

	cases := []*msgs.PeriphRequest{
		request(0x42, dispatch.CmdStart, 0),
		request(periph.AddrDigOut0, 0x0c, 0),
		{Address: 0x100},
	}
	for _, req := range cases {
		reply := e.do(t, req)
		cmdErr, ok := reply.(*msgs.CommandErr)
		require.True(t, ok, req.String())
		require.Equal(t, uint32(periph.ResultFailure), cmdErr.Code)
		require.NotEmpty(t, cmdErr.Message)
	}

	stats := e.ctl.Stats()
	require.Equal(t, uint64(6), stats.Requests)
	require.Equal(t, uint64(3), stats.Failures)
	require.Equal(t, uint32(0x100), stats.LastFailure.Address)
}

func TestPeriphListQuery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e := newTestEnv(t, ctx)

	list, ok := e.do(t, &msgs.PeriphListQuery{}).(*msgs.PeriphList)
	require.True(t, ok)
	require.Len(t, list.Peripherals, periph.AddrCount)
	pwm := list.Find("PWM_3")
	require.NotNil(t, pwm)
	require.Equal(t, uint32(0x0b), pwm.Address)
	require.Equal(t, "pwm", pwm.Kind)
	cmd := pwm.Command("read_period")
	require.NotNil(t, cmd)
	require.Equal(t, uint32(dispatch.PWMReadPeriod), cmd.Code)
	require.True(t, cmd.Returns)
	require.False(t, pwm.Command("start").Returns)
}

func TestStatsEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e := newTestEnv(t, ctx)

	// requests from the L0 link go through Controller.Dispatch directly
	_, err := e.ctl.Dispatch(periph.Request{Address: periph.AddrPWM0, Command: dispatch.CmdStart})
	require.NoError(t, err)
	_, err = e.ctl.Dispatch(periph.Request{Address: periph.AddrPWM0, Command: 0x0c})
	require.True(t, errors.Is(err, dispatch.ErrUnknownCommand))
	e.loop.TriggerNext()

	select {
	case ev := <-e.reg.events:
		stats := ev.(*msgs.PeriphStats)
		require.Equal(t, uint64(2), stats.Requests)
		require.Equal(t, uint64(1), stats.Failures)
		require.Equal(t, uint32(0x0c), stats.LastFailure.Command)
	case <-time.After(time.Second):
		t.Fatal("stats event not sent")
	}
	select {
	case ev := <-e.reg.events:
		t.Fatalf("unexpected event %v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAddressMap(t *testing.T) {
	list := AddressMap()
	for n, info := range list.Peripherals {
		addr := periph.Address(n)
		require.Equal(t, uint32(addr), info.Address)
		require.Equal(t, addr.String(), info.Name)
		require.NotEmpty(t, info.Commands, info.Name)
		require.Equal(t, "start", info.Commands[0].Name)
	}
}
