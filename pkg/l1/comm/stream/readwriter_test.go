package stream

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/perictl/pkg/framework"
	"github.com/robotalks/perictl/pkg/l1"
	"github.com/robotalks/perictl/pkg/l1/comm"
	"github.com/robotalks/perictl/pkg/l1/msgs"
)

func TestReadWriter(t *testing.T) {
	var buf bytes.Buffer
	rw := New(&buf)
	require.NoError(t, rw.WritePacket([]byte{1, 2, 3}))
	require.NoError(t, rw.WritePacket(nil))
	require.Equal(t, []byte{3, 0, 0, 0, 1, 2, 3, 0, 0, 0, 0}, buf.Bytes())

	pkt, err := rw.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, pkt)
	pkt, err = rw.ReadPacket()
	require.NoError(t, err)
	require.Empty(t, pkt)
	_, err = rw.ReadPacket()
	require.Error(t, err)

	buf.Write([]byte{0xff, 0xff, 0xff, 0xff})
	_, err = rw.ReadPacket()
	require.Equal(t, ErrPacketTooLarge, err)
	require.NoError(t, rw.Close())
}

func TestListenerDial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := comm.NewHub()
	ln, err := Listen("127.0.0.1:0", hub)
	require.NoError(t, err)
	loop := fx.NewLoop()
	loop.Add(hub, &comm.UnsupportedCommands{})
	loop.AddRunnable(ln)
	loop.AddController(fx.PrLvControl, fx.ControlFunc(func(cc fx.ControlContext) error {
		cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
			if cmd, ok := mctx.CurrentMessage().(*l1.CommandMsg); ok {
				if _, ok := cmd.Command.Msg().(*msgs.PeriphListQuery); ok {
					mctx.MessageTaken()
					cmd.Command.Done(&msgs.PeriphList{Peripherals: []*msgs.PeriphInfo{{Address: 0x08, Name: "PWM_0"}}})
				}
			}
		}))
		return nil
	}))
	go loop.Run(ctx)

	conn, err := Dial(ln.Listener.Addr().String())
	require.NoError(t, err)
	connLoop := fx.NewLoop()
	connLoop.Add(conn)
	go connLoop.Run(ctx)

	waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Second)
	defer waitCancel()
	msg, err := l1.Wait(waitCtx, conn.DoCommand(&msgs.PeriphListQuery{}))
	require.NoError(t, err)
	list := msg.(*msgs.PeriphList)
	require.NotNil(t, list.Find("PWM_0"))
	require.Nil(t, list.Find("PWM_1"))
}

func TestReadWriterOverPipe(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()
	go New(a).WritePacket(make([]byte, 1024))
	pkt, err := New(b).ReadPacket()
	require.NoError(t, err)
	require.Len(t, pkt, 1024)
}
