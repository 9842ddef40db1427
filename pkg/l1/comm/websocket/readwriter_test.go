package websocket

import (
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

func TestServerDial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := comm.NewHub()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	server := &Server{Hub: hub, Listener: ln}
	loop := fx.NewLoop()
	loop.Add(hub, &comm.UnsupportedCommands{})
	loop.AddRunnable(server)
	loop.AddController(fx.PrLvControl, fx.ControlFunc(func(cc fx.ControlContext) error {
		cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
			if cmd, ok := mctx.CurrentMessage().(*l1.CommandMsg); ok {
				if req, ok := cmd.Command.Msg().(*msgs.PeriphRequest); ok {
					mctx.MessageTaken()
					cmd.Command.Done(&msgs.PeriphResult{Result: req.Data + 1})
				}
			}
		}))
		return nil
	}))
	go loop.Run(ctx)
	<-hub.Ready()

	conn, err := Dial("ws://"+ln.Addr().String()+DefaultPath, "http://localhost/")
	require.NoError(t, err)
	connLoop := fx.NewLoop()
	connLoop.Add(conn)
	go connLoop.Run(ctx)

	waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Second)
	defer waitCancel()
	msg, err := l1.Wait(waitCtx, conn.DoCommand(&msgs.PeriphRequest{Address: 0x08, Command: 0x0e, Data: 41}))
	require.NoError(t, err)
	require.Equal(t, uint32(42), msg.(*msgs.PeriphResult).Result)

	_, err = l1.Wait(waitCtx, conn.DoCommand(&msgs.PeriphListQuery{}))
	require.Error(t, err)
	require.Equal(t, 1, hub.Clients())
}

func TestServerStopsBeforeReady(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = (&Server{Hub: comm.NewHub(), Listener: ln}).Run(ctx)
	require.Equal(t, context.Canceled, err)
}
