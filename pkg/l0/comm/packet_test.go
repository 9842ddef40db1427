package comm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePacket(t *testing.T) {
	pkt, err := ParsePacket([]byte{0x01, 0x02, 0x17})
	require.NoError(t, err)
	require.Equal(t, byte(0x02), pkt.Code)
	require.Equal(t, []byte{0x01, 0x02, 0x17}, pkt.Bytes())

	for _, in := range [][]byte{
		nil,
		{0x01, 0x02},
		{0x01, 0x02, 0x17, 0x17},
		{0x00, 0x02, 0x17},
		{0x01, 0x02, 0x16},
		{0x17, 0x02, 0x01},
	} {
		_, err := ParsePacket(in)
		require.True(t, errors.Is(err, ErrMalformedPacket), "% x", in)
		var pktErr *PacketError
		require.True(t, errors.As(err, &pktErr))
		require.Equal(t, in, pktErr.Packet)
	}
}

func TestI2CSlave(t *testing.T) {
	var cmds []byte
	s := NewI2CSlave(HandleCommandFunc(func(cmd byte) error {
		if cmd > 3 {
			return errors.New("unknown")
		}
		cmds = append(cmds, cmd)
		return nil
	}))
	require.Equal(t, StatusDone, s.Status())

	require.Equal(t, StatusDone, s.HandleWrite([]byte{0x01, 0x02, 0x17}))
	require.Equal(t, StatusDone, s.Status())
	require.Equal(t, StatusFail, s.HandleWrite([]byte{0x01, 0x02}))
	require.Equal(t, StatusFail, s.Status())
	require.Equal(t, StatusFail, s.HandleWrite([]byte{0x01, 0x09, 0x17}))
	require.Equal(t, StatusDone, s.HandleWrite([]byte{0x01, 0x00, 0x17}))
	require.Equal(t, []byte{0x02, 0x00}, cmds)
}

type testI2CBus struct {
	writes chan []byte
	reads  chan []byte
}

func (b *testI2CBus) WaitWrite(ctx context.Context) ([]byte, error) {
	select {
	case buf, ok := <-b.writes:
		if !ok {
			return nil, context.Canceled
		}
		return buf, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *testI2CBus) SetReadBuffer(buf []byte) error {
	b.reads <- buf
	return nil
}

func TestI2CSlaveRun(t *testing.T) {
	bus := &testI2CBus{writes: make(chan []byte), reads: make(chan []byte, 1)}
	s := NewI2CSlave(HandleCommandFunc(func(byte) error { return nil }))
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(context.Background(), bus) }()

	require.Equal(t, []byte{StatusDone}, <-bus.reads)
	bus.writes <- []byte{0x01, 0x17}
	require.Equal(t, []byte{StatusFail}, <-bus.reads)
	bus.writes <- Packet{Code: 0x01}.Bytes()
	require.Equal(t, []byte{StatusDone}, <-bus.reads)
	close(bus.writes)
	require.Equal(t, context.Canceled, <-errCh)
}
