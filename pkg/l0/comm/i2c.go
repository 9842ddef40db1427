package comm

import (
	"context"
	"sync"

	"github.com/golang/glog"
)

// CommandHandler executes the command carried by a packet.
type CommandHandler interface {
	HandleCommand(cmd byte) error
}

// HandleCommandFunc is func type of CommandHandler.
type HandleCommandFunc func(byte) error

// HandleCommand implements CommandHandler.
func (f HandleCommandFunc) HandleCommand(cmd byte) error {
	return f(cmd)
}

// I2CBus is the slave side of an I2C bus.
type I2CBus interface {
	// WaitWrite blocks until the master completes a write transaction.
	WaitWrite(ctx context.Context) ([]byte, error)
	// SetReadBuffer sets the bytes returned on the next read transaction.
	SetReadBuffer([]byte) error
}

// I2CSlave serves I2C-slave packets.
type I2CSlave struct {
	Handler CommandHandler

	status byte
	lock   sync.Mutex
}

// NewI2CSlave creates an I2CSlave.
func NewI2CSlave(h CommandHandler) *I2CSlave {
	return &I2CSlave{Handler: h, status: StatusDone}
}

// HandleWrite processes a write transaction and returns the status
// reported by the following read transaction.
func (s *I2CSlave) HandleWrite(buf []byte) byte {
	status := StatusDone
	pkt, err := ParsePacket(buf)
	if err == nil {
		err = s.Handler.HandleCommand(pkt.Code)
	}
	if err != nil {
		glog.Warningf("i2c packet % x: %v", buf, err)
		status = StatusFail
	}
	s.lock.Lock()
	s.status = status
	s.lock.Unlock()
	return status
}

// Status returns the status of the last write transaction.
func (s *I2CSlave) Status() byte {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.status
}

// Run serves write transactions from the bus.
func (s *I2CSlave) Run(ctx context.Context, bus I2CBus) error {
	if err := bus.SetReadBuffer([]byte{s.Status()}); err != nil {
		return err
	}
	for {
		buf, err := bus.WaitWrite(ctx)
		if err != nil {
			return err
		}
		if err = bus.SetReadBuffer([]byte{s.HandleWrite(buf)}); err != nil {
			return err
		}
	}
}
