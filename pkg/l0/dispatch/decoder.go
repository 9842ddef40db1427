package dispatch

import (
	"errors"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/perictl/pkg/periph"
)

// Decoder is the single dispatch point from requests to peripherals.
// It keeps no state across requests; the lock only serializes requests
// coming from different transports.
type Decoder struct {
	table *Table
	lock  sync.Mutex
}

// NewDecoder creates a Decoder over a Table.
func NewDecoder(t *Table) *Decoder {
	return &Decoder{table: t}
}

// New builds the Table and the Decoder over a driver collection.
func New(c *periph.Collection) (*Decoder, error) {
	t, err := NewTable(c)
	if err != nil {
		return nil, err
	}
	return NewDecoder(t), nil
}

// Table gets the address space table.
func (d *Decoder) Table() *Table {
	return d.table
}

// Dispatch implements periph.Dispatcher.
// On failure, the result is periph.ResultFailure and the error is one of
// *AddressError, *CommandError or *DriverError.
func (d *Decoder) Dispatch(req periph.Request) (periph.Result, error) {
	h, ok := d.table.Resolve(req.Address)
	if !ok {
		err := &AddressError{Address: req.Address}
		glog.Warningf("dispatch %s: %v", req, err)
		return periph.ResultFailure, err
	}

	d.lock.Lock()
	res, err := h.Handle(req.Command, req.Data)
	d.lock.Unlock()

	if err != nil {
		if errors.Is(err, ErrUnknownCommand) {
			err = &CommandError{Address: req.Address, Command: req.Command}
		} else {
			err = &DriverError{Request: req, Err: err}
		}
		glog.Warningf("dispatch %s: %v", req, err)
		return periph.ResultFailure, err
	}
	glog.V(3).Infof("dispatch %s = %#x", req, uint32(res))
	return res, nil
}
