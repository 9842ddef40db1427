// Package dispatch decodes (address, command, data) requests into
// peripheral operations.
package dispatch

import (
	"fmt"

	"github.com/robotalks/perictl/pkg/periph"
)

// Table maps every address to its handler. It is built once and never
// modified, so it is safe for concurrent lookups.
type Table struct {
	handlers [256]Handler
}

// NewTable builds the address space table over a driver collection.
func NewTable(c *periph.Collection) (*Table, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	t := &Table{}
	for _, addr := range periph.Addresses() {
		i := addr.Index()
		var h Handler
		switch kind := addr.Kind(); kind {
		case periph.KindADC:
			h = &adcHandler{dev: c.ADCs[i]}
		case periph.KindVDAC:
			h = &vdacHandler{dev: c.VDACs[i]}
		case periph.KindIDAC:
			h = &idacHandler{dev: c.IDACs[i]}
		case periph.KindWaveDAC:
			h = &waveHandler{dev: c.WaveDACs[i]}
		case periph.KindPWM:
			h = &pwmHandler{dev: c.PWMs[i]}
		case periph.KindDigitalIn:
			h = &digInHandler{dev: c.DigIns[i]}
		case periph.KindDigitalOut:
			h = &digOutHandler{dev: c.DigOuts[i]}
		default:
			return nil, fmt.Errorf("%s: no handler for kind %s", addr, kind)
		}
		t.handlers[addr] = h
	}
	return t, nil
}

// Resolve finds the handler of an address.
func (t *Table) Resolve(addr periph.Address) (Handler, bool) {
	h := t.handlers[addr]
	return h, h != nil
}
