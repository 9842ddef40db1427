// Package controller exposes the peripheral dispatcher to remote tools.
package controller

import (
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/perictl/pkg/framework"
	"github.com/robotalks/perictl/pkg/l0/dispatch"
	"github.com/robotalks/perictl/pkg/l1"
	"github.com/robotalks/perictl/pkg/l1/msgs"
	"github.com/robotalks/perictl/pkg/periph"
)

// Controller turns L1 commands into dispatched requests.
// It also implements periph.Dispatcher so requests from the L0 link
// are counted in the same statistics.
type Controller struct {
	Dispatcher periph.Dispatcher
	Registrar  l1.Registrar
	// NotifyStats sends PeriphStats events when statistics change.
	NotifyStats bool

	stats        msgs.PeriphStats
	statsChanged bool
	lock         sync.Mutex
}

// NewController creates a Controller.
func NewController(d periph.Dispatcher, reg l1.Registrar) *Controller {
	return &Controller{
		Dispatcher:  d,
		Registrar:   reg,
		NotifyStats: defaultConfig.NotifyStats,
	}
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvControl, c)
	if c.NotifyStats && c.Registrar != nil {
		loop.AddController(fx.PrLvPostProc, fx.ControlFunc(c.notifyStatsChange))
	}
}

// Dispatch implements periph.Dispatcher.
func (c *Controller) Dispatch(req periph.Request) (periph.Result, error) {
	res, err := c.Dispatcher.Dispatch(req)
	c.lock.Lock()
	c.stats.Requests++
	if err != nil {
		c.stats.Failures++
		c.stats.LastFailure = msgs.NewPeriphRequest(req)
	}
	c.statsChanged = true
	c.lock.Unlock()
	return res, err
}

// Stats gets a snapshot of statistics.
func (c *Controller) Stats() msgs.PeriphStats {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.stats
}

// Control implements Controller.
func (c *Controller) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		cmdMsg, ok := mctx.CurrentMessage().(*l1.CommandMsg)
		if !ok {
			return
		}
		var reply fx.Message
		switch m := cmdMsg.Command.Msg().(type) {
		case *msgs.PeriphRequest:
			reply = c.doRequest(m)
		case *msgs.PeriphListQuery:
			reply = AddressMap()
		default:
			return
		}
		mctx.MessageTaken()
		if err := cmdMsg.Command.Done(reply); err != nil {
			glog.Warningf("reply %T error: %v", reply, err)
		}
	}))
	return nil
}

func (c *Controller) doRequest(m *msgs.PeriphRequest) fx.Message {
	if m.Address > 0xff || m.Command > 0xff {
		c.lock.Lock()
		c.stats.Requests++
		c.stats.Failures++
		c.stats.LastFailure = m
		c.statsChanged = true
		c.lock.Unlock()
		return &msgs.CommandErr{
			Message: "address and command must be a byte",
			Code:    uint32(periph.ResultFailure),
		}
	}
	res, err := c.Dispatch(m.Request())
	if err != nil {
		return &msgs.CommandErr{Message: err.Error(), Code: uint32(res)}
	}
	return &msgs.PeriphResult{Result: uint32(res)}
}

func (c *Controller) notifyStatsChange(cc fx.ControlContext) error {
	c.lock.Lock()
	changed := c.statsChanged
	c.statsChanged = false
	stats := c.stats
	c.lock.Unlock()
	if changed {
		return c.Registrar.SendEvent(cc.Context(), &stats)
	}
	return nil
}

// AddressMap describes all peripherals and their command vocabularies.
func AddressMap() *msgs.PeriphList {
	list := &msgs.PeriphList{}
	for _, addr := range periph.Addresses() {
		info := &msgs.PeriphInfo{
			Address: uint32(addr),
			Name:    addr.String(),
			Kind:    addr.Kind().String(),
		}
		for _, cmd := range dispatch.Vocabulary(addr.Kind()) {
			info.Commands = append(info.Commands, &msgs.CommandInfo{
				Code:    uint32(cmd.Code),
				Name:    cmd.Name,
				Returns: cmd.Returns,
			})
		}
		list.Peripherals = append(list.Peripherals, info)
	}
	return list
}
