package sim

// PWMConfig is the configuration owned by a simulated PWM.
type PWMConfig struct {
	Period  uint16
	Compare uint16
}

// PWM simulates a down-counting PWM. The output is high while the
// counter is below the compare value. The counter freezes when stopped.
type PWM struct {
	device
	Config PWMConfig

	counter uint16
}

// Defaults of a simulated PWM.
const (
	DefaultPWMPeriod  uint16 = 255
	DefaultPWMCompare uint16 = 127
)

func newPWM(dev device) *PWM {
	return &PWM{
		device:  dev,
		Config:  PWMConfig{Period: DefaultPWMPeriod, Compare: DefaultPWMCompare},
		counter: DefaultPWMPeriod,
	}
}

// Start implements periph.PWM.
func (p *PWM) Start() error {
	return p.switchTo("start", StateActive)
}

// WritePeriod implements periph.PWM.
func (p *PWM) WritePeriod(period uint16) error {
	return p.write("write_period", &p.Config.Period, period)
}

// WriteCompare implements periph.PWM.
func (p *PWM) WriteCompare(compare uint16) error {
	return p.write("write_compare", &p.Config.Compare, compare)
}

// WriteCounter implements periph.PWM.
func (p *PWM) WriteCounter(counter uint16) error {
	return p.write("write_counter", &p.counter, counter)
}

// ReadPeriod implements periph.PWM.
func (p *PWM) ReadPeriod() uint16 {
	return p.read("read_period", &p.Config.Period)
}

// ReadCompare implements periph.PWM.
func (p *PWM) ReadCompare() uint16 {
	return p.read("read_compare", &p.Config.Compare)
}

// ReadCounter implements periph.PWM.
func (p *PWM) ReadCounter() uint16 {
	return p.read("read_counter", &p.counter)
}

// Output reports the level of the PWM output.
func (p *PWM) Output() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.state == StateActive && p.counter < p.Config.Compare
}

func (p *PWM) write(name string, reg *uint16, v uint16) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	*reg = v
	p.record(name, uint32(v))
	return nil
}

func (p *PWM) read(name string, reg *uint16) uint16 {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.record(name, uint32(*reg))
	return *reg
}

func (p *PWM) tick() {
	if p.state != StateActive {
		return
	}
	if p.counter == 0 {
		p.counter = p.Config.Period
	} else {
		p.counter--
	}
}
