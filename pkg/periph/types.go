// Package periph defines the peripheral address space, the request/result
// data model and the driver capabilities of the controller.
package periph

import "fmt"

// Address identifies a peripheral instance.
type Address byte

// Command is an opcode meaningful only within the namespace of an Address.
type Command byte

// Result is the word returned from a dispatched Request.
type Result uint32

// Request is a single (address, command, data) dispatch unit.
type Request struct {
	Address Address
	Command Command
	Data    uint32
}

// String implements fmt.Stringer.
func (r Request) String() string {
	return fmt.Sprintf("%s[%02x](%#x)", r.Address, byte(r.Command), r.Data)
}

// Dispatcher executes requests.
type Dispatcher interface {
	Dispatch(Request) (Result, error)
}

// Result sentinels.
const (
	// ResultNone is returned by commands without a return value.
	ResultNone Result = 0
	// ResultFailure is returned when a request can't be executed.
	ResultFailure Result = 0xffffffff
)

// Kind is the type of a peripheral.
type Kind int

// Peripheral kinds.
const (
	KindNone Kind = iota
	KindADC
	KindVDAC
	KindIDAC
	KindWaveDAC
	KindPWM
	KindDigitalIn
	KindDigitalOut
)

var kindNames = [...]string{
	KindNone:       "none",
	KindADC:        "adc",
	KindVDAC:       "vdac",
	KindIDAC:       "idac",
	KindWaveDAC:    "wavedac",
	KindPWM:        "pwm",
	KindDigitalIn:  "din",
	KindDigitalOut: "dout",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Address map. The numeric assignment is part of the wire contract.
const (
	AddrADCDelSig Address = 0x00
	AddrADCSAR0   Address = 0x01
	AddrADCSAR1   Address = 0x02
	AddrVDAC0     Address = 0x03
	AddrVDAC1     Address = 0x04
	AddrIDAC0     Address = 0x05
	AddrIDAC1     Address = 0x06
	AddrWaveDAC   Address = 0x07
	AddrPWM0      Address = 0x08
	AddrPWM7      Address = 0x0f
	AddrDigIn0    Address = 0x10
	AddrDigIn1    Address = 0x11
	AddrDigOut0   Address = 0x12
	AddrDigOut1   Address = 0x13

	// AddrCount is the number of assigned addresses.
	AddrCount = int(AddrDigOut1) + 1
)

// Number of instances per kind.
const (
	NumADC     = 3
	NumVDAC    = 2
	NumIDAC    = 2
	NumPWM     = 8
	NumDigIn   = 2
	NumDigOut  = 2
	NumWaveDAC = 1
)

type addrInfo struct {
	name  string
	kind  Kind
	index int
}

var addrMap = [AddrCount]addrInfo{
	{"ADC_DelSig", KindADC, 0},
	{"ADC_SAR_0", KindADC, 1},
	{"ADC_SAR_1", KindADC, 2},
	{"VDAC8_0", KindVDAC, 0},
	{"VDAC8_1", KindVDAC, 1},
	{"IDAC8_0", KindIDAC, 0},
	{"IDAC8_1", KindIDAC, 1},
	{"WaveDAC8", KindWaveDAC, 0},
	{"PWM_0", KindPWM, 0},
	{"PWM_1", KindPWM, 1},
	{"PWM_2", KindPWM, 2},
	{"PWM_3", KindPWM, 3},
	{"PWM_4", KindPWM, 4},
	{"PWM_5", KindPWM, 5},
	{"PWM_6", KindPWM, 6},
	{"PWM_7", KindPWM, 7},
	{"DigIn_0", KindDigitalIn, 0},
	{"DigIn_1", KindDigitalIn, 1},
	{"DigOut_0", KindDigitalOut, 0},
	{"DigOut_1", KindDigitalOut, 1},
}

// IsAssigned indicates the address is part of the address map.
func (a Address) IsAssigned() bool {
	return int(a) < AddrCount
}

// Kind gets the kind of the peripheral at the address.
func (a Address) Kind() Kind {
	if !a.IsAssigned() {
		return KindNone
	}
	return addrMap[a].kind
}

// Index gets the instance index of the peripheral within its kind.
func (a Address) Index() int {
	if !a.IsAssigned() {
		return -1
	}
	return addrMap[a].index
}

// String implements fmt.Stringer.
func (a Address) String() string {
	if !a.IsAssigned() {
		return fmt.Sprintf("addr(0x%02x)", byte(a))
	}
	return addrMap[a].name
}

// Addresses lists all assigned addresses in order.
func Addresses() []Address {
	addrs := make([]Address, AddrCount)
	for n := range addrs {
		addrs[n] = Address(n)
	}
	return addrs
}

// ParseAddress finds the address by peripheral name.
func ParseAddress(name string) (Address, bool) {
	for n, info := range addrMap {
		if info.name == name {
			return Address(n), true
		}
	}
	return 0, false
}
