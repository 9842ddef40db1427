package dispatch

import "github.com/robotalks/perictl/pkg/periph"

// Commands shared by all peripherals.
const (
	CmdStart periph.Command = 0x00
	CmdStop  periph.Command = 0x01
	CmdRead  periph.Command = 0x0d
)

// ADC commands.
const (
	ADCStartConvert    periph.Command = 0x02
	ADCStopConvert     periph.Command = 0x03
	ADCSelectConfig    periph.Command = 0x04
	ADCIsEndConversion periph.Command = 0x05
	ADCSetOffset       periph.Command = 0x06
	ADCSetGain         periph.Command = 0x07
	ADCReadMillivolts  periph.Command = 0x0e
)

// VDAC and IDAC commands.
const (
	DACSetValue     periph.Command = 0x02
	DACSetRange     periph.Command = 0x03
	VDACSetSpeed    periph.Command = 0x04
	IDACSetPolarity periph.Command = 0x04
)

// WaveDAC commands.
const (
	WaveSelect          periph.Command = 0x02
	WaveSetClockDivider periph.Command = 0x03
	// WaveRegenerate data is shape<<8 | amplitude, amplitude 0 means full scale.
	WaveRegenerate periph.Command = 0x04
)

// PWM commands.
const (
	PWMWritePeriod  periph.Command = 0x02
	PWMWriteCompare periph.Command = 0x03
	PWMWriteCounter periph.Command = 0x04
	PWMReadPeriod   periph.Command = 0x0e
	PWMReadCompare  periph.Command = 0x0f
)

// Digital input commands.
const (
	DigInSetInterruptMask periph.Command = 0x02
	DigInClearInterrupt   periph.Command = 0x03
)

// Digital output commands.
const (
	DigOutWrite     periph.Command = 0x02
	DigOutSetBits   periph.Command = 0x03
	DigOutClearBits periph.Command = 0x04
)

// CommandInfo describes a command in a vocabulary.
type CommandInfo struct {
	Code    periph.Command
	Name    string
	Returns bool
}

var common = []CommandInfo{
	{CmdStart, "start", false},
	{CmdStop, "stop", false},
}

var vocabularies = map[periph.Kind][]CommandInfo{
	periph.KindADC: {
		{ADCStartConvert, "start_convert", false},
		{ADCStopConvert, "stop_convert", false},
		{ADCSelectConfig, "select_config", false},
		{ADCIsEndConversion, "is_end_conversion", true},
		{ADCSetOffset, "set_offset", false},
		{ADCSetGain, "set_gain", false},
		{CmdRead, "read", true},
		{ADCReadMillivolts, "read_mv", true},
	},
	periph.KindVDAC: {
		{DACSetValue, "set_value", false},
		{DACSetRange, "set_range", false},
		{VDACSetSpeed, "set_speed", false},
		{CmdRead, "read", true},
	},
	periph.KindIDAC: {
		{DACSetValue, "set_value", false},
		{DACSetRange, "set_range", false},
		{IDACSetPolarity, "set_polarity", false},
		{CmdRead, "read", true},
	},
	periph.KindWaveDAC: {
		{WaveSelect, "select", false},
		{WaveRegenerate, "regenerate", false},
		{WaveSetClockDivider, "set_clock_divider", false},
		{CmdRead, "read", true},
	},
	periph.KindPWM: {
		{PWMWritePeriod, "write_period", false},
		{PWMWriteCompare, "write_compare", false},
		{PWMWriteCounter, "write_counter", false},
		{CmdRead, "read", true},
		{PWMReadPeriod, "read_period", true},
		{PWMReadCompare, "read_compare", true},
	},
	periph.KindDigitalIn: {
		{DigInSetInterruptMask, "set_interrupt_mask", false},
		{DigInClearInterrupt, "clear_interrupt", true},
		{CmdRead, "read", true},
	},
	periph.KindDigitalOut: {
		{DigOutWrite, "write", false},
		{DigOutSetBits, "set_bits", false},
		{DigOutClearBits, "clear_bits", false},
		{CmdRead, "read", true},
	},
}

// Vocabulary lists the commands recognized by a kind of peripheral.
func Vocabulary(kind periph.Kind) []CommandInfo {
	cmds, ok := vocabularies[kind]
	if !ok {
		return nil
	}
	return append(append([]CommandInfo(nil), common...), cmds...)
}

// LookupCommand finds a command of a kind by name.
func LookupCommand(kind periph.Kind, name string) (CommandInfo, bool) {
	for _, info := range Vocabulary(kind) {
		if info.Name == name {
			return info, true
		}
	}
	return CommandInfo{}, false
}
