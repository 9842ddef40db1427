package periph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/perictl/pkg/l0/dispatch"
	"github.com/robotalks/perictl/pkg/led"
	"github.com/robotalks/perictl/pkg/periph"
)

func TestParseRequest(t *testing.T) {
	cases := []struct {
		args []string
		req  periph.Request
	}{
		{[]string{"PWM_0", "write_period", "1000"}, periph.Request{Address: periph.AddrPWM0, Command: dispatch.PWMWritePeriod, Data: 1000}},
		{[]string{"0x12", "write", "0x5a"}, periph.Request{Address: periph.AddrDigOut0, Command: dispatch.DigOutWrite, Data: 0x5a}},
		{[]string{"ADC_DelSig", "READ_MV"}, periph.Request{Address: periph.AddrADCDelSig, Command: dispatch.ADCReadMillivolts}},
		{[]string{"VDAC8_1", "2", "7"}, periph.Request{Address: periph.AddrVDAC1, Command: dispatch.DACSetValue, Data: 7}},
		{[]string{"0x42", "0x0c"}, periph.Request{Address: 0x42, Command: 0x0c}},
	}
	for _, c := range cases {
		req, err := ParseRequest(c.args)
		require.NoError(t, err, c.args)
		require.Equal(t, c.req, req, c.args)
	}
}

func TestParseRequestErrors(t *testing.T) {
	cases := [][]string{
		{"PWM_0"},
		{"PWM_9", "start"},
		{"0x100", "start"},
		{"PWM_0", "write"},
		{"PWM_0", "start", "0x10000"},
		{"PWM_0", "start", "x"},
	}
	for _, args := range cases {
		_, err := ParseRequest(args)
		require.Error(t, err, args)
	}
}

func TestParseKind(t *testing.T) {
	addr, err := parseKind("DigOut_1", periph.KindDigitalOut)
	require.NoError(t, err)
	require.Equal(t, periph.AddrDigOut1, addr)
	_, err = parseKind("DigIn_1", periph.KindDigitalOut)
	require.Error(t, err)
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("Green")
	require.NoError(t, err)
	require.Equal(t, led.Green, c)
	c, err = ParseColor("3")
	require.NoError(t, err)
	require.Equal(t, led.Blue, c)
	_, err = ParseColor("purple")
	require.Error(t, err)
}
