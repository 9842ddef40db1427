package sh

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/perictl/pkg/l1"
	"github.com/robotalks/perictl/pkg/l1/msgs"
)

func TestFormatInfo(t *testing.T) {
	info := l1.ControllerInfo{Ref: l1.ControllerRef{Type: "perictl", ID: "abc"}}
	require.Equal(t, "perictl/abc", FormatInfo(info))
	info.Meta.Backend = "sim"
	info.Meta.Description = "bench"
	require.Equal(t, "perictl/abc [sim]: bench", FormatInfo(info))
}

func TestFormatMsg(t *testing.T) {
	require.Equal(t, "OK", FormatMsg(msgs.NewCommandOK()))
	require.Equal(t, "0x0000002a (42)", FormatMsg(&msgs.PeriphResult{Result: 42}))
	require.Equal(t, "requests=3 failures=0", FormatMsg(&msgs.PeriphStats{Requests: 3}))
	require.Contains(t, FormatMsg(&msgs.CommandErr{Message: "bad"}), "CommandErr")
}
