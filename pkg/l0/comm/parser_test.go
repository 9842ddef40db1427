package comm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/perictl/pkg/periph"
)

func parseAll(p *FrameParser, in ...byte) (reqs []periph.Request, last ParseResult) {
	for _, b := range in {
		last = p.Parse(b)
		if last.Request != nil {
			reqs = append(reqs, *last.Request)
		}
	}
	return
}

func TestParser(t *testing.T) {
	testCases := []struct {
		name   string
		in     []byte
		expect []periph.Request
		recv   bool
	}{
		{
			name:   "single frame",
			in:     []byte{0x00, 0x0d, 0x00, 0x00},
			expect: []periph.Request{{Address: 0x00, Command: 0x0d}},
		},
		{
			name: "back to back",
			in:   []byte{0x12, 0x02, 0x00, 0xff, 0x08, 0x02, 0x12, 0x34},
			expect: []periph.Request{
				{Address: 0x12, Command: 0x02, Data: 0xff},
				{Address: 0x08, Command: 0x02, Data: 0x1234},
			},
		},
		{
			name: "partial",
			in:   []byte{0x07, 0x04, 0x01},
			recv: true,
		},
		{
			name:   "unassigned address still assembles",
			in:     []byte{0xff, 0xff, 0xff, 0xff},
			expect: []periph.Request{{Address: 0xff, Command: 0xff, Data: 0xffff}},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var p FrameParser
			reqs, last := parseAll(&p, tc.in...)
			require.Equal(t, tc.expect, reqs)
			require.Equal(t, tc.recv, last.Receiving)
			require.Equal(t, tc.recv, p.Receiving())
			if tc.recv {
				require.Equal(t, TimerRestart, last.WhatAboutTimer())
			} else {
				require.Equal(t, TimerStop, last.WhatAboutTimer())
			}
		})
	}
}

func TestParserTimeout(t *testing.T) {
	var p FrameParser
	_, last := parseAll(&p, 0x05, 0x02)
	require.True(t, last.Receiving)
	pr := p.Timeout()
	require.Equal(t, 2, pr.Discarded)
	require.False(t, pr.Receiving)
	require.Equal(t, TimerStop, pr.WhatAboutTimer())

	reqs, _ := parseAll(&p, 0x05, 0x02, 0x00, 0x80)
	require.Equal(t, []periph.Request{{Address: 0x05, Command: 0x02, Data: 0x80}}, reqs)
	require.Zero(t, p.Timeout().Discarded)
}
