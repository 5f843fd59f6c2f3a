package driver

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetTrafficRequestEnvelope(t *testing.T) {
	p := &Port{Pair: ModulePortPair{ModuleIndex: 0, PortIndex: 1}}
	req := p.SetTrafficRequest(true)
	assert.Equal(t, "port.traffic.set", req.Op)

	data, err := json.Marshal(req)
	require.NoError(t, err)

	var decoded struct {
		Op   string `json:"op"`
		Args struct {
			Pair ModulePortPair `json:"pair"`
			Args struct {
				On bool `json:"on"`
			} `json:"args"`
		} `json:"args"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 0, decoded.Args.Pair.ModuleIndex)
	assert.Equal(t, 1, decoded.Args.Pair.PortIndex)
	assert.True(t, decoded.Args.Args.On)
}

func TestStreamModifierRequestsAddressSlot(t *testing.T) {
	p := &Port{Pair: ModulePortPair{ModuleIndex: 2, PortIndex: 3}}
	s := &Stream{Port: p, StreamID: 7}

	req := s.SetModifierSpecRequest(0, 42, "0xFFFF0000", "INC", 1)
	assert.Equal(t, "stream.modifier.spec.set", req.Op)

	data, err := json.Marshal(req)
	require.NoError(t, err)

	var decoded struct {
		Args struct {
			Pair     ModulePortPair `json:"pair"`
			StreamID int            `json:"streamId"`
		} `json:"args"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 7, decoded.Args.StreamID)
	assert.Equal(t, 2, decoded.Args.Pair.ModuleIndex)
}
