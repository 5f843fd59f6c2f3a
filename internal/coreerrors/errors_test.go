package coreerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldValueRangeExceed(t *testing.T) {
	err := FieldValueRangeExceed("Dest IP Addr", 8)
	assert.Contains(t, err.Error(), "Dest IP Addr")
	assert.Contains(t, err.Error(), "255")
}

func TestTransportErrorUnwrap(t *testing.T) {
	inner := errors.New("connection reset")
	err := &TransportError{Op: "traffic.set", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "traffic.set")
}

func TestPacketLengthExceed(t *testing.T) {
	err := &PacketLengthExceed{Length: 128, MaxLength: 64}
	assert.Equal(t,
		"packet length 128 exceeds port maximum one-shot transmit length 64",
		err.Error())
}
