// The MIT License
//
// Copyright (c) 2017-2018 by the author(s)
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
//
// Author(s):
//   - Andreas Oeldemann <andreas.oeldemann@tum.de>
//
// Package coreerrors defines the typed error kinds named in the
// benchmarking core's error handling design: configuration errors are
// fatal at boot, runtime I/O errors are surfaced upstream without retry,
// and loss-of-signal is observable and policy-driven. No error kind here
// recovers silently.
package coreerrors

import "fmt"

// ConfigurationError reports an inconsistent or invalid test descriptor.
// It is fatal before any traffic starts.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// FieldValueRangeExceed is a ConfigurationError raised when a
// FieldValueRange's start/stop value cannot be represented in the field's
// bit width.
func FieldValueRangeExceed(fieldName string, bitLength int) *ConfigurationError {
	max := uint64(1) << uint(bitLength)
	return &ConfigurationError{
		Reason: fmt.Sprintf(
			"field %q range exceeds %d-bit width (max value %d)",
			fieldName, bitLength, max-1),
	}
}

// WrongModuleType is a ConfigurationError raised when a configured port's
// module turns out to be an impairment (Chimera) module, or the owning
// tester is not an L23 tester.
func WrongModuleType(what string) *ConfigurationError {
	return &ConfigurationError{
		Reason: fmt.Sprintf("unsupported module/tester type: %s", what),
	}
}

// UnsupportedCapability is a ConfigurationError raised by check_config when
// a port's requested speed, FEC mode, protocol profile, or IP properties is
// inconsistent with what the tester reports it supports.
func UnsupportedCapability(portName, capability string) *ConfigurationError {
	return &ConfigurationError{
		Reason: fmt.Sprintf("port %q does not support %s", portName, capability),
	}
}

// PacketLengthExceed reports that a MAC-learning frame is larger than the
// port's max_xmit_one_packet_length. It is fatal.
type PacketLengthExceed struct {
	Length    int
	MaxLength int
}

func (e *PacketLengthExceed) Error() string {
	return fmt.Sprintf(
		"packet length %d exceeds port maximum one-shot transmit length %d",
		e.Length, e.MaxLength)
}

// SyncTimeout reports that the toggle-port-sync preamble did not reach
// all-synced within the 30 second bound. Fatal for this run.
type SyncTimeout struct {
	PortName string
}

func (e *SyncTimeout) Error() string {
	return fmt.Sprintf("waiting for %q sync timed out", e.PortName)
}

// LossOfSignal is surfaced as a warning to the outer pipe and terminates
// the current iteration when stop_on_los is enabled; otherwise it is
// ignored by the Resource Manager's should_quit check.
type LossOfSignal struct{}

func (e *LossOfSignal) Error() string {
	return "loss of signal: a port lost sync during the run"
}

// TransportError wraps a driver RPC failure. It is not recovered locally;
// it is surfaced to the outer pipe and abandons the run.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
