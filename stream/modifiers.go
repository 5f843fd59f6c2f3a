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
package stream

import (
	"github.com/xenadevel/rfc2544-core/internal/driver"
	"github.com/xenadevel/rfc2544-core/model"
)

// modifierActionWire maps a model.ModifierActionOption to the driver's
// wire-level action keyword.
func modifierActionWire(a model.ModifierActionOption) string {
	switch a {
	case model.ActionDEC:
		return "DEC"
	case model.ActionRANDOM:
		return "RANDOM"
	default:
		return "INC"
	}
}

// syntheticDstMACModifier builds the injected "Dst MAC addr" modifier used
// by modifier-based flow creation: one tx stream encodes many logical flows
// by sweeping the destination MAC across the port's allocated range (spec
// §4.2.2).
func syntheticDstMACModifier(rangeStart, rangeStop int) model.HwModifier {
	return model.NewHwModifier("Dst MAC addr", "00FF", model.ActionINC, rangeStart, rangeStop, 1)
}

// ResolveModifiers returns the hardware modifiers to program for this
// stream: the profile's own modifiers for stream-based flow creation, or
// the profile's modifiers plus a synthetic Dst-MAC sweep for modifier-based
// flow creation (spec §4.2.2).
func ResolveModifiers(profile *model.ProtocolSegmentProfile, flowCreation model.FlowCreationType, modifierRangeStart, modifierRangeStop int) []model.HwModifier {
	var mods []model.HwModifier
	for _, seg := range profile.HeaderSegments {
		mods = append(mods, seg.HwModifiers...)
	}
	if !flowCreation.IsStreamBased() {
		mods = append(mods, syntheticDstMACModifier(modifierRangeStart, modifierRangeStop))
	}
	return mods
}

// ProgramModifierRequests builds the batched request set that sizes the
// stream's modifier table and programs each slot's (position, mask,
// action, repetition) and (min, step, max), per spec §4.2.2 "All updates
// are batched."
func ProgramModifierRequests(s *driver.Stream, mods []model.HwModifier) []driver.Request {
	if len(mods) == 0 {
		return nil
	}
	reqs := make([]driver.Request, 0, 1+2*len(mods))
	reqs = append(reqs, s.ConfigureModifiersRequest(len(mods)))
	for slot, mod := range mods {
		reqs = append(reqs, s.SetModifierSpecRequest(slot, mod.Position, mod.Mask, modifierActionWire(mod.Action), mod.RepeatCount))
		reqs = append(reqs, s.SetModifierRangeRequest(slot, mod.Start, mod.Step, mod.Stop))
	}
	return reqs
}
