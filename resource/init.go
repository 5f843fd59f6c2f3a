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
package resource

import "context"

// LearningHook runs the step 10 MAC-learning preamble (spec §4.1 step 10,
// "add_mac_learning_steps(ONCE)"). It lives outside this package because
// it belongs to the learning package, which depends on resource rather
// than the reverse; InitResource calls it as the pipeline's last step so
// resource stays free of a dependency on learning.
type LearningHook func(ctx context.Context, rm *ResourceManager) error

// InitResource runs the idempotent preparation pipeline described in spec
// §4.1: connect to every chassis, resolve peer topology, validate
// capabilities, build the chassis->(module,port) mapping, reset and
// reconfigure every port, run the optional toggle-port-sync preamble,
// allocate streams, then hand off to the MAC-learning hook.
func (rm *ResourceManager) InitResource(ctx context.Context, learningOnce LearningHook) error {
	steps := []func(context.Context) error{
		rm.CollectControlPorts,
		func(ctx context.Context) error { rm.ResolvePortRelations(); return nil },
		func(ctx context.Context) error { return rm.CheckConfig() },
		func(ctx context.Context) error { rm.BuildMap(); return nil },
		rm.StopTrafficAndReset,
		rm.SetupPorts,
		rm.SetupSweepReduction,
		rm.TogglePortSync,
		rm.SetupStreams,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	if learningOnce != nil {
		return learningOnce(ctx, rm)
	}
	return nil
}
