// Copyright 2024 The mazze-core Authors
// This file is part of the mazze-core library.
//
// The mazze-core library is free software: you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// The mazze-core library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the mazze-core library. If not, see <http://www.gnu.org/licenses/>.

package execution

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/mazzelabs/mazze-core/internal/types"
)

// jsTracer wraps a user-supplied JS tracer script in a goja VM,
// mirroring geth's eth/tracers/js hook shape (step()/result()
// callbacks driven from Go, state inspection pushed in as plain JS
// objects) rather than a from-scratch tracing DSL.
type jsTracer struct {
	vm       *goja.Runtime
	onTx     goja.Callable
	resultFn goja.Callable
}

func newJSTracer(script string) (*jsTracer, error) {
	vm := goja.New()
	if _, err := vm.RunString(fmt.Sprintf("var tracer = (function() { %s })();", script)); err != nil {
		return nil, err
	}

	tracerObj := vm.Get("tracer")
	obj := tracerObj.ToObject(vm)

	t := &jsTracer{vm: vm}
	if fn, ok := goja.AssertFunction(obj.Get("step")); ok {
		t.onTx = fn
	}
	if fn, ok := goja.AssertFunction(obj.Get("result")); ok {
		t.resultFn = fn
	}
	return t, nil
}

func (t *jsTracer) onTxStart(tx *types.Transaction) {
	if t.onTx == nil {
		return
	}
	_, _ = t.onTx(goja.Undefined(), t.vm.ToValue(map[string]interface{}{
		"hash":     tx.Hash.Hex(),
		"gasPrice": tx.GasPrice,
		"gasLimit": tx.GasLimit,
	}))
}

func (jt *jsTracer) result() (interface{}, error) {
	if jt.resultFn == nil {
		return nil, nil
	}
	v, err := jt.resultFn(goja.Undefined())
	if err != nil {
		return nil, err
	}
	return v.Export(), nil
}
