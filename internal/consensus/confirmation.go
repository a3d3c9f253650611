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

package consensus

import "math/big"

// ConfirmationMeter tracks accumulated main-chain weight since the last
// checkpoint (or genesis), the quantity RPC's get_confirmation_risk
// surface reads and checkpoint formation resets (spec §4.2
// "resets the confirmation meter with G's subtree weight").
type ConfirmationMeter struct {
	accumulated *big.Int
}

func newConfirmationMeter() *ConfirmationMeter {
	return &ConfirmationMeter{accumulated: new(big.Int)}
}

func (m *ConfirmationMeter) onExtend(blockWeight *big.Int) {
	m.accumulated.Add(m.accumulated, blockWeight)
}

// reset re-anchors the meter at a new checkpoint or at genesis,
// discarding everything accumulated before it.
func (m *ConfirmationMeter) reset(genesisWeight *big.Int) {
	m.accumulated = new(big.Int).Set(genesisWeight)
}

// Accumulated returns the total main-chain weight since the last reset.
func (m *ConfirmationMeter) Accumulated() *big.Int {
	return new(big.Int).Set(m.accumulated)
}

// AccumulatedWeight exposes the confirmation meter's current value to
// callers outside this package (RPC's mazze_getConfirmationRiskByHash and
// the like).
func (g *Graph) AccumulatedWeight() *big.Int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.confirm.Accumulated()
}
