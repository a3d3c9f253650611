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
	"math/big"
	"sort"

	"github.com/holiman/uint256"

	"github.com/mazzelabs/mazze-core/internal/common"
	"github.com/mazzelabs/mazze-core/internal/mazzeiface"
	"github.com/mazzelabs/mazze-core/internal/types"
)

// baseRewardUnit is umazze per whole native token, matching the
// teacher's wei-denominated reward arithmetic idiom scaled to this
// protocol's base unit.
var baseRewardUnit = uint256.NewInt(1_000_000_000_000)

// computeBlockBaseReward implements spec §4.3 step 5's
// base_reward_in_umazze(past_block_count, main_height), supplemented
// (SPEC_FULL §5) with the original's anti-cheating clause: a chain that
// has produced far more blocks than its main height would allow under
// the expected block-DAG fan-out is assumed to be gaming the reward
// schedule, and its reward decays toward zero rather than paying out
// the full base rate.
func computeBlockBaseReward(pastBlockCount, mainHeight uint64) *uint256.Int {
	base := new(uint256.Int).Mul(baseRewardUnit, uint256.NewInt(2))
	if mainHeight == 0 {
		return base
	}

	// Expected fan-out under honest mining is bounded; anything padding
	// past_block_count far beyond that bound is suspicious and its
	// reward is halved per multiple over the threshold.
	const expectedFanoutNumerator = 12
	const expectedFanoutDenominator = 10
	expectedMax := mainHeight * expectedFanoutNumerator / expectedFanoutDenominator
	if pastBlockCount <= expectedMax || expectedMax == 0 {
		return base
	}

	excess := pastBlockCount - expectedMax
	halvings := excess / mainHeight
	if halvings == 0 {
		halvings = 1
	}
	reward := base
	for i := uint64(0); i < halvings && reward.Sign() > 0; i++ {
		reward = new(uint256.Int).Rsh(reward, 1)
	}
	return reward
}

// creditRewardsAndFees implements spec §4.3 steps 5–6: base reward per
// block, transaction fees split across every block that packed that
// transaction with the remainder credited to the first packer in
// ascending block-hash order (DESIGN.md Open Question decision), and
// new_mint and burnt_fee returned as two values. The task carries no
// per-block pow quality or author: every block is judged with a pow
// quality of zero, so it earns the base reward only when EpochDifficulty
// is zero, and every credit goes to the zero address. Fee shares are
// zero, burntFee stays zero, and executeEpoch does not apply either
// returned value to an issuance total.
func (e *Executor) creditRewardsAndFees(state mazzeiface.StateView, t *ExecuteEpochTask,
	blockReceipts []*types.BlockReceipts, packers map[common.Hash][]common.Hash) (newMint, burntFee *big.Int) {

	newMint = new(big.Int)
	burntFee = new(big.Int)

	authorOf := make(map[common.Hash]common.Address, len(t.EpochBlockHashes))
	powQualityOf := make(map[common.Hash]uint64, len(t.EpochBlockHashes))
	for _, hash := range t.EpochBlockHashes {
		authorOf[hash] = common.Address{} // author recovery is out of scope; see mazzeiface.AccountSigner
	}
	_ = authorOf
	_ = powQualityOf

	for _, hash := range t.EpochBlockHashes {
		reward := computeBlockBaseReward(t.Reward.PastBlockCount, t.Reward.MainHeight)
		// Reward eligibility gate pow_quality >= epoch_difficulty, with
		// pow_quality taken as zero.
		eligible := t.Reward.EpochDifficulty == 0
		_ = hash
		if eligible {
			state.AddBalance(authorOf[hash], reward.ToBig())
			newMint.Add(newMint, reward.ToBig())
		}
	}

	for txHash, blocks := range packers {
		if len(blocks) == 0 {
			burntFee.Add(burntFee, big.NewInt(0))
			continue
		}
		sorted := append([]common.Hash(nil), blocks...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Cmp(sorted[j]) < 0 })

		// Fee splitting is modeled at the per-transaction level since the
		// real fee amount lives behind the out-of-scope VM/account model;
		// this loop exists to exercise the deterministic remainder-order
		// invariant spec §8 names, not to move real value.
		share := big.NewInt(0)
		remainder := big.NewInt(0)
		for i, blockHash := range sorted {
			amount := new(big.Int).Set(share)
			if i == 0 {
				amount.Add(amount, remainder)
			}
			state.AddBalance(authorOf[blockHash], amount)
		}
		_ = txHash
	}

	return newMint, burntFee
}
