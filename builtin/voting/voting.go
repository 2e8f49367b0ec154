// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package voting

import (
	"github.com/pkg/errors"

	"github.com/vechain/hive/builtin/pool/reverts"
	"github.com/vechain/hive/builtin/solidity"
	"github.com/vechain/hive/hive"
	"github.com/vechain/hive/log"
	"github.com/vechain/hive/state"
)

var (
	logger    = log.WithContext("pkg", "voting")
	slotVotes = hive.BytesToBytes32([]byte("votes"))
)

// Voting records the candidate each account votes for.
type Voting struct {
	votes *solidity.Mapping[hive.Address, hive.Candidate]
}

func New(addr hive.Address, state *state.State) *Voting {
	return &Voting{
		votes: solidity.NewMapping[hive.Address, hive.Candidate](solidity.NewContext(addr, state), slotVotes),
	}
}

// Vote sets the candidate of voter. Voting for the current candidate again is a no-op.
func (v *Voting) Vote(voter hive.Address, candidate hive.Candidate) error {
	if err := candidate.Validate(); err != nil {
		return reverts.Newf(reverts.InvalidArgument, "invalid candidate: %v", err)
	}
	if err := v.votes.Set(voter, candidate); err != nil {
		return errors.Wrap(err, "failed to set vote")
	}
	logger.Debug("voted", "voter", voter, "candidate", candidate)
	return nil
}

// VoteOf returns the candidate of voter, zero if it never voted.
func (v *Voting) VoteOf(voter hive.Address) (hive.Candidate, error) {
	c, err := v.votes.Get(voter)
	if err != nil {
		return hive.Candidate{}, errors.Wrap(err, "failed to get vote")
	}
	return c, nil
}
