// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"math/big"

	"github.com/vechain/hive/hive"
)

// Event is a pool event as stored in the db.
type Event struct {
	CallNumber uint64 // sequence number of the call that emitted it
	Index      uint32 // position within the call
	CallTime   uint64
	Name       string
	Subject    hive.Address
	Value      uint64
	Amount     *big.Int
}

type RangeType string

const (
	Call RangeType = "call"
	Time RangeType = "time"
)

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

type Range struct {
	Unit RangeType
	From uint64
	To   uint64
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// EventCriteria matches events by name and/or subject. Criteria in a set are OR'ed.
type EventCriteria struct {
	Name    *string
	Subject *hive.Address
}

type EventFilter struct {
	CriteriaSet []*EventCriteria
	Range       *Range
	Options     *Options
	Order       Order // default asc
}
