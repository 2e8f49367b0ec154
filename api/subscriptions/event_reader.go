// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"context"
	"math"

	ethmath "github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/hive/hive"
	"github.com/vechain/hive/logdb"
)

type eventFilter struct {
	Name    *string
	Subject *hive.Address
}

// EventMessage is an event pushed to subscribers.
type EventMessage struct {
	Name       string                   `json:"name"`
	Subject    hive.Address             `json:"subject"`
	Value      uint64                   `json:"value"`
	Amount     *ethmath.HexOrDecimal256 `json:"amount,omitempty"`
	CallNumber uint64                   `json:"callNumber"`
	CallTime   uint64                   `json:"callTime"`
	Index      uint32                   `json:"index"`
}

// eventReader reads events of the calls committed after pos, a batch of
// calls at a time, so events of one call are never split between reads.
type eventReader struct {
	logDB  *logdb.LogDB
	head   func() uint64
	pos    uint64
	filter *eventFilter
}

func newEventReader(logDB *logdb.LogDB, head func() uint64, pos uint64, filter *eventFilter) *eventReader {
	return &eventReader{
		logDB:  logDB,
		head:   head,
		pos:    pos,
		filter: filter,
	}
}

func (er *eventReader) Read() ([]any, bool, error) {
	head := min(er.head(), math.MaxInt64)
	if er.pos >= head {
		return nil, false, nil
	}
	to := min(er.pos+readBatch, head)

	filter := &logdb.EventFilter{
		Range: &logdb.Range{Unit: logdb.Call, From: er.pos + 1, To: to},
	}
	if er.filter.Name != nil || er.filter.Subject != nil {
		filter.CriteriaSet = []*logdb.EventCriteria{{Name: er.filter.Name, Subject: er.filter.Subject}}
	}
	events, err := er.logDB.FilterEvents(context.Background(), filter)
	if err != nil {
		return nil, false, err
	}

	msgs := make([]any, 0, len(events))
	for _, e := range events {
		msgs = append(msgs, &EventMessage{
			Name:       e.Name,
			Subject:    e.Subject,
			Value:      e.Value,
			Amount:     (*ethmath.HexOrDecimal256)(e.Amount),
			CallNumber: e.CallNumber,
			CallTime:   e.CallTime,
			Index:      e.Index,
		})
	}
	er.pos = to
	return msgs, to < head, nil
}
