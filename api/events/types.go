// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"fmt"
	"math"

	ethmath "github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/hive/hive"
	"github.com/vechain/hive/logdb"
)

type EventCriteria struct {
	Name    *string       `json:"name"`
	Subject *hive.Address `json:"subject"`
}

type Range struct {
	Unit logdb.RangeType `json:"unit"`
	From *uint64         `json:"from,omitempty"`
	To   *uint64         `json:"to,omitempty"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type EventFilter struct {
	CriteriaSet []*EventCriteria `json:"criteriaSet"`
	Range       *Range           `json:"range"`
	Options     *Options         `json:"options"`
	Order       logdb.Order      `json:"order"`
}

type Meta struct {
	CallNumber uint64 `json:"callNumber"`
	CallTime   uint64 `json:"callTime"`
	Index      uint32 `json:"index"`
}

// FilteredEvent is a stored pool event.
type FilteredEvent struct {
	Name    string                   `json:"name"`
	Subject hive.Address             `json:"subject"`
	Value   uint64                   `json:"value"`
	Amount  *ethmath.HexOrDecimal256 `json:"amount,omitempty"`
	Meta    Meta                     `json:"meta"`
}

func convertEvent(e *logdb.Event) *FilteredEvent {
	return &FilteredEvent{
		Name:    e.Name,
		Subject: e.Subject,
		Value:   e.Value,
		Amount:  (*ethmath.HexOrDecimal256)(e.Amount),
		Meta: Meta{
			CallNumber: e.CallNumber,
			CallTime:   e.CallTime,
			Index:      e.Index,
		},
	}
}

// convertRange fills in open bounds. sqlite integers are signed, so bounds
// are capped at math.MaxInt64.
func convertRange(r *Range) (*logdb.Range, error) {
	if r == nil {
		return nil, nil
	}
	unit := r.Unit
	switch unit {
	case "":
		unit = logdb.Call
	case logdb.Call, logdb.Time:
	default:
		return nil, fmt.Errorf("range.unit: unsupported %q", r.Unit)
	}
	out := &logdb.Range{Unit: unit, To: math.MaxInt64}
	if r.From != nil {
		out.From = min(*r.From, math.MaxInt64)
	}
	if r.To != nil {
		out.To = min(*r.To, math.MaxInt64)
	}
	if out.From > out.To {
		return nil, fmt.Errorf("range.to must be greater than or equal to range.from")
	}
	return out, nil
}

func convertEventFilter(f *EventFilter) (*logdb.EventFilter, error) {
	rng, err := convertRange(f.Range)
	if err != nil {
		return nil, err
	}
	switch f.Order {
	case "", logdb.ASC, logdb.DESC:
	default:
		return nil, fmt.Errorf("order: unsupported %q", f.Order)
	}
	filter := &logdb.EventFilter{
		Range: rng,
		Order: f.Order,
	}
	for i, c := range f.CriteriaSet {
		if c == nil {
			return nil, fmt.Errorf("criteriaSet[%d]: null not allowed", i)
		}
		filter.CriteriaSet = append(filter.CriteriaSet, &logdb.EventCriteria{Name: c.Name, Subject: c.Subject})
	}
	if f.Options != nil {
		filter.Options = &logdb.Options{Offset: f.Options.Offset, Limit: f.Options.Limit}
	}
	return filter, nil
}
