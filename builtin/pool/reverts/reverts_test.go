// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := Newf(InsufficientFunds, "need %d", 3)
	assert.Equal(t, "need 3", err.Error())
	assert.Equal(t, InsufficientFunds, err.Kind())

	wrapped := errors.Wrap(err, "withdraw")
	assert.Equal(t, InsufficientFunds, KindOf(wrapped))
	assert.True(t, IsRevertErr(wrapped))

	assert.Equal(t, Unknown, KindOf(errors.New("io")))
	assert.False(t, IsRevertErr(errors.New("io")))
	assert.False(t, IsRevertErr(nil))
	assert.False(t, IsRevertErr("not an error"))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "unauthorized", Unauthorized.String())
	assert.Equal(t, "precondition failed", PreconditionFailed.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
