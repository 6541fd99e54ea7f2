// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sorters

import (
	"math/big"
	"sort"

	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
)

// DelegateRanking implements sort.Interface to allow a slice of delegate
// wallets to be sorted by forging rank: vote balance descending, ties
// broken by public key ascending.
type DelegateRanking []*externalapi.Wallet

// Len returns the number of delegates in the slice. It is part of the
// sort.Interface implementation.
func (s DelegateRanking) Len() int {
	return len(s)
}

// Swap swaps the delegates at the passed indices. It is part of the
// sort.Interface implementation.
func (s DelegateRanking) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

// Less returns whether the delegate with index i should rank before the
// delegate with index j. It is part of the sort.Interface implementation.
func (s DelegateRanking) Less(i, j int) bool {
	cmp := voteBalance(s[i]).Cmp(voteBalance(s[j]))
	if cmp != 0 {
		return cmp > 0
	}
	return s[i].PublicKey < s[j].PublicKey
}

// Sort is a convenience method: s.Sort() calls sort.Sort(s).
func (s DelegateRanking) Sort() { sort.Sort(s) }

func voteBalance(wallet *externalapi.Wallet) *big.Int {
	if wallet.Delegate == nil || wallet.Delegate.VoteBalance == nil {
		return new(big.Int)
	}
	return wallet.Delegate.VoteBalance
}
