package model

import "github.com/dposnet/dposd/domain/consensus/model/externalapi"

// Multiset is an order independent hash of a set of byte strings
type Multiset interface {
	Add(data []byte)
	Remove(data []byte)
	Hash() *externalapi.DomainHash
	Serialize() []byte
	Clone() Multiset
}
