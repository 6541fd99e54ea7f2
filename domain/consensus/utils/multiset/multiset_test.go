package multiset

import "testing"

func TestMultisetIsOrderIndependent(t *testing.T) {
	first := New()
	first.Add([]byte("alice"))
	first.Add([]byte("bob"))

	second := New()
	second.Add([]byte("bob"))
	second.Add([]byte("alice"))

	if !first.Hash().Equal(second.Hash()) {
		t.Fatalf("TestMultisetIsOrderIndependent: insertion order must not matter")
	}

	clone := first.Clone()
	clone.Remove([]byte("bob"))
	if clone.Hash().Equal(first.Hash()) {
		t.Fatalf("TestMultisetIsOrderIndependent: removing from a clone must not affect the original")
	}

	onlyAlice := New()
	onlyAlice.Add([]byte("alice"))
	if !clone.Hash().Equal(onlyAlice.Hash()) {
		t.Fatalf("TestMultisetIsOrderIndependent: remove must cancel add")
	}

	restored, err := FromBytes(first.Serialize())
	if err != nil {
		t.Fatalf("FromBytes: %+v", err)
	}
	if !restored.Hash().Equal(first.Hash()) {
		t.Fatalf("TestMultisetIsOrderIndependent: deserialized multiset differs")
	}
}
