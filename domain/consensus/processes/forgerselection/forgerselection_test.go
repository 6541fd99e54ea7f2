package forgerselection

import (
	"testing"

	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/utils/slots"
	"github.com/pkg/errors"
)

const blockTime = 8

// oneBlockPerSlot places block h in slot h-1
func oneBlockPerSlot(height uint64) (uint64, error) {
	if height == 0 {
		return 0, errors.New("no block at height 0")
	}
	return (height - 1) * blockTime, nil
}

func newTestForgerSelection(t *testing.T, milestones []externalapi.ActiveDelegatesMilestone) *forgerSelection {
	slotOracle, err := slots.New([]externalapi.BlockTimeMilestone{{Height: 1, BlockTime: blockTime}})
	if err != nil {
		t.Fatalf("slots.New: %+v", err)
	}
	return New(milestones, slotOracle).(*forgerSelection)
}

func TestCalculateForgingInfoAcrossMilestone(t *testing.T) {
	fs := newTestForgerSelection(t, []externalapi.ActiveDelegatesMilestone{
		{Height: 1, ActiveDelegates: 51},
		{Height: 100000, ActiveDelegates: 53},
	})

	tests := []struct {
		height        uint64
		currentForger uint32
		nextForger    uint32
	}{
		{height: 1, currentForger: 0, nextForger: 1},
		{height: 52, currentForger: 0, nextForger: 1},
		{height: 99998, currentForger: 99997 % 51, nextForger: (99997%51 + 1) % 51},
		{height: 99999, currentForger: 99998 % 51, nextForger: (99998%51 + 1) % 51},
		// The 53 delegates span starts right after the slot of block 99999
		{height: 100000, currentForger: 0, nextForger: 1},
		{height: 100001, currentForger: 1, nextForger: 2},
		{height: 100052, currentForger: 52, nextForger: 0},
		{height: 100053, currentForger: 0, nextForger: 1},
	}

	for _, test := range tests {
		timestamp, _ := oneBlockPerSlot(test.height)
		forgingInfo, err := fs.CalculateForgingInfo(timestamp, test.height, oneBlockPerSlot)
		if err != nil {
			t.Fatalf("CalculateForgingInfo(%d): %+v", test.height, err)
		}
		if forgingInfo.CurrentForger != test.currentForger || forgingInfo.NextForger != test.nextForger {
			t.Fatalf("CalculateForgingInfo(%d): expected forgers %d/%d, got %d/%d", test.height,
				test.currentForger, test.nextForger, forgingInfo.CurrentForger, forgingInfo.NextForger)
		}
		if forgingInfo.BlockTimestamp != timestamp || !forgingInfo.CanForge {
			t.Fatalf("CalculateForgingInfo(%d): unexpected slot data %+v", test.height, forgingInfo)
		}
	}
}

func TestCalculateForgingInfoMissedSlots(t *testing.T) {
	fs := newTestForgerSelection(t, []externalapi.ActiveDelegatesMilestone{{Height: 1, ActiveDelegates: 5}})

	// Block 3 arrives two slots late: slot 4 instead of slot 2
	forgingInfo, err := fs.CalculateForgingInfo(4*blockTime+5, 3, oneBlockPerSlot)
	if err != nil {
		t.Fatalf("CalculateForgingInfo: %+v", err)
	}
	if forgingInfo.CurrentForger != 4 || forgingInfo.NextForger != 0 {
		t.Fatalf("CalculateForgingInfo: unexpected forgers %+v", forgingInfo)
	}
	if forgingInfo.BlockTimestamp != 4*blockTime || forgingInfo.CanForge {
		t.Fatalf("CalculateForgingInfo: a timestamp past half of the slot must not allow forging: %+v", forgingInfo)
	}
}

func TestCalculateForgingInfoLookupFailure(t *testing.T) {
	fs := newTestForgerSelection(t, []externalapi.ActiveDelegatesMilestone{
		{Height: 1, ActiveDelegates: 51},
		{Height: 103, ActiveDelegates: 53},
	})
	failing := func(uint64) (uint64, error) { return 0, errors.New("block not found") }
	_, err := fs.CalculateForgingInfo(1000, 200, failing)
	if err == nil {
		t.Fatalf("CalculateForgingInfo: expected the lookup failure to propagate")
	}
}

func TestPositiveModulo(t *testing.T) {
	if positiveModulo(-1, 51) != 50 || positiveModulo(52, 51) != 1 || positiveModulo(0, 53) != 0 {
		t.Fatalf("positiveModulo: unexpected result")
	}
}
