package blockverifier

import (
	"math"
	"strings"
	"testing"

	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/utils/testutils"
)

func testBlock(t *testing.T, params *chainconfig.Params, forger *testutils.Forger) *externalapi.DomainBlock {
	genesis := testutils.BuildBlock(t, params, forger, nil, 0)
	return testutils.BuildBlock(t, params, forger, genesis, 8,
		testutils.BuildTransfer("tx1", forger.PublicKey, 1, "recipient", 100, 1),
		testutils.BuildTransfer("tx2", forger.PublicKey, 2, "recipient", 50, 2),
	)
}

func hasError(verification *externalapi.BlockVerification, substring string) bool {
	for _, message := range verification.Errors {
		if strings.Contains(message, substring) {
			return true
		}
	}
	return false
}

func TestVerify(t *testing.T) {
	testutils.ForAllNets(t, func(t *testing.T, params *chainconfig.Params) {
		forger := testutils.NewForger(t)
		verifier := New(params)

		genesis := testutils.BuildBlock(t, params, forger, nil, 0)
		verification := verifier.Verify(genesis)
		if !verification.Verified {
			t.Fatalf("Verify: expected the genesis block to verify, got %v", verification.Errors)
		}

		block := testBlock(t, params, forger)
		verification = verifier.Verify(block)
		if !verification.Verified || verification.ContainsMultiSignatures {
			t.Fatalf("Verify: unexpected verification %+v", verification)
		}
	})
}

func TestVerifyTamperedBlocks(t *testing.T) {
	params := &chainconfig.DevnetParams
	forger := testutils.NewForger(t)
	verifier := New(params)

	tests := []struct {
		name          string
		tamper        func(block *externalapi.DomainBlock)
		expectedError string
	}{
		{
			name:          "fee changed after signing",
			tamper:        func(block *externalapi.DomainBlock) { block.Data.TotalFee++ },
			expectedError: "invalid total fee",
		},
		{
			name:          "transaction removed",
			tamper:        func(block *externalapi.DomainBlock) { block.Transactions = block.Transactions[:1] },
			expectedError: "invalid number of transactions",
		},
		{
			name:          "amount changed",
			tamper:        func(block *externalapi.DomainBlock) { block.Transactions[0].Amount++ },
			expectedError: "invalid total amount",
		},
		{
			name:          "amounts overflow",
			tamper:        func(block *externalapi.DomainBlock) { block.Transactions[0].Amount = math.MaxUint64 },
			expectedError: "total amount overflows",
		},
		{
			name:          "fees overflow",
			tamper:        func(block *externalapi.DomainBlock) { block.Transactions[1].Fee = math.MaxUint64 },
			expectedError: "total fee overflows",
		},
		{
			name:          "duplicate transaction",
			tamper:        func(block *externalapi.DomainBlock) { block.Transactions[1].ID = block.Transactions[0].ID },
			expectedError: "duplicate transaction",
		},
		{
			name:          "wrong id",
			tamper:        func(block *externalapi.DomainBlock) { block.Data.ID = "abc" },
			expectedError: "invalid block id",
		},
		{
			name: "foreign generator",
			tamper: func(block *externalapi.DomainBlock) {
				block.Data.GeneratorPublicKey = testutils.NewForger(t).PublicKey
			},
			expectedError: "does not match the generator",
		},
		{
			name:          "malformed signature",
			tamper:        func(block *externalapi.DomainBlock) { block.Data.BlockSignature = "zz" },
			expectedError: "malformed block signature",
		},
	}

	for _, test := range tests {
		block := testBlock(t, params, forger)
		test.tamper(block)
		verification := verifier.Verify(block)
		if verification.Verified {
			t.Fatalf("%s: expected verification to fail", test.name)
		}
		if !hasError(verification, test.expectedError) {
			t.Fatalf("%s: expected an error containing %q, got %v", test.name, test.expectedError, verification.Errors)
		}
	}
}

func TestVerifyReward(t *testing.T) {
	params := &chainconfig.DevnetParams
	forger := testutils.NewForger(t)
	block := testBlock(t, params, forger)
	block.Data.Reward = 1
	forger.Sign(t, block.Data)

	verification := New(params).Verify(block)
	if verification.Verified || !hasError(verification, "invalid reward") {
		t.Fatalf("Verify: expected an invalid reward, got %v", verification.Errors)
	}
}

func TestContainsMultiSignatures(t *testing.T) {
	params := &chainconfig.DevnetParams
	forger := testutils.NewForger(t)
	block := testBlock(t, params, forger)
	block.Transactions[1].Signatures = []string{"aa", "bb"}

	verification := New(params).Verify(block)
	if !verification.Verified || !verification.ContainsMultiSignatures {
		t.Fatalf("Verify: expected a verified block with multi-signatures, got %+v", verification)
	}
}

func TestVerifyMissingHeader(t *testing.T) {
	verification := New(&chainconfig.DevnetParams).Verify(&externalapi.DomainBlock{})
	if verification.Verified {
		t.Fatalf("Verify: a block without a header must not verify")
	}
}
