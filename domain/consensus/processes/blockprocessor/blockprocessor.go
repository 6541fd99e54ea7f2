package blockprocessor

import (
	"github.com/dposnet/dposd/domain/chainconfig"
	"github.com/dposnet/dposd/domain/consensus/model"
)

// blockProcessor is responsible for deciding the outcome of incoming blocks
type blockProcessor struct {
	genesisGeneratorPublicKey string

	blockValidator  model.BlockValidator
	blockHandlers   model.BlockHandlers
	chainStateStore model.ChainStateStore
}

// New instantiates a new BlockProcessor
func New(
	params *chainconfig.Params,
	blockValidator model.BlockValidator,
	blockHandlers model.BlockHandlers,
	chainStateStore model.ChainStateStore) model.BlockProcessor {

	return &blockProcessor{
		genesisGeneratorPublicKey: params.GenesisGeneratorPublicKey,
		blockValidator:            blockValidator,
		blockHandlers:             blockHandlers,
		chainStateStore:           chainStateStore,
	}
}
