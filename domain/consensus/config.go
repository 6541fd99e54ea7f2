package consensus

import "github.com/dposnet/dposd/domain/chainconfig"

// Config is a descriptor for a consensus instance
type Config struct {
	chainconfig.Params
}
