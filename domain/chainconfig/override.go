package chainconfig

import (
	"io/ioutil"

	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type exceptionOverride struct {
	BlockID        string   `yaml:"id"`
	Height         uint64   `yaml:"height"`
	TransactionIDs []string `yaml:"transactions"`
}

// paramsOverride is the yaml layout of a params override file. Absent
// fields keep the value of the network being overridden.
type paramsOverride struct {
	Name                      string              `yaml:"name"`
	AddressPrefix             *string             `yaml:"addressPrefix"`
	Milestones                []Milestone         `yaml:"milestones"`
	Exceptions                []exceptionOverride `yaml:"exceptions"`
	GenesisGeneratorPublicKey *string             `yaml:"genesisGeneratorPublicKey"`
	MaxLastBlocks             *int                `yaml:"maxLastBlocks"`
}

// OverrideFromFile returns a copy of p with the values found in the yaml
// file at path. The result is validated.
func (p *Params) OverrideFromFile(path string) (*Params, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't read params override file %s", path)
	}
	return p.Override(data)
}

// Override returns a copy of p with the values found in the given yaml
// document. The result is validated.
func (p *Params) Override(data []byte) (*Params, error) {
	override := &paramsOverride{}
	err := yaml.Unmarshal(data, override)
	if err != nil {
		return nil, errors.Wrap(err, "malformed params override")
	}

	params := *p
	params.Milestones = append([]Milestone(nil), p.Milestones...)
	params.Exceptions = append(params.Exceptions[:0:0], p.Exceptions...)

	if override.Name != "" {
		params.Name = override.Name
	}
	if override.AddressPrefix != nil {
		params.AddressPrefix = *override.AddressPrefix
	}
	if len(override.Milestones) > 0 {
		params.Milestones = override.Milestones
	}
	for _, exception := range override.Exceptions {
		params.Exceptions = append(params.Exceptions, externalapi.BlockException{
			BlockID:        exception.BlockID,
			Height:         exception.Height,
			TransactionIDs: exception.TransactionIDs,
		})
	}
	if override.GenesisGeneratorPublicKey != nil {
		params.GenesisGeneratorPublicKey = *override.GenesisGeneratorPublicKey
	}
	if override.MaxLastBlocks != nil {
		params.MaxLastBlocks = *override.MaxLastBlocks
	}

	err = params.Validate()
	if err != nil {
		return nil, err
	}
	return &params, nil
}
