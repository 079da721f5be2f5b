package serials

import (
	"embed"
	"fmt"
	"math/big"

	"github.com/hashicorp/go-multierror"
	jsoniter "github.com/json-iterator/go"

	"github.com/nodezero/nodezero-go/model/chain"
	"github.com/nodezero/nodezero-go/model/zerocoin"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

//go:embed data/*.json
var datasets embed.FS

// Registry is the set of serial numbers produced by the fraudulent-serial
// attack. It is immutable once loaded and safe for concurrent use.
type Registry struct {
	banned map[string]struct{}
}

type record struct {
	Serial *string `json:"s"`
}

// Empty returns a registry that bans nothing.
func Empty() *Registry {
	return &Registry{banned: make(map[string]struct{})}
}

// LoadNetwork loads the fraud-serial dataset embedded for network.
func LoadNetwork(network chain.ChainID) (*Registry, error) {
	data, err := datasets.ReadFile(fmt.Sprintf("data/invalid_serials_%s.json", network))
	if err != nil {
		return nil, fmt.Errorf("no invalid serial dataset for network %s: %w", network, err)
	}
	registry, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("invalid serial dataset for network %s: %w", network, err)
	}
	return registry, nil
}

// Load parses a JSON array of {"s": "<hex serial>"} records. Malformed and
// duplicate entries are rejected, all of them reported in one error.
func Load(data []byte) (*Registry, error) {
	var records []map[string]jsoniter.RawMessage
	err := json.Unmarshal(data, &records)
	if err != nil {
		return nil, fmt.Errorf("could not decode serial dataset: %w", err)
	}

	banned := make(map[string]struct{}, len(records))
	var result *multierror.Error
	for i, raw := range records {
		serial, err := parseRecord(raw)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		key := zerocoin.SerialKey(serial)
		if _, dup := banned[key]; dup {
			result = multierror.Append(result, fmt.Errorf("record %d: duplicate serial %s", i, key))
			continue
		}
		banned[key] = struct{}{}
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return &Registry{banned: banned}, nil
}

func parseRecord(raw map[string]jsoniter.RawMessage) (*big.Int, error) {
	value, ok := raw["s"]
	if !ok {
		return nil, fmt.Errorf("missing serial")
	}
	if len(raw) != 1 {
		return nil, fmt.Errorf("unexpected fields in serial record")
	}
	var s string
	err := json.Unmarshal(value, &s)
	if err != nil {
		return nil, fmt.Errorf("serial is not a string")
	}
	return zerocoin.ParseSerialHex(s)
}

// IsBanned returns true if serial was listed in the loaded dataset.
func (r *Registry) IsBanned(serial *big.Int) bool {
	if serial == nil {
		return false
	}
	_, ok := r.banned[zerocoin.SerialKey(serial)]
	return ok
}

func (r *Registry) Len() int {
	return len(r.banned)
}
