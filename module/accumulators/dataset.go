package accumulators

import (
	"embed"
	"fmt"
	"math/big"
	"regexp"

	"github.com/hashicorp/go-multierror"
	jsoniter "github.com/json-iterator/go"

	"github.com/nodezero/nodezero-go/crypto/accumulator"
	"github.com/nodezero/nodezero-go/model/chain"
	"github.com/nodezero/nodezero-go/model/zerocoin"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

//go:embed data/*.json
var datasets embed.FS

const heightField = "height"

// canonicalDecimal matches positive integers without sign or leading zeros.
var canonicalDecimal = regexp.MustCompile(`^[1-9][0-9]*$`)

// Dataset returns the checkpoint dataset embedded for network.
func Dataset(network chain.ChainID) ([]byte, error) {
	data, err := datasets.ReadFile(fmt.Sprintf("data/checkpoints_%s.json", network))
	if err != nil {
		return nil, fmt.Errorf("no checkpoint dataset for network %s: %w", network, err)
	}
	return data, nil
}

type datasetEntry struct {
	height     uint64
	checkpoint zerocoin.Checkpoint
}

// parseDataset decodes a checkpoint dataset. Records must be ordered by
// strictly increasing height and name every denomination with a canonical
// decimal value inside the group. All problems are reported together.
func parseDataset(params *accumulator.Params, data []byte) ([]datasetEntry, error) {
	var records []map[string]jsoniter.RawMessage
	err := json.Unmarshal(data, &records)
	if err != nil {
		return nil, fmt.Errorf("could not decode dataset: %w", err)
	}

	modulus := params.Modulus()
	entries := make([]datasetEntry, 0, len(records))
	var result *multierror.Error

	for i, record := range records {
		entry, err := parseRecord(modulus, record)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		if len(entries) > 0 && entry.height <= entries[len(entries)-1].height {
			result = multierror.Append(result, fmt.Errorf("record %d: height %d does not increase", i, entry.height))
			continue
		}
		entries = append(entries, entry)
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return entries, nil
}

func parseRecord(modulus *big.Int, record map[string]jsoniter.RawMessage) (datasetEntry, error) {
	rawHeight, ok := record[heightField]
	if !ok {
		return datasetEntry{}, fmt.Errorf("missing height")
	}
	var height uint64
	err := json.Unmarshal(rawHeight, &height)
	if err != nil {
		return datasetEntry{}, fmt.Errorf("invalid height: %w", err)
	}

	var result *multierror.Error
	checkpoint := make(zerocoin.Checkpoint, len(zerocoin.AllDenominations))
	for key, raw := range record {
		if key == heightField {
			continue
		}
		d, err := zerocoin.ParseDenomination(key)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("unknown field %q", key))
			continue
		}

		var digits string
		err = json.Unmarshal(raw, &digits)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("denomination %s: value is not a string", d))
			continue
		}
		if !canonicalDecimal.MatchString(digits) {
			result = multierror.Append(result, fmt.Errorf("denomination %s: non-canonical value %q", d, digits))
			continue
		}
		value, _ := new(big.Int).SetString(digits, 10)
		if value.Cmp(modulus) >= 0 {
			result = multierror.Append(result, fmt.Errorf("denomination %s: value exceeds modulus", d))
			continue
		}
		checkpoint[d] = value
	}

	for _, d := range zerocoin.AllDenominations {
		if _, ok := checkpoint[d]; !ok {
			result = multierror.Append(result, fmt.Errorf("missing denomination %s", d))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return datasetEntry{}, fmt.Errorf("height %d: %w", height, err)
	}
	return datasetEntry{height: height, checkpoint: checkpoint}, nil
}

// Export encodes every stored checkpoint in the dataset format accepted by
// Load.
func (s *Store) Export() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]map[string]interface{}, 0, len(s.heights))
	for _, height := range s.heights {
		record := make(map[string]interface{}, len(zerocoin.AllDenominations)+1)
		record[heightField] = height
		for d, value := range s.entries[height].checkpoint {
			record[d.String()] = value.String()
		}
		records = append(records, record)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("could not encode checkpoints: %w", err)
	}
	return data, nil
}
