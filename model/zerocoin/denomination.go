package zerocoin

import (
	"fmt"
	"strconv"
)

// Denomination is a fixed zerocoin size. Accumulators are kept separately per
// denomination.
type Denomination uint32

const (
	DenomError        Denomination = 0
	DenomOne          Denomination = 1
	DenomFive         Denomination = 5
	DenomTen          Denomination = 10
	DenomFifty        Denomination = 50
	DenomOneHundred   Denomination = 100
	DenomFiveHundred  Denomination = 500
	DenomOneThousand  Denomination = 1000
	DenomFiveThousand Denomination = 5000
)

// AllDenominations lists every valid denomination in ascending order.
// Iteration over checkpoints always follows this order.
var AllDenominations = []Denomination{
	DenomOne,
	DenomFive,
	DenomTen,
	DenomFifty,
	DenomOneHundred,
	DenomFiveHundred,
	DenomOneThousand,
	DenomFiveThousand,
}

// IsValid returns true if d is one of AllDenominations.
func (d Denomination) IsValid() bool {
	for _, valid := range AllDenominations {
		if d == valid {
			return true
		}
	}
	return false
}

func (d Denomination) String() string {
	return strconv.FormatUint(uint64(d), 10)
}

// ParseDenomination parses the decimal representation used by the static
// datasets.
func ParseDenomination(s string) (Denomination, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return DenomError, fmt.Errorf("invalid denomination %q: %w", s, err)
	}
	d := Denomination(v)
	if !d.IsValid() {
		return DenomError, fmt.Errorf("unknown denomination %d", v)
	}
	return d, nil
}

// AmountToDenomination converts an amount in base units to a denomination.
// Returns DenomError if the amount is not an exact denomination.
func AmountToDenomination(amount int64, coin int64) Denomination {
	if coin <= 0 || amount <= 0 || amount%coin != 0 {
		return DenomError
	}
	d := Denomination(amount / coin)
	if !d.IsValid() {
		return DenomError
	}
	return d
}
