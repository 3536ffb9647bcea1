package types

import (
	"fmt"

	"github.com/segmentio/ksuid"
)

// GeneratePriceID generates a unique price record ID with prefix
func GeneratePriceID() string {
	return fmt.Sprintf("prc_%s", ksuid.New().String())
}

// GenerateBudgetID generates a unique budget record ID with prefix
func GenerateBudgetID() string {
	return fmt.Sprintf("bud_%s", ksuid.New().String())
}
