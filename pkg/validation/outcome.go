// Package validation classifies order fill simulations into a closed set of
// outcomes.
package validation

// Outcome is the result of validating an order against chain state.
type Outcome int

const (
	OK Outcome = iota
	Expired
	NonceUsed
	InsufficientFunds
	InvalidSignature
	InvalidOrderFields
	ExclusivityPeriod
	OrderNotFillableYet
	InvalidGasPrice
	InvalidCosignature
	// ValidationFailed is a known rejection that the payload alone does not
	// explain further.
	ValidationFailed
	// UnknownError means no known error signature matched.
	UnknownError
)

var outcomeNames = map[Outcome]string{
	OK:                  "OK",
	Expired:             "Expired",
	NonceUsed:           "NonceUsed",
	InsufficientFunds:   "InsufficientFunds",
	InvalidSignature:    "InvalidSignature",
	InvalidOrderFields:  "InvalidOrderFields",
	ExclusivityPeriod:   "ExclusivityPeriod",
	OrderNotFillableYet: "OrderNotFillableYet",
	InvalidGasPrice:     "InvalidGasPrice",
	InvalidCosignature:  "InvalidCosignature",
	ValidationFailed:    "ValidationFailed",
	UnknownError:        "UnknownError",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "UnknownError"
}

// SimulationResult is the raw outcome of one simulated fill.
type SimulationResult struct {
	Success    bool
	ReturnData []byte
}
