package validation

import (
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// Selector is the first four bytes of keccak256 of a Solidity error signature.
type Selector [4]byte

// ErrorSelector computes the selector of a Solidity error signature such as
// "InvalidNonce()".
func ErrorSelector(signature string) Selector {
	var s Selector
	copy(s[:], crypto.Keccak256([]byte(signature))[:4])
	return s
}

func (s Selector) String() string {
	return "0x" + hex.EncodeToString(s[:])
}

// KnownErrors maps revert selectors to outcomes. It is read-only once handed
// to a Classifier.
type KnownErrors map[Selector]Outcome

// Lookup returns the outcome registered for s.
func (k KnownErrors) Lookup(s Selector) (Outcome, bool) {
	outcome, ok := k[s]
	return outcome, ok
}

// knownErrorSignatures are the custom errors raised by the reactors, Permit2
// and the exclusivity validation contracts.
var knownErrorSignatures = map[string]Outcome{
	// Permit2
	"InvalidNonce()":                 NonceUsed,
	"SignatureExpired(uint256)":      Expired,
	"InvalidSigner()":                InvalidSignature,
	"InvalidSignature()":             InvalidSignature,
	"InvalidSignatureLength()":       InvalidSignature,
	"InvalidContractSignature()":     InvalidSignature,
	"InsufficientAllowance(uint256)": InsufficientFunds,

	// Reactors
	"DeadlinePassed()":         Expired,
	"InvalidReactor()":         InvalidOrderFields,
	"DeadlineBeforeEndTime()":  InvalidOrderFields,
	"EndTimeBeforeStartTime()": InvalidOrderFields,
	"InputAndOutputDecay()":    InvalidOrderFields,
	"IncorrectAmounts()":       InvalidOrderFields,
	"InvalidDecayCurve()":      InvalidOrderFields,
	"InvalidCosignerInput()":   InvalidOrderFields,
	"InvalidCosignerOutput()":  InvalidOrderFields,
	"InvalidDeadline()":        InvalidOrderFields,
	"NoExclusiveOverride()":    ExclusivityPeriod,
	"InvalidCosignature()":     InvalidCosignature,
	"InvalidGasPrice()":        InvalidGasPrice,
	"OrderNotFillable()":       OrderNotFillableYet,

	// Additional validation contracts. Ambiguous on its own: exclusive filler
	// validation raises it too.
	"ValidationFailed()": ValidationFailed,
}

// DefaultKnownErrors returns a fresh copy of the built-in selector table.
func DefaultKnownErrors() KnownErrors {
	known := make(KnownErrors, len(knownErrorSignatures))
	for signature, outcome := range knownErrorSignatures {
		known[ErrorSelector(signature)] = outcome
	}
	return known
}

// KnownErrorSignatures returns a copy of the built-in error signatures and
// their outcomes.
func KnownErrorSignatures() map[string]Outcome {
	signatures := make(map[string]Outcome, len(knownErrorSignatures))
	for signature, outcome := range knownErrorSignatures {
		signatures[signature] = outcome
	}
	return signatures
}

// SubstringRule matches a decoded revert reason.
type SubstringRule struct {
	Substring string
	Outcome   Outcome
}

// DefaultSubstringRules match plain string reverts from token contracts.
//
// Deprecated: reason strings change without notice; prefer selectors.
func DefaultSubstringRules() []SubstringRule {
	return []SubstringRule{
		{Substring: "TRANSFER_FROM_FAILED", Outcome: InsufficientFunds},
		{Substring: "STF", Outcome: InsufficientFunds},
		{Substring: "transfer amount exceeds balance", Outcome: InsufficientFunds},
		{Substring: "transfer amount exceeds allowance", Outcome: InsufficientFunds},
		{Substring: "insufficient allowance", Outcome: InsufficientFunds},
		{Substring: "insufficient balance", Outcome: InsufficientFunds},
	}
}

func matchSubstring(rules []SubstringRule, reason string) (Outcome, bool) {
	for _, rule := range rules {
		if strings.Contains(reason, rule.Substring) {
			return rule.Outcome, true
		}
	}
	return UnknownError, false
}
