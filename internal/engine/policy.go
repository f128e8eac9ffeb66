package engine

import "fmt"

// StakeReturn decides what a correct prediction pays back.
type StakeReturn string

const (
	// StakeReturnPrincipal releases exactly the escrowed stake.
	StakeReturnPrincipal StakeReturn = "principal"
	// StakeReturnDouble releases the stake and pays an equal bonus from the treasury.
	StakeReturnDouble StakeReturn = "double"
)

// Forfeit decides where an incorrect prediction's stake goes.
type Forfeit string

const (
	// ForfeitTreasury routes the stake to the treasury and counts it as a fee.
	ForfeitTreasury Forfeit = "treasury"
	// ForfeitBurn leaves the stake locked in the prediction vault, unaccounted.
	ForfeitBurn Forfeit = "burn"
)

// Policy is the settlement policy of one deployment. It has no default: the
// zero value is invalid and must be set explicitly.
type Policy struct {
	StakeReturn StakeReturn
	Forfeit     Forfeit
}

// ParsePolicy builds a Policy from configuration strings.
func ParsePolicy(stakeReturn, forfeit string) (Policy, error) {
	p := Policy{StakeReturn: StakeReturn(stakeReturn), Forfeit: Forfeit(forfeit)}
	return p, p.Validate()
}

// Validate checks both fields name a known policy.
func (p Policy) Validate() error {
	switch p.StakeReturn {
	case StakeReturnPrincipal, StakeReturnDouble:
	default:
		return fmt.Errorf("%w: stake return %q (want principal or double)", ErrInvalidPolicy, p.StakeReturn)
	}
	switch p.Forfeit {
	case ForfeitTreasury, ForfeitBurn:
	default:
		return fmt.Errorf("%w: forfeit %q (want treasury or burn)", ErrInvalidPolicy, p.Forfeit)
	}
	return nil
}

// String renders the policy for logs.
func (p Policy) String() string {
	return string(p.StakeReturn) + "/" + string(p.Forfeit)
}
