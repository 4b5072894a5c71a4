package strategy

// PositionState is the position leg of the decision table. Quantity zero is
// flat; anything positive is holding.
type PositionState string

const (
	Flat    PositionState = "flat"
	Holding PositionState = "holding"
)

func PositionStateOf(qty int) PositionState {
	if qty > 0 {
		return Holding
	}
	return Flat
}
