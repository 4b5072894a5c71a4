package signal

// Relation classifies a pair by the sign of short minus long. Equal averages
// are Neutral and never tradeable on their own.
type Relation string

const (
	Bullish Relation = "bullish"
	Bearish Relation = "bearish"
	Neutral Relation = "neutral"
)

func (p Pair) Relation() Relation {
	switch {
	case p.Short > p.Long:
		return Bullish
	case p.Short < p.Long:
		return Bearish
	default:
		return Neutral
	}
}

// Event is a crossover transition between two consecutive pairs.
type Event string

const (
	NoEvent      Event = "none"
	BullishCross Event = "bullish_crossover"
	BearishCross Event = "bearish_crossover"
)

// Detect compares the prior cycle's pair against the current one. A bullish
// crossover fires only when the relation was not already bullish and is
// bullish now, and symmetrically for bearish. A nil prev means there is no
// prior pair yet, which never produces an event.
func Detect(prev *Pair, curr Pair) Event {
	if prev == nil {
		return NoEvent
	}
	was, now := prev.Relation(), curr.Relation()
	if was == now {
		return NoEvent
	}
	switch now {
	case Bullish:
		return BullishCross
	case Bearish:
		return BearishCross
	default:
		return NoEvent
	}
}
