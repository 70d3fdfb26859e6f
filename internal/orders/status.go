package orders

type Status string

const (
	StatusPlaced    Status = "PLACED"
	StatusPreparing Status = "PREPARING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// validNext is the forward-only transition graph. Same-status requests are
// handled as idempotent no-ops by the lifecycle engine, not here.
var validNext = map[Status]map[Status]bool{
	StatusPlaced:    {StatusPreparing: true, StatusCompleted: true, StatusCancelled: true},
	StatusPreparing: {StatusCompleted: true, StatusCancelled: true},
	StatusCompleted: {},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

func (s Status) Terminal() bool {
	return s.Valid() && len(validNext[s]) == 0
}
