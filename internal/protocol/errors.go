package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Command validation.
	ErrBusy            = "E_BUSY"
	ErrSick            = "E_SICK"
	ErrLocked          = "E_LOCKED"
	ErrNoCoins         = "E_NO_COINS"
	ErrNoItem          = "E_NO_ITEM"
	ErrUnknownItem     = "E_UNKNOWN_ITEM"
	ErrUnknownActivity = "E_UNKNOWN_ACTIVITY"
	ErrUnknownPet      = "E_UNKNOWN_PET"
	ErrTooHungry       = "E_TOO_HUNGRY"
	ErrNoActivity      = "E_NO_ACTIVITY"

	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBusy:            {},
	ErrSick:            {},
	ErrLocked:          {},
	ErrNoCoins:         {},
	ErrNoItem:          {},
	ErrUnknownItem:     {},
	ErrUnknownActivity: {},
	ErrUnknownPet:      {},
	ErrTooHungry:       {},
	ErrNoActivity:      {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
