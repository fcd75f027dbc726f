package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Session/routing.
	ErrCharacterTaken    = "E_CHARACTER_TAKEN"
	ErrCharacterNotFound = "E_CHARACTER_NOT_FOUND"

	// Rule/action layer. Every ExecuteAction failure maps onto one of these.
	ErrBadRequest    = "E_BAD_REQUEST"    // malformed or missing action parameter
	ErrInvalidTarget = "E_INVALID_TARGET" // item/character/feature does not exist
	ErrBlocked       = "E_BLOCKED"        // no path, occupied destination, squeeze
	ErrOutOfRange    = "E_OUT_OF_RANGE"   // distance exceeded or out of bounds
	ErrConflict      = "E_CONFLICT"       // already in the requested state
	ErrNoResource    = "E_NO_RESOURCE"    // required item/key not in inventory
	ErrForbidden     = "E_FORBIDDEN"      // effect-prevented, dead actor/target
	ErrNotLegal      = "E_NOT_LEGAL"      // act not in the possible-actions list
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:   {},
	ErrCharacterTaken:    {},
	ErrCharacterNotFound: {},
	ErrBadRequest:        {},
	ErrInvalidTarget:     {},
	ErrBlocked:           {},
	ErrOutOfRange:        {},
	ErrConflict:          {},
	ErrNoResource:        {},
	ErrForbidden:         {},
	ErrNotLegal:          {},
	ErrInternal:          {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
