package slot

import "errors"

var (
	ErrSlotNotSelectable = errors.New("slot is not selectable in read-only mode")
	ErrSlotAlreadyBooked = errors.New("slot is already booked for this service category")
	ErrSlotInPast        = errors.New("slot is in the past")
	ErrInvalidSlotConfig = errors.New("invalid slot configuration")
	ErrUnknownSlot       = errors.New("time does not start a defined slot")
)
