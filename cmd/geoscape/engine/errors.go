package engine

import "errors"

var (
	ErrUnknownStatus    = errors.New("unknown status")
	ErrNoSuchUnit       = errors.New("no such unit")
	ErrNoSuchBase       = errors.New("no such base")
	ErrNoSuchMission    = errors.New("no such mission")
	ErrUnknownItem      = errors.New("unknown item")
	ErrInsufficientFuel = errors.New("insufficient fuel")
	ErrNoCrew           = errors.New("no crew assigned")
	ErrNoPilot          = errors.New("no pilot assigned")
	ErrNotOnGeoscape    = errors.New("unit is not on the geoscape")
	ErrNotInBase        = errors.New("unit is not in base")
	ErrNoWeapon         = errors.New("no usable weapon")
	ErrProjectileLimit  = errors.New("too many projectiles on the geoscape")
	ErrTransferPending  = errors.New("transfer not finished")
	ErrDuplicateID      = errors.New("duplicate id")
)
