package ecs

import "strconv"

// Entity identifies one logical object in a World.
// Ids are assigned densely starting at 1 and are never reused, so a despawned
// entity stays dead forever. The zero value is never live.
type Entity uint64

// NoEntity is the zero Entity.
const NoEntity Entity = 0

func (e Entity) String() string {
	return "entity(" + strconv.FormatUint(uint64(e), 10) + ")"
}
