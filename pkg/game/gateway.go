package game

// Gateway is the real-time transport the coordinator talks through. Delivery
// is fire and forget. Implementations must not call back into the
// coordinator from these methods; the coordinator holds a room's delivery
// lock while calling them.
type Gateway interface {
	Emit(connID string, event EventType, payload any)
	EmitToGroup(group string, event EventType, payload any)
	Broadcast(event EventType, payload any)
	AddToGroup(group, connID string)
	RemoveFromGroup(group, connID string)
}
