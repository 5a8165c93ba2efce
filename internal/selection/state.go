package selection

// State is the snapshot owned by one editor between opening an entity and
// saving or closing it. F is the typed form of the entity kind.
type State[F any] struct {
	EntityID uint
	Fields   F

	BaselinePermissionIDs IDSet
	BaselineRoleIDs       IDSet

	PendingPermissionIDs IDSet
	PendingRoleIDs       IDSet
}

// Open replaces whatever session was in progress with a fresh one whose
// pending sets start equal to the baselines.
func (s *State[F]) Open(entityID uint, fields F, permissionIDs, roleIDs []uint) {
	s.EntityID = entityID
	s.Fields = fields
	s.BaselinePermissionIDs = NewIDSet(permissionIDs...)
	s.BaselineRoleIDs = NewIDSet(roleIDs...)
	s.PendingPermissionIDs = NewIDSet(permissionIDs...)
	s.PendingRoleIDs = NewIDSet(roleIDs...)
}

func (s State[F]) IsOpen() bool {
	return s.EntityID != 0
}

func (s *State[F]) Reset() {
	var zero F
	s.EntityID = 0
	s.Fields = zero
	s.BaselinePermissionIDs = IDSet{}
	s.BaselineRoleIDs = IDSet{}
	s.PendingPermissionIDs = IDSet{}
	s.PendingRoleIDs = IDSet{}
}
