package entity

import "strings"

// Role is the canonical role set for the waste-collection hierarchy.
// The mobile clients historically sent French role names, so ParseRole
// folds both spellings into a single value.
type Role string

const (
	RoleCitizen     Role = "citizen"
	RoleCollector   Role = "collector"
	RoleSupervisor  Role = "supervisor"
	RoleCoordinator Role = "coordinator"
	RoleAdmin       Role = "admin"
)

// ParseRole returns the canonical role, or "" for anything unknown.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "citizen", "citoyen":
		return RoleCitizen
	case "collector", "ramasseur":
		return RoleCollector
	case "supervisor", "superviseur":
		return RoleSupervisor
	case "coordinator", "coordinateur":
		return RoleCoordinator
	case "admin", "administrateur":
		return RoleAdmin
	default:
		return ""
	}
}

// IsAgent reports whether the role belongs to city staff.
func (r Role) IsAgent() bool {
	switch r {
	case RoleCollector, RoleSupervisor, RoleCoordinator, RoleAdmin:
		return true
	}
	return false
}

// SupervisorTier reports whether the role may arbitrate disputes and
// record verified weights.
func (r Role) SupervisorTier() bool {
	switch r {
	case RoleSupervisor, RoleCoordinator, RoleAdmin:
		return true
	}
	return false
}

// BypassesGeography reports whether the commune scope check is skipped.
// Coordinators and admins operate city-wide.
func (r Role) BypassesGeography() bool {
	return r == RoleCoordinator || r == RoleAdmin
}
