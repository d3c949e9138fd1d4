package entity

// ReportStatus is the closed set of lifecycle states of a report.
// Transitions happen only through the report service's status guards.
type ReportStatus string

const (
	StatusPending              ReportStatus = "PENDING"
	StatusAssigned             ReportStatus = "ASSIGNED"
	StatusInProgress           ReportStatus = "IN_PROGRESS"
	StatusAwaitingConfirmation ReportStatus = "AWAITING_CONFIRMATION"
	StatusCompleted            ReportStatus = "COMPLETED"
	StatusDisputed             ReportStatus = "DISPUTED"
)
