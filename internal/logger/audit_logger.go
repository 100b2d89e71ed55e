// Package logger provides audit logging.
package logger

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AuditLogger records who changed leaderboard data and what happened. Calls
// are fire-and-forget: a failing audit write never fails the operation it
// describes. Actor ids arrive as explicit parameters, never from ambient
// request state.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger on top of the base logger
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogImport records the outcome of a CSV import
func (al *AuditLogger) LogImport(actorID int64, batchID uuid.UUID, raceID int64, kind string, success, total, errorCount int) {
	al.WithFields(logrus.Fields{
		"actor_id":    actorID,
		"batch_id":    batchID.String(),
		"race_id":     raceID,
		"kind":        kind,
		"success":     success,
		"total":       total,
		"error_count": errorCount,
	}).Info("Leaderboard import recorded")
}

// LogExport records a CSV export
func (al *AuditLogger) LogExport(actorID, raceID int64, kind string, rowCount int) {
	al.WithFields(logrus.Fields{
		"actor_id":  actorID,
		"race_id":   raceID,
		"kind":      kind,
		"row_count": rowCount,
	}).Info("Leaderboard export recorded")
}

// LogResultDeleted records the removal of one result row
func (al *AuditLogger) LogResultDeleted(actorID, resultID int64) {
	al.WithFields(logrus.Fields{
		"actor_id":  actorID,
		"result_id": resultID,
	}).Info("Result deletion recorded")
}

// LogCascadeDelete records a bulk removal triggered by a registry deletion
func (al *AuditLogger) LogCascadeDelete(scope string, scopeID, removed int64) {
	al.WithFields(logrus.Fields{
		"scope":    scope,
		"scope_id": scopeID,
		"removed":  removed,
	}).Info("Cascade deletion recorded")
}
