// Package message turns a change event into a human-readable notification
// payload. Dispatch is a registry keyed by table name; each entry is a pure
// function of the event plus directory lookups. Building never fails: an
// unknown table or a failed lookup degrades to generic wording.
package message

import (
	"context"
	"fmt"

	"docket/internal/constants"
	"docket/internal/directory"
	"docket/internal/logger"
	"docket/pkg/models"
)

type BuilderFunc func(ctx context.Context, b *Builder, event models.ChangeEvent) models.NotificationPayload

type Builder struct {
	dir      directory.Directory
	logger   logger.Logger
	builders map[string]BuilderFunc
}

func NewBuilder(dir directory.Directory, log logger.Logger) *Builder {
	b := &Builder{
		dir:      dir,
		logger:   log,
		builders: make(map[string]BuilderFunc),
	}

	b.Register(constants.TableCases, buildCase)
	b.Register(constants.TableClients, buildClient)
	b.Register(constants.TableAppointments, buildAppointment)
	b.Register(constants.TableTasks, buildTask)
	b.Register(constants.TableHearings, buildHearing)
	b.Register(constants.TableDocuments, buildDocument)
	b.Register(constants.TableCaseOrders, buildCaseOrder)
	b.Register(constants.TableNotes, buildNote)

	return b
}

func (b *Builder) Register(table string, fn BuilderFunc) {
	b.builders[table] = fn
}

// Build constructs the payload for an event. Tables without a registered
// builder get a generic creation/update notice naming the table.
func (b *Builder) Build(ctx context.Context, event models.ChangeEvent) models.NotificationPayload {
	if fn, ok := b.builders[event.Table]; ok {
		return fn(ctx, b, event)
	}
	return buildGeneric(event)
}

// userName resolves a user id to a display name, degrading to neutral
// wording when the lookup fails or the id is empty.
func (b *Builder) userName(ctx context.Context, userID string) string {
	if userID == "" {
		return "a team member"
	}
	name, err := b.dir.UserName(ctx, userID)
	if err != nil {
		b.logger.DebugwCtx(ctx, "User name lookup failed", "user_id", userID, "error", err)
		return "a team member"
	}
	return name
}

// caseTitle resolves a case id to its title, degrading to neutral wording.
func (b *Builder) caseTitle(ctx context.Context, caseID string) string {
	if caseID == "" {
		return "a case"
	}
	title, err := b.dir.CaseTitle(ctx, caseID)
	if err != nil {
		b.logger.DebugwCtx(ctx, "Case title lookup failed", "case_id", caseID, "error", err)
		return "a case"
	}
	return title
}

func buildGeneric(event models.ChangeEvent) models.NotificationPayload {
	var subject, body string
	switch event.Operation {
	case models.OperationInsert:
		subject = "New Record Created"
		body = fmt.Sprintf("A new record was created in %s", event.Table)
	case models.OperationDelete:
		subject = "Record Removed"
		body = fmt.Sprintf("A record was removed from %s", event.Table)
	default:
		subject = "Record Updated"
		body = fmt.Sprintf("A record was updated in %s", event.Table)
	}

	return models.NotificationPayload{
		Type:        fmt.Sprintf("%s_%s", event.Table, string(event.Operation)),
		Subject:     subject,
		Body:        body,
		Category:    models.CategorySystem,
		Priority:    models.PriorityNormal,
		ReferenceID: event.RecordID(),
		Metadata:    baseMetadata(event),
	}
}

func baseMetadata(event models.ChangeEvent) map[string]interface{} {
	return map[string]interface{}{
		"table":     event.Table,
		"operation": string(event.Operation),
		"record_id": event.RecordID(),
	}
}

// statusChanged reports whether the event carries a status transition,
// i.e. both records are present and disagree on the status field.
func statusChanged(event models.ChangeEvent) bool {
	if event.OldRecord == nil {
		return false
	}
	oldStatus := models.StringField(event.OldRecord, "status")
	newStatus := models.StringField(event.Record, "status")
	return oldStatus != newStatus
}

func recordPriority(event models.ChangeEvent) models.Priority {
	return models.ParsePriority(models.StringField(event.Record, "priority"))
}
