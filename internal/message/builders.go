package message

import (
	"context"
	"fmt"

	"docket/internal/constants"
	"docket/pkg/models"
)

func buildCase(ctx context.Context, b *Builder, event models.ChangeEvent) models.NotificationPayload {
	id := event.RecordID()
	title := models.StringField(event.Record, "title")
	if title == "" {
		title = b.caseTitle(ctx, id)
	}

	payload := models.NotificationPayload{
		Category:    models.CategoryCase,
		Priority:    recordPriority(event),
		ReferenceID: id,
		ActionURL:   "/cases/" + id,
		Metadata:    baseMetadata(event),
	}

	switch {
	case event.Operation == models.OperationInsert:
		payload.Type = "case_created"
		payload.Subject = "New Case Created"
		payload.Body = fmt.Sprintf("Case %q has been created", title)
	case event.Operation == models.OperationUpdate && statusChanged(event):
		// Status transitions take precedence over the generic update
		// wording even when other fields changed in the same event.
		oldStatus := models.StringField(event.OldRecord, "status")
		newStatus := models.StringField(event.Record, "status")
		payload.Type = "case_status_changed"
		payload.Subject = "Case Status Changed"
		payload.Body = fmt.Sprintf("Case %q moved from %s to %s", title, oldStatus, newStatus)
		payload.Metadata["old_status"] = oldStatus
		payload.Metadata["new_status"] = newStatus
	case event.Operation == models.OperationUpdate:
		payload.Type = "case_updated"
		payload.Subject = "Case Updated"
		payload.Body = fmt.Sprintf("Case %q has been updated", title)
	default:
		return buildGeneric(event)
	}

	return payload
}

func buildClient(ctx context.Context, b *Builder, event models.ChangeEvent) models.NotificationPayload {
	id := event.RecordID()
	name := models.StringField(event.Record, "name")
	if name == "" {
		name = models.StringField(event.Record, "full_name")
	}
	if name == "" {
		name = "a client"
	}

	payload := models.NotificationPayload{
		Category:    models.CategoryClient,
		Priority:    models.PriorityNormal,
		ReferenceID: id,
		ActionURL:   "/clients/" + id,
		Metadata:    baseMetadata(event),
	}

	switch event.Operation {
	case models.OperationInsert:
		payload.Type = "client_created"
		payload.Subject = "New Client Added"
		payload.Body = fmt.Sprintf("Client %q has been added to your practice", name)
	case models.OperationUpdate:
		payload.Type = "client_updated"
		payload.Subject = "Client Updated"
		payload.Body = fmt.Sprintf("Client %q has been updated", name)
	default:
		return buildGeneric(event)
	}

	return payload
}

func buildAppointment(ctx context.Context, b *Builder, event models.ChangeEvent) models.NotificationPayload {
	id := event.RecordID()
	title := models.StringField(event.Record, "title")
	if title == "" {
		title = "an appointment"
	}

	payload := models.NotificationPayload{
		Category:    models.CategoryAppointment,
		Priority:    models.PriorityNormal,
		ReferenceID: id,
		ActionURL:   "/appointments/" + id,
		Metadata:    baseMetadata(event),
	}

	switch event.Operation {
	case models.OperationInsert:
		payload.Type = "appointment_created"
		payload.Subject = "New Appointment Scheduled"
		payload.Body = fmt.Sprintf("Appointment %q has been scheduled", title)
		if start := models.StringField(event.Record, "start_time"); start != "" {
			payload.Body = fmt.Sprintf("Appointment %q has been scheduled for %s", title, start)
			payload.Metadata["start_time"] = start
		}
	case models.OperationUpdate:
		// Appointment updates arrive from the external calendar sync at
		// high frequency and must never notify.
		payload.Type = "appointment_updated"
		payload.Subject = "Appointment Updated"
		payload.Body = fmt.Sprintf("Appointment %q has been updated", title)
		payload.Suppress = true
	default:
		return buildGeneric(event)
	}

	return payload
}

func buildTask(ctx context.Context, b *Builder, event models.ChangeEvent) models.NotificationPayload {
	id := event.RecordID()
	title := models.StringField(event.Record, "title")
	if title == "" {
		title = "a task"
	}

	payload := models.NotificationPayload{
		Category:    models.CategoryTask,
		Priority:    recordPriority(event),
		ReferenceID: id,
		ActionURL:   "/tasks/" + id,
		Metadata:    baseMetadata(event),
	}

	switch {
	case event.Operation == models.OperationInsert:
		payload.Type = "task_assigned"
		payload.Subject = "New Task Assigned"
		payload.Body = fmt.Sprintf("Task %q has been assigned", title)
		if due := models.StringField(event.Record, "due_date"); due != "" {
			payload.Body = fmt.Sprintf("Task %q has been assigned, due %s", title, due)
			payload.Metadata["due_date"] = due
		}
	case event.Operation == models.OperationUpdate && statusChanged(event) &&
		models.StringField(event.Record, "status") == constants.TaskStatusCompleted:
		payload.Type = "task_completed"
		payload.Subject = "Task Completed"
		payload.Body = fmt.Sprintf("Task %q has been marked as completed", title)
	case event.Operation == models.OperationUpdate && statusChanged(event):
		payload.Type = "task_status_changed"
		payload.Subject = "Task Status Changed"
		payload.Body = fmt.Sprintf("Task %q moved to %s", title, models.StringField(event.Record, "status"))
	case event.Operation == models.OperationUpdate:
		payload.Type = "task_updated"
		payload.Subject = "Task Updated"
		payload.Body = fmt.Sprintf("Task %q has been updated", title)
	default:
		return buildGeneric(event)
	}

	return payload
}

func buildHearing(ctx context.Context, b *Builder, event models.ChangeEvent) models.NotificationPayload {
	id := event.RecordID()
	caseID := models.StringField(event.Record, "case_id")
	caseTitle := b.caseTitle(ctx, caseID)

	payload := models.NotificationPayload{
		Category:    models.CategoryHearing,
		Priority:    models.PriorityHigh,
		ReferenceID: id,
		ActionURL:   "/hearings/" + id,
		Metadata:    baseMetadata(event),
	}
	if caseID != "" {
		payload.Metadata["case_id"] = caseID
	}

	switch event.Operation {
	case models.OperationInsert:
		payload.Type = "hearing_scheduled"
		payload.Subject = "Hearing Scheduled"
		payload.Body = fmt.Sprintf("A hearing has been scheduled for %s", caseTitle)
		if date := models.StringField(event.Record, "hearing_date"); date != "" {
			payload.Body = fmt.Sprintf("A hearing for %s has been scheduled on %s", caseTitle, date)
			payload.Metadata["hearing_date"] = date
		}
	case models.OperationUpdate:
		payload.Type = "hearing_updated"
		payload.Subject = "Hearing Updated"
		payload.Body = fmt.Sprintf("A hearing for %s has been updated", caseTitle)
	default:
		return buildGeneric(event)
	}

	return payload
}

func buildDocument(ctx context.Context, b *Builder, event models.ChangeEvent) models.NotificationPayload {
	id := event.RecordID()
	name := models.StringField(event.Record, "name")
	if name == "" {
		name = models.StringField(event.Record, "file_name")
	}
	if name == "" {
		name = "a document"
	}
	uploader := b.userName(ctx, models.StringField(event.Record, "uploaded_by"))
	caseID := models.StringField(event.Record, "case_id")

	payload := models.NotificationPayload{
		Category:    models.CategoryDocument,
		Priority:    models.PriorityNormal,
		ReferenceID: id,
		ActionURL:   "/documents/" + id,
		Metadata:    baseMetadata(event),
	}
	if caseID != "" {
		payload.Metadata["case_id"] = caseID
	}

	switch event.Operation {
	case models.OperationInsert:
		payload.Type = "document_uploaded"
		payload.Subject = "New Document Uploaded"
		payload.Body = fmt.Sprintf("%s uploaded %q", uploader, name)
		if caseID != "" {
			payload.Body = fmt.Sprintf("%s uploaded %q to %s", uploader, name, b.caseTitle(ctx, caseID))
		}
	case models.OperationUpdate:
		payload.Type = "document_updated"
		payload.Subject = "Document Updated"
		payload.Body = fmt.Sprintf("Document %q has been updated", name)
	default:
		return buildGeneric(event)
	}

	return payload
}

func buildCaseOrder(ctx context.Context, b *Builder, event models.ChangeEvent) models.NotificationPayload {
	id := event.RecordID()
	caseID := models.StringField(event.Record, "case_id")
	caseTitle := b.caseTitle(ctx, caseID)

	payload := models.NotificationPayload{
		Category:    models.CategoryCase,
		Priority:    models.PriorityHigh,
		ReferenceID: id,
		ActionURL:   "/cases/" + caseID + "/orders",
		Metadata:    baseMetadata(event),
	}
	if caseID != "" {
		payload.Metadata["case_id"] = caseID
	}

	switch event.Operation {
	case models.OperationInsert:
		payload.Type = "case_order_added"
		payload.Subject = "New Court Order"
		payload.Body = fmt.Sprintf("A court order has been recorded for %s", caseTitle)
	case models.OperationUpdate:
		payload.Type = "case_order_updated"
		payload.Subject = "Court Order Updated"
		payload.Body = fmt.Sprintf("A court order for %s has been updated", caseTitle)
	default:
		return buildGeneric(event)
	}

	return payload
}

func buildNote(ctx context.Context, b *Builder, event models.ChangeEvent) models.NotificationPayload {
	id := event.RecordID()
	author := b.userName(ctx, models.StringField(event.Record, "created_by"))

	payload := models.NotificationPayload{
		Category:    models.CategoryNote,
		Priority:    models.PriorityLow,
		ReferenceID: id,
		ActionURL:   "/notes/" + id,
		Metadata:    baseMetadata(event),
	}

	switch event.Operation {
	case models.OperationInsert:
		payload.Type = "note_added"
		payload.Subject = "New Note"
		payload.Body = fmt.Sprintf("%s added a note", author)
		if caseID := models.StringField(event.Record, "case_id"); caseID != "" {
			payload.Body = fmt.Sprintf("%s added a note to %s", author, b.caseTitle(ctx, caseID))
			payload.Metadata["case_id"] = caseID
		}
	case models.OperationUpdate:
		payload.Type = "note_updated"
		payload.Subject = "Note Updated"
		payload.Body = fmt.Sprintf("%s updated a note", author)
	default:
		return buildGeneric(event)
	}

	return payload
}
