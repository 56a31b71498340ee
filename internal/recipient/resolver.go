// Package recipient computes the set of users to notify for a change
// event. Like the message builders, resolution is a registry keyed by
// table name; unregistered tables go through a field-scan fallback.
package recipient

import (
	"context"

	"docket/internal/constants"
	"docket/internal/directory"
	"docket/internal/logger"
	"docket/pkg/models"
)

type ResolverFunc func(ctx context.Context, r *Resolver, event models.ChangeEvent) []string

type Resolver struct {
	dir       directory.Directory
	logger    logger.Logger
	resolvers map[string]ResolverFunc
}

func NewResolver(dir directory.Directory, log logger.Logger) *Resolver {
	r := &Resolver{
		dir:       dir,
		logger:    log,
		resolvers: make(map[string]ResolverFunc),
	}

	r.Register(constants.TableCases, resolveCaseTeamFromRecord)
	r.Register(constants.TableAppointments, directAssignment("assigned_lawyer_id", "lawyer_id"))
	r.Register(constants.TableClients, directAssignment("assigned_lawyer_id", "lawyer_id"))
	r.Register(constants.TableTasks, directAssignment("assigned_to", "assigned_lawyer_id"))
	r.Register(constants.TableDocuments, resolveViaCase)
	r.Register(constants.TableHearings, resolveViaCase)
	r.Register(constants.TableCaseOrders, resolveViaCase)
	r.Register(constants.TableNotes, directAssignment("assigned_to", "created_by"))

	return r
}

func (r *Resolver) Register(table string, fn ResolverFunc) {
	r.resolvers[table] = fn
}

// Resolve returns the deduplicated recipient set for an event. An empty
// result is a valid outcome and means nobody is notified.
func (r *Resolver) Resolve(ctx context.Context, event models.ChangeEvent) []string {
	fn, ok := r.resolvers[event.Table]
	if !ok {
		fn = resolveDefault
	}
	return dedupe(fn(ctx, r, event))
}

// directAssignment builds a resolver that takes the first non-empty id
// among the given record fields, in order.
func directAssignment(fields ...string) ResolverFunc {
	return func(_ context.Context, _ *Resolver, event models.ChangeEvent) []string {
		for _, field := range fields {
			if id := models.StringField(event.Record, field); id != "" {
				return []string{id}
			}
		}
		return nil
	}
}

// resolveCaseTeamFromRecord reads the team straight off the case row
// itself, which carries its own assignment columns.
func resolveCaseTeamFromRecord(_ context.Context, _ *Resolver, event models.ChangeEvent) []string {
	team := directory.CaseTeam{
		AssignedLawyerID: models.StringField(event.Record, "assigned_lawyer_id"),
		AssignedTo:       models.StringField(event.Record, "assigned_to"),
		AssignedUsers:    models.StringSliceField(event.Record, "assigned_users"),
	}
	return team.Members()
}

// resolveViaCase fans a case-scoped change (document, hearing, order) out
// to the team of the parent case. A failed lookup resolves to nobody; the
// event is not retried for this.
func resolveViaCase(ctx context.Context, r *Resolver, event models.ChangeEvent) []string {
	caseID := models.StringField(event.Record, "case_id")
	if caseID == "" {
		return resolveDefault(ctx, r, event)
	}

	team, err := r.dir.CaseTeam(ctx, caseID)
	if err != nil {
		r.logger.WarnwCtx(ctx, "Case team lookup failed, no recipients resolved",
			"table", event.Table, "case_id", caseID, "error", err)
		return nil
	}

	return team.Members()
}

// resolveDefault scans the record for the assignment columns the business
// tables conventionally use and takes the union.
func resolveDefault(_ context.Context, _ *Resolver, event models.ChangeEvent) []string {
	var recipients []string
	for _, field := range []string{"assigned_to", "lawyer_id", "assigned_lawyer_id", "uploaded_by"} {
		if id := models.StringField(event.Record, field); id != "" {
			recipients = append(recipients, id)
		}
	}
	recipients = append(recipients, models.StringSliceField(event.Record, "assigned_users")...)
	return recipients
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
