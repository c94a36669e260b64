package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// sectionEntityTypes maps a timeline section filter to the entity types
// it covers.
var sectionEntityTypes = map[string][]string{
	"reports":   {"report"},
	"files":     {"project_file"},
	"proposal":  {"proposal", "proposal_draft"},
	"estimate":  {"estimate", "estimate_item"},
	"orders":    {"order", "order_item"},
	"workload":  {"shift"},
	"timesheet": {"attendance", "timesheet_entry"},
	"general":   {"project"},
}

// TimelineEntry is a row of the project audit timeline, enriched with
// resolved display names.
type TimelineEntry struct {
	Entry
	ActorName        string
	AffectedUserName string
	ProjectName      string
	WorkerName       string
	ApprovedByName   string
}

// NameResolver looks up a display name for a user id; implementations
// are wrapped in a per-call memo; names are never cached across
// requests.
type NameResolver interface {
	UserName(ctx context.Context, id uuid.UUID) (string, bool)
	ProjectName(ctx context.Context, id uuid.UUID) (string, bool)
}

// memoResolver wraps a NameResolver with a request-scoped cache.
type memoResolver struct {
	inner    NameResolver
	users    map[uuid.UUID]string
	projects map[uuid.UUID]string
}

func newMemoResolver(inner NameResolver) *memoResolver {
	return &memoResolver{inner: inner, users: map[uuid.UUID]string{}, projects: map[uuid.UUID]string{}}
}

func (m *memoResolver) userName(ctx context.Context, id uuid.UUID) string {
	if v, ok := m.users[id]; ok {
		return v
	}
	name, _ := m.inner.UserName(ctx, id)
	m.users[id] = name
	return name
}

func (m *memoResolver) projectName(ctx context.Context, id uuid.UUID) string {
	if v, ok := m.projects[id]; ok {
		return v
	}
	name, _ := m.inner.ProjectName(ctx, id)
	m.projects[id] = name
	return name
}

// ProjectTimeline fetches audit rows for projectID, optionally narrowed
// by section and month (YYYY-MM), enriching each row with resolved
// names. limit <= 0 means unlimited; offset <= 0 means no skip.
func (s *Store) ProjectTimeline(ctx context.Context, resolver NameResolver, projectID uuid.UUID, section, month string, limit, offset int) ([]TimelineEntry, error) {
	query := `
		SELECT id, entity_type, entity_id, action, actor_id, actor_role, source,
		       timestamp_utc, changes_json, context
		FROM audit_logs
		WHERE (context->>'project_id' = $1) OR (entity_type = 'project' AND entity_id = $2)
	`
	args := []any{projectID.String(), projectID}
	argN := 3

	if types, ok := sectionEntityTypes[section]; ok {
		query += sqlEntityTypeIn(types, &argN, &args)
	}
	if month != "" {
		if y, m, ok := parseYearMonth(month); ok {
			query += sqlMonthFilter(y, m, &argN, &args)
		}
	}
	query += " ORDER BY timestamp_utc DESC"
	if limit > 0 {
		query += " LIMIT $" + itoa(argN)
		args = append(args, limit)
		argN++
	}
	if offset > 0 {
		query += " OFFSET $" + itoa(argN)
		args = append(args, offset)
		argN++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	memo := newMemoResolver(resolver)

	var out []TimelineEntry
	for rows.Next() {
		var (
			e          Entry
			changesRaw []byte
			contextRaw []byte
		)
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.ActorID, &e.ActorRole,
			&e.Source, &e.Timestamp, &changesRaw, &contextRaw); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(changesRaw, &e.Changes)
		_ = json.Unmarshal(contextRaw, &e.Context)

		te := TimelineEntry{Entry: e}
		if e.ActorID != nil {
			te.ActorName = memo.userName(ctx, *e.ActorID)
		}
		if wid, ok := stringField(e.Context, "worker_id"); ok {
			if wuuid, err := uuid.Parse(wid); err == nil {
				te.WorkerName = memo.userName(ctx, wuuid)
			}
		}
		if pid, ok := stringField(e.Context, "project_id"); ok {
			if puuid, err := uuid.Parse(pid); err == nil {
				te.ProjectName = memo.projectName(ctx, puuid)
			}
		}
		if aid, ok := approvedByID(e.Changes); ok {
			te.ApprovedByName = memo.userName(ctx, aid)
		}
		out = append(out, te)
	}
	return out, rows.Err()
}

func stringField(m map[string]any, key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func approvedByID(changes map[string]any) (uuid.UUID, bool) {
	if changes == nil {
		return uuid.Nil, false
	}
	after, ok := changes["after"].(map[string]any)
	if !ok {
		return uuid.Nil, false
	}
	raw, ok := after["approved_by"].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func parseYearMonth(month string) (int, int, bool) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return 0, 0, false
	}
	return t.Year(), int(t.Month()), true
}

func sqlEntityTypeIn(types []string, argN *int, args *[]any) string {
	placeholders := ""
	for i, t := range types {
		if i > 0 {
			placeholders += ","
		}
		placeholders += "$" + itoa(*argN)
		*args = append(*args, t)
		*argN++
	}
	return " AND entity_type IN (" + placeholders + ")"
}

func sqlMonthFilter(year, month int, argN *int, args *[]any) string {
	clause := " AND EXTRACT(YEAR FROM timestamp_utc) = $" + itoa(*argN) +
		" AND EXTRACT(MONTH FROM timestamp_utc) = $" + itoa(*argN+1)
	*args = append(*args, year, month)
	*argN += 2
	return clause
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
