package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"deployment-portal/backend/pkg/models"
)

// Record kinds stored in dmp_records.
const (
	KindWorkflow       = "workflow"
	KindPipeline       = "pipeline"
	KindCABRequest     = "cab_request"
	KindSecurityTicket = "security_ticket"
	KindUpload         = "upload"
	KindNotification   = "notification"
	KindAlert          = "alert"
	KindMetric         = "metric"
	KindRoleStats      = "role_stats"
	KindActivity       = "activity"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS dmp_records (
	kind     TEXT  NOT NULL,
	id       TEXT  NOT NULL,
	position INT   NOT NULL,
	doc      JSONB NOT NULL,
	PRIMARY KEY (kind, id)
)`

const upsertSQL = `INSERT INTO dmp_records (kind, id, position, doc) VALUES ($1, $2, $3, $4)
ON CONFLICT (kind, id) DO UPDATE SET position = EXCLUDED.position, doc = EXCLUDED.doc`

// PostgresSource reads a Snapshot stored as one JSONB document per record.
type PostgresSource struct {
	db *pgxpool.Pool
}

// NewPostgresSource creates a new PostgresSource.
func NewPostgresSource(db *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{db: db}
}

// EnsureSchema creates the records table if it does not exist.
func (s *PostgresSource) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create dmp_records: %w", err)
	}
	return nil
}

// Load reads every kind concurrently.
func (s *PostgresSource) Load(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { snap.Workflows, err = loadKind[models.Workflow](ctx, s.db, KindWorkflow); return })
	g.Go(func() (err error) { snap.Pipeline, err = loadKind[models.Workflow](ctx, s.db, KindPipeline); return })
	g.Go(func() (err error) { snap.CABRequests, err = loadKind[models.CABRequest](ctx, s.db, KindCABRequest); return })
	g.Go(func() (err error) {
		snap.SecurityTickets, err = loadKind[models.SecurityTicket](ctx, s.db, KindSecurityTicket)
		return
	})
	g.Go(func() (err error) { snap.Uploads, err = loadKind[models.Upload](ctx, s.db, KindUpload); return })
	g.Go(func() (err error) {
		snap.Notifications, err = loadKind[models.Notification](ctx, s.db, KindNotification)
		return
	})
	g.Go(func() (err error) { snap.Alerts, err = loadKind[models.Alert](ctx, s.db, KindAlert); return })
	g.Go(func() (err error) { snap.Metrics, err = loadKind[models.Metric](ctx, s.db, KindMetric); return })
	g.Go(func() (err error) { snap.Activity, err = loadKind[models.Activity](ctx, s.db, KindActivity); return })
	g.Go(func() (err error) { snap.RoleStats, err = s.loadRoleStats(ctx); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

func loadKind[T any](ctx context.Context, db *pgxpool.Pool, kind string) ([]T, error) {
	rows, err := db.Query(ctx, "SELECT doc FROM dmp_records WHERE kind = $1 ORDER BY position", kind)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", kind, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[T])
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", kind, err)
	}
	return out, nil
}

func (s *PostgresSource) loadRoleStats(ctx context.Context) (map[models.Role][]models.Stat, error) {
	rows, err := s.db.Query(ctx, "SELECT id, doc FROM dmp_records WHERE kind = $1", KindRoleStats)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", KindRoleStats, err)
	}
	defer rows.Close()

	stats := make(map[models.Role][]models.Stat)
	for rows.Next() {
		var role string
		var list []models.Stat
		if err := rows.Scan(&role, &list); err != nil {
			return nil, fmt.Errorf("scan %s: %w", KindRoleStats, err)
		}
		stats[models.Role(role)] = list
	}
	return stats, rows.Err()
}

// Save upserts every record of snap in one transaction. Running it twice
// leaves the table unchanged.
func (s *PostgresSource) Save(ctx context.Context, snap *Snapshot) error {
	b := &pgx.Batch{}
	queueKind(b, KindWorkflow, snap.Workflows, func(_ int, w models.Workflow) string { return w.ID })
	queueKind(b, KindPipeline, snap.Pipeline, func(_ int, w models.Workflow) string { return w.ID })
	queueKind(b, KindCABRequest, snap.CABRequests, func(_ int, c models.CABRequest) string { return c.ID })
	queueKind(b, KindSecurityTicket, snap.SecurityTickets, func(_ int, t models.SecurityTicket) string { return t.ID })
	queueKind(b, KindUpload, snap.Uploads, func(_ int, u models.Upload) string { return u.ID })
	queueKind(b, KindNotification, snap.Notifications, func(_ int, n models.Notification) string { return n.ID })
	queueKind(b, KindAlert, snap.Alerts, func(_ int, a models.Alert) string { return a.ID })
	queueKind(b, KindMetric, snap.Metrics, positional[models.Metric])
	queueKind(b, KindActivity, snap.Activity, positional[models.Activity])
	for i, role := range models.AllRoles {
		if stats, ok := snap.RoleStats[role]; ok {
			b.Queue(upsertSQL, KindRoleStats, string(role), i, stats)
		}
	}

	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, b).Close(); err != nil {
			return fmt.Errorf("upsert records: %w", err)
		}
		return nil
	})
}

func queueKind[T any](b *pgx.Batch, kind string, items []T, id func(int, T) string) {
	for i, item := range items {
		b.Queue(upsertSQL, kind, id(i, item), i, item)
	}
}

func positional[T any](i int, _ T) string {
	return strconv.Itoa(i)
}
