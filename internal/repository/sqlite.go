package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/juju/errors"

	"github.com/wrongjunior/eventboard/internal/domain"
)

// SQLiteRepository реализует репозиторий на базе SQLite для локального запуска.
type SQLiteRepository struct {
	DB    *sql.DB
	table string
}

// NewSQLiteRepository создаёт новый экземпляр репозитория. Имя таблицы должно
// быть проверено заранее (config.Validate).
func NewSQLiteRepository(db *sql.DB, table string) *SQLiteRepository {
	return &SQLiteRepository{DB: db, table: table}
}

func (repo *SQLiteRepository) ident() string {
	return `"` + strings.ReplaceAll(repo.table, `"`, `""`) + `"`
}

func sqliteErr(op string, err error) error {
	return domain.E(domain.KindStore, "sqlite "+op, err)
}

const columns = "id, kind, title, datetime, location, url, message_link, channel_id, message_id, created_at"

// Init создаёт таблицу, если её ещё нет.
func (repo *SQLiteRepository) Init() error {
	query := `
        CREATE TABLE IF NOT EXISTS ` + repo.ident() + ` (
            id TEXT PRIMARY KEY,
            kind TEXT NOT NULL,
            title TEXT NOT NULL DEFAULT '',
            datetime TEXT NOT NULL DEFAULT '',
            location TEXT NOT NULL DEFAULT '',
            url TEXT NOT NULL DEFAULT '',
            message_link TEXT NOT NULL DEFAULT '',
            channel_id TEXT NOT NULL DEFAULT '',
            message_id TEXT NOT NULL DEFAULT '',
            created_at TEXT NOT NULL DEFAULT ''
        );
    `
	if _, err := repo.DB.Exec(query); err != nil {
		return sqliteErr("init", err)
	}
	return nil
}

func scanRecord(row interface{ Scan(...any) error }) (record, error) {
	var r record
	err := row.Scan(&r.ID, &r.Kind, &r.Title, &r.Datetime, &r.Location, &r.URL,
		&r.MessageLink, &r.ChannelID, &r.MessageID, &r.CreatedAt)
	return r, err
}

func (repo *SQLiteRepository) ListEvents(ctx context.Context) ([]domain.Event, error) {
	rows, err := repo.DB.QueryContext(ctx, `SELECT `+columns+` FROM `+repo.ident()+` ORDER BY id;`)
	if err != nil {
		return nil, sqliteErr("scan", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, sqliteErr("scan", err)
		}
		if r.isEvent() {
			events = append(events, r.event())
		}
	}
	if err := rows.Err(); err != nil {
		return nil, sqliteErr("scan", err)
	}
	return events, nil
}

func (repo *SQLiteRepository) get(ctx context.Context, id string) (*record, error) {
	row := repo.DB.QueryRowContext(ctx, `SELECT `+columns+` FROM `+repo.ident()+` WHERE id = ?;`, id)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, sqliteErr("get", err)
	}
	return &r, nil
}

// put выполняет безусловный upsert.
func (repo *SQLiteRepository) put(ctx context.Context, r record) error {
	query := `INSERT OR REPLACE INTO ` + repo.ident() + ` (` + columns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`
	_, err := repo.DB.ExecContext(ctx, query, r.ID, r.Kind, r.Title, r.Datetime, r.Location, r.URL,
		r.MessageLink, r.ChannelID, r.MessageID, r.CreatedAt)
	if err != nil {
		return sqliteErr("put", fmt.Errorf("item %s: %w", r.ID, err))
	}
	return nil
}

func (repo *SQLiteRepository) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	r, err := repo.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil || !r.isEvent() {
		return nil, errors.NotFoundf("event %q", id)
	}
	ev := r.event()
	return &ev, nil
}

func (repo *SQLiteRepository) PutEvent(ctx context.Context, event domain.Event) error {
	return repo.put(ctx, eventRecord(event))
}

func (repo *SQLiteRepository) DeleteEvent(ctx context.Context, id string) error {
	if _, err := repo.DB.ExecContext(ctx, `DELETE FROM `+repo.ident()+` WHERE id = ?;`, id); err != nil {
		return sqliteErr("delete", err)
	}
	return nil
}

func (repo *SQLiteRepository) GetDashboard(ctx context.Context, role domain.Role) (*domain.DashboardConfig, error) {
	r, err := repo.get(ctx, domain.DashboardKey(role))
	if err != nil {
		return nil, err
	}
	if r == nil || r.ChannelID == "" || r.MessageID == "" {
		return nil, errors.NotFoundf("%s dashboard", role)
	}
	cfg := r.dashboard(role)
	return &cfg, nil
}

func (repo *SQLiteRepository) PutDashboard(ctx context.Context, cfg domain.DashboardConfig) error {
	return repo.put(ctx, dashboardRecord(cfg))
}
