package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

type PostgresDB struct {
	Conn *sql.DB
	URL  string
}

func NewPostgresDB(url string) *PostgresDB {
	return &PostgresDB{URL: url}
}

func (p *PostgresDB) Connect(ctx context.Context) error {
	conn, err := sql.Open("postgres", p.URL)
	if err != nil {
		return err
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(30 * time.Minute)

	p.Conn = conn
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		p.Conn = nil
		return err
	}
	return nil
}

func (p *PostgresDB) Ping(ctx context.Context) error {
	if p.Conn == nil {
		return sql.ErrConnDone
	}
	return p.Conn.PingContext(ctx)
}

func (p *PostgresDB) Disconnect(context.Context) error {
	if p.Conn != nil {
		return p.Conn.Close()
	}
	return nil
}
