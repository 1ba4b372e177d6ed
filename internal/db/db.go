package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// Options controls the connection pool.
type Options struct {
	MaxOpenConns int
	MaxIdleConns int
}

func Connect(
	ctx context.Context,
	host, port, name, user, password, sslmode string,
	opts Options,
) (*sql.DB, error) {

	db, err := sql.Open("postgres", dsn(host, port, name, user, password, sslmode))
	if err != nil {
		return nil, err
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// dsn builds a libpq key=value connection string. Every value is single-quoted
// with backslash escapes, so spaces and quotes in credentials survive.
func dsn(host, port, name, user, password, sslmode string) string {
	pairs := [][2]string{
		{"host", host},
		{"port", port},
		{"dbname", name},
		{"user", user},
		{"password", password},
		{"sslmode", sslmode},
	}
	parts := make([]string, 0, len(pairs))
	for _, kv := range pairs {
		parts = append(parts, kv[0]+"="+quoteDSNValue(kv[1]))
	}
	return strings.Join(parts, " ")
}

var dsnEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func quoteDSNValue(v string) string {
	return "'" + dsnEscaper.Replace(v) + "'"
}
