package db

import (
	"testing"

	"github.com/lib/pq"
)

func TestDSN_QuotesValues(t *testing.T) {
	got := dsn("db", "5432", "todo db", "todouser", `it's a \ pass`, "disable")
	want := `host='db' port='5432' dbname='todo db' user='todouser' password='it\'s a \\ pass' sslmode='disable'`
	if got != want {
		t.Errorf("dsn:\n got %s\nwant %s", got, want)
	}

	// lib/pq parses the connection string when building a connector.
	if _, err := pq.NewConnector(got); err != nil {
		t.Errorf("pq rejected dsn: %v", err)
	}
}

func TestDSN_EmptyPassword(t *testing.T) {
	got := dsn("localhost", "5432", "tododb", "todouser", "", "disable")
	if _, err := pq.NewConnector(got); err != nil {
		t.Errorf("pq rejected dsn %q: %v", got, err)
	}
}
