package db

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"
)

func TestBuildDSN_NoCertKeepsURL(t *testing.T) {
	in := "postgres://u:p@localhost:5432/penpal"
	got, err := buildDSN(in, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != in {
		t.Fatalf("got %q want %q", got, in)
	}
}

func TestBuildDSN_WithCertAddsSSLParams(t *testing.T) {
	cert := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(cert, []byte("cert"), 0o600); err != nil {
		t.Fatalf("write cert: %v", err)
	}
	got, err := buildDSN("postgres://u:p@localhost:5432/penpal", cert)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("parse dsn: %v", err)
	}
	if u.Query().Get("sslmode") != "verify-ca" || u.Query().Get("sslrootcert") != cert {
		t.Fatalf("ssl params missing: %s", got)
	}
}

func TestBuildDSN_MissingCert(t *testing.T) {
	if _, err := buildDSN("postgres://localhost/penpal", "/does/not/exist.pem"); err == nil {
		t.Fatalf("expected error for missing cert")
	}
}
