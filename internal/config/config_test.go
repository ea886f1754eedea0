package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "LISTEN_ADDR", "DATABASE_PATH", "ADMIN_EMAIL", "ADMIN_EMAILS", "CORS_ORIGINS", "SITE_BASE_URL"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("expected default listen addr :8080, got %q", cfg.ListenAddr)
	}
	if cfg.DatabasePath != "sikk.db" {
		t.Fatalf("expected default database path, got %q", cfg.DatabasePath)
	}
	if len(cfg.Access.AdminEmails) != 0 {
		t.Fatalf("expected no admin emails, got %v", cfg.Access.AdminEmails)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != cfg.SiteBaseURL {
		t.Fatalf("expected cors origins to fall back to site url, got %v", cfg.CORSOrigins)
	}
}

func TestLoadMergesAdminEmails(t *testing.T) {
	t.Setenv("ADMIN_EMAIL", " Owner@Example.com ")
	t.Setenv("ADMIN_EMAILS", "second@example.com, owner@example.com")

	cfg := Load()
	if len(cfg.Access.AdminEmails) != 2 {
		t.Fatalf("expected 2 admin emails, got %v", cfg.Access.AdminEmails)
	}
	if !cfg.Access.IsAdminEmail("OWNER@example.com") {
		t.Fatal("expected admin email match to ignore case")
	}
	if cfg.Access.IsAdminEmail("") {
		t.Fatal("empty email must never be admin")
	}
	if cfg.Access.IsAdminEmail("alice@example.com") {
		t.Fatal("unexpected admin match")
	}
}
