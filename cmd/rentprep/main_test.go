package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rentprep/internal/config"
	"rentprep/internal/store"
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *store.Store
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.RawDir = filepath.Join(base, "raw")
	cfgVal.Paths.ExportDir = filepath.Join(base, "export")
	cfgVal.Paths.ReviewDir = filepath.Join(base, "review")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfg := &cfgVal

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return &cliTestEnv{cfg: cfg, store: st, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nraw_dir = %q\nexport_dir = %q\nreview_dir = %q\nlog_dir = %q\n",
		cfg.Paths.DataDir,
		cfg.Paths.RawDir,
		cfg.Paths.ExportDir,
		cfg.Paths.ReviewDir,
		cfg.Paths.LogDir,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("output %q does not contain %q", output, want)
	}
}

func TestCLIListingsCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	if _, err := env.store.NewListing(ctx, &store.Listing{
		Link:     "https://example.com/alpha",
		Title:    "Kawalerka Alpha",
		District: "Mokotów",
	}); err != nil {
		t.Fatalf("NewListing alpha: %v", err)
	}

	beta, err := env.store.NewListing(ctx, &store.Listing{
		Link:     "https://example.com/beta",
		Title:    "Mieszkanie Beta",
		District: "Wola",
	})
	if err != nil {
		t.Fatalf("NewListing beta: %v", err)
	}
	beta.Status = store.StatusFailed
	if err := env.store.Update(ctx, beta); err != nil {
		t.Fatalf("update beta: %v", err)
	}

	out, _, err := runCLI(t, []string{"listings", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("listings stats: %v", err)
	}
	requireContains(t, out, "pending")
	requireContains(t, out, "failed")

	out, _, err = runCLI(t, []string{"listings", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("listings list: %v", err)
	}
	requireContains(t, out, "Kawalerka Alpha")
	requireContains(t, out, "Mieszkanie Beta")

	out, _, err = runCLI(t, []string{"listings", "list", "--status", "failed"}, env.configPath)
	if err != nil {
		t.Fatalf("listings list --status: %v", err)
	}
	requireContains(t, out, "Mieszkanie Beta")
	if strings.Contains(out, "Kawalerka Alpha") {
		t.Fatalf("status filter leaked pending listing: %q", out)
	}

	out, _, err = runCLI(t, []string{"listings", "retry"}, env.configPath)
	if err != nil {
		t.Fatalf("listings retry: %v", err)
	}
	requireContains(t, out, "Requeued 1 listing(s)")
	requeued, err := env.store.GetByID(ctx, beta.ID)
	if err != nil {
		t.Fatalf("GetByID after retry: %v", err)
	}
	if requeued.Status != store.StatusPending {
		t.Fatalf("expected beta requeued to pending, got %s", requeued.Status)
	}

	out, _, err = runCLI(t, []string{"listings", "show", fmt.Sprintf("%d", beta.ID)}, env.configPath)
	if err != nil {
		t.Fatalf("listings show: %v", err)
	}
	requireContains(t, out, "Mieszkanie Beta")
	requireContains(t, out, "Wola")

	out, _, err = runCLI(t, []string{"listings", "clear", "--all"}, env.configPath)
	if err != nil {
		t.Fatalf("listings clear --all: %v", err)
	}
	requireContains(t, out, "Removed 2 listing(s)")

	out, _, err = runCLI(t, []string{"listings", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("listings list after clear: %v", err)
	}
	requireContains(t, out, "No listings found")
}

func TestCLIListingsClearRequiresFlag(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"listings", "clear"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "--failed") {
		t.Fatalf("expected flag guidance error, got %v", err)
	}
}

func TestCLIListingsExpire(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	link := "https://example.com/oferta/expire"
	if _, err := env.store.NewListing(ctx, &store.Listing{Link: link, Title: "Kawalerka Wola"}); err != nil {
		t.Fatalf("NewListing() error = %v", err)
	}

	stdout, _, err := runCLI(t, []string{"listings", "expire", link, "2025-03-15"}, env.configPath)
	if err != nil {
		t.Fatalf("expire error = %v", err)
	}
	requireContains(t, stdout, "Marked")

	listing, err := env.store.GetByLink(ctx, link)
	if err != nil {
		t.Fatalf("GetByLink() error = %v", err)
	}
	if listing == nil || !listing.Expired {
		t.Fatalf("listing = %+v, want expired", listing)
	}
	if got := listing.ExpiredAt.Format("2006-01-02"); got != "2025-03-15" {
		t.Errorf("ExpiredAt = %q, want 2025-03-15", got)
	}

	if _, _, err := runCLI(t, []string{"listings", "expire", link, "soon"}, env.configPath); err == nil {
		t.Fatal("expected error for malformed date")
	}
	if _, _, err := runCLI(t, []string{"listings", "expire", "https://example.com/none", "2025-03-15"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown link")
	}
}

func TestCLIReportOnSeededStore(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	listing, err := env.store.NewListing(ctx, &store.Listing{
		Link:     "https://example.com/done",
		Title:    "Gotowe mieszkanie",
		District: "Ochota",
	})
	if err != nil {
		t.Fatalf("NewListing: %v", err)
	}
	if err := listing.SetFeatures(store.Features{Rent: 4100}); err != nil {
		t.Fatalf("SetFeatures: %v", err)
	}
	listing.Status = store.StatusCompleted
	if err := env.store.Update(ctx, listing); err != nil {
		t.Fatalf("Update: %v", err)
	}

	out, _, err := runCLI(t, []string{"report"}, env.configPath)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	requireContains(t, out, "Total listings: 1")
	requireContains(t, out, "Ochota")
	requireContains(t, out, "rent")
}

func TestCLIExportCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	listing, err := env.store.NewListing(ctx, &store.Listing{
		Link:     "https://example.com/done",
		Title:    "Gotowe mieszkanie",
		District: "Ochota",
	})
	if err != nil {
		t.Fatalf("NewListing: %v", err)
	}
	if err := listing.SetFeatures(store.Features{Rent: 4100}); err != nil {
		t.Fatalf("SetFeatures: %v", err)
	}
	listing.Status = store.StatusCompleted
	if err := env.store.Update(ctx, listing); err != nil {
		t.Fatalf("Update: %v", err)
	}

	out, _, err := runCLI(t, []string{"export"}, env.configPath)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	requireContains(t, out, "Exported 1 row(s)")

	entries, err := os.ReadDir(env.cfg.Paths.ExportDir)
	if err != nil {
		t.Fatalf("read export dir: %v", err)
	}
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), "model_table_") {
		t.Fatalf("unexpected export dir contents: %v", entries)
	}
}
