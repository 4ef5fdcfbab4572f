package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/samermassoud/eduvpn-client/common"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.ServerListURL != common.DefaultServerListURL {
		t.Errorf("ServerListURL = %q, want %q", cfg.ServerListURL, common.DefaultServerListURL)
	}
	if cfg.OrganizationListURL != common.DefaultOrganizationListURL {
		t.Errorf("OrganizationListURL = %q, want %q", cfg.OrganizationListURL, common.DefaultOrganizationListURL)
	}
	if cfg.RequestTimeout != common.RequestTimeout {
		t.Errorf("RequestTimeout = %v, want %v", cfg.RequestTimeout, common.RequestTimeout)
	}
	if len(cfg.PreferredLocales) == 0 {
		t.Error("PreferredLocales is empty")
	}
	if !cfg.UseBundledDiscovery {
		t.Error("UseBundledDiscovery = false, want true")
	}
	if !cfg.ShowNotifications {
		t.Error("ShowNotifications = false, want true")
	}
}

func TestLoadFrom_CreatesDefaultWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.ServerListURL != common.DefaultServerListURL {
		t.Errorf("ServerListURL = %q, want default", cfg.ServerListURL)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file was not created: %v", err)
	}
}

func TestSaveAndLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	original := &Config{
		ServerListURL:       "https://disco.example.org/server_list.json",
		OrganizationListURL: "https://disco.example.org/organization_list.json",
		RequestTimeout:      30 * time.Second,
		PreferredLocales:    []string{"nl-NL", "en-US"},
		ForceTCP:            true,
		UseBundledDiscovery: false,
		ShowNotifications:   false,
	}
	if err := original.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if loaded.ServerListURL != original.ServerListURL {
		t.Errorf("ServerListURL = %q, want %q", loaded.ServerListURL, original.ServerListURL)
	}
	if loaded.RequestTimeout != original.RequestTimeout {
		t.Errorf("RequestTimeout = %v, want %v", loaded.RequestTimeout, original.RequestTimeout)
	}
	if len(loaded.PreferredLocales) != 2 || loaded.PreferredLocales[0] != "nl-NL" {
		t.Errorf("PreferredLocales = %v, want %v", loaded.PreferredLocales, original.PreferredLocales)
	}
	if !loaded.ForceTCP {
		t.Error("ForceTCP = false, want true")
	}
	if loaded.UseBundledDiscovery {
		t.Error("UseBundledDiscovery = true, want false")
	}
}

func TestLoadFrom_RejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "server_list_url: https://disco.example.org/server_list.json\nbogus_setting: true\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFrom(path)
	if err == nil {
		t.Fatal("LoadFrom() error = nil, want unknown-field rejection")
	}
	if !strings.Contains(err.Error(), "parsing") {
		t.Errorf("error = %v, want a parse error", err)
	}
}

func TestLoadFrom_FillsMissingFieldsWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "force_tcp: true\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if !cfg.ForceTCP {
		t.Error("ForceTCP = false, want true from file")
	}
	if cfg.ServerListURL != common.DefaultServerListURL {
		t.Errorf("ServerListURL = %q, want default fill-in", cfg.ServerListURL)
	}
	if cfg.RequestTimeout != common.RequestTimeout {
		t.Errorf("RequestTimeout = %v, want default fill-in", cfg.RequestTimeout)
	}
	if len(cfg.PreferredLocales) == 0 {
		t.Error("PreferredLocales empty, want default fill-in")
	}
}

func TestLoadFrom_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":\n  - ["), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Fatal("LoadFrom() error = nil for malformed YAML")
	}
}
