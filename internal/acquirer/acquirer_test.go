package acquirer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFixture(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "release_info.yaml"), []byte(body), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
}

func TestGetReleaseInfo(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, `
version: "2024_02"
release_date: "21-Feb-2024"
swissprot_entry_count: 571168
trembl_entry_count: 269075841
`)

	a := NewLocalAcquirer(dir)
	info, err := a.GetReleaseInfo(context.Background())
	if err != nil {
		t.Fatalf("GetReleaseInfo returned error: %v", err)
	}
	if info.Version != "2024_02" {
		t.Errorf("Version = %q, want %q", info.Version, "2024_02")
	}
	if info.SwissProtEntryCount != 571168 {
		t.Errorf("SwissProtEntryCount = %d, want 571168", info.SwissProtEntryCount)
	}
	if info.TremblEntryCount != 269075841 {
		t.Errorf("TremblEntryCount = %d, want 269075841", info.TremblEntryCount)
	}
}

func TestGetReleaseInfoMissingFile(t *testing.T) {
	a := NewLocalAcquirer(t.TempDir())
	if _, err := a.GetReleaseInfo(context.Background()); err == nil {
		t.Error("expected error for missing release_info.yaml")
	}
}

func TestGetReleaseInfoMissingVersion(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, `release_date: "21-Feb-2024"`)

	a := NewLocalAcquirer(dir)
	if _, err := a.GetReleaseInfo(context.Background()); err == nil {
		t.Error("expected error for missing version field")
	}
}

func TestCheckSourceFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "uniprot_sprot.xml.gz"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	a := NewLocalAcquirer(dir)
	if err := a.CheckSourceFiles([]string{"swissprot"}); err != nil {
		t.Errorf("CheckSourceFiles(swissprot) = %v, want nil", err)
	}
	if err := a.CheckSourceFiles([]string{"trembl"}); err == nil {
		t.Error("CheckSourceFiles(trembl) should fail, file absent")
	}
	if err := a.CheckSourceFiles([]string{"unknown"}); err == nil {
		t.Error("CheckSourceFiles(unknown) should fail, unknown dataset")
	}
}

func TestSourcePath(t *testing.T) {
	a := NewLocalAcquirer("/data")
	path, err := a.SourcePath("swissprot")
	if err != nil {
		t.Fatalf("SourcePath returned error: %v", err)
	}
	if path != filepath.Join("/data", "uniprot_sprot.xml.gz") {
		t.Errorf("SourcePath = %q", path)
	}

	if _, err := a.SourcePath("bogus"); err == nil {
		t.Error("SourcePath(bogus) should fail")
	}
}
