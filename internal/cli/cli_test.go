package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"tripcore/pkg/domain"
)

// runCommand executes the root command with args against an isolated data
// directory.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	rootCmd.SetArgs(nil)
	return out.String(), err
}

func setupDataDir(t *testing.T) {
	t.Helper()
	t.Setenv("TRIPCORE_DATA_DIR", t.TempDir())
	t.Setenv("TRIPCORE_LINES_DRIVER", "memory")
	viper.Reset()
}

func TestCommandTreeIsRegistered(t *testing.T) {
	want := map[string]bool{
		"project": false, "category": false, "poi": false,
		"line": false, "import": false, "export": false,
	}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("command %q not registered", name)
		}
	}
}

func TestProjectListShowsDefault(t *testing.T) {
	setupDataDir(t)
	out, err := runCommand(t, "project", "list")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "* "+domain.DefaultProjectName) {
		t.Fatalf("output %q", out)
	}
}

func TestProjectCreateAndCategoryFlow(t *testing.T) {
	setupDataDir(t)

	if _, err := runCommand(t, "project", "create", "Summer"); err != nil {
		t.Fatalf("create: %v", err)
	}
	out, err := runCommand(t, "project", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "* Summer") {
		t.Fatalf("output %q", out)
	}

	if _, err := runCommand(t, "category", "add", "Day1"); err != nil {
		t.Fatalf("category add: %v", err)
	}
	out, err = runCommand(t, "category", "list")
	if err != nil {
		t.Fatalf("category list: %v", err)
	}
	if !strings.Contains(out, domain.DefaultCategory) || !strings.Contains(out, "Day1") {
		t.Fatalf("output %q", out)
	}

	if _, err := runCommand(t, "poi", "add", "Beach", "--lon", "115.75", "--lat", "-32.05", "--category", "Day1"); err != nil {
		t.Fatalf("poi add: %v", err)
	}
	out, err = runCommand(t, "poi", "list", "--category", "Day1")
	if err != nil {
		t.Fatalf("poi list: %v", err)
	}
	if !strings.Contains(out, "Beach") {
		t.Fatalf("output %q", out)
	}
}

func TestPOIRemoveModes(t *testing.T) {
	setupDataDir(t)

	if _, err := runCommand(t, "category", "add", "Day1"); err != nil {
		t.Fatalf("category add: %v", err)
	}
	out, err := runCommand(t, "poi", "add", "Beach", "--lon", "115.75", "--lat", "-32.05", "--category", "Day1")
	if err != nil {
		t.Fatalf("poi add: %v", err)
	}
	fields := strings.Fields(out)
	if len(fields) < 4 {
		t.Fatalf("add output %q", out)
	}
	id := fields[3]

	// Default removal relocates the feature to the default category.
	if _, err := runCommand(t, "poi", "remove", id, "--category", "Day1", "--index", "0"); err != nil {
		t.Fatalf("poi remove: %v", err)
	}
	out, err = runCommand(t, "poi", "list", "--category", domain.DefaultCategory)
	if err != nil {
		t.Fatalf("poi list: %v", err)
	}
	if !strings.Contains(out, "Beach") {
		t.Fatalf("feature not relocated to default: %q", out)
	}

	// --completely deletes it from the project.
	if _, err := runCommand(t, "poi", "remove", id, "--category", domain.DefaultCategory, "--index", "0", "--completely"); err != nil {
		t.Fatalf("poi remove --completely: %v", err)
	}
	out, err = runCommand(t, "poi", "list", "--category", domain.DefaultCategory)
	if err != nil {
		t.Fatalf("poi list: %v", err)
	}
	if strings.Contains(out, "Beach") {
		t.Fatalf("feature survived complete removal: %q", out)
	}
}

func TestCategoryMoveRejectsBadDirection(t *testing.T) {
	setupDataDir(t)
	if _, err := runCommand(t, "category", "move", "Day1", "sideways"); err == nil {
		t.Fatalf("expected error for bad direction")
	}
}
