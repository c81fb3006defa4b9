package cli

import (
	"bytes"
	"os"
	"testing"
)

// executeCommand runs a command with the given args and captures output.
func executeCommand(args ...string) (string, error) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootHelp(t *testing.T) {
	_, err := executeCommand("--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGlobalFlags(t *testing.T) {
	root := NewRootCmd()

	formatFlag := root.PersistentFlags().Lookup("format")
	if formatFlag == nil {
		t.Fatal("expected --format flag to exist")
	}
	if formatFlag.DefValue != "text" {
		t.Errorf("expected --format default 'text', got %q", formatFlag.DefValue)
	}

	if root.PersistentFlags().Lookup("db") == nil {
		t.Fatal("expected --db flag to exist")
	}
}

func TestSubcommands(t *testing.T) {
	root := NewRootCmd()

	for _, path := range [][]string{
		{"serve"}, {"login"}, {"logout"}, {"status"}, {"search"}, {"show"},
		{"import"}, {"compare"}, {"notifications"}, {"inbox"}, {"version"},
		{"bookmarks", "list"}, {"bookmarks", "add"}, {"bookmarks", "remove"},
		{"alerts", "list"}, {"alerts", "create"}, {"alerts", "toggle"},
		{"alerts", "check"}, {"alerts", "matches"}, {"alerts", "delete"},
	} {
		cmd, rest, err := root.Find(path)
		if err != nil || len(rest) != 0 || cmd == root {
			t.Errorf("command %v not registered (err=%v)", path, err)
		}
	}
}

func TestVersion(t *testing.T) {
	if _, err := executeCommand("version"); err != nil {
		t.Fatalf("version: %v", err)
	}
	if _, err := executeCommand("version", "--format", "json"); err != nil {
		t.Fatalf("version json: %v", err)
	}
}

func TestOpenDBFlagOverridesPath(t *testing.T) {
	dir := t.TempDir()
	flagDB = dir + "/flag.db"
	t.Cleanup(func() { flagDB = "" })

	d, err := openDB(dir + "/config.db")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer closeDB(d)

	if _, err := os.Stat(flagDB); err != nil {
		t.Errorf("expected database at --db path: %v", err)
	}
	if _, err := os.Stat(dir + "/config.db"); !os.IsNotExist(err) {
		t.Errorf("config path should not be created, stat err = %v", err)
	}
}
