package cli

import (
	"testing"
)

func TestShowRequiresID(t *testing.T) {
	_, err := executeCommand("show")
	if err == nil {
		t.Fatal("expected error when no ID provided")
	}
}

func TestShowRejectsNonNumericID(t *testing.T) {
	_, err := executeCommand("show", "abc")
	if err == nil {
		t.Fatal("expected error for non-numeric ID")
	}
}

func TestIDArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bookmarks add no id", []string{"bookmarks", "add"}},
		{"bookmarks add zero", []string{"bookmarks", "add", "0"}},
		{"bookmarks remove two ids", []string{"bookmarks", "remove", "1", "2"}},
		{"alerts toggle no id", []string{"alerts", "toggle"}},
		{"alerts check negative", []string{"alerts", "check", "-3"}},
		{"alerts delete string", []string{"alerts", "delete", "abc"}},
		{"alerts matches no id", []string{"alerts", "matches"}},
		{"compare string", []string{"compare", "one"}},
		{"import no file", []string{"import"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestAlertsCreateRequiresName(t *testing.T) {
	_, err := executeCommand("alerts", "create")
	if err == nil {
		t.Fatal("expected error when no name provided")
	}
}

func TestAlertsCreateRejectsFrequency(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("HM_SERVER_URL", "http://127.0.0.1:1")

	_, err := executeCommand("alerts", "create", "Austin", "--frequency", "hourly")
	if err == nil || err.Error() != "invalid frequency: hourly (want immediate, daily or weekly)" {
		t.Fatalf("err = %v, want invalid frequency", err)
	}
}

func TestSearchRejectsSort(t *testing.T) {
	_, err := executeCommand("search", "--sort", "cheapest")
	if err == nil {
		t.Fatal("expected error for unknown sort")
	}
}

func TestServeAcceptsNoArgs(t *testing.T) {
	_, err := executeCommand("serve", "extra")
	if err == nil {
		t.Fatal("expected error for extra args")
	}
}
