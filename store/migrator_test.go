package store

import (
	"reflect"
	"testing"
)

func TestShouldApplyMigration(t *testing.T) {
	tests := []struct {
		fileVersion    string
		currentVersion string
		targetVersion  string
		want           bool
	}{
		{"0.2.1", "0.2.0", "0.2.2", true},
		{"0.2.1", "", "0.2.2", true},
		{"0.2.1", "0.2.1", "0.2.2", false},
		{"0.2.3", "0.2.0", "0.2.2", false},
		{"0.1.5", "0.2.0", "0.2.2", false},
	}
	for _, tt := range tests {
		got := shouldApplyMigration(tt.fileVersion, tt.currentVersion, tt.targetVersion)
		if got != tt.want {
			t.Errorf("shouldApplyMigration(%q, %q, %q) = %v, want %v",
				tt.fileVersion, tt.currentVersion, tt.targetVersion, got, tt.want)
		}
	}
}

func TestValidateMigrationFileName(t *testing.T) {
	valid := []string{"0__create_table.sql", "12__add_index.sql"}
	for _, name := range valid {
		if err := validateMigrationFileName(name); err != nil {
			t.Errorf("validateMigrationFileName(%q) = %v, want nil", name, err)
		}
	}
	invalid := []string{"create_table.sql", "x__create_table.sql"}
	for _, name := range invalid {
		if err := validateMigrationFileName(name); err == nil {
			t.Errorf("validateMigrationFileName(%q) = nil, want error", name)
		}
	}
}

func TestSplitSQL(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   []string
	}{
		{
			name:   "two statements",
			script: "CREATE TABLE a (id INT);\nCREATE TABLE b (id INT);",
			want:   []string{"CREATE TABLE a (id INT);", "CREATE TABLE b (id INT);"},
		},
		{
			name:   "comments and blank lines dropped",
			script: "-- header\n\nCREATE TABLE a (id INT); -- trailing\n",
			want:   []string{"CREATE TABLE a (id INT);"},
		},
		{
			name:   "semicolon inside string literal",
			script: "INSERT INTO t VALUES ('a;b');",
			want:   []string{"INSERT INTO t VALUES ('a;b');"},
		},
		{
			name:   "double dash inside string literal",
			script: "INSERT INTO t VALUES ('a--b');",
			want:   []string{"INSERT INTO t VALUES ('a--b');"},
		},
		{
			name:   "dollar quoted body kept together",
			script: "CREATE FUNCTION f() RETURNS void AS $$\nBEGIN; END;\n$$ LANGUAGE plpgsql;",
			want:   []string{"CREATE FUNCTION f() RETURNS void AS $$\nBEGIN; END;\n$$ LANGUAGE plpgsql;"},
		},
		{
			name:   "missing trailing semicolon",
			script: "CREATE TABLE a (id INT)",
			want:   []string{"CREATE TABLE a (id INT)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitSQL(tt.script)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitSQL() = %q, want %q", got, tt.want)
			}
		})
	}
}
