package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildSchema(t *testing.T) {
	var buf bytes.Buffer
	if err := encodeSchema(&buf, buildSchema()); err != nil {
		t.Fatalf("encodeSchema: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("schema is not JSON: %v", err)
	}
	text := buf.String()
	for _, want := range []string{`"parts"`, `"flight_direction"`, `"rotation"`, "Ship blueprint"} {
		if !strings.Contains(text, want) {
			t.Errorf("schema missing %s", want)
		}
	}
}

func TestWriteSchema(t *testing.T) {
	out := filepath.Join(t.TempDir(), "schemas", "blueprint.json")
	if err := writeSchema(out, buildSchema()); err != nil {
		t.Fatalf("writeSchema: %v", err)
	}
	if _, err := os.Stat(out + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(data) {
		t.Error("written schema is not valid JSON")
	}
}
