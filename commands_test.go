package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"Lookout/mcp"
)

// runCommand executes the root command with args against a temporary config
// directory and returns what it printed.
func runCommand(t *testing.T, configDir string, args ...string) (string, error) {
	t.Helper()
	// Flag variables outlive a single Execute.
	dumpTitle, jsonOutput = "", false
	locatorText, locatorFile, jsExpr = "", "", ""
	pointX, pointY = 0, 0
	listLimit, exportName = 20, ""
	replayDumps, mcpDumps = nil, nil
	logToFile, logLines = false, 50

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append([]string{"--config-dir", configDir}, args...))
	err := rootCmd.Execute()
	if err != nil {
		teardown()
	}
	return out.String(), err
}

func TestTreeCommand(t *testing.T) {
	dir := t.TempDir()
	dump := writeDump(t, "login.xml", loginDumpXML)

	out, err := runCommand(t, dir, "tree", dump, "--title", "Login")
	if err != nil {
		t.Fatalf("tree failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 7 {
		t.Fatalf("expected 7 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], `Frame title="Login"`) {
		t.Errorf("unexpected root line %q", lines[0])
	}
	if want := `    Button name="login" text="Login" [0,200][540,300]`; lines[5] != want {
		t.Errorf("expected %q, got %q", want, lines[5])
	}

	out, err = runCommand(t, dir, "tree", dump, "--json")
	if err != nil {
		t.Fatalf("tree --json failed: %v", err)
	}
	var roots []mcp.TreeNode
	if err := json.Unmarshal([]byte(out), &roots); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(roots) != 1 || roots[0].Title != "com.app" {
		t.Errorf("unexpected roots %+v", roots)
	}
}

func TestFindCommand(t *testing.T) {
	dir := t.TempDir()
	dump := writeDump(t, "login.xml", loginDumpXML)

	out, err := runCommand(t, dir, "find", dump, "--locator", `class: android.widget.Button\nname: login`)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	var info mcp.WidgetInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if info.Name != "login" || info.Key != "login.button" {
		t.Errorf("unexpected widget %+v", info)
	}

	locFile := filepath.Join(t.TempDir(), "loc.yaml")
	if err := os.WriteFile(locFile, []byte("class: android.widget.Button\n"), 0644); err != nil {
		t.Fatal(err)
	}
	out, err = runCommand(t, dir, "find", dump, "--file", locFile)
	if err == nil {
		t.Fatal("expected error for an ambiguous locator")
	}
	if !strings.Contains(out, "login") || !strings.Contains(out, "cancel") {
		t.Errorf("candidates should be listed, got:\n%s", out)
	}

	out, err = runCommand(t, dir, "find", dump, "--js", `isA("Button")`)
	if err != nil {
		t.Fatalf("find --js failed: %v", err)
	}
	var infos []mcp.WidgetInfo
	if err := json.Unmarshal([]byte(out), &infos); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(infos) != 2 {
		t.Errorf("expected 2 buttons, got %d", len(infos))
	}

	if _, err := runCommand(t, dir, "find", dump); err == nil {
		t.Error("expected error without a locator")
	}
}

func TestSuggestCommand(t *testing.T) {
	dir := t.TempDir()
	dump := writeDump(t, "login.xml", loginDumpXML)

	out, err := runCommand(t, dir, "suggest", dump, "-x", "270", "-y", "250")
	if err != nil {
		t.Fatalf("suggest failed: %v", err)
	}
	if !strings.HasPrefix(out, "1. [name] priority 5") {
		t.Errorf("unexpected output:\n%s", out)
	}

	if _, err := runCommand(t, dir, "suggest", dump, "-x", "5000", "-y", "5000"); err == nil {
		t.Error("expected error for an empty point")
	}
}

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()

	if _, err := runCommand(t, dir, "config", "set", "log-level", "debug"); err != nil {
		t.Fatalf("config set failed: %v", err)
	}
	if _, err := runCommand(t, dir, "config", "set", "dispose-timeout", "5s"); err != nil {
		t.Fatalf("config set failed: %v", err)
	}
	if _, err := runCommand(t, dir, "config", "set", "dispose-timeout", "soon"); err == nil {
		t.Error("expected error for a bad duration")
	}
	if _, err := runCommand(t, dir, "config", "set", "colour", "blue"); err == nil {
		t.Error("expected error for an unknown key")
	}

	out, err := runCommand(t, dir, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(out, `"logLevel": "debug"`) || !strings.Contains(out, `"disposeTimeoutMs": 5000`) {
		t.Errorf("settings not persisted:\n%s", out)
	}
}

func TestStepsListEmpty(t *testing.T) {
	out, err := runCommand(t, t.TempDir(), "steps", "list")
	if err != nil {
		t.Fatalf("steps list failed: %v", err)
	}
	if !strings.Contains(out, "Recordings (0):") || !strings.Contains(out, "Scripts (0):") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestLogsCommand(t *testing.T) {
	dir := t.TempDir()
	dump := writeDump(t, "login.xml", loginDumpXML)

	if _, err := runCommand(t, dir, "logs"); err == nil {
		t.Error("expected error without file logging")
	}

	if _, err := runCommand(t, dir, "--log-file", "tree", dump); err != nil {
		t.Fatalf("tree failed: %v", err)
	}
	out, err := runCommand(t, dir, "--log-file", "logs", "--lines", "20")
	if err != nil {
		t.Fatalf("logs failed: %v", err)
	}
	if !strings.Contains(out, "User action") || !strings.Contains(out, "login.xml") {
		t.Errorf("expected the dump load in the log, got:\n%s", out)
	}
	if n := len(strings.Split(strings.TrimSpace(out), "\n")); n > 20 {
		t.Errorf("expected at most 20 lines, got %d", n)
	}

	if _, err := runCommand(t, dir, "--log-file", "logs", "--lines", "0"); err == nil {
		t.Error("expected error for --lines 0")
	}
}
