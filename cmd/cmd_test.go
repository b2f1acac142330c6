package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/aceteam-ai/wuscore/internal/score"
)

const exampleLog = `09:00:00:WU1:FS00:0x1:Project: 100 (Run 0, Clone 0, Gen 0)
09:10:00:WU2:FS01:0x22:Project: 200 (Run 1, Clone 2, Gen 3)
09:30:00:WU1:FS00:Final credit estimate, 12.5 points
`

// resetFlags restores package-level flag values between command runs.
func resetFlags() {
	cfgFile = ""
	debugMode = false
	todayFlag = ""
	scoreQuiet = false
	noColor = false
	summaryJSON = false
	summaryHost = false
	syncWatch = false
	storePath = ""
	redisURL = ""
	nodeID = ""
}

// runCommand executes the root command with args and returns its output.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// writeFile writes content to name inside dir and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// setupWorkspace writes a config pointing the store into a temp dir and the
// example log, and returns their paths.
func setupWorkspace(t *testing.T, extraConfig string) (configPath, logPath string) {
	t.Helper()
	dir := t.TempDir()
	config := "store:\n  path: " + filepath.Join(dir, "records.db") + "\n" + extraConfig
	configPath = writeFile(t, dir, "config.yaml", config)
	logPath = writeFile(t, dir, "log-20240101-1.txt", exampleLog)
	return configPath, logPath
}

func TestScoreCommand(t *testing.T) {
	cfg, log := setupWorkspace(t, "")

	out, err := runCommand(t, "score", "--config", cfg, log)
	if err != nil {
		t.Fatalf("score: %v", err)
	}

	want := "2024-01-01T09:00:00\t2024-01-01T09:30:00\t0:30:00\t100\tCPU\tWU1\t12.5\n" +
		"Total points: 12.5\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestScoreCommandQuiet(t *testing.T) {
	cfg, log := setupWorkspace(t, "")

	out, err := runCommand(t, "score", "--config", cfg, "--quiet", log)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if strings.Contains(out, "Total points") {
		t.Errorf("quiet output contains total: %q", out)
	}
}

func TestScoreCommandToday(t *testing.T) {
	cfg, _ := setupWorkspace(t, "")
	log := writeFile(t, t.TempDir(), "current.log", exampleLog)

	out, err := runCommand(t, "score", "--config", cfg, "--today", "2023-06-15", log)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if !strings.HasPrefix(out, "2023-06-15T09:00:00\t2023-06-15T09:30:00") {
		t.Errorf("output = %q, want dates from --today", out)
	}

	if _, err := runCommand(t, "score", "--config", cfg, "--today", "15/06/2023", log); err == nil {
		t.Error("expected error for invalid --today")
	}
}

func TestScoreCommandMissingLog(t *testing.T) {
	cfg, log := setupWorkspace(t, "")
	missing := filepath.Join(t.TempDir(), "log-20240101-9.txt")

	if _, err := runCommand(t, "score", "--config", cfg, missing); err == nil {
		t.Error("expected error when no log can be read")
	}

	out, err := runCommand(t, "score", "--config", cfg, missing, log)
	if err != nil {
		t.Fatalf("score with one missing log: %v", err)
	}
	if !strings.Contains(out, "Total points: 12.5") {
		t.Errorf("output = %q", out)
	}
}

func TestScoreCommandSlotsFromConfig(t *testing.T) {
	cfg, _ := setupWorkspace(t, "slots:\n  FS02: gpu\n")
	log := writeFile(t, t.TempDir(), "log-20240101-2.txt",
		"08:00:00:WU5:FS02:Project: 300 (Run 0, Clone 0, Gen 0)\n"+
			"10:00:00:WU5:FS02:Final credit estimate, 40 points\n")

	out, err := runCommand(t, "score", "--config", cfg, log)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if !strings.Contains(out, "\t2:00:00\t300\tGPU\tWU5\t40\n") {
		t.Errorf("output = %q, want FS02 rendered as GPU", out)
	}
}

func TestSummaryCommand(t *testing.T) {
	cfg, log := setupWorkspace(t, "")

	out, err := runCommand(t, "summary", "--config", cfg, log)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	for _, want := range []string{"WORK UNITS", "Total points:", "12.5", "In flight:", "FS01", "No idle time recorded.", "No dumped units."} {
		if !strings.Contains(out, want) {
			t.Errorf("summary output missing %q:\n%s", want, out)
		}
	}
}

func TestSummaryCommandHost(t *testing.T) {
	cfg, log := setupWorkspace(t, "")

	out, err := runCommand(t, "summary", "--config", cfg, "--host", log)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	for _, want := range []string{"HOST", "Memory:", "CPU:"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary output missing %q:\n%s", want, out)
		}
	}
}

func TestSummaryCommandJSON(t *testing.T) {
	cfg, log := setupWorkspace(t, "")

	out, err := runCommand(t, "summary", "--config", cfg, "--json", log)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	var s score.Summary
	if err := json.Unmarshal([]byte(out), &s); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if s.Completed != 1 || s.InFlight != 1 {
		t.Errorf("completed/inFlight = %d/%d, want 1/1", s.Completed, s.InFlight)
	}
	if s.Points[score.SlotCPU] != 12.5 {
		t.Errorf("CPU points = %v, want 12.5", s.Points[score.SlotCPU])
	}
}

func TestRecordCommand(t *testing.T) {
	cfg, log := setupWorkspace(t, "node_id: test-node\n")

	out, err := runCommand(t, "record", "--config", cfg, log)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !strings.HasPrefix(out, "Recorded 1 new work units (0 already known)") {
		t.Errorf("first record output = %q", out)
	}

	out, err = runCommand(t, "record", "--config", cfg, log)
	if err != nil {
		t.Fatalf("record again: %v", err)
	}
	if !strings.HasPrefix(out, "Recorded 0 new work units (1 already known)") {
		t.Errorf("second record output = %q", out)
	}
}

func setupRedis(t *testing.T) (string, *goredis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { raw.Close() })
	return "redis://" + mr.Addr(), raw
}

func TestSyncCommand(t *testing.T) {
	url, raw := setupRedis(t)
	cfg, log := setupWorkspace(t, "node_id: test-node\nsync:\n  rate: 0\n")

	if _, err := runCommand(t, "record", "--config", cfg, log); err != nil {
		t.Fatalf("record: %v", err)
	}

	out, err := runCommand(t, "sync", "--config", cfg, "--redis-url", url)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if !strings.HasPrefix(out, "Synced 1 work units to wuscore:records") {
		t.Errorf("sync output = %q", out)
	}

	n, err := raw.XLen(context.Background(), "wuscore:records").Result()
	if err != nil {
		t.Fatalf("XLEN: %v", err)
	}
	if n != 1 {
		t.Errorf("stream length = %d, want 1", n)
	}

	out, err = runCommand(t, "sync", "--config", cfg, "--redis-url", url)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if !strings.HasPrefix(out, "Synced 0 work units") {
		t.Errorf("second sync output = %q", out)
	}
}

func TestSyncCommandUnreachableRedis(t *testing.T) {
	cfg, _ := setupWorkspace(t, "node_id: test-node\n")

	if _, err := runCommand(t, "sync", "--config", cfg, "--redis-url", "redis://127.0.0.1:1"); err == nil {
		t.Error("expected error for unreachable Redis")
	}
}

func TestPublishCommand(t *testing.T) {
	url, raw := setupRedis(t)
	cfg, log := setupWorkspace(t, "")

	ctx := context.Background()
	sub := raw.Subscribe(ctx, "wuscore:summary:test-node")
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	out, err := runCommand(t, "publish", "--config", cfg, "--redis-url", url, "--node-id", "test-node", log)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !strings.HasPrefix(out, "Published summary of 1 work units to wuscore:summary:test-node") {
		t.Errorf("publish output = %q", out)
	}

	msg, err := sub.ReceiveMessage(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	var payload struct {
		NodeID  string        `json:"nodeId"`
		Summary score.Summary `json:"summary"`
		Host    struct {
			Name string `json:"name"`
		} `json:"host"`
	}
	if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if payload.NodeID != "test-node" || payload.Summary.TotalPoints != 12.5 || payload.Host.Name == "" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if out != "wuscore version "+Version+"\n" {
		t.Errorf("version output = %q", out)
	}
}
