package remote

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/weissjeffm/mybot/internal/tools"
)

func TestFormatOutput(t *testing.T) {
	tests := []struct {
		name   string
		stdout string
		stderr string
		want   string
	}{
		{"stdout only", "uptime is 40 days\n", "", "uptime is 40 days"},
		{"nothing", "", "", "Success (No Output)"},
		{"stderr flagged", "partial\n", "permission denied\n", "STDERR: permission denied\nSTDOUT: partial"},
		{"stderr alone", "", "oops", "STDERR: oops\nSTDOUT: "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatOutput(tt.stdout, tt.stderr); got != tt.want {
				t.Errorf("FormatOutput = %q, want %q", got, tt.want)
			}
		})
	}
}

type stubExecutor struct {
	lastHost, lastUser, lastCommand string
	out                             string
	err                             error
}

func (s *stubExecutor) Run(ctx context.Context, host, user, command string) (string, error) {
	s.lastHost, s.lastUser, s.lastCommand = host, user, command
	return s.out, s.err
}

func TestRunCmdTool(t *testing.T) {
	exec := &stubExecutor{out: "total 12K"}
	reg := tools.NewRegistry()
	RegisterTools(reg, exec, Config{Host: "server.lan", User: "gamer"})

	res := reg.Execute(context.Background(), "run_cmd", []any{"ls -lh"}, nil)
	if res.Status != tools.StatusOK || res.Message != "total 12K" {
		t.Fatalf("res = %+v", res)
	}
	if exec.lastHost != "server.lan" || exec.lastUser != "gamer" || exec.lastCommand != "ls -lh" {
		t.Errorf("exec saw %s@%s: %q", exec.lastUser, exec.lastHost, exec.lastCommand)
	}
}

func TestRunCmdUserOverride(t *testing.T) {
	exec := &stubExecutor{out: "ok"}
	reg := tools.NewRegistry()
	RegisterTools(reg, exec, Config{Host: "server.lan"})

	res := reg.Execute(context.Background(), "run_cmd",
		[]any{"whoami"}, map[string]any{"user": "backup"})
	if res.Status != tools.StatusOK {
		t.Fatalf("res = %+v", res)
	}
	if exec.lastUser != "backup" {
		t.Errorf("user = %q", exec.lastUser)
	}
}

func TestRunCmdFailure(t *testing.T) {
	exec := &stubExecutor{err: errors.New("connection refused")}
	reg := tools.NewRegistry()
	RegisterTools(reg, exec, Config{Host: "server.lan"})

	res := reg.Execute(context.Background(), "run_cmd", []any{"true"}, nil)
	if res.Status != tools.StatusError {
		t.Fatalf("res = %+v", res)
	}
	if !strings.Contains(res.Message, "connection refused") {
		t.Errorf("Message = %q", res.Message)
	}
}

func TestCheckTempsUsesIPMIHost(t *testing.T) {
	exec := &stubExecutor{out: "CPU Temp | 45 degrees C | ok"}
	reg := tools.NewRegistry()
	RegisterTools(reg, exec, Config{Host: "server.lan", IPMIHost: "bmc.lan"})

	res := reg.Execute(context.Background(), "check_temps", nil, nil)
	if res.Status != tools.StatusOK {
		t.Fatalf("res = %+v", res)
	}
	if exec.lastHost != "bmc.lan" {
		t.Errorf("host = %q, want the IPMI host", exec.lastHost)
	}
	if !strings.Contains(exec.lastCommand, "ipmitool sdr type temperature") {
		t.Errorf("command = %q", exec.lastCommand)
	}
}
