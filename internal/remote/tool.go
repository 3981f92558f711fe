package remote

import (
	"context"

	"github.com/weissjeffm/mybot/internal/tools"
)

// Config names the machines the remote tools operate on.
type Config struct {
	// Host receives run_cmd commands.
	Host string
	// User is the default login for run_cmd.
	User string
	// IPMIHost is the machine whose sensors check_temps reads. Empty
	// means run ipmitool on Host itself.
	IPMIHost string
}

// RegisterTools adds the run_cmd and check_temps tools backed by exec.
func RegisterTools(reg *tools.Registry, exec Executor, cfg Config) {
	defaultUser := cfg.User
	if defaultUser == "" {
		defaultUser = "root"
	}

	reg.Register(&tools.Tool{
		Name:        "run_cmd",
		Description: "Run a shell command on the home server over SSH and return its output.",
		Params: []tools.Param{
			{Name: "command", Doc: "The shell command to run."},
			{Name: "user", Default: defaultUser, HasDefault: true, Doc: "Login to run the command as."},
		},
		Handler: func(ctx context.Context, args map[string]any) (*tools.Result, error) {
			command := tools.StringArg(args, "command", "")
			if command == "" {
				return tools.Errorf("command is required"), nil
			}
			user := tools.StringArg(args, "user", defaultUser)

			out, err := exec.Run(ctx, cfg.Host, user, command)
			if err != nil {
				if out != "" {
					return tools.Errorf("%v\n%s", err, out), nil
				}
				return tools.Errorf("SSH Error: %v", err), nil
			}
			return tools.OK(out), nil
		},
	})

	ipmiHost := cfg.IPMIHost
	if ipmiHost == "" {
		ipmiHost = cfg.Host
	}

	reg.Register(&tools.Tool{
		Name:        "check_temps",
		Description: "Read the server's temperature sensors via IPMI.",
		Handler: func(ctx context.Context, args map[string]any) (*tools.Result, error) {
			out, err := exec.Run(ctx, ipmiHost, defaultUser, "sudo ipmitool sdr type temperature")
			if err != nil {
				return tools.Errorf("IPMI Error (is ipmitool installed?): %v", err), nil
			}
			return tools.OK(out), nil
		},
	})
}
