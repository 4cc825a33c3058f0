// File: cmd/doctor.go
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// doctorCheck is one environment diagnostic with its outcome.
type doctorCheck struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail"`
}

// newDoctorCmd creates the `doctor` command. It verifies the local
// environment can run a full generation and reports each check.
func newDoctorCmd() *cobra.Command {
	var asJSON bool

	doctorCmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the local environment and configuration.",
		RunE: func(cmd *cobra.Command, args []string) error {
			checks := runDoctorChecks()

			if asJSON {
				json := jsoniter.ConfigCompatibleWithStandardLibrary
				body, err := json.MarshalIndent(checks, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(body))
			} else {
				for _, c := range checks {
					status := "ok"
					if !c.OK {
						status = "FAIL"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "[%4s] %-24s %s\n", status, c.Name, c.Detail)
				}
			}

			for _, c := range checks {
				if !c.OK {
					return fmt.Errorf("environment check failed: %s", c.Name)
				}
			}
			return nil
		},
	}

	doctorCmd.Flags().BoolVar(&asJSON, "json", false, "emit machine-readable JSON")
	return doctorCmd
}

func runDoctorChecks() []doctorCheck {
	var checks []doctorCheck

	if used := viper.ConfigFileUsed(); used != "" {
		checks = append(checks, doctorCheck{"config-file", true, used})
	} else {
		checks = append(checks, doctorCheck{"config-file", true, "none found, using defaults"})
	}

	memCfg := appConfig.Memory()
	checks = append(checks, doctorCheck{
		Name:   "heap-budget",
		OK:     memCfg.MaxHeapBytes > 0,
		Detail: fmt.Sprintf("%d MiB budget, warn at %.0f%%, emergency at %.0f%%", memCfg.MaxHeapBytes>>20, memCfg.WarningFraction*100, memCfg.EmergencyFraction*100),
	})

	checks = append(checks, doctorCheck{
		Name:   "runtime",
		OK:     true,
		Detail: fmt.Sprintf("%s %s/%s, %d cpus", runtime.Version(), runtime.GOOS, runtime.GOARCH, runtime.NumCPU()),
	})

	checks = append(checks, writableCheck("output-dir", "./reports"))
	checks = append(checks, writableCheck("temp-dir", os.TempDir()))

	return checks
}

// writableCheck probes that files can actually be created at the target,
// not just that it exists.
func writableCheck(name, dir string) doctorCheck {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return doctorCheck{name, false, err.Error()}
	}
	probe, err := os.CreateTemp(dir, ".signaler-doctor-*")
	if err != nil {
		return doctorCheck{name, false, err.Error()}
	}
	probe.Close()
	os.Remove(probe.Name())

	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	return doctorCheck{name, true, abs + " is writable"}
}

func init() {
	rootCmd.AddCommand(newDoctorCmd())
}
