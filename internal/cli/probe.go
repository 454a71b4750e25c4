package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/heimdex/detectq/internal/api"
	"github.com/heimdex/detectq/internal/logging"
)

func newProbeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check connectivity to the detection store",
		RunE:  runProbe,
	}
	cmd.Flags().Bool("json", false, "print the HTTP response body instead of a table")
	return cmd
}

func runProbe(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := logging.NewLoggerTo(os.Stderr, cfg.LogLevel())

	database, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer database.Close()

	result, err := database.Probe(cmd.Context())
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(api.ProbeResponse{Data: result, Message: "Connection test successful"})
	}
	RenderProbe(out, result)
	return nil
}
