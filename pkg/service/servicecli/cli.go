// Package servicecli wires the hidpreparse commands onto a cobra root
// command, the way pkg/agent/agentcli wired the original agent's commands.
package servicecli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/neuroplastio/hidpreparse/pkg/service"
	"github.com/neuroplastio/hidpreparse/pkg/usbhid/hiddesc"
	"github.com/neuroplastio/hidpreparse/pkg/usbhid/hidparse"
)

func Main(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	dir, err := os.UserConfigDir()
	if err != nil {
		return err
	}
	cmd := NewRootCmd(filepath.Join(dir, "hidpreparse"))
	cmd.SetArgs(args)
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	return cmd.ExecuteContext(ctx)
}

type serviceProvider func() (*service.Service, error)

func NewRootCmd(configDir string) *cobra.Command {
	cfg := service.Config{
		DataDir: filepath.Join(configDir, "data"),
	}
	rootCmd := &cobra.Command{
		Use:   "hidpreparse",
		Short: "HID report descriptor parser",
		Long:  `hidpreparse decodes USB HID report descriptors and builds their preparsed bit layout.`,
	}
	rootCmd.PersistentFlags().StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "data directory for the preparsed-data cache")
	svcProvider := func() (*service.Service, error) {
		return service.New(cfg)
	}

	rootCmd.AddCommand(NewDecode())
	rootCmd.AddCommand(NewEncode())
	rootCmd.AddCommand(NewDescribe(svcProvider))
	rootCmd.AddCommand(NewBatchDescribe(svcProvider))
	rootCmd.AddCommand(NewWatch(svcProvider, &cfg))
	rootCmd.AddCommand(NewCacheStats(svcProvider))
	return rootCmd
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 1 {
		return os.ReadFile(args[0])
	}
	return io.ReadAll(cmd.InOrStdin())
}

// NewDecode exposes pkg/usbhid/hiddesc's structural tree view: the same
// bytes hidparse turns into a flat capability blob, shown instead as the
// nested Collection/MainItem tree for human inspection.
func NewDecode() *cobra.Command {
	return &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode a raw report descriptor into its collection tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			desc, err := hiddesc.NewDescriptorDecoder(bytes.NewReader(raw)).Decode()
			if err != nil {
				return err
			}
			return printJSON(cmd, desc)
		},
	}
}

// NewEncode is decode's inverse: it reads the JSON tree decode prints and
// re-emits the binary report descriptor bytes.
func NewEncode() *cobra.Command {
	return &cobra.Command{
		Use:   "encode [file]",
		Short: "Encode a JSON collection tree back into descriptor bytes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			var desc hiddesc.ReportDescriptor
			if err := json.Unmarshal(raw, &desc); err != nil {
				return fmt.Errorf("failed to parse descriptor json: %w", err)
			}
			return hiddesc.NewDescriptorEncoder(cmd.OutOrStdout(), &desc).Encode()
		},
	}
}

// NewDescribe runs the actual preparsed-data build and prints the
// resulting per-report-ID byte lengths and capability counts.
func NewDescribe(svc serviceProvider) *cobra.Command {
	var dumpCaps string
	cmd := &cobra.Command{
		Use:   "describe [file]",
		Short: "Build preparsed data for a report descriptor and summarize it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			s, err := svc()
			if err != nil {
				return err
			}
			defer s.Close()

			if dumpCaps != "" {
				data, err := s.Parse(raw)
				if err != nil {
					return err
				}
				kind, err := parseReportKind(dumpCaps)
				if err != nil {
					return err
				}
				caps, err := hidparse.ValueCapsByKind(data, kind)
				if err != nil {
					return err
				}
				return printJSON(cmd, caps)
			}

			desc, err := s.Describe(raw)
			if err != nil {
				return err
			}
			return printJSON(cmd, desc)
		},
	}
	cmd.Flags().StringVar(&dumpCaps, "caps", "", "dump one capability array instead of the summary: input, output, feature, or collection")
	return cmd
}

// NewBatchDescribe demonstrates hidparse's reentrancy (spec.md 5): every
// file argument is parsed concurrently via golang.org/x/sync/errgroup.
func NewBatchDescribe(svc serviceProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "batch-describe [files...]",
		Short: "Describe many report descriptors concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := svc()
			if err != nil {
				return err
			}
			defer s.Close()

			raws := make([][]byte, len(args))
			for i, path := range args {
				raw, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				raws[i] = raw
			}

			results, err := s.BatchDescribe(cmd.Context(), raws)
			if err != nil {
				return err
			}
			return printJSON(cmd, results)
		},
	}
}

// NewWatch runs the config-file-watching path: every descriptor already
// in --watch-dir is parsed immediately, and newly written ones are parsed
// as fsnotify reports them (pkg/service.Service.Run).
func NewWatch(svc serviceProvider, cfg *service.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a directory of report descriptors and log their shape as they appear",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := svc()
			if err != nil {
				return err
			}
			defer s.Close()
			return s.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&cfg.WatchDir, "watch-dir", cfg.WatchDir, "directory of report descriptor files to watch")
	return cmd
}

func NewCacheStats(svc serviceProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "cache-stats",
		Short: "Print preparsed-data cache hit/miss counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := svc()
			if err != nil {
				return err
			}
			defer s.Close()
			return printJSON(cmd, s.CacheStats())
		},
	}
}

func parseReportKind(s string) (hidparse.ReportKind, error) {
	switch s {
	case "input":
		return hidparse.ReportKindInput, nil
	case "output":
		return hidparse.ReportKindOutput, nil
	case "feature":
		return hidparse.ReportKindFeature, nil
	case "collection":
		return hidparse.ReportKindCollection, nil
	default:
		return 0, fmt.Errorf("unknown caps kind %q", s)
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	jsonB, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(jsonB))
	return nil
}
