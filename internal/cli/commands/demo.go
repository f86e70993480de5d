package commands

import (
	"fmt"
	"os"

	"github.com/conduit-lang/vardump/internal/cli/ui"
	"github.com/conduit-lang/vardump/internal/demo"
	"github.com/conduit-lang/vardump/internal/settings"
	"github.com/conduit-lang/vardump/pkg/vardump"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newDemoCommand(flags *globalFlags) *cobra.Command {
	var (
		out       string
		dialect   string
		language  string
		backtrace bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Render the demo object graph as an HTML page",
		Long: `Render a sample object graph with cycles, shared values, getters,
iterators and named constants. The page goes to stdout unless --out is given.`,
		Example: `  vardump demo --out demo.html
  vardump demo --dialect template --language de > demo.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := map[string]any{settings.DebugMethods: demo.DebugMethods}
			if dialect != "" {
				overrides[settings.Dialect] = dialect
			}
			if language != "" {
				overrides[settings.Language] = language
			}

			vd, err := flags.inspector(vardump.WithOverrides(overrides))
			if err != nil {
				return err
			}

			shop := demo.Graph()
			fragments := []string{vd.Dump(shop, "demo shop")}
			if backtrace {
				fragments = append(fragments, vd.Backtrace())
			}
			page := demo.Page("vardump demo", fragments...)

			if out == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), page)
				return err
			}
			if err := os.WriteFile(out, []byte(page), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			ui.WriteSuccess(cmd.ErrOrStderr(), fmt.Sprintf("Wrote %s", out), color.NoColor)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "write the page to this file")
	cmd.Flags().StringVar(&dialect, "dialect", "", "code generation dialect (go, template)")
	cmd.Flags().StringVar(&language, "language", "", "message language (en, de)")
	cmd.Flags().BoolVar(&backtrace, "backtrace", false, "append a backtrace of the command")

	return cmd
}
