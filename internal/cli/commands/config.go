package commands

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/conduit-lang/vardump/internal/cli/ui"
	"github.com/conduit-lang/vardump/internal/settings"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newConfigCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and create vardump settings",
	}
	cmd.AddCommand(newConfigShowCommand(flags))
	cmd.AddCommand(newConfigGetCommand(flags))
	cmd.AddCommand(newConfigInitCommand())
	return cmd
}

func newConfigShowCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show every setting with its value and source",
		RunE: func(cmd *cobra.Command, args []string) error {
			vd, err := flags.inspector()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			ui.Header(out, "Settings", color.NoColor)
			table := ui.NewTable(out, []string{"SETTING", "VALUE", "SOURCE", "EDITABLE"}, &ui.TableOptions{NoColor: color.NoColor})
			for _, res := range vd.Settings() {
				table.AddRow(res.Key, fmt.Sprint(res.Value), string(res.Source), strconv.FormatBool(res.Editable))
			}
			table.Render()

			fmt.Fprintln(out)
			ui.Header(out, "Skins", color.NoColor)
			for _, name := range vd.Skins() {
				fmt.Fprintf(out, "  %s\n", name)
			}
			return nil
		},
	}
}

func newConfigGetCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <setting>",
		Short: "Print the resolved value of one setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if _, ok := settings.Lookup(key); !ok {
				fmt.Fprint(cmd.ErrOrStderr(), ui.UnknownSettingError(key, ui.FindSimilar(key, settingKeys()), color.NoColor))
				return fmt.Errorf("%w: %s", settings.ErrUnknownSetting, key)
			}

			vd, err := flags.inspector()
			if err != nil {
				return err
			}
			for _, res := range vd.Settings() {
				if res.Key == key {
					fmt.Fprintln(cmd.OutOrStdout(), res.Value)
				}
			}
			return nil
		},
	}
}

func settingKeys() []string {
	keys := make([]string, 0, len(settings.Definitions))
	for _, def := range settings.Definitions {
		keys = append(keys, def.Key)
	}
	return keys
}

// prompter asks for the value of one setting. It is swapped in tests.
type prompter func(def settings.Definition, current string) (string, error)

// initPrompts are the settings "config init" asks for.
var initPrompts = []string{
	settings.Language,
	settings.Dialect,
	settings.Skin,
	settings.MaxRecursionLevel,
	settings.MaxCallCount,
	settings.Destination,
}

func newConfigInitCommand() *cobra.Command {
	var (
		file     string
		defaults bool
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a vardump.yml interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			ask := surveyPrompt
			if defaults {
				ask = func(_ settings.Definition, current string) (string, error) { return current, nil }
			}
			return runConfigInit(cmd, file, force, ask)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", settings.ConfigName+".yml", "config file to write")
	cmd.Flags().BoolVarP(&defaults, "yes", "y", false, "accept the factory defaults without prompting")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func runConfigInit(cmd *cobra.Command, file string, force bool, ask prompter) error {
	if _, err := os.Stat(file); err == nil && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite", file)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	values := make(map[string]any, len(initPrompts))
	for _, key := range initPrompts {
		def, _ := settings.Lookup(key)
		answer, err := ask(def, fmt.Sprint(def.Default))
		if err != nil {
			return err
		}
		values[key] = answer
	}

	if err := settings.WriteFile(file, values); err != nil {
		return &configError{err: err}
	}
	ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("Wrote %s", file), color.NoColor)
	return nil
}

func surveyPrompt(def settings.Definition, current string) (string, error) {
	var answer string
	var prompt survey.Prompt
	if len(def.Choices) > 0 {
		prompt = &survey.Select{
			Message: def.Key + ":",
			Options: def.Choices,
			Default: current,
		}
	} else {
		prompt = &survey.Input{
			Message: def.Key + ":",
			Default: current,
		}
	}

	validators := []survey.Validator{survey.Required}
	if def.Kind == settings.KindInt {
		validators = append(validators, func(ans interface{}) error {
			if _, err := strconv.Atoi(fmt.Sprint(ans)); err != nil {
				return fmt.Errorf("%s must be a number", def.Key)
			}
			return nil
		})
	}
	if err := survey.AskOne(prompt, &answer, survey.WithValidator(survey.ComposeValidators(validators...))); err != nil {
		return "", err
	}
	return answer, nil
}
