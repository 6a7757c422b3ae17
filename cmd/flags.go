package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// RenderFlags holds the flags of the render command
type RenderFlags struct {
	Locals     []string
	LocalsFile string
	Sets       []string
	Output     string
	Watch      bool
}

// SlotAssignment is one --set flag: content written to a slot before the
// template runs.
type SlotAssignment struct {
	Slot    string
	Content string
}

// AddRenderFlags adds the render flags to a command
func AddRenderFlags(cmd *cobra.Command) *RenderFlags {
	flags := &RenderFlags{}

	cmd.Flags().StringArrayVar(&flags.Locals, "local", nil, "local value as name=value (repeatable)")
	cmd.Flags().StringVarP(&flags.LocalsFile, "locals-file", "f", "", "YAML file of locals")
	cmd.Flags().StringArrayVarP(&flags.Sets, "set", "s", nil, "slot content as slot=content or slot=@file (repeatable)")
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "", "write the result to a file instead of stdout")
	cmd.Flags().BoolVarP(&flags.Watch, "watch", "w", false, "re-render when templates change")

	AddFlagValidation(cmd, "local", ValidateAssignment)
	AddFlagValidation(cmd, "set", ValidateAssignment)
	AddFlagValidation(cmd, "locals-file", ValidateFileExists)

	return flags
}

// ParseLocals merges the locals file with --local flags. Flags win.
func (f *RenderFlags) ParseLocals() (map[string]any, error) {
	locals := make(map[string]any)

	if f.LocalsFile != "" {
		data, err := os.ReadFile(f.LocalsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read locals file %s: %w", f.LocalsFile, err)
		}

		if err := yaml.Unmarshal(data, &locals); err != nil {
			return nil, fmt.Errorf("invalid YAML in locals file %s: %w", f.LocalsFile, err)
		}
		if locals == nil {
			locals = make(map[string]any)
		}
	}

	for _, assignment := range f.Locals {
		name, value, err := splitAssignment(assignment)
		if err != nil {
			return nil, fmt.Errorf("--local: %w", err)
		}
		locals[name] = value
	}

	return locals, nil
}

// ParseSets returns the --set assignments in flag order. Content starting
// with @ is read from the named file.
func (f *RenderFlags) ParseSets() ([]SlotAssignment, error) {
	sets := make([]SlotAssignment, 0, len(f.Sets))
	for _, assignment := range f.Sets {
		slot, content, err := splitAssignment(assignment)
		if err != nil {
			return nil, fmt.Errorf("--set: %w", err)
		}

		if filename, ok := strings.CutPrefix(content, "@"); ok {
			data, err := os.ReadFile(filename)
			if err != nil {
				return nil, fmt.Errorf("failed to read content file %s: %w", filename, err)
			}
			content = string(data)
		}

		sets = append(sets, SlotAssignment{Slot: slot, Content: content})
	}
	return sets, nil
}

// ValidateFlags validates flag combinations and values
func (f *RenderFlags) ValidateFlags() error {
	if f.Output == "" {
		return nil
	}
	if info, err := os.Stat(f.Output); err == nil && info.IsDir() {
		return fmt.Errorf("output must be a file, got directory %s", f.Output)
	}
	if f.LocalsFile != "" && f.LocalsFile == f.Output {
		return fmt.Errorf("output would overwrite the locals file %s", f.Output)
	}
	return nil
}

func splitAssignment(s string) (string, string, error) {
	name, value, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", fmt.Errorf("expected name=value, got %q", s)
	}
	return name, value, nil
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidateAssignment checks a name=value flag value
func ValidateAssignment(s string) error {
	_, _, err := splitAssignment(s)
	return err
}

// ValidateFileExists checks that an optional file flag names an existing file
func ValidateFileExists(filename string) error {
	if filename == "" {
		return nil
	}

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", filename)
	}

	return nil
}
