package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/platen/internal/template"
)

// TemplateInfo describes one embedded template for listing output.
type TemplateInfo struct {
	Name        string  `json:"name"`
	Label       string  `json:"label"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Units       string  `json:"units"`
	Description string  `json:"description,omitempty"`
}

// NewTemplatesCommand creates the templates command.
func NewTemplatesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "templates",
		Short:         "List embedded label templates",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTemplates(rootOpts, cmd)
		},
	}
}

func runTemplates(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	infos := make([]TemplateInfo, 0)
	for _, name := range template.List() {
		tpl, err := template.Get(name)
		if err != nil {
			return WrapExitError(ExitCommandError, "load template "+name, err)
		}
		infos = append(infos, TemplateInfo{
			Name:        name,
			Label:       tpl.Name,
			Width:       tpl.Width,
			Height:      tpl.Height,
			Units:       tpl.Units,
			Description: tpl.Description,
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(infos)
	}

	var b strings.Builder
	for i, info := range infos {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(info.Name)
		if info.Description != "" {
			b.WriteString("\t" + info.Description)
		}
	}
	return formatter.Success(b.String())
}
