package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-viewengine/pkg/render/template/jinja"
)

func newCheckCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Compile every template and report failures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, global)
		},
	}
}

func runCheck(cmd *cobra.Command, global *globalOptions) error {
	settings, err := global.settings()
	if err != nil {
		return err
	}

	var envOpts []jinja.Option
	if settings.Extension != "" {
		envOpts = append(envOpts, jinja.WithExtension(settings.Extension))
	}
	base, err := jinja.New(envOpts...)
	if err != nil {
		return err
	}
	env, err := base.Bind(settings.TemplateDir)
	if err != nil {
		return err
	}

	names, err := env.Names()
	if err != nil {
		return err
	}

	failed := 0
	out := cmd.OutOrStdout()
	for _, name := range names {
		if _, err := env.Template(name); err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s: %v\n", name, err)
			continue
		}
		fmt.Fprintf(out, "ok   %s\n", name)
	}

	global.logger.Debug("check finished", "dir", settings.TemplateDir, "templates", len(names), "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d templates failed to compile", failed, len(names))
	}
	return nil
}
