package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-viewengine/pkg/view"
)

type renderOptions struct {
	dataPath string
	output   string
	html     bool
	mode     string
}

func newRenderCmd(global *globalOptions) *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render NAME",
		Short: "Render one template to stdout or a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, global, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.dataPath, "data", "", "YAML or JSON file with template data (- for stdin)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&opts.html, "html", false, "render through the markup-safe path")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "view mode override (static, watching)")
	return cmd
}

func runRender(cmd *cobra.Command, global *globalOptions, opts *renderOptions, name string) error {
	settings, err := global.settings()
	if err != nil {
		return err
	}
	if opts.mode != "" {
		settings.Mode = opts.mode
	}
	viewOpts, err := settings.Options()
	if err != nil {
		return err
	}
	viewOpts = append(viewOpts, view.WithLogger(global.logger))

	data, err := loadData(opts.dataPath, cmd.InOrStdin())
	if err != nil {
		return err
	}

	v, err := view.FromDir(settings.TemplateDir, viewOpts...)
	if err != nil {
		return err
	}
	defer v.Close()

	var rendered string
	if opts.html {
		html, err := v.RenderHTML(name, data)
		if err != nil {
			return err
		}
		rendered = string(html)
	} else {
		rendered, err = v.Render(name, data)
		if err != nil {
			return err
		}
	}

	if opts.output == "" {
		_, err := io.WriteString(cmd.OutOrStdout(), rendered)
		return err
	}
	if err := atomic.WriteFile(opts.output, bytes.NewReader([]byte(rendered))); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	global.logger.Info("rendered template", "template", name, "output", opts.output, "bytes", len(rendered))
	return nil
}

// loadData reads template data from a YAML or JSON document. An empty path
// yields no data.
func loadData(path string, stdin io.Reader) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}

	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}

	data := map[string]any{}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse data %s: %w", path, err)
	}
	return data, nil
}
