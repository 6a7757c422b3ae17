package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/partials/internal/config"
	rerrors "github.com/conneroisu/partials/internal/errors"
	"github.com/conneroisu/partials/internal/logging"
	"github.com/conneroisu/partials/internal/partial"
	"github.com/conneroisu/partials/internal/renderer"
	"github.com/conneroisu/partials/internal/tag"
	"github.com/conneroisu/partials/internal/view"
	"github.com/conneroisu/partials/internal/watcher"
)

var renderFlags *RenderFlags

// renderCmd represents the render command
var renderCmd = &cobra.Command{
	Use:     "render <template>",
	Aliases: []string{"r"},
	Short:   "Render a template with slot content and locals",
	Long: `Render a template from the template directory. Slots are filled with
--set before the template runs; locals come from --locals-file and --local,
and supply a slot's value for as long as nothing was written to it.

Examples:
  partials render card --set title=Hello
  partials render card --set body=@body.md --local author=Ada
  partials render page --locals-file locals.yaml --output page.html
  partials render page --watch`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderFlags = AddRenderFlags(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return rerrors.WrapConfig(err, "load configuration")
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())

	if err := renderFlags.ValidateFlags(); err != nil {
		return err
	}
	locals, err := renderFlags.ParseLocals()
	if err != nil {
		return err
	}
	sets, err := renderFlags.ParseSets()
	if err != nil {
		return err
	}

	r, err := newRenderer(cfg, logger)
	if err != nil {
		return err
	}

	job := &renderJob{
		renderer: r,
		name:     args[0],
		locals:   locals,
		sets:     sets,
		output:   renderFlags.Output,
		stdout:   cmd.OutOrStdout(),
		logger:   logger,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !renderFlags.Watch {
		return job.run(ctx)
	}
	return watchAndRender(ctx, cfg, job)
}

// newRenderer builds a renderer over the configured template directory.
func newRenderer(cfg *config.Config, logger logging.Logger) (*renderer.Renderer, error) {
	policy, err := tag.Policy(cfg.Render.Sanitize)
	if err != nil {
		return nil, rerrors.WrapConfig(err, "sanitize policy")
	}

	var builderOpts []tag.Option
	if policy != nil {
		builderOpts = append(builderOpts, tag.WithSanitizer(policy))
	}

	return renderer.New(
		renderer.WithDir(cfg.Templates.Dir),
		renderer.WithExtension(cfg.Templates.Extension),
		renderer.WithStrictLocals(cfg.Render.StrictLocals),
		renderer.WithLogger(logger),
		renderer.WithViewOptions(view.WithTagBuilder(tag.New(builderOpts...))),
	)
}

type renderJob struct {
	renderer *renderer.Renderer
	name     string
	locals   map[string]any
	sets     []SlotAssignment
	output   string
	stdout   io.Writer
	logger   logging.Logger
}

func (j *renderJob) fill(p *partial.Partial) error {
	for _, set := range j.sets {
		p.Write(set.Slot, set.Content)
	}
	return nil
}

func (j *renderJob) run(ctx context.Context) error {
	out, err := j.renderer.Render(ctx, j.name, j.locals, j.fill)
	if err != nil {
		j.logger.Error(ctx, err, "render failed", contextFields(err)...)
		return err
	}

	if j.output == "" {
		_, err = io.WriteString(j.stdout, out)
		return err
	}
	if err := os.WriteFile(j.output, []byte(out), 0o644); err != nil {
		return rerrors.WrapIO(err, "write output").WithTemplate(j.name)
	}
	j.logger.Info(ctx, "rendered", "template", j.name, "output", j.output, "bytes", len(out))
	return nil
}

// watchAndRender renders once, then again after every template change until
// ctx is cancelled. Render failures while watching are logged, not returned.
func watchAndRender(ctx context.Context, cfg *config.Config, job *renderJob) error {
	fw, err := watcher.NewFileWatcher(cfg.Watch.Debounce, job.logger)
	if err != nil {
		return rerrors.WrapIO(err, "create watcher")
	}
	defer fw.Stop()

	fw.AddFilter(watcher.NoHiddenFilter)
	fw.AddFilter(watcher.IgnoreFilter(cfg.Watch.Ignore...))
	fw.AddFilter(watcher.ExtensionFilter(cfg.Templates.Extension))
	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		job.logger.Info(ctx, "templates changed", "paths", watcher.Paths(events))
		job.renderer.Reset()
		return job.run(ctx)
	})

	if err := fw.AddRecursive(cfg.Templates.Dir); err != nil {
		return rerrors.WrapIO(err, fmt.Sprintf("watch %s", cfg.Templates.Dir))
	}

	_ = job.run(ctx)

	if err := fw.Start(ctx); err != nil {
		return err
	}
	job.logger.Info(ctx, "watching templates", "dir", cfg.Templates.Dir)

	<-ctx.Done()
	return nil
}

func contextFields(err error) []any {
	fields := rerrors.GetErrorContext(err)
	out := make([]any, 0, len(fields)*2)
	for key, value := range fields {
		out = append(out, key, value)
	}
	return out
}
