package main

import (
	"fmt"
	"io"

	"github.com/aescanero/dago-templater/internal/config"
	"github.com/aescanero/dago-templater/internal/task"
	"github.com/aescanero/dago-templater/internal/templater"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// appFs is the filesystem tasks, context files and templates are read from
var appFs = afero.NewOsFs()

var (
	contextFile string
	native      bool
	searchPath  []string
	dialect     string
)

var rootCmd = &cobra.Command{
	Use:   "render-fields TASK.yaml",
	Short: "Render the template fields of a task",
	Long: `render-fields reads a YAML task, renders its template fields against the
task's context and prints the rendered fields as YAML.

Configuration is read from the environment (TEMPLATE_*, REDIS_*, LOG_LEVEL);
flags override it.

Example:
  render-fields task.yaml
  render-fields task.yaml --context run.yaml --native
  render-fields task.yaml --search-path ./templates --dialect handlebars
`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runRender,
}

func init() {
	rootCmd.Version = Version + " (" + BuildTime + ")"

	rootCmd.Flags().StringVar(&contextFile, "context", "", "YAML file with context variables, merged over the task's context")
	rootCmd.Flags().BoolVar(&native, "native", false, "Keep the native type of single expression templates")
	rootCmd.Flags().StringSliceVar(&searchPath, "search-path", nil, "Directory searched for template files (repeatable)")
	rootCmd.Flags().StringVar(&dialect, "dialect", "", "Template dialect: jinja or handlebars")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("native") {
		cfg.Native = native
	}
	if flags.Changed("search-path") {
		cfg.SearchPath = searchPath
	}
	if flags.Changed("dialect") {
		cfg.Dialect = dialect
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Debug("configuration loaded", zap.String("config", cfg.String()))

	return render(cfg, args[0], contextFile, cmd.OutOrStdout(), logger)
}

// render loads the task, renders its fields and writes them to out
func render(cfg *config.Config, taskPath, contextPath string, out io.Writer, logger *zap.Logger) error {
	l, closeLoader, err := newLoader(cfg, logger)
	if err != nil {
		return err
	}
	defer closeLoader()

	env, err := newEnvironment(cfg, l)
	if err != nil {
		return err
	}

	t, err := task.LoadFile(appFs, taskPath)
	if err != nil {
		return err
	}
	if len(t.TemplateExt()) == 0 {
		t.SetTemplateExt(cfg.Extensions)
	}
	t.SetEnvironment(env)

	ctx := t.Context()
	if contextPath != "" {
		extra, err := loadContext(contextPath)
		if err != nil {
			return err
		}
		for k, v := range extra {
			ctx[k] = v
		}
	}

	logger.Info("rendering task",
		zap.String("task", taskPath),
		zap.Strings("template_fields", t.TemplateFields()),
		zap.String("mode", env.Mode().String()),
		zap.String("dialect", string(env.Dialect())))

	tpl := templater.New(t, logger)
	if err := tpl.ResolveTemplateFiles(); err != nil {
		return err
	}
	if err := tpl.RenderTemplateFields(ctx, env); err != nil {
		return fmt.Errorf("failed to render %s: %w", taskPath, err)
	}

	return t.Encode(out)
}

func loadContext(path string) (templater.Context, error) {
	f, err := appFs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open context %s: %w", path, err)
	}
	defer f.Close()

	ctx, err := task.DecodeContext(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ctx, nil
}
