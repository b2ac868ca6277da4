package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/swagger2ts/internal/convert"
	"github.com/mark3labs/swagger2ts/internal/naming"
	"github.com/mark3labs/swagger2ts/internal/resolve"
	"github.com/mark3labs/swagger2ts/internal/spec"
)

// stdio is the input and output marker for stdin and stdout.
const stdio = "-"

// GenerateConfig captures all inputs that influence the generate command after
// merging defaults, config file values, positional arguments and CLI overrides.
type GenerateConfig struct {
	Input         string
	Out           string
	IncludeTags   []string
	ExcludeTags   []string
	Methods       []string
	Paths         []string
	RequestHelper string
	ImportFrom    string
	OnCollision   string
	ConfigPath    string
	DryRun        bool
	Verbose       bool

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{
		Out:           stdio,
		RequestHelper: "request",
		OnCollision:   string(resolve.CollisionError),
	}
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [input] [output]",
		Short: "Generate TypeScript types and request functions from an OpenAPI/Swagger document",
		Long: "Generate TypeScript interfaces, enums and request factory functions from an OpenAPI 3.x " +
			"or Swagger 2.0 document. Input may be a file, an http(s) URL or - for stdin; output " +
			"defaults to stdout. Options can be provided via flags, config files, or defaults.",
		Example: strings.TrimSpace(`  swagger2ts generate openapi.yaml src/api.ts
  swagger2ts generate --input https://example.com/openapi.json --import-from ./http
  cat openapi.yaml | swagger2ts generate - > api.ts
  swagger2ts --config swagger2ts.yaml generate --dry-run`),
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd, args)
			if err != nil {
				return err
			}
			cfg.stdin = cmd.InOrStdin()
			cfg.stdout = cmd.OutOrStdout()
			cfg.stderr = cmd.ErrOrStderr()
			return generateRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "Path or URL to the Swagger/OpenAPI document (- for stdin)")
	flags.String("out", "", "Output file for the TypeScript source (- or empty for stdout)")
	flags.StringSlice("include-tags", nil, "Only include operations with these tags")
	flags.StringSlice("exclude-tags", nil, "Exclude operations with these tags")
	flags.StringSlice("methods", nil, "Only include operations with these HTTP methods")
	flags.StringSlice("paths", nil, "Only include operations whose path matches one of these regular expressions")
	flags.String("request-helper", "", "Name of the generic request function the factories call (default request)")
	flags.String("import-from", "", "Prefix the output with an import of the request helper from this module")
	flags.String("on-collision", "", "What to do when two schemas claim one name (error|overwrite)")
	flags.Bool("dry-run", false, "Report what would be generated without writing output")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command, args []string) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyGenerateArgs(cmd.Flags(), &cfg, args); err != nil {
		return nil, err
	}
	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyGenerateArgs maps the positional [input] [output] arguments. Giving
// the same value both positionally and as a flag is ambiguous.
func applyGenerateArgs(flags *pflag.FlagSet, cfg *GenerateConfig, args []string) error {
	if len(args) > 0 {
		if flags.Changed("input") {
			return newUsageError("generate: input given both as argument and --input")
		}
		cfg.Input = args[0]
	}
	if len(args) > 1 {
		if flags.Changed("out") {
			return newUsageError("generate: output given both as argument and --out")
		}
		cfg.Out = args[1]
	}
	return nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	strFlags := []struct {
		name string
		dst  *string
	}{
		{"input", &cfg.Input},
		{"out", &cfg.Out},
		{"request-helper", &cfg.RequestHelper},
		{"import-from", &cfg.ImportFrom},
		{"on-collision", &cfg.OnCollision},
	}
	for _, f := range strFlags {
		if !flags.Changed(f.name) {
			continue
		}
		value, err := flags.GetString(f.name)
		if err != nil {
			return err
		}
		*f.dst = strings.TrimSpace(value)
	}

	sliceFlags := []struct {
		name string
		dst  *[]string
	}{
		{"include-tags", &cfg.IncludeTags},
		{"exclude-tags", &cfg.ExcludeTags},
		{"methods", &cfg.Methods},
		{"paths", &cfg.Paths},
	}
	for _, f := range sliceFlags {
		if !flags.Changed(f.name) {
			continue
		}
		value, err := flags.GetStringSlice(f.name)
		if err != nil {
			return err
		}
		*f.dst = sanitizeList(value)
	}

	if flags.Changed("dry-run") {
		value, err := flags.GetBool("dry-run")
		if err != nil {
			return err
		}
		cfg.DryRun = value
	}
	if flags.Changed("verbose") {
		value, err := flags.GetBool("verbose")
		if err != nil {
			return err
		}
		cfg.Verbose = value
	}

	return nil
}

func (c *GenerateConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Out = strings.TrimSpace(c.Out)
	if c.Out == "" {
		c.Out = stdio
	}
	c.RequestHelper = strings.TrimSpace(c.RequestHelper)
	c.ImportFrom = strings.TrimSpace(c.ImportFrom)
	c.OnCollision = strings.ToLower(strings.TrimSpace(c.OnCollision))
	c.IncludeTags = sanitizeList(c.IncludeTags)
	c.ExcludeTags = sanitizeList(c.ExcludeTags)
	c.Methods = sanitizeList(c.Methods)
	for i, m := range c.Methods {
		c.Methods[i] = strings.ToLower(m)
	}
	c.Paths = sanitizeList(c.Paths)
}

func (c *GenerateConfig) validate() error {
	if c.Input == "" {
		return newUsageError("generate: an input document is required (argument, --input, or config file)")
	}

	overlap := intersect(c.IncludeTags, c.ExcludeTags)
	if len(overlap) > 0 {
		return newUsageError(fmt.Sprintf("generate: include/exclude tags overlap: %s", strings.Join(overlap, ", ")))
	}

	for _, m := range c.Methods {
		if _, ok := spec.ParseMethod(m); !ok {
			return newUsageError(fmt.Sprintf("generate: unsupported method %q (allowed: get, put, post, delete, options, head, patch, trace)", m))
		}
	}
	if err := spec.ValidatePathPatterns(c.Paths); err != nil {
		return newUsageError(fmt.Sprintf("generate: %v", err))
	}
	if c.RequestHelper != "" && !naming.IsIdentifier(c.RequestHelper) {
		return newUsageError(fmt.Sprintf("generate: --request-helper %q is not a valid identifier", c.RequestHelper))
	}
	if _, err := resolve.ParseCollisionPolicy(c.OnCollision); err != nil {
		return newUsageError(fmt.Sprintf("generate: --on-collision: %v", err))
	}

	return nil
}

func (c *GenerateConfig) filterOptions() []spec.FilterOption {
	methods := make([]spec.HttpMethod, 0, len(c.Methods))
	for _, m := range c.Methods {
		method, _ := spec.ParseMethod(m)
		methods = append(methods, method)
	}
	return []spec.FilterOption{
		spec.WithIncludeTags(c.IncludeTags),
		spec.WithExcludeTags(c.ExcludeTags),
		spec.WithMethods(methods),
		spec.WithPathPatterns(c.Paths),
	}
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	stdout := cfg.stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := cfg.stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := newLogger(stderr, cfg.Verbose)

	// 1) Load the document (file, http/https URL, or stdin)
	var doc *spec.Document
	var err error
	if cfg.Input == stdio {
		stdin := cfg.stdin
		if stdin == nil {
			stdin = os.Stdin
		}
		doc, err = spec.ReadAll(stdin, "stdin")
	} else {
		doc, err = spec.Load(ctx, cfg.Input)
	}
	if err != nil {
		return describeSpecError(err)
	}
	logger.Debug("loaded document", "input", cfg.Input, "title", doc.Info.Title, "openapi", doc.OpenAPI)

	// 2) Convert; all or nothing
	policy, _ := resolve.ParseCollisionPolicy(cfg.OnCollision)
	res, err := convert.Convert(ctx, doc,
		convert.WithLogger(logger),
		convert.WithCollisionPolicy(policy),
		convert.WithFilter(cfg.filterOptions()...),
		convert.WithRequestHelper(cfg.RequestHelper),
		convert.WithImportFrom(cfg.ImportFrom),
	)
	if err != nil {
		return describeSpecError(err)
	}

	// 3) Report or write
	if cfg.DryRun {
		target := cfg.Out
		if target == stdio {
			target = "stdout"
		}
		fmt.Fprintf(stdout, "Would write %d declarations and %d functions (%d bytes) to %s\n",
			res.Declarations, res.Functions, len(res.Text), target)
		return nil
	}
	if cfg.Out == stdio {
		_, err := io.WriteString(stdout, res.Text)
		return err
	}
	if err := writeFileAtomic(cfg.Out, []byte(res.Text)); err != nil {
		return err
	}
	logger.Info("wrote output", "path", cfg.Out, "declarations", res.Declarations, "functions", res.Functions)
	return nil
}

// describeSpecError folds the location and pointer of a SpecError into the
// message. Bad input is a usage error; the wrapped error keeps errors.Is.
func describeSpecError(err error) error {
	var se *spec.SpecError
	if !errors.As(err, &se) {
		return err
	}
	msg := fmt.Sprintf("%s: %s", se.Code, se.Message)
	if se.Location != "" {
		msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
	}
	if se.JSONPointer != "" {
		msg = fmt.Sprintf("%s\nPointer: %s", msg, se.JSONPointer)
	}
	if se.Code == spec.InputError {
		return newUsageError(msg)
	}
	return &generateError{msg: msg, err: err}
}

type generateError struct {
	msg string
	err error
}

func (e *generateError) Error() string { return e.msg }
func (e *generateError) Unwrap() error { return e.err }

func writeFileAtomic(path string, data []byte) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("generate: resolve output path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return newUsageError(fmt.Sprintf("generate: cannot create output directory: %v", err))
	}
	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return newUsageError(fmt.Sprintf("generate: cannot write temp file: %v\nHint: choose a different output path or check directory permissions.", err))
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return newUsageError(fmt.Sprintf("generate: cannot place file at %s: %v", absPath, err))
	}
	return nil
}

func sanitizeList(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a))
	for _, item := range a {
		set[item] = struct{}{}
	}
	var result []string
	for _, item := range b {
		if _, ok := set[item]; ok {
			result = append(result, item)
		}
	}
	return result
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	for key, value := range raw {
		var err error
		switch normalizeKey(key) {
		case "input":
			cfg.Input, err = valueAsString(value)
		case "out", "output":
			cfg.Out, err = valueAsString(value)
		case "includetags":
			cfg.IncludeTags, err = valueAsStringSlice(value)
		case "excludetags":
			cfg.ExcludeTags, err = valueAsStringSlice(value)
		case "methods":
			cfg.Methods, err = valueAsStringSlice(value)
		case "paths":
			cfg.Paths, err = valueAsStringSlice(value)
		case "requesthelper":
			cfg.RequestHelper, err = valueAsString(value)
		case "importfrom":
			cfg.ImportFrom, err = valueAsString(value)
		case "oncollision":
			cfg.OnCollision, err = valueAsString(value)
		case "dryrun":
			cfg.DryRun, err = valueAsBool(value)
		case "verbose":
			cfg.Verbose, err = valueAsBool(value)
		default:
			return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
		}
		if err != nil {
			return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
		}
	}

	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		return splitAndTrim(val), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			if str != "" {
				items = append(items, str)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n", "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
