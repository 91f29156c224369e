// Package config loads gorewrite settings and resolves them into the recipe
// set of an invocation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read as settings.
const EnvPrefix = "GOREWRITE_"

// Defaults, relative to the project root.
const (
	DefaultRecipesDir = ".gorewrite/recipes"
	DefaultStatePath  = ".gorewrite/state.db"
	DefaultPatchPath  = ".gorewrite/rewrite.patch"
)

var configFileNames = []string{".gorewrite.yaml", ".gorewrite.yml"}

// Config holds the settings of one invocation.
type Config struct {
	ProjectRoot   string   `koanf:"-"`
	FileUsed      string   `koanf:"-"`
	ActiveRecipes []string `koanf:"-"`
	Disable       bool     `koanf:"disable"`
	RecipesDir    string   `koanf:"recipes_dir"`
	StatePath     string   `koanf:"state_path"`
	PatchPath     string   `koanf:"patch_path"`
	Verbose       bool     `koanf:"verbose"`
}

// flagKeys maps flag names to the settings they override. Other flags are
// command options, not settings.
var flagKeys = map[string]string{
	"active-recipes": "active_recipes",
	"disable":        "disable",
	"recipes-dir":    "recipes_dir",
	"state":          "state_path",
	"patch":          "patch_path",
	"verbose":        "verbose",
}

// Load reads the settings for the project at dir.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
// cfgFile may name the config file explicitly; otherwise .gorewrite.yaml in
// dir is used when present.
func Load(dir, cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"active_recipes": []string{},
		"disable":        false,
		"recipes_dir":    DefaultRecipesDir,
		"state_path":     DefaultStatePath,
		"patch_path":     DefaultPatchPath,
		"verbose":        false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	used := findConfigFile(root, cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// GOREWRITE_RECIPES_DIR -> recipes_dir
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}

			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.ProjectRoot = root
	cfg.FileUsed = used
	cfg.ActiveRecipes = splitList(k.Get("active_recipes"))
	cfg.RecipesDir = resolvePathRelativeTo(cfg.RecipesDir, root)
	cfg.StatePath = resolvePathRelativeTo(cfg.StatePath, root)
	cfg.PatchPath = resolvePathRelativeTo(cfg.PatchPath, root)

	return &cfg, nil
}

func findConfigFile(root, explicit string) string {
	if explicit != "" {
		return explicit
	}

	for _, name := range configFileNames {
		candidate := filepath.Join(root, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}

// splitList accepts a YAML list, a flag slice or a comma separated string.
func splitList(v any) []string {
	var raw []string

	switch list := v.(type) {
	case nil:
	case string:
		raw = strings.Split(list, ",")
	case []string:
		raw = list
	case []any:
		for _, item := range list {
			raw = append(raw, fmt.Sprint(item))
		}
	default:
		raw = []string{fmt.Sprint(list)}
	}

	ids := make([]string, 0, len(raw))

	for _, id := range raw {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	return ids
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(baseDir, path)
}
