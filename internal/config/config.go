package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/churnviz-cli/internal/charts"
	"github.com/KaramelBytes/churnviz-cli/internal/render"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. CHURNVIZ_DPI.
const EnvPrefix = "CHURNVIZ"

// Global configuration structure.
type Global struct {
	Input        string            `mapstructure:"input" yaml:"input"`
	Sheet        string            `mapstructure:"sheet" yaml:"sheet,omitempty"`
	OutputDir    string            `mapstructure:"output_dir" yaml:"output_dir"`
	DPI          int               `mapstructure:"dpi" yaml:"dpi"`
	WidthIn      float64           `mapstructure:"width_in" yaml:"width_in"`
	HeightIn     float64           `mapstructure:"height_in" yaml:"height_in"`
	Workers      int               `mapstructure:"workers" yaml:"workers"`
	WriteSummary bool              `mapstructure:"write_summary" yaml:"write_summary"`
	ExportXLSX   bool              `mapstructure:"export_xlsx" yaml:"export_xlsx"`
	Strict       bool              `mapstructure:"strict" yaml:"strict"`
	Charts       []int             `mapstructure:"charts" yaml:"charts,omitempty"`
	LogFormat    string            `mapstructure:"log_format" yaml:"log_format"`
	Palette      charts.HexPalette `mapstructure:"palette" yaml:"palette,omitempty"`
}

// Keys lists settable scalar keys in display order.
var Keys = []string{
	"input", "sheet", "output_dir", "dpi", "width_in", "height_in", "workers",
	"write_summary", "export_xlsx", "strict", "charts", "log_format",
}

// Default returns the built-in configuration.
func Default() *Global {
	return &Global{
		Input:        "customer_churn.csv",
		OutputDir:    "outputs",
		DPI:          render.DefaultDPI,
		Workers:      1,
		WriteSummary: true,
		LogFormat:    "json",
	}
}

// DefaultPath is ~/.churnviz/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".churnviz", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.churnviz/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) (string, error) {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return "", err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return path, nil
}

// Load loads configuration from .env, env, file and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	// .env is optional; real environment variables win over it
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("input", d.Input)
	v.SetDefault("sheet", "")
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("dpi", d.DPI)
	v.SetDefault("width_in", 0.0)
	v.SetDefault("height_in", 0.0)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("write_summary", d.WriteSummary)
	v.SetDefault("export_xlsx", false)
	v.SetDefault("strict", false)
	v.SetDefault("charts", []int{})
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("palette.churn", charts.DefaultHex.Churn)
	v.SetDefault("palette.retain", charts.DefaultHex.Retain)
	v.SetDefault("palette.neutral", charts.DefaultHex.Neutral)
	v.SetDefault("palette.warning", charts.DefaultHex.Warning)
	v.SetDefault("palette.gray", charts.DefaultHex.Gray)
	v.SetDefault("palette.gradient", charts.DefaultHex.Gradient)
	v.SetDefault("palette.contract", charts.DefaultHex.Contract)
	v.SetDefault("palette.set3", charts.DefaultHex.Set3)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		path, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(path))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects values no run could use.
func (c *Global) Validate() error {
	if c.DPI <= 0 {
		return fmt.Errorf("dpi must be positive, got %d", c.DPI)
	}
	if c.WidthIn < 0 || c.HeightIn < 0 {
		return fmt.Errorf("figure size must not be negative: %gx%g", c.WidthIn, c.HeightIn)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log_format: %s (use json or console)", c.LogFormat)
	}
	if _, err := charts.Select(c.Charts); err != nil {
		return err
	}
	if _, err := charts.NewPalette(c.Palette); err != nil {
		return err
	}
	return nil
}

// ChartPalette parses the configured palette.
func (c *Global) ChartPalette() (charts.Palette, error) {
	return charts.NewPalette(c.Palette)
}

// Set assigns one key from its string form. Palette entries use
// "palette.<name>" and list values are comma separated. An invalid value
// leaves c unchanged.
func (c *Global) Set(key, val string) error {
	next := *c
	if err := next.set(key, val); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

func (c *Global) set(key, val string) error {
	switch key {
	case "input":
		c.Input = val
	case "sheet":
		c.Sheet = val
	case "output_dir":
		c.OutputDir = val
	case "dpi", "workers":
		i, err := strconv.Atoi(val)
		if err != nil || i <= 0 {
			return fmt.Errorf("invalid positive int for %s: %v", key, val)
		}
		if key == "dpi" {
			c.DPI = i
		} else {
			c.Workers = i
		}
	case "width_in", "height_in":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("invalid size for %s: %v", key, val)
		}
		if key == "width_in" {
			c.WidthIn = f
		} else {
			c.HeightIn = f
		}
	case "write_summary", "export_xlsx", "strict":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for %s: %w", key, err)
		}
		switch key {
		case "write_summary":
			c.WriteSummary = b
		case "export_xlsx":
			c.ExportXLSX = b
		default:
			c.Strict = b
		}
	case "charts":
		ids, err := ParseIDs(val)
		if err != nil {
			return err
		}
		c.Charts = ids
	case "log_format":
		c.LogFormat = val
	default:
		name, ok := strings.CutPrefix(key, "palette.")
		if !ok {
			return fmt.Errorf("unknown key: %s", key)
		}
		return c.setPalette(name, val)
	}
	return nil
}

func (c *Global) setPalette(name, val string) error {
	list := splitList(val)
	switch name {
	case "churn":
		c.Palette.Churn = val
	case "retain":
		c.Palette.Retain = val
	case "neutral":
		c.Palette.Neutral = val
	case "warning":
		c.Palette.Warning = val
	case "gray":
		c.Palette.Gray = val
	case "gradient":
		c.Palette.Gradient = list
	case "contract":
		c.Palette.Contract = list
	case "set3":
		c.Palette.Set3 = list
	default:
		return fmt.Errorf("unknown palette color: %s", name)
	}
	return nil
}

// ParseIDs reads a comma separated chart id list like "1,2,10".
// The result is sorted and free of duplicates.
func ParseIDs(s string) ([]int, error) {
	seen := map[int]bool{}
	var out []int
	for _, part := range splitList(s) {
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid chart id %q", part)
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
