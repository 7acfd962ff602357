package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// defaultMaxCacheAge drops cached feed bodies after two weeks.
const defaultMaxCacheAge = 14 * 24 * time.Hour

// Duration is a time.Duration that parses from "12h30m"-style strings, both
// as a command-line flag and in YAML config files.
type Duration time.Duration

// Value returns the plain time.Duration.
func (d Duration) Value() time.Duration {
	return time.Duration(d)
}

// String implements flag.Value.
func (d *Duration) String() string {
	return time.Duration(*d).String()
}

// Set implements flag.Value.
func (d *Duration) Set(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.Set(s)
}

// urlList collects repeated -url flags.
type urlList []string

func (u *urlList) String() string {
	return strings.Join(*u, ",")
}

func (u *urlList) Set(s string) error {
	*u = append(*u, s)
	return nil
}

// Config holds everything a run needs. Values can come from a YAML config
// file, from flags, or both; explicitly passed flags win over file values.
type Config struct {
	NumArticles  int      `yaml:"num_articles"`  // total articles to keep
	PerSource    int      `yaml:"per_source"`    // most recent articles per feed
	URLFile      string   `yaml:"url_file"`      // newline-delimited feed URL list
	TemplateFile string   `yaml:"template_file"` // template rendered to stdout
	URLs         []string `yaml:"urls"`          // feed URLs given directly
	Before       string   `yaml:"before"`        // YYYY-MM-DD article cutoff
	UseCache     bool     `yaml:"cache"`         // persist the request cache
	MaxCacheAge  Duration `yaml:"max_cache_age"` // discard cached requests older than this
	LogLevel     string   `yaml:"log_level"`
	LogFile      string   `yaml:"log_file"`

	// BeforeTime is the parsed Before cutoff, set by Validate.
	BeforeTime time.Time `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		NumArticles: 3,
		PerSource:   1,
		MaxCacheAge: Duration(defaultMaxCacheAge),
		LogLevel:    "info",
	}
}

// Parse builds a Config from command-line args. If -config names a YAML
// file it is loaded first, then flags are applied on top of it.
func Parse(args []string) (*Config, error) {
	cfg := Default()

	// The config file has to be known before flag defaults are bound, so it
	// is scanned for ahead of the real parse.
	if path := configPathFrom(args); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	fs := flag.NewFlagSet("webring", flag.ContinueOnError)
	fs.String("config", "", "YAML config `file` (flags override its values)")
	fs.IntVar(&cfg.NumArticles, "num-articles", cfg.NumArticles, "total `number` of articles to keep")
	fs.IntVar(&cfg.NumArticles, "n", cfg.NumArticles, "shorthand for -num-articles")
	fs.IntVar(&cfg.PerSource, "per-source", cfg.PerSource, "`number` of most recent articles taken from each feed")
	fs.IntVar(&cfg.PerSource, "p", cfg.PerSource, "shorthand for -per-source")
	fs.StringVar(&cfg.URLFile, "url-file", cfg.URLFile, "`file` with one feed URL per line ('#' and '//' lines are comments)")
	fs.StringVar(&cfg.URLFile, "S", cfg.URLFile, "shorthand for -url-file")
	fs.StringVar(&cfg.TemplateFile, "template", cfg.TemplateFile, "template `file` rendered with the article list")
	fs.StringVar(&cfg.TemplateFile, "t", cfg.TemplateFile, "shorthand for -template")
	fs.StringVar(&cfg.Before, "before", cfg.Before, "only include articles before this `date` (YYYY-MM-DD)")
	fs.BoolVar(&cfg.UseCache, "cache", cfg.UseCache, "use the on-disk request cache")
	fs.Var(&cfg.MaxCacheAge, "max-cache-age", "discard cached requests older than this `duration`")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log `level`: debug, info, warn, error")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "also log to this rotating `file`")
	var verbose bool
	fs.BoolVar(&verbose, "v", false, "verbose output (shorthand for -log-level debug)")
	var extra urlList
	fs.Var(&extra, "url", "a feed `URL` to include (repeatable)")
	fs.Var(&extra, "s", "shorthand for -url")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.URLs = append(cfg.URLs, extra...)
	if verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and parses the Before cutoff.
func (c *Config) Validate() error {
	if c.TemplateFile == "" {
		return fmt.Errorf("a template file is required (-template)")
	}
	if c.NumArticles < 1 {
		return fmt.Errorf("num-articles must be at least 1")
	}
	if c.PerSource < 1 {
		return fmt.Errorf("per-source must be at least 1")
	}
	if c.MaxCacheAge <= 0 {
		return fmt.Errorf("max-cache-age must be positive")
	}
	if c.Before != "" {
		t, err := time.ParseInLocation("2006-01-02", c.Before, time.Local)
		if err != nil {
			return fmt.Errorf("invalid -before date %q (want YYYY-MM-DD): %w", c.Before, err)
		}
		c.BeforeTime = t
	}
	return nil
}

// configPathFrom finds the -config value without running the full flag
// parse. Supports -config=x, --config=x and the two-argument forms.
func configPathFrom(args []string) string {
	for i, arg := range args {
		name, value, hasValue := strings.Cut(arg, "=")
		name = strings.TrimLeft(name, "-")
		if name != "config" || !strings.HasPrefix(arg, "-") {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
