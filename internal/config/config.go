// Package config loads slide-qa settings from an optional YAML file and the
// environment.
//
// Precedence, lowest first: built-in defaults, the YAML file, environment
// variables. Missing critique credentials are not an error; the run degrades
// to skipped critiques instead.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/slide-qa/internal/critique"
	"github.com/ironsheep/slide-qa/internal/linter"
	"github.com/ironsheep/slide-qa/internal/loop"
	"github.com/ironsheep/slide-qa/internal/render"
)

// DefaultFile is read from the working directory when no path is given.
const DefaultFile = "slide-qa.yml"

// Config is the complete run configuration.
type Config struct {
	OutputDir string   `yaml:"output_dir"`
	LogLevel  string   `yaml:"log_level"`
	Lint      Lint     `yaml:"lint"`
	Render    Render   `yaml:"render"`
	Critique  Critique `yaml:"critique"`
	Loop      Loop     `yaml:"loop"`
	Publish   Publish  `yaml:"publish"`
}

// Lint holds geometry check thresholds.
type Lint struct {
	OffCanvasToleranceEMU int64   `yaml:"offcanvas_tolerance_emu"`
	OverlapThreshold      float64 `yaml:"overlap_threshold"`
}

// Render holds the external converter commands.
type Render struct {
	Steps   [][]string    `yaml:"steps"`
	Timeout time.Duration `yaml:"timeout"`
}

// Critique selects the vision backend.
type Critique struct {
	Backend     string        `yaml:"backend"`
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
	// MaxEdge bounds the longest image edge sent to the backend. A
	// negative value sends renders at full size.
	MaxEdge int    `yaml:"max_edge"`
	Vertex  Vertex `yaml:"vertex"`
	HTTP    HTTP   `yaml:"http"`
}

// Vertex configures the Vertex AI backend.
type Vertex struct {
	Project string `yaml:"project"`
	Region  string `yaml:"region"`
	Model   string `yaml:"model"`
}

// HTTP configures the OpenAI-compatible backend.
type HTTP struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// Loop bounds the review loop.
type Loop struct {
	MaxIterations int           `yaml:"max_iterations"`
	Budget        time.Duration `yaml:"budget"`
}

// Publish configures optional artifact upload.
type Publish struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		OutputDir: "slide-qa-out",
		LogLevel:  "info",
		Lint: Lint{
			OffCanvasToleranceEMU: linter.DefaultTolerance,
			OverlapThreshold:      linter.DefaultOverlapThreshold,
		},
		Render: Render{Timeout: render.DefaultTimeout},
		Critique: Critique{
			Concurrency: 4,
			Timeout:     critique.DefaultTimeout,
			MaxEdge:     2048,
			Vertex:      Vertex{Model: critique.DefaultVertexModel},
		},
		Loop:    Loop{MaxIterations: 3, Budget: 30 * time.Minute},
		Publish: Publish{Prefix: "slide-qa"},
	}
}

// Load reads path (or DefaultFile if path is empty and the file exists),
// applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	cfg.resolveBackend()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parse yaml: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return fmt.Errorf("parse yaml: multiple documents are not supported")
		}
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

// GetEnv returns the value of key, or fallback when it is unset.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func (c *Config) applyEnv() error {
	c.OutputDir = GetEnv("SLIDEQA_OUTPUT_DIR", c.OutputDir)
	c.LogLevel = GetEnv("SLIDEQA_LOG_LEVEL", c.LogLevel)
	c.Critique.Backend = GetEnv("SLIDEQA_CRITIQUE_BACKEND", c.Critique.Backend)
	c.Critique.Vertex.Project = GetEnv("GOOGLE_CLOUD_PROJECT", c.Critique.Vertex.Project)
	c.Critique.Vertex.Region = GetEnv("VERTEX_AI_REGION", c.Critique.Vertex.Region)
	c.Critique.HTTP.Endpoint = GetEnv("CRITIQUE_ENDPOINT", c.Critique.HTTP.Endpoint)
	c.Critique.HTTP.APIKey = GetEnv("CRITIQUE_API_KEY", c.Critique.HTTP.APIKey)
	if model, ok := os.LookupEnv("SLIDEQA_CRITIQUE_MODEL"); ok {
		c.Critique.Vertex.Model = model
		c.Critique.HTTP.Model = model
	}
	c.Publish.Bucket = GetEnv("SLIDEQA_PUBLISH_BUCKET", c.Publish.Bucket)

	ints := []struct {
		key string
		dst *int
	}{
		{"SLIDEQA_CRITIQUE_CONCURRENCY", &c.Critique.Concurrency},
		{"SLIDEQA_MAX_ITERATIONS", &c.Loop.MaxIterations},
	}
	for _, e := range ints {
		raw, ok := os.LookupEnv(e.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", e.key, raw)
		}
		*e.dst = n
	}

	if raw, ok := os.LookupEnv("SLIDEQA_BUDGET"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("SLIDEQA_BUDGET: %w", err)
		}
		c.Loop.Budget = d
	}
	return nil
}

// resolveBackend picks a backend when none is named: Vertex AI if a project
// is known, else the HTTP endpoint if one is set, else none.
func (c *Config) resolveBackend() {
	c.Critique.Backend = strings.ToLower(strings.TrimSpace(c.Critique.Backend))
	if c.Critique.Backend != "" {
		return
	}
	switch {
	case c.Critique.Vertex.Project != "":
		c.Critique.Backend = critique.BackendVertex
	case c.Critique.HTTP.Endpoint != "":
		c.Critique.Backend = critique.BackendHTTP
	default:
		c.Critique.Backend = critique.BackendNone
	}
}

// Validate checks value ranges. Credentials are not checked.
func (c Config) Validate() error {
	var problems []string
	if c.OutputDir == "" {
		problems = append(problems, "output_dir must not be empty")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Lint.OffCanvasToleranceEMU < 0 {
		problems = append(problems, "lint.offcanvas_tolerance_emu must not be negative")
	}
	if c.Lint.OverlapThreshold <= 0 || c.Lint.OverlapThreshold >= 1 {
		problems = append(problems, "lint.overlap_threshold must be between 0 and 1")
	}
	for i, step := range c.Render.Steps {
		if len(step) == 0 || step[0] == "" {
			problems = append(problems, fmt.Sprintf("render.steps[%d] has no command", i))
		}
	}
	switch c.Critique.Backend {
	case critique.BackendVertex, critique.BackendHTTP, critique.BackendNone:
	default:
		problems = append(problems, fmt.Sprintf("critique.backend %q is not one of vertex, http, none", c.Critique.Backend))
	}
	if c.Critique.Concurrency < 1 {
		problems = append(problems, "critique.concurrency must be at least 1")
	}
	if c.Critique.MaxEdge == 0 {
		problems = append(problems, "critique.max_edge must not be 0 (use -1 to disable resizing)")
	}
	if c.Loop.MaxIterations < 1 {
		problems = append(problems, "loop.max_iterations must be at least 1")
	}
	if c.Loop.Budget < 0 {
		problems = append(problems, "loop.budget must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// LintOptions converts the lint section.
func (c Config) LintOptions() linter.Options {
	return linter.Options{
		Tolerance:        float64(c.Lint.OffCanvasToleranceEMU),
		ExactTolerance:   true,
		OverlapThreshold: c.Lint.OverlapThreshold,
	}
}

// CritiqueConfig converts the critique section.
func (c Config) CritiqueConfig() critique.Config {
	return critique.Config{
		Backend: c.Critique.Backend,
		Vertex: critique.VertexConfig{
			ProjectID: c.Critique.Vertex.Project,
			Region:    c.Critique.Vertex.Region,
			Model:     c.Critique.Vertex.Model,
		},
		HTTP: critique.HTTPConfig{
			Endpoint: c.Critique.HTTP.Endpoint,
			APIKey:   c.Critique.HTTP.APIKey,
			Model:    c.Critique.HTTP.Model,
			Timeout:  c.Critique.Timeout,
		},
	}
}

// Renderer builds the configured renderer.
func (c Config) Renderer() *render.Command {
	return render.NewCommand(c.Render.Steps, c.Render.Timeout)
}

// LoopOptions converts the settings that drive a review run.
func (c Config) LoopOptions() loop.Options {
	return loop.Options{
		OutputDir:       c.OutputDir,
		MaxIterations:   c.Loop.MaxIterations,
		Concurrency:     c.Critique.Concurrency,
		CritiqueTimeout: c.Critique.Timeout,
		Budget:          c.Loop.Budget,
		MaxEdge:         c.Critique.MaxEdge,
		Lint:            c.LintOptions(),
	}
}
