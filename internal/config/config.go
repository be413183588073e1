package config

import (
	_ "embed"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"

	"github.com/roach88/constfold/internal/fold"
	"github.com/roach88/constfold/internal/ir"
)

//go:embed defaults.cue
var defaultsCUE string

// Config is everything a Folder needs besides its backend: the formats
// that type names resolve to, the numeric safety flags and target facts.
type Config struct {
	Formats []*ir.Format
	Flags   fold.Flags
	Target  fold.Target
}

// document mirrors the CUE layout. Target widths are CUE labels, hence
// strings.
type document struct {
	Formats map[string]ir.Format `json:"formats"`
	Flags   fold.Flags           `json:"flags"`
	Target  struct {
		ClzAtZero map[string]int `json:"clz_at_zero"`
		CtzAtZero map[string]int `json:"ctz_at_zero"`
	} `json:"target"`
}

// Default returns the built-in configuration.
func Default() (*Config, error) {
	return Load("")
}

// Load builds the configuration from the embedded defaults unified with
// the CUE package in dir. An empty dir means defaults only.
func Load(dir string) (*Config, error) {
	ctx := cuecontext.New()
	value := ctx.CompileString(defaultsCUE, cue.Filename("defaults.cue"))
	if err := value.Err(); err != nil {
		return nil, fromCUE(ErrCodeBuild, "compiling built-in defaults", err)
	}

	if dir != "" {
		user, err := loadDir(ctx, dir)
		if err != nil {
			return nil, err
		}
		value = value.Unify(user)
	}

	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, fromCUE(ErrCodeBuild, "configuration does not unify", err)
	}

	var doc document
	if err := value.Decode(&doc); err != nil {
		return nil, fromCUE(ErrCodeDecode, "decoding configuration", err)
	}
	return fromDocument(&doc)
}

func loadDir(ctx *cue.Context, dir string) (cue.Value, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return cue.Value{}, &ConfigError{Code: ErrCodeNotFound, Message: fmt.Sprintf("config directory %s", dir), Err: err}
	}
	if !info.IsDir() {
		return cue.Value{}, &ConfigError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return cue.Value{}, &ConfigError{Code: ErrCodeLoad, Message: "scanning config directory", Err: err}
	}
	if len(files) == 0 {
		return cue.Value{}, &ConfigError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return cue.Value{}, &ConfigError{Code: ErrCodeLoad, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, fromCUE(ErrCodeLoad, "loading CUE files", inst.Err)
	}
	v := ctx.BuildInstance(inst)
	if err := v.Err(); err != nil {
		return cue.Value{}, fromCUE(ErrCodeBuild, "building CUE value", err)
	}
	return v, nil
}

func fromDocument(doc *document) (*Config, error) {
	cfg := &Config{Flags: doc.Flags}

	for _, name := range slices.Sorted(maps.Keys(doc.Formats)) {
		f := doc.Formats[name]
		if err := validateFormat(&f); err != nil {
			return nil, err
		}
		cfg.Formats = append(cfg.Formats, &f)
	}

	var err error
	if cfg.Target.ClzAtZero, err = widths("target.clz_at_zero", doc.Target.ClzAtZero); err != nil {
		return nil, err
	}
	if cfg.Target.CtzAtZero, err = widths("target.ctz_at_zero", doc.Target.CtzAtZero); err != nil {
		return nil, err
	}
	return cfg, nil
}

func widths(field string, m map[string]int) (map[int]int, error) {
	if len(m) == 0 {
		return nil, nil
	}
	out := make(map[int]int, len(m))
	for k, v := range m {
		w, err := strconv.Atoi(k)
		if err != nil || w <= 0 {
			return nil, &ConfigError{Code: ErrCodeValidation, Field: field, Message: fmt.Sprintf("invalid width %q", k)}
		}
		if v > w {
			return nil, &ConfigError{Code: ErrCodeValidation, Field: field, Message: fmt.Sprintf("count %d exceeds width %d", v, w)}
		}
		out[w] = v
	}
	return out, nil
}

// Registry returns a format registry holding the configured formats.
func (c *Config) Registry() *ir.Registry {
	return ir.NewRegistry(c.Formats...)
}

// FolderOptions returns the options that apply c to a fold.Folder.
func (c *Config) FolderOptions() []fold.Option {
	return []fold.Option{fold.WithFlags(c.Flags), fold.WithTarget(c.Target)}
}

// fromCUE wraps a CUE error, keeping the first position CUE reports.
func fromCUE(code ConfigErrorCode, msg string, err error) *ConfigError {
	ce := &ConfigError{Code: code, Message: msg, Err: err}
	for _, e := range cueerrors.Errors(err) {
		if pos := e.Position(); pos.IsValid() {
			ce.Pos = pos
			break
		}
	}
	return ce
}
