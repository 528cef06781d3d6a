// Package config reads the machine description: the memory modules, the
// devices, the clock interval and the program to load.
//
// Example:
//
//	verbose = false
//	language = "en-US"
//	pulse = "1ms"
//	module_sizes = [4, 8, 16, 32]
//	source = "hello.s"
//
//	[[module]]
//	address = 0x0000
//	size = 32
//
//	[[device]]
//	type = "screen"
//	name = "screen"
//	base = 0x9000
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/language"

	dev "github.com/ezrec/micro16/io"
	"github.com/ezrec/micro16/memory"
	"github.com/ezrec/micro16/translate"
)

var f = translate.From

var (
	ErrUnknownKey = errors.New(f("unknown configuration key"))
	ErrPulse      = errors.New(f("pulse interval must not be negative"))
	ErrProgram    = errors.New(f("program and source are exclusive"))
	ErrLanguage   = errors.New(f("language is not a BCP 47 tag"))
)

// Module is one memory module.
type Module struct {
	Address int `toml:"address"`
	Size    int `toml:"size"` // Size in KB.
}

// Duration is a time.Duration written as a string, such as "250us".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) (err error) {
	d.Duration, err = time.ParseDuration(string(text))
	return
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the machine description.
type Config struct {
	Verbose     bool         `toml:"verbose"`
	Language    string       `toml:"language"`     // Message language; the host locale if empty.
	Pulse       Duration     `toml:"pulse"`        // Delay between clock pulses when running.
	ModuleSizes []int        `toml:"module_sizes"` // Allowed module sizes in KB.
	Module      []Module     `toml:"module"`
	Device      []dev.Config `toml:"device"`
	Program     string       `toml:"program"` // Program load format file.
	Source      string       `toml:"source"`  // Assembly source file.
}

// Default returns a machine with 64KB of memory and no devices.
func Default() *Config {
	return &Config{
		ModuleSizes: slices.Clone(memory.DefaultSizes),
		Module: []Module{
			{Address: 0x0000, Size: 32},
			{Address: 0x8000, Size: 32},
		},
	}
}

// Read decodes a configuration. Settings left out keep their defaults.
func Read(r io.Reader) (cfg *Config, err error) {
	cfg = &Config{}
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		cfg = nil
		return
	}

	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		keys := make([]string, len(undecoded))
		for n, key := range undecoded {
			keys[n] = key.String()
		}
		err = fmt.Errorf("%w: %v", ErrUnknownKey, strings.Join(keys, ", "))
		cfg = nil
		return
	}

	def := Default()
	if !md.IsDefined("module_sizes") {
		cfg.ModuleSizes = def.ModuleSizes
	}
	if !md.IsDefined("module") {
		cfg.Module = def.Module
	}

	err = cfg.Check()
	if err != nil {
		cfg = nil
	}

	return
}

// Load reads a configuration file. Program and source paths are taken
// relative to the directory of the file.
func Load(path string) (cfg *Config, err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	cfg, err = Read(inf)
	if err != nil {
		err = fmt.Errorf("%v: %w", path, err)
		return
	}

	dir := filepath.Dir(path)
	cfg.Program = relative(dir, cfg.Program)
	cfg.Source = relative(dir, cfg.Source)

	return
}

func relative(dir string, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// Check looks for settings that are wrong without building the machine.
func (cfg *Config) Check() (err error) {
	if cfg.Pulse.Duration < 0 {
		return ErrPulse
	}

	if cfg.Program != "" && cfg.Source != "" {
		return ErrProgram
	}

	if cfg.Language != "" {
		if _, perr := language.Parse(cfg.Language); perr != nil {
			return fmt.Errorf("%w: %v", ErrLanguage, cfg.Language)
		}
	}

	return
}
