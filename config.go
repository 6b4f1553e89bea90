package arena

import (
	"bytes"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/pavanmanishd/stackarena/internal/backing"
)

// Size is a byte count. In config files it may be written as a plain
// integer or with a binary suffix: 512, 4KiB, 16MiB, 1GiB.
type Size int

const (
	KiB Size = 1 << 10
	MiB Size = 1 << 20
	GiB Size = 1 << 30
)

var sizeSuffixes = []struct {
	suffix string
	scale  Size
}{
	{"kib", KiB}, {"mib", MiB}, {"gib", GiB},
	{"kb", KiB}, {"mb", MiB}, {"gb", GiB},
	{"k", KiB}, {"m", MiB}, {"g", GiB},
	{"b", 1},
}

// ParseSize parses a byte count with an optional binary suffix.
func ParseSize(s string) (Size, error) {
	text := strings.ToLower(strings.TrimSpace(s))
	scale := Size(1)
	for _, sfx := range sizeSuffixes {
		if strings.HasSuffix(text, sfx.suffix) {
			text = strings.TrimSpace(strings.TrimSuffix(text, sfx.suffix))
			scale = sfx.scale
			break
		}
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "arena: bad size %q", s)
	}
	if n != 0 && int64(scale)*n/n != int64(scale) {
		return 0, errors.Errorf("arena: size %q overflows", s)
	}
	return Size(n) * scale, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Size) UnmarshalText(text []byte) error {
	n, err := ParseSize(string(text))
	if err != nil {
		return err
	}
	*s = n
	return nil
}

// UnmarshalYAML accepts both integer and suffixed scalar nodes.
func (s *Size) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return errors.Errorf("arena: line %d: size must be a scalar", node.Line)
	}
	return s.UnmarshalText([]byte(node.Value))
}

// Declaration names one region and its capacity in bytes.
type Declaration struct {
	Name     string `yaml:"name" json:"name"`
	Capacity Size   `yaml:"capacity" json:"capacity"`
}

// Config is the static region layout consumed once by Registry.Init. The
// position of a declaration in Arenas is its Tag.
type Config struct {
	Backing backing.Kind  `yaml:"backing" json:"backing"`
	Arenas  []Declaration `yaml:"arenas" json:"arenas"`
}

// DefaultConfig returns the layout used by the bundled demos.
func DefaultConfig() Config {
	return Config{
		Backing: backing.Heap,
		Arenas: []Declaration{
			{Name: "DumpTest", Capacity: 1 * KiB},
			{Name: "RecursiveTest", Capacity: 256 * KiB},
		},
	}
}

// LoadConfig reads and validates a YAML layout file.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "arena: open config")
	}
	defer f.Close()

	cfg, err := DecodeConfig(f)
	if err != nil {
		return Config{}, errors.Wrapf(err, "arena: %s", path)
	}
	return cfg, nil
}

// ParseConfig decodes and validates a YAML layout document.
func ParseConfig(data []byte) (Config, error) {
	return DecodeConfig(bytes.NewReader(data))
}

// DecodeConfig decodes and validates a YAML layout from r. Unknown keys are
// rejected.
func DecodeConfig(r io.Reader) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, errors.Wrap(err, "arena: decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every problem with the layout at once.
func (c Config) Validate() error {
	var result *multierror.Error

	if c.Backing != backing.Heap && c.Backing != backing.Mmap {
		result = multierror.Append(result, errors.Wrapf(ErrInvalidConfig, "unknown backing %d", int(c.Backing)))
	}
	if len(c.Arenas) == 0 {
		result = multierror.Append(result, errors.Wrap(ErrInvalidConfig, "no arenas declared"))
	}

	seen := make(map[string]int, len(c.Arenas))
	total, overflow := 0, false
	for i, d := range c.Arenas {
		name := strings.TrimSpace(d.Name)
		switch {
		case name == "":
			result = multierror.Append(result, errors.Wrapf(ErrInvalidConfig, "arena %d: empty name", i))
		case name != d.Name:
			result = multierror.Append(result, errors.Wrapf(ErrInvalidConfig, "arena %d: name %q has surrounding space", i, d.Name))
		default:
			if prev, dup := seen[name]; dup {
				result = multierror.Append(result, errors.Wrapf(ErrInvalidConfig, "arena %d: name %q already declared by arena %d", i, name, prev))
			}
			seen[name] = i
		}
		if d.Capacity <= 0 {
			result = multierror.Append(result, errors.Wrapf(ErrInvalidConfig, "arena %q: capacity %d must be positive", d.Name, d.Capacity))
			continue
		}
		if !overflow && int(d.Capacity) > math.MaxInt-total {
			overflow = true
			result = multierror.Append(result, errors.Wrapf(ErrInvalidConfig, "arena %q: total capacity overflows int", d.Name))
		}
		total += int(d.Capacity)
	}

	return result.ErrorOrNil()
}

// TotalCapacity is the size of the backing buffer the layout needs.
func (c Config) TotalCapacity() int {
	return lo.SumBy(c.Arenas, func(d Declaration) int { return int(d.Capacity) })
}
