package scenario

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/ardnew/usbtap/hal"
	"github.com/ardnew/usbtap/hal/sim"
	"github.com/ardnew/usbtap/pkg"
	"github.com/ardnew/usbtap/usb"
)

// Format is a scenario file encoding.
type Format int

// Supported encodings.
const (
	FormatYAML Format = iota
	FormatTOML
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// FormatFromPath selects a format by file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return 0, fmt.Errorf("%w: unknown file extension %q", pkg.ErrScenario, filepath.Ext(path))
	}
}

// Scenario is a sequence of bursts of interrupt stimuli.
type Scenario struct {
	Name        string  `yaml:"name" toml:"name"`
	Description string  `yaml:"description" toml:"description"`
	Bursts      []Burst `yaml:"bursts" toml:"bursts"`
}

// Burst is a set of conditions raised together before the interrupt
// handler runs. Repeat raises the same burst that many times; zero means
// once.
type Burst struct {
	Name   string `yaml:"name" toml:"name"`
	Repeat int    `yaml:"repeat" toml:"repeat"`
	Steps  []Step `yaml:"steps" toml:"steps"`
}

// Step raises one condition on one controller.
//
// Setup and Data are hex strings; whitespace between bytes is ignored.
// Text is an alternative to Data for printable payloads.
type Step struct {
	Role      string `yaml:"role" toml:"role"`
	Condition string `yaml:"condition" toml:"condition"`
	Endpoint  uint8  `yaml:"endpoint" toml:"endpoint"`
	Setup     string `yaml:"setup" toml:"setup"`
	Data      string `yaml:"data" toml:"data"`
	Text      string `yaml:"text" toml:"text"`

	role      usb.Role
	interrupt hal.Interrupt
	payload   []byte
}

// Load reads and validates the scenario at path.
func Load(path string) (*Scenario, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	s, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	pkg.LogDebug(pkg.ComponentSim, "scenario loaded", "path", path, "name", s.Name,
		"bursts", len(s.Bursts), "stimuli", s.Stimuli())
	return s, nil
}

// Parse decodes and validates a scenario. Unknown keys are rejected.
func Parse(data []byte, format Format) (*Scenario, error) {
	var s Scenario
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("%w: %w", pkg.ErrScenario, err)
		}
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data)).Strict(true)
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("%w: %w", pkg.ErrScenario, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %s", pkg.ErrScenario, format)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every step and resolves its role, condition and payload.
// A burst may not raise the same condition twice on one controller, since
// the second would overwrite the first.
func (s *Scenario) Validate() error {
	if len(s.Bursts) == 0 {
		return fmt.Errorf("%w: no bursts", pkg.ErrScenario)
	}
	for bi := range s.Bursts {
		b := &s.Bursts[bi]
		if b.Repeat < 0 {
			return fmt.Errorf("%w: burst %d: negative repeat %d", pkg.ErrScenario, bi, b.Repeat)
		}
		if len(b.Steps) == 0 {
			return fmt.Errorf("%w: burst %d: no steps", pkg.ErrScenario, bi)
		}
		for si := range b.Steps {
			if err := b.Steps[si].resolve(); err != nil {
				return fmt.Errorf("%w: burst %d step %d: %w", pkg.ErrScenario, bi, si, err)
			}
		}
		dups := lo.FindDuplicatesBy(b.Steps, func(st Step) uint {
			return hal.IRQ(st.role, st.interrupt)
		})
		if len(dups) > 0 {
			return fmt.Errorf("%w: burst %d: %s %s raised more than once",
				pkg.ErrScenario, bi, dups[0].role, dups[0].interrupt)
		}
	}
	return nil
}

// Stimuli returns the number of conditions the scenario raises in total.
func (s *Scenario) Stimuli() int {
	return lo.SumBy(s.Bursts, func(b Burst) int {
		return b.Count() * len(b.Steps)
	})
}

// Count returns how many times the burst is raised.
func (b *Burst) Count() int {
	return max(b.Repeat, 1)
}

// Raise applies every step of the burst to board.
func (b *Burst) Raise(board *sim.Board) error {
	for i := range b.Steps {
		st := &b.Steps[i]
		if err := board.Controller(st.role).Raise(st.interrupt, st.Endpoint, st.payload); err != nil {
			return fmt.Errorf("raise %s %s: %w", st.role, st.interrupt, err)
		}
	}
	return nil
}

// Interrupt returns the resolved condition. Valid only after Validate.
func (st *Step) Interrupt() hal.Interrupt {
	return st.interrupt
}

// ResolvedRole returns the resolved controller role. Valid only after
// Validate.
func (st *Step) ResolvedRole() usb.Role {
	return st.role
}

// Payload returns the resolved setup or packet bytes. Valid only after
// Validate.
func (st *Step) Payload() []byte {
	return st.payload
}

func (st *Step) resolve() error {
	role, err := usb.ParseRole(st.Role)
	if err != nil {
		return err
	}
	i, err := ParseCondition(st.Condition)
	if err != nil {
		return err
	}
	if !usb.ValidEndpoint(st.Endpoint) {
		return fmt.Errorf("%w: %d", pkg.ErrInvalidEndpoint, st.Endpoint)
	}

	var payload []byte
	switch i {
	case hal.InterruptEndpointControl:
		if st.Data != "" || st.Text != "" {
			return fmt.Errorf("control step takes setup, not data")
		}
		if payload, err = decodeHex(st.Setup); err != nil {
			return fmt.Errorf("setup: %w", err)
		}
		if len(payload) > usb.SetupPacketSize {
			return fmt.Errorf("setup %d bytes: %w", len(payload), pkg.ErrBufferTooSmall)
		}
	case hal.InterruptEndpointOut:
		if st.Setup != "" {
			return fmt.Errorf("out step takes data, not setup")
		}
		if st.Data != "" && st.Text != "" {
			return fmt.Errorf("out step takes data or text, not both")
		}
		if st.Text != "" {
			payload = []byte(st.Text)
		} else if payload, err = decodeHex(st.Data); err != nil {
			return fmt.Errorf("data: %w", err)
		}
		if len(payload) > usb.MaxPacketSize {
			return fmt.Errorf("data %d bytes: %w", len(payload), pkg.ErrPacketTooLarge)
		}
	default:
		if st.Setup != "" || st.Data != "" || st.Text != "" {
			return fmt.Errorf("%s step takes no payload", i)
		}
	}

	st.role = role
	st.interrupt = i
	st.payload = payload
	return nil
}

// ParseCondition converts a condition name to a hal.Interrupt.
func ParseCondition(s string) (hal.Interrupt, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, i := range hal.Interrupts {
		if name == i.String() {
			return i, nil
		}
	}
	switch name {
	case "reset", "busreset":
		return hal.InterruptBusReset, nil
	case "setup":
		return hal.InterruptEndpointControl, nil
	}
	return 0, fmt.Errorf("%w: %q", pkg.ErrInvalidInterrupt, s)
}

func decodeHex(s string) ([]byte, error) {
	compact := strings.Join(strings.Fields(s), "")
	compact = strings.ReplaceAll(compact, "0x", "")
	return hex.DecodeString(compact)
}
