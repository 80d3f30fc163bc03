// Package tuning implements the parameter substrate of the engine: a
// registry binding named tunable scalars to float vector and gray-coded
// bit string interchange formats, and the Nadam gradient descent that
// fits them against a training set.
package tuning

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hailam/chesstuner/internal/bitutil"
)

var (
	// ErrInvalidArgument is returned for malformed construction inputs.
	ErrInvalidArgument = errors.New("tuning: invalid argument")

	// ErrFormat is returned when an interchange string or registry
	// declaration cannot be decoded.
	ErrFormat = errors.New("tuning: format error")
)

// Kind is the data kind of a tunable field.
type Kind uint8

const (
	KindBool Kind = iota
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat
	KindChar
)

// nativeBits returns the native bit width of the kind.
func (k Kind) nativeBits() int {
	switch k {
	case KindBool:
		return 1
	case KindUint8:
		return 8
	case KindUint16:
		return 16
	case KindUint32, KindChar:
		return 32
	default:
		return 64
	}
}

// nativeMax returns the largest representable value of the kind.
func (k Kind) nativeMax() float64 {
	switch k {
	case KindBool:
		return 1
	case KindUint8:
		return math.MaxUint8
	case KindUint16:
		return math.MaxUint16
	case KindUint32:
		return math.MaxUint32
	case KindChar:
		return 0x10FFFF
	default:
		return math.MaxUint64
	}
}

// Param binds one named tunable scalar. BitLimit caps the field's width
// in the gray-code interchange string; 0 excludes the field from tuning.
// The accessors read and write the underlying storage; values are always
// non-negative.
type Param struct {
	Name     string
	Kind     Kind
	BitLimit int
	Get      func() float64
	Set      func(float64)
}

// Params is an ordered registry of tunable scalars. The declaration
// order fixes the layout of both interchange formats.
type Params struct {
	fields []Param
	logger *zap.Logger
}

// NewParams validates and wraps a field registry.
func NewParams(fields []Param, logger *zap.Logger) (*Params, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty field registry", ErrInvalidArgument)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("%w: unnamed field", ErrFormat)
		}
		if seen[f.Name] {
			return nil, fmt.Errorf("%w: duplicate field %q", ErrFormat, f.Name)
		}
		seen[f.Name] = true
		if f.Get == nil || f.Set == nil {
			return nil, fmt.Errorf("%w: field %q lacks accessors", ErrFormat, f.Name)
		}
		if f.BitLimit < 0 || f.BitLimit > f.Kind.nativeBits() {
			return nil, fmt.Errorf("%w: field %q bit limit %d exceeds native width %d",
				ErrFormat, f.Name, f.BitLimit, f.Kind.nativeBits())
		}
	}

	return &Params{fields: fields, logger: logger}, nil
}

// Len returns the number of registered fields.
func (p *Params) Len() int {
	return len(p.fields)
}

// Names returns the field names in declaration order.
func (p *Params) Names() []string {
	names := make([]string, len(p.fields))
	for i, f := range p.fields {
		names[i] = f.Name
	}
	return names
}

// Values returns the current field values as a vector. Booleans map to
// {0.0, 1.0}.
func (p *Params) Values() []float64 {
	vec := make([]float64, len(p.fields))
	for i, f := range p.fields {
		vec[i] = f.Get()
	}
	return vec
}

// maxValue returns the upper bound of a field from its kind and optional
// bit limit.
func (f *Param) maxValue() float64 {
	max := f.Kind.nativeMax()
	if f.BitLimit > 0 && f.BitLimit < 64 {
		if limit := float64(uint64(1)<<f.BitLimit - 1); limit < max {
			max = limit
		}
	}
	return max
}

// MaxValues returns the per-field upper bounds.
func (p *Params) MaxValues() []float64 {
	vec := make([]float64, len(p.fields))
	for i := range p.fields {
		vec[i] = p.fields[i].maxValue()
	}
	return vec
}

// SetValues writes the vector into the fields, clamping each component
// to [0, max]. Extra components are ignored; a short vector leaves the
// remaining fields untouched.
func (p *Params) SetValues(vec []float64) {
	for i := range p.fields {
		if i >= len(vec) {
			break
		}
		v := vec[i]
		if v < 0 {
			v = 0
		}
		if max := p.fields[i].maxValue(); v > max {
			v = max
		}
		p.fields[i].Set(v)
	}
}

// The Tunable accessors cover only the fields participating in tuning
// (bit limit > 0), in declaration order. Fields with a zero bit limit
// are fixed anchors: the optimizer never sees them and SetTunableValues
// leaves them untouched.

// TunableLen returns the number of tunable fields.
func (p *Params) TunableLen() int {
	n := 0
	for i := range p.fields {
		if p.fields[i].BitLimit > 0 {
			n++
		}
	}
	return n
}

// TunableNames returns the tunable field names in declaration order.
func (p *Params) TunableNames() []string {
	names := make([]string, 0, p.TunableLen())
	for i := range p.fields {
		if p.fields[i].BitLimit > 0 {
			names = append(names, p.fields[i].Name)
		}
	}
	return names
}

// TunableValues returns the current values of the tunable fields.
func (p *Params) TunableValues() []float64 {
	vec := make([]float64, 0, p.TunableLen())
	for i := range p.fields {
		if p.fields[i].BitLimit > 0 {
			vec = append(vec, p.fields[i].Get())
		}
	}
	return vec
}

// TunableMaxValues returns the per-field upper bounds of the tunable
// fields.
func (p *Params) TunableMaxValues() []float64 {
	vec := make([]float64, 0, p.TunableLen())
	for i := range p.fields {
		if p.fields[i].BitLimit > 0 {
			vec = append(vec, p.fields[i].maxValue())
		}
	}
	return vec
}

// SetTunableValues writes a vector produced against the tunable subset
// back into those fields, with the same clamping and short/long vector
// behavior as SetValues. Fixed fields keep their values.
func (p *Params) SetTunableValues(vec []float64) {
	j := 0
	for i := range p.fields {
		if p.fields[i].BitLimit == 0 {
			continue
		}
		if j >= len(vec) {
			break
		}
		v := vec[j]
		j++
		if v < 0 {
			v = 0
		}
		if max := p.fields[i].maxValue(); v > max {
			v = max
		}
		p.fields[i].Set(v)
	}
}

// GrayCodeString encodes the tunable fields as a concatenated bit string
// in declaration order: each field contributes its gray-encoded value
// truncated to its bit limit, dropping the excess from the MSB side.
// Fields with bit limit 0 are skipped.
func (p *Params) GrayCodeString() string {
	var sb strings.Builder
	for i := range p.fields {
		f := &p.fields[i]
		if f.BitLimit == 0 {
			continue
		}
		g := bitutil.GrayEncode(uint64(f.Get()))
		if f.BitLimit < 64 {
			g &= uint64(1)<<f.BitLimit - 1
		}
		fmt.Fprintf(&sb, "%0*b", f.BitLimit, g)
	}
	return sb.String()
}

// SetGrayCode decodes a bit string produced by GrayCodeString and writes
// the values back, clamping each to its field bounds.
func (p *Params) SetGrayCode(s string) error {
	offset := 0
	for i := range p.fields {
		f := &p.fields[i]
		if f.BitLimit == 0 {
			continue
		}
		if offset+f.BitLimit > len(s) {
			return fmt.Errorf("%w: bit string ends inside field %q", ErrFormat, f.Name)
		}
		chunk := s[offset : offset+f.BitLimit]
		offset += f.BitLimit

		g, err := strconv.ParseUint(chunk, 2, 64)
		if err != nil {
			return fmt.Errorf("%w: field %q: %v", ErrFormat, f.Name, err)
		}
		v := float64(bitutil.GrayDecode(g))
		if max := f.maxValue(); v > max {
			v = max
		}
		f.Set(v)
	}
	if offset != len(s) {
		return fmt.Errorf("%w: %d trailing bits", ErrFormat, len(s)-offset)
	}
	return nil
}

// eofToken terminates parameter file parsing.
const eofToken = "#EoF!"

// Save writes the registry to a key/value text file, one "[name] = value"
// line per field, terminated by the end-of-file token.
func (p *Params) Save(path string) error {
	var sb strings.Builder
	for i := range p.fields {
		f := &p.fields[i]
		fmt.Fprintf(&sb, "[%s] = %s\n", f.Name, formatValue(f.Kind, f.Get()))
	}
	sb.WriteString(eofToken + "\n")

	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("writing parameters: %w", err)
	}
	return nil
}

// Load reads a parameter file written by Save. Lines that do not parse
// and unknown field names are logged and skipped; the load succeeds if
// any field was set.
func (p *Params) Load(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("reading parameters: %w", err)
	}
	defer file.Close()

	byName := make(map[string]*Param, len(p.fields))
	for i := range p.fields {
		byName[p.fields[i].Name] = &p.fields[i]
	}

	anySet := false
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.Contains(line, eofToken) {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		name, value, ok := splitEntry(line)
		if !ok {
			p.logger.Warn("skipping unparseable parameter line", zap.String("line", line))
			continue
		}

		f, known := byName[name]
		if !known {
			p.logger.Warn("skipping unknown parameter", zap.String("name", name))
			continue
		}

		v, err := parseValue(f.Kind, value)
		if err != nil {
			p.logger.Warn("skipping bad parameter value",
				zap.String("name", name), zap.String("value", value), zap.Error(err))
			continue
		}
		if v < 0 {
			v = 0
		}
		if max := f.maxValue(); v > max {
			v = max
		}
		f.Set(v)
		anySet = true
	}
	if err := scanner.Err(); err != nil {
		return anySet, fmt.Errorf("reading parameters: %w", err)
	}

	return anySet, nil
}

// splitEntry parses a "[name] = value" line.
func splitEntry(line string) (name, value string, ok bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "[") {
		return "", "", false
	}
	end := strings.Index(line, "]")
	if end < 1 {
		return "", "", false
	}
	name = line[1:end]

	rest := strings.TrimSpace(line[end+1:])
	if !strings.HasPrefix(rest, "=") {
		return "", "", false
	}
	return name, strings.TrimSpace(rest[1:]), true
}

func formatValue(k Kind, v float64) string {
	switch k {
	case KindBool:
		return strconv.FormatBool(v != 0)
	case KindFloat:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case KindChar:
		return string(rune(v))
	default:
		return strconv.FormatUint(uint64(v), 10)
	}
}

func parseValue(k Kind, s string) (float64, error) {
	switch k {
	case KindBool:
		b, err := strconv.ParseBool(strings.ToLower(s))
		if err != nil {
			return 0, err
		}
		if b {
			return 1, nil
		}
		return 0, nil
	case KindFloat:
		return strconv.ParseFloat(s, 64)
	case KindChar:
		runes := []rune(s)
		if len(runes) != 1 {
			return 0, fmt.Errorf("expected a single codepoint, got %q", s)
		}
		return float64(runes[0]), nil
	default:
		u, err := strconv.ParseUint(s, 10, k.nativeBits())
		if err != nil {
			return 0, err
		}
		return float64(u), nil
	}
}
