// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

package validator

import (
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"github.com/driftback/driftback/internal/check"
	"github.com/driftback/driftback/internal/util"
)

func init() {
	Register("boolean", newBoolean)
	Register("integer", newInteger)
	Register("float", newFloat)
	Register("string", newString)
	Register("option", newOption)
	Register("list", newList)
	// force_list is a legacy spelling kept for configs written against the
	// old schema vocabulary.
	Register("force_list", newList)
	Register("tuple", newTuple)
	Register("set", newSet)
	Register("cmdline", newCmdline)
	Register("log_level", newLogLevel)
	Register("percent", newPercent)
	Register("bytes", newBytes)
	Register("namearg", newNameArg)
}

// base supplies the default normalize/format behavior shared by most
// validators: string input is unquoted, anything else passes through.
type base struct{}

func (base) Normalize(value any) any {
	if s, ok := value.(string); ok {
		return check.Unquote(s)
	}
	return value
}

func (base) Format(value any) (string, error) {
	if value == nil {
		return "", nil
	}
	return fmt.Sprint(value), nil
}

// ---------------------------------------------------------------------------
// boolean
// ---------------------------------------------------------------------------

type booleanValidator struct{ base }

var booleanTokens = map[string]bool{
	"yes": true, "on": true, "true": true, "1": true,
	"no": false, "off": false, "false": false, "0": false,
}

func newBoolean(*check.Check) (Validator, error) { return booleanValidator{}, nil }

func (booleanValidator) Convert(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		if b, ok := booleanTokens[strings.ToLower(v)]; ok {
			return b, nil
		}
		return nil, Errorf(v, "invalid boolean %q: use yes/no, on/off, true/false or 1/0", v)
	default:
		return nil, Errorf(value, "invalid boolean value %v", value)
	}
}

func (booleanValidator) Format(value any) (string, error) {
	b, ok := value.(bool)
	if !ok {
		return "", Errorf(value, "cannot format %T as boolean", value)
	}
	if b {
		return "yes", nil
	}
	return "no", nil
}

// ---------------------------------------------------------------------------
// integer
// ---------------------------------------------------------------------------

type integerValidator struct {
	base
	min, max       int64
	hasMin, hasMax bool
	radix          int
}

func newInteger(c *check.Check) (Validator, error) {
	v := integerValidator{radix: 10}
	var err error
	if v.min, v.hasMin, err = intKwarg(c, "min"); err != nil {
		return nil, err
	}
	if v.max, v.hasMax, err = intKwarg(c, "max"); err != nil {
		return nil, err
	}
	radix, ok, err := intKwarg(c, "base")
	if err != nil {
		return nil, err
	}
	if ok {
		if radix < 2 || radix > 36 {
			return nil, fmt.Errorf("unsupported integer base %d", radix)
		}
		v.radix = int(radix)
	}
	return v, nil
}

// intKwarg extracts an integer keyword argument from a check declaration.
func intKwarg(c *check.Check, name string) (int64, bool, error) {
	kw, ok := c.Kwarg(name)
	if !ok || kw.IsNull() {
		return 0, false, nil
	}
	n, ok := kw.Int()
	if !ok {
		return 0, false, fmt.Errorf("%s= requires an integer, got %s", name, kw)
	}
	return n, true, nil
}

func (v integerValidator) Convert(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	var n int64
	switch raw := value.(type) {
	case int64:
		n = raw
	case int:
		n = int64(raw)
	case string:
		parsed, err := parseRadixInt(raw, v.radix)
		if err != nil {
			return nil, Errorf(raw, "invalid integer %q", raw)
		}
		n = parsed
	default:
		return nil, Errorf(value, "invalid integer value %v", value)
	}
	if v.hasMin && n < v.min {
		return nil, Errorf(n, "integer value %d below minimum %d", n, v.min)
	}
	if v.hasMax && n > v.max {
		return nil, Errorf(n, "integer value %d exceeds maximum %d", n, v.max)
	}
	return n, nil
}

// Format emits the value in the declared radix, with the prefix Convert
// accepts, so formatted text re-converts to an equal value.
func (v integerValidator) Format(value any) (string, error) {
	var n int64
	switch raw := value.(type) {
	case nil:
		return "", nil
	case int64:
		n = raw
	case int:
		n = int64(raw)
	default:
		return "", Errorf(value, "cannot format %T as integer", value)
	}
	if v.radix == 10 {
		return strconv.FormatInt(n, 10), nil
	}
	var prefix string
	switch v.radix {
	case 2:
		prefix = "0b"
	case 8:
		prefix = "0o"
	case 16:
		prefix = "0x"
	}
	if n < 0 {
		return "-" + prefix + strconv.FormatInt(-n, v.radix), nil
	}
	return prefix + strconv.FormatInt(n, v.radix), nil
}

// parseRadixInt parses text in the given base, accepting the standard radix
// prefix (0b/0o/0x) when the base is not 10.
func parseRadixInt(text string, radix int) (int64, error) {
	s := strings.TrimSpace(text)
	if radix != 10 && len(s) > 2 {
		neg := false
		body := s
		if body[0] == '+' || body[0] == '-' {
			neg = body[0] == '-'
			body = body[1:]
		}
		var prefix string
		switch radix {
		case 2:
			prefix = "0b"
		case 8:
			prefix = "0o"
		case 16:
			prefix = "0x"
		}
		if prefix != "" && len(body) > len(prefix) &&
			strings.EqualFold(body[:len(prefix)], prefix) {
			s = body[len(prefix):]
			if neg {
				s = "-" + s
			}
		}
	}
	return strconv.ParseInt(s, radix, 64)
}

// ---------------------------------------------------------------------------
// float
// ---------------------------------------------------------------------------

type floatValidator struct{ base }

func newFloat(*check.Check) (Validator, error) { return floatValidator{}, nil }

func (floatValidator) Convert(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, Errorf(v, "invalid float %q", v)
		}
		return f, nil
	default:
		return nil, Errorf(value, "invalid float value %v", value)
	}
}

func (floatValidator) Format(value any) (string, error) {
	switch v := value.(type) {
	case float64:
		return fmt.Sprintf("%.2f", v), nil
	case int64:
		return fmt.Sprintf("%.2f", float64(v)), nil
	default:
		return "", Errorf(value, "cannot format %T as float", value)
	}
}

// ---------------------------------------------------------------------------
// string
// ---------------------------------------------------------------------------

type stringValidator struct{ base }

func newString(*check.Check) (Validator, error) { return stringValidator{}, nil }

func (stringValidator) Convert(value any) (any, error) {
	return value, nil
}

// ---------------------------------------------------------------------------
// option
// ---------------------------------------------------------------------------

type optionValidator struct {
	base
	allowed []string
}

func newOption(c *check.Check) (Validator, error) {
	args := c.Args()
	allowed := make([]string, 0, len(args))
	for _, arg := range args {
		allowed = append(allowed, valueText(arg))
	}
	return optionValidator{allowed: allowed}, nil
}

// valueText canonicalizes a check literal to the text an option value is
// compared against.
func valueText(v check.Value) string {
	switch v.Kind() {
	case check.String, check.Ident:
		return v.Text()
	case check.Int:
		n, _ := v.Int()
		return strconv.FormatInt(n, 10)
	case check.Float:
		f, _ := v.Float()
		return strconv.FormatFloat(f, 'g', -1, 64)
	default:
		return v.String()
	}
}

func (v optionValidator) Convert(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, Errorf(value, "invalid option value %v", value)
	}
	for _, candidate := range v.allowed {
		if s == candidate {
			return s, nil
		}
	}
	return nil, Errorf(s, "invalid option %q - choose from: %s",
		s, strings.Join(v.allowed, ", "))
}

// ---------------------------------------------------------------------------
// list, tuple, set
// ---------------------------------------------------------------------------

// Tuple is a converted tuple check value: a fixed-order sequence of fields.
type Tuple []string

// Set is a converted set check value: unordered unique membership.
type Set map[string]struct{}

// Contains reports set membership.
func (s Set) Contains(member string) bool {
	_, ok := s[member]
	return ok
}

type listValidator struct{}

func newList(*check.Check) (Validator, error) { return listValidator{}, nil }

// Normalize passes the raw value through untouched: the list validator
// performs its own quote-aware field splitting and must see the original
// text.
func (listValidator) Normalize(value any) any { return value }

func (listValidator) Convert(value any) (any, error) {
	return convertFields(value)
}

// convertFields parses one row of comma-separated, quote-aware fields.
// Embedded commas inside quoted fields do not split; each field is unquoted
// and fields that are empty after unquoting are dropped.
func convertFields(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case Tuple:
		return v, nil
	case []any:
		fields := make([]string, 0, len(v))
		for _, elem := range v {
			fields = append(fields, fmt.Sprint(elem))
		}
		return fields, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return []string{}, nil
		}
		reader := csv.NewReader(strings.NewReader(v))
		reader.TrimLeadingSpace = true
		reader.FieldsPerRecord = -1
		rows, err := reader.ReadAll()
		if err != nil {
			return nil, Errorf(v, "malformed list %q: %v", v, err)
		}
		var fields []string
		for _, row := range rows {
			for _, cell := range row {
				if cell = check.Unquote(cell); cell != "" {
					fields = append(fields, cell)
				}
			}
		}
		if fields == nil {
			fields = []string{}
		}
		return fields, nil
	default:
		return nil, Errorf(value, "invalid list value %v", value)
	}
}

func (listValidator) Format(value any) (string, error) {
	return formatFields(value)
}

// formatFields re-serializes fields as one quoted comma-separated row.
func formatFields(value any) (string, error) {
	var fields []string
	switch v := value.(type) {
	case []string:
		fields = v
	case Tuple:
		fields = v
	case []any:
		for _, elem := range v {
			fields = append(fields, fmt.Sprint(elem))
		}
	default:
		return "", Errorf(value, "cannot format %T as list", value)
	}
	if len(fields) == 0 {
		return "", nil
	}
	var buf strings.Builder
	writer := csv.NewWriter(&buf)
	if err := writer.Write(fields); err != nil {
		return "", Errorf(value, "cannot format list: %v", err)
	}
	writer.Flush()
	return strings.TrimRight(buf.String(), "\r\n"), nil
}

type tupleValidator struct{ listValidator }

func newTuple(*check.Check) (Validator, error) { return tupleValidator{}, nil }

func (tupleValidator) Convert(value any) (any, error) {
	fields, err := convertFields(value)
	if err != nil {
		return nil, err
	}
	return Tuple(fields), nil
}

type setValidator struct{ listValidator }

func newSet(*check.Check) (Validator, error) { return setValidator{}, nil }

func (setValidator) Convert(value any) (any, error) {
	if s, ok := value.(Set); ok {
		return s, nil
	}
	fields, err := convertFields(value)
	if err != nil {
		return nil, err
	}
	set := make(Set, len(fields))
	for _, field := range fields {
		set[field] = struct{}{}
	}
	return set, nil
}

func (setValidator) Format(value any) (string, error) {
	set, ok := value.(Set)
	if !ok {
		return formatFields(value)
	}
	members := make([]string, 0, len(set))
	for member := range set {
		members = append(members, member)
	}
	sort.Strings(members)
	return formatFields(members)
}

// ---------------------------------------------------------------------------
// cmdline
// ---------------------------------------------------------------------------

type cmdlineValidator struct{ base }

func newCmdline(*check.Check) (Validator, error) { return cmdlineValidator{}, nil }

func (cmdlineValidator) Convert(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return []string{}, nil
	case []string:
		return v, nil
	case string:
		argv, err := shlex.Split(v)
		if err != nil {
			return nil, Errorf(v, "malformed command line %q: %v", v, err)
		}
		if argv == nil {
			argv = []string{}
		}
		return argv, nil
	default:
		return nil, Errorf(value, "invalid command line value %v", value)
	}
}

func (cmdlineValidator) Format(value any) (string, error) {
	if value == nil {
		return "", nil
	}
	argv, ok := value.([]string)
	if !ok {
		return "", Errorf(value, "cannot format %T as command line", value)
	}
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		quoted[i] = quoteArg(arg)
	}
	return strings.Join(quoted, " "), nil
}

// quoteArg wraps an argument in double quotes when the bare form would not
// survive whitespace splitting.
func quoteArg(arg string) string {
	if arg != "" && !strings.ContainsAny(arg, " \t\"'\\") {
		return arg
	}
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(arg); i++ {
		if arg[i] == '"' || arg[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(arg[i])
	}
	b.WriteByte('"')
	return b.String()
}

// ---------------------------------------------------------------------------
// log_level
// ---------------------------------------------------------------------------

// Symbolic log severities recognized by the log_level check.
const (
	LevelDebug   int64 = 10
	LevelInfo    int64 = 20
	LevelWarning int64 = 30
	LevelError   int64 = 40
	LevelFatal   int64 = 50
)

var logLevelNames = map[string]int64{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warning": LevelWarning,
	"error":   LevelError,
	"fatal":   LevelFatal,
}

var logLevelValues = map[int64]string{
	LevelDebug:   "debug",
	LevelInfo:    "info",
	LevelWarning: "warning",
	LevelError:   "error",
	LevelFatal:   "fatal",
}

type logLevelValidator struct{ base }

func newLogLevel(*check.Check) (Validator, error) { return logLevelValidator{}, nil }

func (logLevelValidator) Convert(value any) (any, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case string:
		if level, ok := logLevelNames[strings.ToLower(v)]; ok {
			return level, nil
		}
		return nil, Errorf(v, "invalid log level %q", v)
	default:
		return nil, Errorf(value, "invalid log level value %v", value)
	}
}

func (logLevelValidator) Format(value any) (string, error) {
	switch v := value.(type) {
	case int64:
		if name, ok := logLevelValues[v]; ok {
			return name, nil
		}
		return "", Errorf(v, "unknown log severity %d", v)
	case int:
		if name, ok := logLevelValues[int64(v)]; ok {
			return name, nil
		}
		return "", Errorf(v, "unknown log severity %d", v)
	case string:
		name := strings.ToLower(v)
		if _, ok := logLevelNames[name]; ok {
			return name, nil
		}
		return "", Errorf(v, "unknown log level %q", v)
	default:
		return "", Errorf(value, "cannot format %T as log level", value)
	}
}

// ---------------------------------------------------------------------------
// percent
// ---------------------------------------------------------------------------

type percentValidator struct{ base }

func newPercent(*check.Check) (Validator, error) { return percentValidator{}, nil }

func (percentValidator) Convert(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case float64:
		return v, nil
	case int64:
		return float64(v) / 100, nil
	case string:
		text := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "%"))
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, Errorf(v, "invalid percent %q", v)
		}
		return f / 100, nil
	default:
		return nil, Errorf(value, "invalid percent value %v", value)
	}
}

func (percentValidator) Format(value any) (string, error) {
	f, ok := value.(float64)
	if !ok {
		return "", Errorf(value, "cannot format %T as percent", value)
	}
	return strconv.FormatFloat(f*100, 'g', -1, 64) + "%", nil
}

// ---------------------------------------------------------------------------
// bytes
// ---------------------------------------------------------------------------

type bytesValidator struct{ base }

func newBytes(*check.Check) (Validator, error) { return bytesValidator{}, nil }

func (bytesValidator) Convert(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case string:
		n, err := util.ParseBytes(v)
		if err != nil {
			return nil, Errorf(v, "invalid size %q", v)
		}
		return n, nil
	default:
		return nil, Errorf(value, "invalid size value %v", value)
	}
}

// Format emits the largest binary unit that divides the value evenly, so the
// output always parses back to the identical byte count.
func (bytesValidator) Format(value any) (string, error) {
	var n int64
	switch v := value.(type) {
	case int64:
		n = v
	case int:
		n = int64(v)
	default:
		return "", Errorf(value, "cannot format %T as size", value)
	}
	if n == 0 {
		return "0", nil
	}
	units := []struct {
		suffix string
		size   int64
	}{
		{"EB", 1 << 60}, {"PB", 1 << 50}, {"TB", 1 << 40},
		{"GB", 1 << 30}, {"MB", 1 << 20}, {"KB", 1 << 10},
	}
	for _, unit := range units {
		if n%unit.size == 0 {
			return strconv.FormatInt(n/unit.size, 10) + unit.suffix, nil
		}
	}
	return strconv.FormatInt(n, 10), nil
}

// ---------------------------------------------------------------------------
// namearg
// ---------------------------------------------------------------------------

// NameArg is a name with an optional argument, written "name:argument" in
// configuration files. Everything after the first colon is the argument, so
// the argument itself may contain colons.
type NameArg struct {
	Name string
	Arg  string
}

type nameArgValidator struct{ base }

func newNameArg(*check.Check) (Validator, error) { return nameArgValidator{}, nil }

func (nameArgValidator) Convert(value any) (any, error) {
	switch v := value.(type) {
	case NameArg:
		return v, nil
	case string:
		name, arg, _ := strings.Cut(v, ":")
		return NameArg{Name: name, Arg: arg}, nil
	default:
		return nil, Errorf(value, "invalid name:arg value %v", value)
	}
}

func (nameArgValidator) Format(value any) (string, error) {
	na, ok := value.(NameArg)
	if !ok {
		return "", Errorf(value, "cannot format %T as name:arg", value)
	}
	return na.Name + ":" + na.Arg, nil
}
