package strfmt

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ashenvale/charstate/internal/propval"
	"github.com/ashenvale/charstate/internal/registry"
)

// Formatter renders a decoded propval.StringInfo value to display text,
// grounded on StringInfoUtils.render_string_info/build_string_format.
type Formatter struct {
	tables *registry.StringTableRegistry
}

func NewFormatter(tables *registry.StringTableRegistry) *Formatter {
	return &Formatter{tables: tables}
}

// Format renders info. outer supplies a value for any name info.Variables
// doesn't itself bind — the well-known session variables (player name,
// class, race, current/max stat) a template can reference by name
// without the property stream ever carrying them as bound variables.
// outer may be nil.
func (f *Formatter) Format(ctx context.Context, info *propval.StringInfo, outer VariableValueProvider) (string, error) {
	if info == nil {
		return "", nil
	}
	if info.IsLiteral {
		return info.Literal, nil
	}
	entry, ok := f.tables.GetEntry(ctx, info.TableDID, info.Token)
	if !ok {
		return "", nil
	}
	format := BuildFormat(entry)
	if format == "" || !strings.Contains(format, "${") {
		return format, nil
	}
	provider := &boundProvider{ctx: ctx, info: info, fallback: outer, formatter: f}
	return Render(format, provider), nil
}

// boundProvider resolves a template variable's value by name, checking
// info's own bound variables before falling back to outer, matching
// build_variables_map always taking precedence over anything else a
// renderer might supply.
type boundProvider struct {
	ctx       context.Context
	info      *propval.StringInfo
	fallback  VariableValueProvider
	formatter *Formatter
}

func (p *boundProvider) GetVariable(name string) (string, bool) {
	if v, ok := p.info.Variables[name]; ok {
		return p.formatter.renderValue(p.ctx, v), true
	}
	if p.fallback != nil {
		return p.fallback.GetVariable(name)
	}
	return "", false
}

// renderValue stringifies one bound variable's value, grounded on
// StringInfoUtils.build_variables_map: a nested StringInfo renders
// recursively (to text, not to another placeholder), a number renders
// with Go's default numeric formatting.
func (f *Formatter) renderValue(ctx context.Context, v interface{}) string {
	switch x := v.(type) {
	case *propval.StringInfo:
		s, err := f.Format(ctx, x, nil)
		if err != nil {
			return ""
		}
		return s
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		return fmt.Sprintf("%v", x)
	}
}
