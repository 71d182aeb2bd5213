package sqlmapper

import (
	"fmt"
	"strings"

	"github.com/rs/halrest/entity"
	"github.com/rs/halrest/mapper"
	"github.com/rs/halrest/schema/query"
)

// builder accumulates a statement and its bind arguments.
type builder struct {
	d     Dialect
	kind  *entity.Kind
	table string
	sb    strings.Builder
	args  []interface{}
}

func (b *builder) write(s ...string) {
	for _, p := range s {
		b.sb.WriteString(p)
	}
}

func (b *builder) arg(v interface{}) string {
	b.args = append(b.args, v)
	return b.d.Placeholder(len(b.args))
}

// column returns the quoted column for a declared field.
func (b *builder) column(field string) (string, error) {
	if !b.kind.Declares(field) {
		return "", fmt.Errorf("unknown field %q", field)
	}
	return b.d.Quote(field), nil
}

func (b *builder) columns(fields []string) (string, error) {
	cols := make([]string, 0, len(fields))
	for _, f := range fields {
		c, err := b.column(f)
		if err != nil {
			return "", err
		}
		cols = append(cols, c)
	}
	return strings.Join(cols, ", "), nil
}

// selectColumns returns the columns to read: the group fields for grouped
// selects, the identifier plus the projection when one is given, every
// declared attribute otherwise.
func selectColumns(k *entity.Kind, opts mapper.Options) []string {
	if len(opts.Group) > 0 {
		return opts.Group
	}
	if len(opts.Fields) == 0 {
		return k.Attributes()
	}
	fields := []string{entity.IDField}
	for _, f := range opts.Fields {
		if f != entity.IDField && k.Declares(f) {
			fields = append(fields, f)
		}
	}
	return fields
}

// selectFrom writes "SELECT cols FROM table WHERE ... GROUP BY ... HAVING ...".
func (b *builder) selectFrom(cols string, where query.Predicate, opts mapper.Options) error {
	b.write("SELECT ", cols, " FROM ", b.d.Quote(b.table))
	if len(where) > 0 {
		b.write(" WHERE ")
		if err := b.expressions(where, " AND "); err != nil {
			return err
		}
	}
	if len(opts.Group) > 0 {
		group, err := b.columns(opts.Group)
		if err != nil {
			return err
		}
		b.write(" GROUP BY ", group)
		if len(opts.Having) > 0 {
			b.write(" HAVING ")
			if err := b.expressions(opts.Having, " AND "); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *builder) orderBy(opts mapper.Options) error {
	if opts.Sort == "" {
		return nil
	}
	col, err := b.column(opts.Sort)
	if err != nil {
		return err
	}
	order := mapper.OrderAsc
	if opts.Order == mapper.OrderDesc {
		order = mapper.OrderDesc
	}
	b.write(" ORDER BY ", col, " ", order)
	return nil
}

func (b *builder) expressions(exps []query.Expression, sep string) error {
	if len(exps) > 1 {
		b.write("(")
	}
	for i, exp := range exps {
		if i > 0 {
			b.write(sep)
		}
		if err := b.expression(exp); err != nil {
			return err
		}
	}
	if len(exps) > 1 {
		b.write(")")
	}
	return nil
}

func (b *builder) expression(exp query.Expression) error {
	switch t := exp.(type) {
	case query.Predicate:
		return b.expressions(t, " AND ")
	case *query.And:
		return b.expressions(*t, " AND ")
	case *query.Or:
		return b.expressions(*t, " OR ")
	case *query.Equal:
		if t.Value == nil {
			return b.unary(t.Field, " IS NULL")
		}
		return b.binary(t.Field, " = ", t.Value)
	case *query.NotEqual:
		if t.Value == nil {
			return b.unary(t.Field, " IS NOT NULL")
		}
		return b.binary(t.Field, " <> ", t.Value)
	case *query.GreaterThan:
		return b.binary(t.Field, " > ", t.Value)
	case *query.GreaterOrEqual:
		return b.binary(t.Field, " >= ", t.Value)
	case *query.LowerThan:
		return b.binary(t.Field, " < ", t.Value)
	case *query.LowerOrEqual:
		return b.binary(t.Field, " <= ", t.Value)
	case *query.Like:
		return b.binary(t.Field, " LIKE ", t.Pattern)
	case *query.Exist:
		return b.unary(t.Field, " IS NOT NULL")
	case *query.NotExist:
		return b.unary(t.Field, " IS NULL")
	case *query.In:
		return b.list(t.Field, " IN ", t.Values, "1=0")
	case *query.NotIn:
		return b.list(t.Field, " NOT IN ", t.Values, "1=1")
	}
	return fmt.Errorf("unsupported expression %s", exp)
}

func (b *builder) unary(field, op string) error {
	col, err := b.column(field)
	if err != nil {
		return err
	}
	b.write(col, op)
	return nil
}

func (b *builder) binary(field, op string, value interface{}) error {
	col, err := b.column(field)
	if err != nil {
		return err
	}
	b.write(col, op, b.arg(value))
	return nil
}

// list writes "col IN (...)", or empty when there are no values.
func (b *builder) list(field, op string, values []query.Value, empty string) error {
	col, err := b.column(field)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		b.write(empty)
		return nil
	}
	ph := make([]string, 0, len(values))
	for _, v := range values {
		ph = append(ph, b.arg(v))
	}
	b.write(col, op, "(", strings.Join(ph, ", "), ")")
	return nil
}
