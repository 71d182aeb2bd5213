// Package sqlmapper is a mapper storing the entities of a kind as the rows of
// a database/sql table.
package sqlmapper

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/rs/xid"

	"github.com/rs/halrest/entity"
	"github.com/rs/halrest/mapper"
	"github.com/rs/halrest/schema/query"
)

// Mapper is a table gateway: every declared attribute of the kind is a
// column of the table.
type Mapper struct {
	// AutoIncrement tells the identifier is generated by the database. When
	// false, the mapper generates an xid for entities inserted without id.
	AutoIncrement bool

	db      *sql.DB
	dialect Dialect
	table   string
	kind    *entity.Kind
}

// New creates a mapper over table.
func New(db *sql.DB, d Dialect, table string, k *entity.Kind) *Mapper {
	return &Mapper{
		db:      db,
		dialect: d,
		table:   table,
		kind:    k,
	}
}

func (m *Mapper) builder() *builder {
	return &builder{d: m.dialect, kind: m.kind, table: m.table}
}

// Kind implements mapper.Mapper.
func (m *Mapper) Kind() *entity.Kind {
	return m.kind
}

// Window implements mapper.Finder.
func (m *Mapper) Window(ctx context.Context, where query.Predicate, opts mapper.Options, offset, limit int) ([]*entity.Entity, error) {
	b := m.builder()
	cols, err := b.columns(selectColumns(m.kind, opts))
	if err != nil {
		return nil, errors.Wrap(err, "sqlmapper: select")
	}
	if err = b.selectFrom(cols, where, opts); err == nil {
		err = b.orderBy(opts)
	}
	if err != nil {
		return nil, errors.Wrap(err, "sqlmapper: select")
	}
	b.write(m.dialect.Limit(limit, offset))
	rows, err := m.db.QueryContext(ctx, b.sb.String(), b.args...)
	if err != nil {
		return nil, errors.Wrapf(err, "sqlmapper: select from %s", m.table)
	}
	defer rows.Close()
	list := []*entity.Entity{}
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, errors.Wrapf(err, "sqlmapper: scan %s", m.table)
		}
		e := entity.New(m.kind)
		e.Exchange(row)
		e.SetFields(opts.Fields)
		list = append(list, e)
	}
	return list, errors.Wrapf(rows.Err(), "sqlmapper: select from %s", m.table)
}

// Total implements mapper.Finder.
func (m *Mapper) Total(ctx context.Context, where query.Predicate, opts mapper.Options) (int, error) {
	b := m.builder()
	var err error
	if len(opts.Group) > 0 {
		var group string
		if group, err = b.columns(opts.Group); err == nil {
			b.write("SELECT COUNT(*) FROM (")
			err = b.selectFrom(group, where, opts)
			b.write(") AS grouped")
		}
	} else {
		err = b.selectFrom("COUNT(*)", where, opts)
	}
	if err != nil {
		return 0, errors.Wrap(err, "sqlmapper: count")
	}
	var total int
	if err := m.db.QueryRowContext(ctx, b.sb.String(), b.args...).Scan(&total); err != nil {
		return 0, errors.Wrapf(err, "sqlmapper: count %s", m.table)
	}
	return total, nil
}

// FindBy implements mapper.Mapper.
func (m *Mapper) FindBy(ctx context.Context, where query.Predicate, opts mapper.Options) (*entity.Collection, error) {
	return mapper.Paginate(m, where, opts), nil
}

// FindOneBy implements mapper.Mapper.
func (m *Mapper) FindOneBy(ctx context.Context, where query.Predicate, opts mapper.Options) (*entity.Entity, error) {
	list, err := m.Window(ctx, where, opts, opts.Offset, 1)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

// FindByID implements mapper.Mapper.
func (m *Mapper) FindByID(ctx context.Context, id interface{}, opts mapper.Options) (*entity.Entity, error) {
	return m.FindOneBy(ctx, mapper.ByID(id), mapper.Options{Fields: opts.Fields})
}

// Count implements mapper.Mapper.
func (m *Mapper) Count(ctx context.Context, where query.Predicate) (int, error) {
	return m.Total(ctx, where, mapper.Options{})
}

// Insert implements mapper.Mapper.
func (m *Mapper) Insert(ctx context.Context, e *entity.Entity) (bool, error) {
	data := m.declared(e.PrepareForStorage(nil))
	if _, found := data[entity.IDField]; !found && !m.AutoIncrement {
		data[entity.IDField] = xid.New().String()
	}
	b := m.builder()
	names := sortedKeys(data)
	cols, err := b.columns(names)
	if err != nil {
		return false, errors.Wrap(err, "sqlmapper: insert")
	}
	ph := make([]string, 0, len(names))
	for _, n := range names {
		ph = append(ph, b.arg(data[n]))
	}
	b.write("INSERT INTO ", m.dialect.Quote(m.table), " (", cols, ") VALUES (", strings.Join(ph, ", "), ")")

	if m.AutoIncrement && m.dialect.Returning() {
		b.write(" RETURNING ", m.dialect.Quote(entity.IDField))
		var id interface{}
		if err := m.db.QueryRowContext(ctx, b.sb.String(), b.args...).Scan(&id); err != nil {
			return false, m.wrapWrite(err, "insert into")
		}
		return true, e.Set(entity.IDField, id)
	}
	res, err := m.db.ExecContext(ctx, b.sb.String(), b.args...)
	if err != nil {
		return false, m.wrapWrite(err, "insert into")
	}
	if m.AutoIncrement {
		id, err := res.LastInsertId()
		if err != nil {
			return false, errors.Wrapf(err, "sqlmapper: insert into %s", m.table)
		}
		data[entity.IDField] = id
	}
	e.Exchange(data)
	return affected(res)
}

// Update implements mapper.Mapper.
func (m *Mapper) Update(ctx context.Context, data map[string]interface{}, e *entity.Entity) (bool, error) {
	data = m.declared(data)
	delete(data, entity.IDField)
	if len(data) == 0 {
		return false, nil
	}
	b := m.builder()
	names := sortedKeys(data)
	sets := make([]string, 0, len(names))
	for _, n := range names {
		sets = append(sets, m.dialect.Quote(n)+" = "+b.arg(data[n]))
	}
	b.write("UPDATE ", m.dialect.Quote(m.table), " SET ", strings.Join(sets, ", "),
		" WHERE ", m.dialect.Quote(entity.IDField), " = ", b.arg(e.ID()))
	res, err := m.db.ExecContext(ctx, b.sb.String(), b.args...)
	if err != nil {
		return false, m.wrapWrite(err, "update")
	}
	e.Exchange(data)
	return affected(res)
}

// Delete implements mapper.Mapper.
func (m *Mapper) Delete(ctx context.Context, e *entity.Entity) (bool, error) {
	b := m.builder()
	b.write("DELETE FROM ", m.dialect.Quote(m.table), " WHERE ", m.dialect.Quote(entity.IDField), " = ", b.arg(e.ID()))
	res, err := m.db.ExecContext(ctx, b.sb.String(), b.args...)
	if err != nil {
		return false, errors.Wrapf(err, "sqlmapper: delete from %s", m.table)
	}
	return affected(res)
}

// declared returns the subset of data the kind declares.
func (m *Mapper) declared(data map[string]interface{}) map[string]interface{} {
	d := make(map[string]interface{}, len(data))
	for k, v := range data {
		if m.kind.Declares(k) {
			d[k] = v
		}
	}
	return d
}

// wrapWrite turns unique constraint violations into mapper.ErrConflict.
func (m *Mapper) wrapWrite(err error, op string) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return mapper.ErrConflict
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return mapper.ErrConflict
	}
	return errors.Wrapf(err, "sqlmapper: %s %s", op, m.table)
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "sqlmapper: rows affected")
	}
	return n > 0, nil
}

func sortedKeys(data map[string]interface{}) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// scanRow reads the current row as a column name to value map. Text columns
// some drivers return as []byte are turned into strings.
func scanRow(rows *sql.Rows) (map[string]interface{}, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	vals := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	row := make(map[string]interface{}, len(cols))
	for i, col := range cols {
		if b, ok := vals[i].([]byte); ok {
			row[col] = string(b)
			continue
		}
		row[col] = vals[i]
	}
	return row, nil
}
