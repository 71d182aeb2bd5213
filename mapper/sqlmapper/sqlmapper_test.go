package sqlmapper

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rs/halrest/entity"
	"github.com/rs/halrest/mapper"
	"github.com/rs/halrest/schema"
	"github.com/rs/halrest/schema/query"
)

var kind = entity.MustNewKind("users", &schema.Schema{
	Fields: schema.Fields{
		"id":   {ReadOnly: true, Filterable: true, Sortable: true},
		"name": {Filterable: true, Sortable: true, Validator: &schema.String{}},
		"age":  {Filterable: true, Sortable: true, Validator: &schema.Integer{}},
	},
}, "name", "age")

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func newUser(data map[string]interface{}) *entity.Entity {
	e := entity.New(kind)
	e.Exchange(data)
	return e
}

func TestWindowMySQL(t *testing.T) {
	db, mock := newMock(t)
	m := New(db, MySQL, "users", kind)
	mock.ExpectQuery("SELECT `id`, `name` FROM `users` WHERE (`age` >= ? AND `name` LIKE ?) ORDER BY `name` DESC LIMIT 5 OFFSET 10").
		WithArgs(18, "j%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow("1", []byte("john")).
			AddRow("2", []byte("jane")))

	where := query.MustParsePredicate(`{"age": {"$gte": 18}, "name": {"$like": "j%"}}`)
	list, err := m.Window(context.Background(), where, mapper.Options{
		Sort:   "name",
		Order:  mapper.OrderDesc,
		Fields: []string{"name"},
	}, 10, 5)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, entity.Attributes{{Name: "id", Value: "1"}, {Name: "name", Value: "john"}}, list[0].Attributes())
	assert.Equal(t, "2", list[1].ID())
}

func TestWindowErrors(t *testing.T) {
	db, mock := newMock(t)
	m := New(db, MySQL, "users", kind)
	ctx := context.Background()

	_, err := m.Window(ctx, nil, mapper.Options{Sort: "password"}, 0, 1)
	assert.EqualError(t, err, `sqlmapper: select: unknown field "password"`)
	_, err = m.Window(ctx, query.MustParsePredicate(`{"foo": 1}`), mapper.Options{}, 0, 1)
	assert.EqualError(t, err, `sqlmapper: select: unknown field "foo"`)

	mock.ExpectQuery("SELECT `id`, `name`, `age` FROM `users`").
		WillReturnError(errors.New("boom"))
	_, err = m.Window(ctx, nil, mapper.Options{}, 0, -1)
	assert.EqualError(t, err, "sqlmapper: select from users: boom")
}

func TestTotalGroupedPostgres(t *testing.T) {
	db, mock := newMock(t)
	m := New(db, Postgres, "users", kind)
	mock.ExpectQuery(`SELECT COUNT(*) FROM (SELECT "age" FROM "users" WHERE ("age" < $1 OR "age" > $2) GROUP BY "age" HAVING "age" <> $3) AS grouped`).
		WithArgs(18, 65, 30).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	total, err := m.Total(context.Background(),
		query.MustParsePredicate(`{"$or": [{"age": {"$lt": 18}}, {"age": {"$gt": 65}}]}`),
		mapper.Options{Group: []string{"age"}, Having: query.MustParsePredicate(`{"age": {"$ne": 30}}`)})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
}

func TestCount(t *testing.T) {
	db, mock := newMock(t)
	m := New(db, MySQL, "users", kind)
	mock.ExpectQuery("SELECT COUNT(*) FROM `users` WHERE `name` = ?").
		WithArgs("john").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	n, err := m.Count(context.Background(), query.MustParsePredicate(`{"name": "john"}`))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	mock.ExpectQuery("SELECT COUNT(*) FROM `users`").WillReturnError(sql.ErrConnDone)
	_, err = m.Count(context.Background(), nil)
	assert.EqualError(t, err, "sqlmapper: count users: sql: connection is already closed")
}

func TestFindBy(t *testing.T) {
	db, mock := newMock(t)
	m := New(db, Postgres, "users", kind)
	ctx := context.Background()
	c, err := m.FindBy(ctx, nil, mapper.Options{Page: 2, Limit: 10, Sort: "id"})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT "id", "name", "age" FROM "users" ORDER BY "id" ASC LIMIT 10 OFFSET 10`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "age"}).AddRow("11", "k", int64(3)))
	items, err := c.CurrentItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	age, _ := items[0].Get("age")
	assert.Equal(t, int64(3), age)

	mock.ExpectQuery(`SELECT COUNT(*) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	pages, err := c.PageCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, pages)
}

func TestFindByIDMissing(t *testing.T) {
	db, mock := newMock(t)
	m := New(db, MySQL, "users", kind)
	mock.ExpectQuery("SELECT `id`, `name`, `age` FROM `users` WHERE `id` = ? LIMIT 1").
		WithArgs("42").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "age"}))
	e, err := m.FindByID(context.Background(), "42", mapper.Options{})
	assert.NoError(t, err)
	assert.Nil(t, e)
}

func TestInsertGeneratesID(t *testing.T) {
	db, mock := newMock(t)
	m := New(db, MySQL, "users", kind)
	mock.ExpectExec("INSERT INTO `users` (`age`, `id`, `name`) VALUES (?, ?, ?)").
		WithArgs(30, sqlmock.AnyArg(), "john").
		WillReturnResult(sqlmock.NewResult(0, 1))
	e := newUser(map[string]interface{}{"name": "john", "age": 30})
	ok, err := m.Insert(context.Background(), e)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Regexp(t, "^[0-9a-v]{20}$", e.ID())
}

func TestInsertAutoIncrementMySQL(t *testing.T) {
	db, mock := newMock(t)
	m := New(db, MySQL, "users", kind)
	m.AutoIncrement = true
	mock.ExpectExec("INSERT INTO `users` (`age`, `name`) VALUES (?, ?)").
		WithArgs(30, "john").
		WillReturnResult(sqlmock.NewResult(42, 1))
	e := newUser(map[string]interface{}{"name": "john", "age": 30})
	ok, err := m.Insert(context.Background(), e)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(42), e.ID())
}

func TestInsertAutoIncrementPostgres(t *testing.T) {
	db, mock := newMock(t)
	m := New(db, Postgres, "users", kind)
	m.AutoIncrement = true
	mock.ExpectQuery(`INSERT INTO "users" ("age", "name") VALUES ($1, $2) RETURNING "id"`).
		WithArgs(30, "john").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	e := newUser(map[string]interface{}{"name": "john", "age": 30})
	ok, err := m.Insert(context.Background(), e)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(7), e.ID())
}

func TestInsertConflict(t *testing.T) {
	db, mock := newMock(t)
	ctx := context.Background()

	m := New(db, MySQL, "users", kind)
	mock.ExpectExec("INSERT INTO `users` (`id`, `name`) VALUES (?, ?)").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	_, err := m.Insert(ctx, newUser(map[string]interface{}{"id": "1", "name": "john"}))
	assert.Equal(t, mapper.ErrConflict, err)

	m = New(db, Postgres, "users", kind)
	mock.ExpectExec(`INSERT INTO "users" ("id", "name") VALUES ($1, $2)`).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	_, err = m.Insert(ctx, newUser(map[string]interface{}{"id": "1", "name": "john"}))
	assert.Equal(t, mapper.ErrConflict, err)

	mock.ExpectExec(`INSERT INTO "users" ("id", "name") VALUES ($1, $2)`).
		WillReturnError(errors.New("boom"))
	_, err = m.Insert(ctx, newUser(map[string]interface{}{"id": "1", "name": "john"}))
	assert.EqualError(t, err, "sqlmapper: insert into users: boom")
}

func TestUpdate(t *testing.T) {
	db, mock := newMock(t)
	m := New(db, MySQL, "users", kind)
	mock.ExpectExec("UPDATE `users` SET `age` = ?, `name` = ? WHERE `id` = ?").
		WithArgs(31, "johnny", "1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	e := newUser(map[string]interface{}{"id": "1", "name": "john", "age": 30})
	ok, err := m.Update(context.Background(), map[string]interface{}{
		"name":    "johnny",
		"age":     31,
		"id":      "2",
		"unknown": true,
	}, e)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, map[string]interface{}{"id": "1", "name": "johnny", "age": 31}, e.Map())

	ok, err = m.Update(context.Background(), map[string]interface{}{"id": "2"}, e)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	db, mock := newMock(t)
	m := New(db, Postgres, "users", kind)
	mock.ExpectExec(`DELETE FROM "users" WHERE "id" = $1`).
		WithArgs("1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err := m.Delete(context.Background(), newUser(map[string]interface{}{"id": "1"}))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBuilderExpressions(t *testing.T) {
	b := &builder{d: Postgres, kind: kind, table: "users"}
	where := query.MustParsePredicate(`{"age": {"$in": [1, 2]}, "id": {"$nin": []}, "name": null,
		"$and": [{"name": {"$exists": true}}, {"age": {"$exists": false}}, {"age": {"$ne": null}}]}`)
	require.NoError(t, b.selectFrom("*", where, mapper.Options{}))
	assert.Equal(t, `SELECT * FROM "users" WHERE (("name" IS NOT NULL AND "age" IS NULL AND "age" IS NOT NULL) AND "age" IN ($1, $2) AND 1=1 AND "name" IS NULL)`, b.sb.String())
	assert.Equal(t, []interface{}{1, 2}, b.args)

	b = &builder{d: MySQL, kind: kind, table: "users"}
	b.write(b.d.Quote("we`ird"))
	assert.Equal(t, "`we``ird`", b.sb.String())
}

func TestDialectLimit(t *testing.T) {
	assert.Equal(t, "", MySQL.Limit(-1, 0))
	assert.Equal(t, " LIMIT 18446744073709551615 OFFSET 5", MySQL.Limit(-1, 5))
	assert.Equal(t, " LIMIT 3", MySQL.Limit(3, 0))
	assert.Equal(t, "", Postgres.Limit(-1, 0))
	assert.Equal(t, " OFFSET 5", Postgres.Limit(-1, 5))
	assert.Equal(t, " LIMIT 3 OFFSET 5", Postgres.Limit(3, 5))
	assert.Equal(t, `"a""b"`, Postgres.Quote(`a"b`))
}

func TestDialectFor(t *testing.T) {
	d, err := DialectFor("mysql")
	require.NoError(t, err)
	assert.Equal(t, MySQL, d)
	d, err = DialectFor("pgx")
	require.NoError(t, err)
	assert.Equal(t, Postgres, d)
	_, err = DialectFor("sqlite3")
	assert.EqualError(t, err, `sqlmapper: unsupported driver "sqlite3"`)
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, _, err := Open(context.Background(), "sqlite3", "")
	assert.EqualError(t, err, `sqlmapper: unsupported driver "sqlite3"`)
}
