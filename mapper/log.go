package mapper

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rs/halrest/entity"
	"github.com/rs/halrest/schema/query"
)

type logger struct {
	name string
	m    Mapper
}

// Log wraps m so each operation is traced at debug level on the zerolog
// logger found in the context, with its duration and error.
func Log(m Mapper, name string) Mapper {
	return logger{name: name, m: m}
}

func (l logger) trace(ctx context.Context, op string, t time.Time, err error) *zerolog.Event {
	var e *zerolog.Event
	if err != nil {
		e = zerolog.Ctx(ctx).Debug().Err(err)
	} else {
		e = zerolog.Ctx(ctx).Debug()
	}
	return e.Str("mapper", l.name).Str("op", op).Dur("duration", time.Since(t))
}

func (l logger) Kind() *entity.Kind {
	return l.m.Kind()
}

func (l logger) FindBy(ctx context.Context, where query.Predicate, opts Options) (c *entity.Collection, err error) {
	defer func(t time.Time) {
		l.trace(ctx, "FindBy", t, err).Stringer("where", where).Msg("mapper call")
	}(time.Now())
	c, err = l.m.FindBy(ctx, where, opts)
	if err != nil {
		return nil, err
	}
	return rewrap(c, logAdapter{l: l, a: c.Adapter()}), nil
}

func (l logger) FindOneBy(ctx context.Context, where query.Predicate, opts Options) (e *entity.Entity, err error) {
	defer func(t time.Time) {
		l.trace(ctx, "FindOneBy", t, err).Stringer("where", where).Bool("found", e != nil).Msg("mapper call")
	}(time.Now())
	return l.m.FindOneBy(ctx, where, opts)
}

func (l logger) FindByID(ctx context.Context, id interface{}, opts Options) (e *entity.Entity, err error) {
	defer func(t time.Time) {
		l.trace(ctx, "FindByID", t, err).Interface("id", id).Bool("found", e != nil).Msg("mapper call")
	}(time.Now())
	return l.m.FindByID(ctx, id, opts)
}

func (l logger) Count(ctx context.Context, where query.Predicate) (total int, err error) {
	defer func(t time.Time) {
		l.trace(ctx, "Count", t, err).Stringer("where", where).Int("total", total).Msg("mapper call")
	}(time.Now())
	return l.m.Count(ctx, where)
}

func (l logger) Insert(ctx context.Context, e *entity.Entity) (ok bool, err error) {
	defer func(t time.Time) {
		l.trace(ctx, "Insert", t, err).Interface("id", e.ID()).Bool("affected", ok).Msg("mapper call")
	}(time.Now())
	return l.m.Insert(ctx, e)
}

func (l logger) Update(ctx context.Context, data map[string]interface{}, e *entity.Entity) (ok bool, err error) {
	defer func(t time.Time) {
		l.trace(ctx, "Update", t, err).Interface("id", e.ID()).Bool("affected", ok).Msg("mapper call")
	}(time.Now())
	return l.m.Update(ctx, data, e)
}

func (l logger) Delete(ctx context.Context, e *entity.Entity) (ok bool, err error) {
	defer func(t time.Time) {
		l.trace(ctx, "Delete", t, err).Interface("id", e.ID()).Bool("affected", ok).Msg("mapper call")
	}(time.Now())
	return l.m.Delete(ctx, e)
}

type logAdapter struct {
	l logger
	a entity.Adapter
}

func (la logAdapter) Count(ctx context.Context) (total int, err error) {
	defer func(t time.Time) {
		la.l.trace(ctx, "Count", t, err).Int("total", total).Msg("mapper call")
	}(time.Now())
	return la.a.Count(ctx)
}

func (la logAdapter) Items(ctx context.Context, offset, limit int) (items []*entity.Entity, err error) {
	defer func(t time.Time) {
		la.l.trace(ctx, "Items", t, err).Int("offset", offset).Int("limit", limit).Int("found", len(items)).Msg("mapper call")
	}(time.Now())
	return la.a.Items(ctx, offset, limit)
}
