package mapper

import (
	"context"
	"fmt"

	"github.com/afex/hystrix-go/hystrix"

	"github.com/rs/halrest/entity"
	"github.com/rs/halrest/schema/query"
)

type breaker struct {
	findCmd   string
	itemsCmd  string
	countCmd  string
	insertCmd string
	updateCmd string
	deleteCmd string
	m         Mapper
}

// Breaker wraps m so each of its operations runs as a hystrix command named
// after name and the operation (i.e.: users.FindBy). When the circuit is open
// or a command times out, operations fail with an error wrapping
// ErrUnavailable. When cfg is not nil, it is applied to every command.
func Breaker(m Mapper, name string, cfg *hystrix.CommandConfig) Mapper {
	b := breaker{
		findCmd:   fmt.Sprintf("%s.FindBy", name),
		itemsCmd:  fmt.Sprintf("%s.Items", name),
		countCmd:  fmt.Sprintf("%s.Count", name),
		insertCmd: fmt.Sprintf("%s.Insert", name),
		updateCmd: fmt.Sprintf("%s.Update", name),
		deleteCmd: fmt.Sprintf("%s.Delete", name),
		m:         m,
	}
	if cfg != nil {
		for _, cmd := range []string{b.findCmd, b.itemsCmd, b.countCmd, b.insertCmd, b.updateCmd, b.deleteCmd} {
			hystrix.ConfigureCommand(cmd, *cfg)
		}
	}
	return b
}

// run executes f as the cmd hystrix command and waits for its result.
func run[T any](cmd string, f func() (T, error)) (T, error) {
	out := make(chan T, 1)
	errs := hystrix.Go(cmd, func() error {
		v, err := f()
		if err == nil {
			out <- v
		}
		return err
	}, nil)
	select {
	case v := <-out:
		return v, nil
	case err := <-errs:
		var zero T
		if _, ok := err.(hystrix.CircuitError); ok {
			return zero, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return zero, err
	}
}

func (b breaker) Kind() *entity.Kind {
	return b.m.Kind()
}

func (b breaker) FindBy(ctx context.Context, where query.Predicate, opts Options) (*entity.Collection, error) {
	c, err := run(b.findCmd, func() (*entity.Collection, error) {
		return b.m.FindBy(ctx, where, opts)
	})
	if err != nil {
		return nil, err
	}
	return rewrap(c, breakerAdapter{b: b, a: c.Adapter()}), nil
}

func (b breaker) FindOneBy(ctx context.Context, where query.Predicate, opts Options) (*entity.Entity, error) {
	return run(b.findCmd, func() (*entity.Entity, error) {
		return b.m.FindOneBy(ctx, where, opts)
	})
}

func (b breaker) FindByID(ctx context.Context, id interface{}, opts Options) (*entity.Entity, error) {
	return run(b.findCmd, func() (*entity.Entity, error) {
		return b.m.FindByID(ctx, id, opts)
	})
}

func (b breaker) Count(ctx context.Context, where query.Predicate) (int, error) {
	return run(b.countCmd, func() (int, error) {
		return b.m.Count(ctx, where)
	})
}

func (b breaker) Insert(ctx context.Context, e *entity.Entity) (bool, error) {
	return run(b.insertCmd, func() (bool, error) {
		return b.m.Insert(ctx, e)
	})
}

func (b breaker) Update(ctx context.Context, data map[string]interface{}, e *entity.Entity) (bool, error) {
	return run(b.updateCmd, func() (bool, error) {
		return b.m.Update(ctx, data, e)
	})
}

func (b breaker) Delete(ctx context.Context, e *entity.Entity) (bool, error) {
	return run(b.deleteCmd, func() (bool, error) {
		return b.m.Delete(ctx, e)
	})
}

// breakerAdapter runs the lazy reads of a collection through the breaker.
type breakerAdapter struct {
	b breaker
	a entity.Adapter
}

func (ba breakerAdapter) Count(ctx context.Context) (int, error) {
	return run(ba.b.countCmd, func() (int, error) {
		return ba.a.Count(ctx)
	})
}

func (ba breakerAdapter) Items(ctx context.Context, offset, limit int) ([]*entity.Entity, error) {
	return run(ba.b.itemsCmd, func() ([]*entity.Entity, error) {
		return ba.a.Items(ctx, offset, limit)
	})
}
