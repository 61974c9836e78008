package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHookRegistry_RunsInOrderAndStopsOnError(t *testing.T) {
	r := NewHookRegistry[string]()
	var calls []string

	r.OnAfterCreate(func(_ context.Context, e string) error {
		calls = append(calls, "first:"+e)
		return nil
	})
	r.OnAfterCreate(func(_ context.Context, e string) error {
		calls = append(calls, "second:"+e)
		return errors.New("boom")
	})
	r.OnAfterCreate(func(_ context.Context, e string) error {
		calls = append(calls, "third:"+e)
		return nil
	})

	err := r.Run(context.Background(), AfterCreate, "x")
	assert.EqualError(t, err, "boom")
	assert.Equal(t, []string{"first:x", "second:x"}, calls)

	// no hooks registered for the event
	assert.NoError(t, r.Run(context.Background(), AfterDelete, "x"))
}

func TestListFilter_Normalize(t *testing.T) {
	f := ListFilter{Limit: 5000, Offset: -3}.Normalize(1000)
	assert.Equal(t, 1000, f.Limit)
	assert.Equal(t, 0, f.Offset)

	f = ListFilter{}.Normalize(1000)
	assert.Equal(t, 50, f.Limit)
}
