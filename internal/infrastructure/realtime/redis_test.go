package realtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	r "gopkg.in/redis.v5"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

var errClosed = errors.New("redis: client is closed")

// fakeReceive entrega los payloads en orden y luego bloquea hasta que ctx termine,
// igual que ReceiveMessage cuando la suscripción se cierra.
func fakeReceive(ctx context.Context, payloads ...string) func() (*r.Message, error) {
	i := 0
	return func() (*r.Message, error) {
		if i < len(payloads) {
			p := payloads[i]
			i++
			return &r.Message{Channel: "logs", Payload: p}, nil
		}
		<-ctx.Done()
		return nil, errClosed
	}
}

func TestPump_IdaYVueltaJSON(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	companyID := int64(7)
	name := entity.EntityCompany
	sent := &entity.ActionLog{
		ID:         3,
		Action:     entity.ActionUpdate,
		UserID:     1,
		CompanyID:  &companyID,
		EntityName: &name,
		Metadata:   map[string]any{"reason": "user updated ACME"},
		CreatedAt:  time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
	}
	payload, err := encodeLog(sent)
	require.NoError(t, err)

	out := make(chan entity.ActionLog, 1)
	go pump(ctx, fakeReceive(ctx, payload), out, logger.Nop())

	select {
	case got := <-out:
		assert.Equal(t, sent.ID, got.ID)
		assert.Equal(t, sent.Action, got.Action)
		assert.Equal(t, companyID, *got.CompanyID)
		assert.Equal(t, name, *got.EntityName)
		assert.Equal(t, "user updated ACME", got.Metadata["reason"])
		assert.True(t, sent.CreatedAt.Equal(got.CreatedAt))
	case <-time.After(time.Second):
		t.Fatal("no llegó la entrada")
	}
}

func TestPump_DescartaMensajesInvalidos(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	valid, err := encodeLog(&entity.ActionLog{ID: 2, Action: entity.ActionCreate})
	require.NoError(t, err)

	out := make(chan entity.ActionLog, 2)
	go pump(ctx, fakeReceive(ctx, "{no es json", valid), out, logger.Nop())

	select {
	case got := <-out:
		assert.Equal(t, int64(2), got.ID)
	case <-time.After(time.Second):
		t.Fatal("el mensaje válido no llegó")
	}
}

func TestPump_CierraAlCancelar(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan entity.ActionLog)
	done := make(chan struct{})
	go func() {
		pump(ctx, fakeReceive(ctx), out, logger.Nop())
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pump no terminó tras cancelar")
	}
	_, ok := <-out
	assert.False(t, ok, "el canal debe cerrarse")
}

func TestPump_TerminaSiLaSuscripcionFalla(t *testing.T) {
	out := make(chan entity.ActionLog)
	receive := func() (*r.Message, error) { return nil, errClosed }

	go pump(context.Background(), receive, out, logger.Nop())

	select {
	case _, ok := <-out:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("el canal no se cerró")
	}
}
