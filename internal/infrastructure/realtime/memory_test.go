package realtime_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/realtime"
)

func TestMemoryBroker_DifundeATodos(t *testing.T) {
	b := realtime.NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := b.Subscribe(ctx)
	require.NoError(t, err)
	c, err := b.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, &entity.ActionLog{ID: 9, Action: entity.ActionCreate}))

	for _, ch := range []<-chan entity.ActionLog{a, c} {
		select {
		case got := <-ch:
			assert.Equal(t, int64(9), got.ID)
		case <-time.After(time.Second):
			t.Fatal("no llegó la entrada")
		}
	}
}

func TestMemoryBroker_CierraAlCancelar(t *testing.T) {
	b := realtime.NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := b.Subscribe(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "el canal debe cerrarse")
	case <-time.After(time.Second):
		t.Fatal("el canal no se cerró")
	}

	// Publicar tras la baja no debe bloquear ni fallar.
	assert.NoError(t, b.Publish(context.Background(), &entity.ActionLog{ID: 1}))
}
