package service

import (
	"testing"

	"farmapos/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActorUbicacion(t *testing.T) {
	propia, otra := uuid.New(), uuid.New()

	got, err := empleado(propia).Ubicacion(&otra)
	require.NoError(t, err)
	assert.Equal(t, propia, got, "non-admins are pinned to their own location")

	got, err = admin().Ubicacion(&otra)
	require.NoError(t, err)
	assert.Equal(t, otra, got)

	_, err = admin().Ubicacion(nil)
	assert.ErrorIs(t, err, model.ErrSolicitudInvalida)

	_, err = Actor{Rol: model.RolEmpleado}.Ubicacion(nil)
	assert.ErrorIs(t, err, model.ErrSinPermiso)
}

func TestActorVisibles(t *testing.T) {
	propia, otra := uuid.New(), uuid.New()

	vis, err := admin().Visibles(nil)
	require.NoError(t, err)
	assert.Nil(t, vis)

	vis, err = admin().Visibles([]uuid.UUID{otra})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{otra}, vis)

	vis, err = gestor(propia).Visibles([]uuid.UUID{otra})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{propia}, vis)

	f, err := admin().Filtro(nil)
	require.NoError(t, err)
	assert.Nil(t, f)

	assert.True(t, admin().Puede(otra))
	assert.True(t, empleado(propia).Puede(propia))
	assert.False(t, empleado(propia).Puede(otra))
}

func TestParseUbicaciones(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	ids, err := ParseUbicaciones(a.String() + ", " + b.String())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, ids)

	ids, err = ParseUbicaciones("  ")
	require.NoError(t, err)
	assert.Nil(t, ids)

	_, err = ParseUbicaciones(a.String() + ",nope")
	assert.ErrorIs(t, err, model.ErrSolicitudInvalida)
}
