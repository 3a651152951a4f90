package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"farmapos/internal/dto"
	"farmapos/internal/middleware"
	"farmapos/internal/model"
	"farmapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Fakes ─────────────────────────────────────────────────────────────────────

type fakeAuthService struct {
	service.AuthService
	loginErr error
}

func (f *fakeAuthService) Login(_ context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &dto.LoginResponse{Token: "tok", TokenType: "bearer", User: dto.UsuarioResponse{Email: req.Email}}, nil
}

type fakeTransferencia struct{ llamadas int }

func (f *fakeTransferencia) Transferir(_ context.Context, req dto.TransferenciaRequest) (*dto.TransferenciaResponse, error) {
	f.llamadas++
	return &dto.TransferenciaResponse{Message: "ok", Transferencias: []dto.ResumenTransferencia{}}, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func post(r http.Handler, path string, body *bytes.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

// conClaims injects claims the way JWTAuth would.
func conClaims(rol string, ubicacion *uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := &middleware.JWTClaims{UserID: uuid.NewString(), Rol: rol}
		if ubicacion != nil {
			claims.Ubicacion = ubicacion.String()
		}
		c.Set(middleware.ClaimsKey, claims)
		c.Next()
	}
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestRespondError_Mapeo(t *testing.T) {
	gin.SetMode(gin.TestMode)
	casos := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("producto x: %w", model.ErrNoEncontrado), http.StatusNotFound},
		{model.ErrSinPermiso, http.StatusForbidden},
		{model.ErrCredenciales, http.StatusUnauthorized},
		{fmt.Errorf("%w: a@b.c", model.ErrDuplicado), http.StatusConflict},
		{fmt.Errorf("%w: fecha", model.ErrSolicitudInvalida), http.StatusBadRequest},
		{model.ErrSinPago, http.StatusBadRequest},
		{model.ErrTipoVentaNoPermitido, http.StatusBadRequest},
		{model.ErrPromocionNoAplicable, http.StatusBadRequest},
		{errors.New("pq: connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range casos {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		respondError(c, tc.err)
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
	}
}

func TestRespondError_StockInsuficiente(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	respondError(c, fmt.Errorf("tx: %w", &model.StockInsuficienteError{Producto: "Ibuprofeno", Solicitado: 20, Disponible: 5}))

	assert.Equal(t, http.StatusConflict, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 20, body["requested"])
	assert.EqualValues(t, 5, body["available"])
}

func TestRespondError_NoFiltraDetallesInternos(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	respondError(c, errors.New("ERROR: relation \"productos\" does not exist"))
	assert.NotContains(t, w.Body.String(), "relation")
}

func TestLogin_Handler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", NewAuthHandler(&fakeAuthService{}).Login)

	w := post(r, "/login", jsonBody(t, dto.LoginRequest{Email: "caja@farmapos.local", Password: "secreta"}))
	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "tok", resp.Token)

	// DTO validation: email format and password length
	w = post(r, "/login", jsonBody(t, dto.LoginRequest{Email: "no-es-email", Password: "12"}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"Email":"email"`)

	w = post(r, "/login", bytes.NewReader([]byte(`{"email":`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	r = gin.New()
	r.POST("/login", NewAuthHandler(&fakeAuthService{loginErr: model.ErrCredenciales}).Login)
	w = post(r, "/login", jsonBody(t, dto.LoginRequest{Email: "caja@farmapos.local", Password: "secreta"}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTransferir_GestorSoloDesdeSuUbicacion(t *testing.T) {
	gin.SetMode(gin.TestMode)
	propia, ajena := uuid.New(), uuid.New()
	body := func(origen uuid.UUID) *bytes.Reader {
		return jsonBody(t, dto.TransferenciaRequest{
			SourceLocationID: origen.String(),
			DestLocationID:   uuid.NewString(),
			Items:            []dto.ItemTransferenciaRequest{{ProductID: uuid.NewString(), Quantity: 1, SaleType: "unit"}},
		})
	}

	fake := &fakeTransferencia{}
	r := gin.New()
	r.POST("/t", conClaims(model.RolAdminUbicacion, &propia), NewUbicacionesHandler(nil, fake).Transferir)

	assert.Equal(t, http.StatusForbidden, post(r, "/t", body(ajena)).Code)
	assert.Zero(t, fake.llamadas)

	assert.Equal(t, http.StatusOK, post(r, "/t", body(propia)).Code)
	assert.Equal(t, 1, fake.llamadas)

	r = gin.New()
	r.POST("/t", conClaims(model.RolAdmin, nil), NewUbicacionesHandler(nil, fake).Transferir)
	assert.Equal(t, http.StatusOK, post(r, "/t", body(ajena)).Code)

	w := post(r, "/t", jsonBody(t, dto.TransferenciaRequest{SourceLocationID: propia.String(), DestLocationID: ajena.String()}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "items are required")
}

func TestQueryUbicacion(t *testing.T) {
	gin.SetMode(gin.TestMode)
	id := uuid.New()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?ubicacion="+id.String(), nil)
	got, ok := queryUbicacion(c)
	require.True(t, ok)
	assert.Equal(t, id, *got)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?ubicacion=xyz", nil)
	_, ok = queryUbicacion(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
