package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearUbicacionRequest struct {
	Nombre    string `json:"nombre"    validate:"required,min=2,max=120"`
	Direccion string `json:"direccion" validate:"required"`
	Telefono  string `json:"telefono"  validate:"required"`
}

type ActualizarUbicacionRequest struct {
	Nombre    *string `json:"nombre"    validate:"omitempty,min=2,max=120"`
	Direccion *string `json:"direccion"`
	Telefono  *string `json:"telefono"`
}

type ItemTransferenciaRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity"  validate:"required,min=1,max=100000"`
	SaleType  string `json:"saleType"  validate:"required,oneof=unit blister box"`
}

type TransferenciaRequest struct {
	SourceLocationID string                     `json:"sourceLocationId" validate:"required,uuid"`
	DestLocationID   string                     `json:"destLocationId"   validate:"required,uuid"`
	Items            []ItemTransferenciaRequest `json:"items"            validate:"required,min=1,dive"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CantidadTransferida struct {
	Unidades      int `json:"unidades"`
	Blisters      int `json:"blisters"`
	Cajas         int `json:"cajas"`
	TotalUnidades int `json:"totalUnidades"`
}

// ResumenTransferencia is the per-item outcome. Error is set when the item failed;
// items before it stay committed.
type ResumenTransferencia struct {
	ProductID           string               `json:"productId"`
	Origen              string               `json:"origen,omitempty"`
	Destino             string               `json:"destino,omitempty"`
	CantidadTransferida *CantidadTransferida `json:"cantidadTransferida,omitempty"`
	Error               string               `json:"error,omitempty"`
}

type TransferenciaResponse struct {
	Message        string                 `json:"message"`
	Transferencias []ResumenTransferencia `json:"transferencias"`
	Fallidas       int                    `json:"fallidas"`
}
