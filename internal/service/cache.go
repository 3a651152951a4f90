package service

import (
	"context"
	"encoding/json"
	"time"

	"farmapos/internal/model"

	"github.com/rs/zerolog/log"
)

// Cache is the key/value store used for product lookups. infra.RedisCache implements it.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

const prefijoBarcode = "producto:barcode:"

// productoCache keeps barcode lookups warm. A nil Cache disables it.
type productoCache struct {
	c   Cache
	ttl time.Duration
}

func (pc productoCache) leer(ctx context.Context, barcode string) ([]model.Producto, bool) {
	if pc.c == nil {
		return nil, false
	}
	raw, ok, err := pc.c.Get(ctx, prefijoBarcode+barcode)
	if err != nil {
		log.Warn().Err(err).Str("barcode", barcode).Msg("cache: lectura fallida")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var out []model.Producto
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return out, true
}

func (pc productoCache) guardar(ctx context.Context, barcode string, productos []model.Producto) {
	if pc.c == nil {
		return
	}
	raw, err := json.Marshal(productos)
	if err != nil {
		return
	}
	if err := pc.c.Set(ctx, prefijoBarcode+barcode, raw, pc.ttl); err != nil {
		log.Warn().Err(err).Str("barcode", barcode).Msg("cache: escritura fallida")
	}
}

// invalidar drops the lookup entries for the given barcodes; called after every stock change.
func (pc productoCache) invalidar(ctx context.Context, barcodes ...string) {
	if pc.c == nil || len(barcodes) == 0 {
		return
	}
	keys := make([]string, len(barcodes))
	for i, b := range barcodes {
		keys[i] = prefijoBarcode + b
	}
	if err := pc.c.Del(ctx, keys...); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("cache: invalidación fallida")
	}
}
