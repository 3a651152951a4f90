package infra

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Breaker guards the SMTP relay: after FallosParaAbrir consecutive failures it
// fast-fails for Espera, then lets a single trial request through. A dead mail server
// then costs one dial per Espera instead of one per queued report.

type EstadoBreaker int

const (
	BreakerCerrado EstadoBreaker = iota
	BreakerAbierto
	BreakerSemiAbierto
)

func (e EstadoBreaker) String() string {
	switch e {
	case BreakerCerrado:
		return "closed"
	case BreakerAbierto:
		return "open"
	case BreakerSemiAbierto:
		return "half-open"
	}
	return "unknown"
}

// ErrCircuitOpen is returned without calling through while the breaker is open
// or a half-open trial is already running.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type BreakerConfig struct {
	Nombre           string
	FallosParaAbrir  int           // default 5
	ExitosParaCerrar int           // trials that must succeed in half-open, default 2
	Espera           time.Duration // open → half-open, default 60s
}

// MailerBreakerConfig is the breaker used in front of the SMTP relay.
func MailerBreakerConfig() BreakerConfig {
	return BreakerConfig{Nombre: "smtp", FallosParaAbrir: 5, ExitosParaCerrar: 2, Espera: time.Minute}
}

type Breaker struct {
	cfg BreakerConfig
	now func() time.Time

	mu           sync.Mutex
	estado       EstadoBreaker
	fallos       int
	exitos       int
	abiertoDesde time.Time
	sondeando    bool
}

func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FallosParaAbrir <= 0 {
		cfg.FallosParaAbrir = 5
	}
	if cfg.ExitosParaCerrar <= 0 {
		cfg.ExitosParaCerrar = 2
	}
	if cfg.Espera <= 0 {
		cfg.Espera = time.Minute
	}
	return &Breaker{cfg: cfg, now: time.Now}
}

// Estado reports the current state, moving open → half-open once Espera elapsed.
func (b *Breaker) Estado() EstadoBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.vencerEspera()
	return b.estado
}

// Execute runs fn unless the breaker rejects it.
func (b *Breaker) Execute(fn func() error) error {
	b.mu.Lock()
	b.vencerEspera()
	switch {
	case b.estado == BreakerAbierto, b.estado == BreakerSemiAbierto && b.sondeando:
		b.mu.Unlock()
		return ErrCircuitOpen
	case b.estado == BreakerSemiAbierto:
		b.sondeando = true
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.sondeando = false
	if err != nil {
		b.registrarFallo()
		return err
	}
	b.registrarExito()
	return nil
}

// callers hold mu
func (b *Breaker) vencerEspera() {
	if b.estado == BreakerAbierto && b.now().Sub(b.abiertoDesde) >= b.cfg.Espera {
		b.cambiar(BreakerSemiAbierto)
	}
}

func (b *Breaker) registrarFallo() {
	b.fallos++
	if b.estado == BreakerSemiAbierto || b.fallos >= b.cfg.FallosParaAbrir {
		b.abiertoDesde = b.now()
		b.cambiar(BreakerAbierto)
	}
}

func (b *Breaker) registrarExito() {
	switch b.estado {
	case BreakerCerrado:
		b.fallos = 0
	case BreakerSemiAbierto:
		b.exitos++
		if b.exitos >= b.cfg.ExitosParaCerrar {
			b.cambiar(BreakerCerrado)
		}
	}
}

func (b *Breaker) cambiar(nuevo EstadoBreaker) {
	if nuevo == b.estado {
		return
	}
	log.Warn().
		Str("breaker", b.cfg.Nombre).
		Str("de", b.estado.String()).
		Str("a", nuevo.String()).
		Msg("circuit breaker state change")
	b.estado = nuevo
	b.fallos = 0
	b.exitos = 0
}
