package worker

// email_worker.go
// Processes closed-report email jobs from QueueEmail: renders the report PDF,
// archives a copy under the PDF storage path and mails it through the breaker.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"farmapos/internal/infra"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReporteEmailJob is the payload sent to QueueEmail when a report is closed.
type ReporteEmailJob struct {
	ReporteID string `json:"reporte_id"`
	To        string `json:"to"`
}

// RenderizadorPDF renders a stored report to PDF bytes and a file name.
type RenderizadorPDF interface {
	PDFReporte(ctx context.Context, id uuid.UUID) ([]byte, string, error)
}

// Enviador delivers a PDF by email.
type Enviador interface {
	SendReporte(to, subject, body, filename string, pdf []byte) error
}

type EmailWorker struct {
	pdf            RenderizadorPDF
	mailer         Enviador
	cb             *infra.Breaker
	pdfStoragePath string
}

func NewEmailWorker(pdf RenderizadorPDF, mailer Enviador, cb *infra.Breaker, pdfStoragePath string) *EmailWorker {
	return &EmailWorker{pdf: pdf, mailer: mailer, cb: cb, pdfStoragePath: pdfStoragePath}
}

// Process returns nil for payloads that can never succeed so they are not retried.
func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReporteEmailJob
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return nil
	}
	if payload.To == "" {
		log.Warn().Msg("email_worker: empty recipient, skipping")
		return nil
	}
	id, err := uuid.Parse(payload.ReporteID)
	if err != nil {
		log.Error().Str("reporte_id", payload.ReporteID).Msg("email_worker: invalid reporte_id")
		return nil
	}

	data, nombre, err := w.pdf.PDFReporte(ctx, id)
	if err != nil {
		return fmt.Errorf("email_worker: render %s: %w", id, err)
	}
	w.archivar(nombre, data)

	err = w.cb.Execute(func() error {
		return w.mailer.SendReporte(payload.To,
			"Cierre de reporte de ventas",
			"Adjunto encontrará el reporte de ventas del día cerrado.",
			nombre, data)
	})
	if errors.Is(err, infra.ErrCircuitOpen) {
		log.Warn().Str("reporte_id", payload.ReporteID).Msg("email_worker: mailer circuit open")
		return err
	}
	if err != nil {
		log.Error().Err(err).Str("to", payload.To).Msg("email_worker: failed to send email")
		return err
	}
	log.Info().Str("to", payload.To).Str("reporte_id", payload.ReporteID).Msg("email_worker: reporte sent")
	return nil
}

func (w *EmailWorker) archivar(nombre string, data []byte) {
	if w.pdfStoragePath == "" {
		return
	}
	if err := os.MkdirAll(w.pdfStoragePath, 0o755); err != nil {
		log.Warn().Err(err).Msg("email_worker: create storage dir")
		return
	}
	if err := os.WriteFile(filepath.Join(w.pdfStoragePath, nombre), data, 0o644); err != nil {
		log.Warn().Err(err).Str("file", nombre).Msg("email_worker: archive PDF")
	}
}
