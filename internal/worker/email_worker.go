package worker

// email_worker.go
// Notifies a vendor when one of its purchase orders is submitted.
// The order is rendered to PDF and attached to the message.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stockroom/internal/infra"
	"stockroom/internal/model"
	"stockroom/internal/repository"

	"github.com/rs/zerolog/log"
)

// PurchaseOrderEmailPayload is the job envelope sent to QueueEmail.
type PurchaseOrderEmailPayload struct {
	PurchaseOrderID uint   `json:"purchase_order_id"`
	ToEmail         string `json:"to_email"`
}

// MailSender is satisfied by *infra.Mailer.
type MailSender interface {
	Send(to, subject, body, attachmentPath string) error
}

// EmailWorker processes email jobs from QueueEmail.
type EmailWorker struct {
	mailer         MailSender
	cb             *infra.CircuitBreaker
	poRepo         repository.PurchaseOrderRepository
	pdfStoragePath string
	companyName    string
	backoff        time.Duration
}

// NewEmailWorker creates an EmailWorker. cb guards the SMTP server.
func NewEmailWorker(mailer MailSender, cb *infra.CircuitBreaker, poRepo repository.PurchaseOrderRepository, pdfStoragePath, companyName string) *EmailWorker {
	return &EmailWorker{
		mailer:         mailer,
		cb:             cb,
		poRepo:         poRepo,
		pdfStoragePath: pdfStoragePath,
		companyName:    companyName,
		backoff:        time.Second,
	}
}

// Process renders the purchase order and mails it to the vendor.
func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload PurchaseOrderEmailPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("email_worker: invalid payload: %w", err)
	}
	if payload.ToEmail == "" {
		log.Warn().Uint("purchase_order_id", payload.PurchaseOrderID).Msg("email_worker: empty to_email, skipping")
		return nil
	}

	po, err := w.poRepo.FindByID(ctx, payload.PurchaseOrderID)
	if err != nil {
		return fmt.Errorf("email_worker: load purchase order %d: %w", payload.PurchaseOrderID, err)
	}
	if po.Status == model.POStatusCanceled {
		log.Info().Uint("purchase_order_id", po.ID).Msg("email_worker: order canceled before send, skipping")
		return nil
	}

	pdfPath, err := infra.GeneratePurchaseOrderPDF(po, w.companyName, w.pdfStoragePath)
	if err != nil {
		return fmt.Errorf("email_worker: render pdf: %w", err)
	}

	subject := fmt.Sprintf("Purchase order %s", po.ReferenceNumber)
	body := fmt.Sprintf("Please find attached purchase order %s.\nTotal: %s\n\n%s",
		po.ReferenceNumber, po.Total.StringFixed(2), w.companyName)

	err = withRetry(ctx, 3, w.backoff, func(attempt int) error {
		sendErr := w.cb.Execute(func() error {
			return w.mailer.Send(payload.ToEmail, subject, body, pdfPath)
		})
		if sendErr != nil && !errors.Is(sendErr, infra.ErrCircuitOpen) {
			log.Warn().Err(sendErr).Int("attempt", attempt+1).Str("to", payload.ToEmail).
				Msg("email_worker: send failed, retrying")
		}
		return sendErr
	})
	if err != nil {
		return fmt.Errorf("email_worker: send to %s: %w", payload.ToEmail, err)
	}
	log.Info().Str("to", payload.ToEmail).Str("reference", po.ReferenceNumber).Msg("email_worker: purchase order sent")
	return nil
}
