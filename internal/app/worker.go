package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/GoArmGo/ContactsApp/internal/messaging/payloads"
)

const archiveTimeout = 30 * time.Second

// runWorker архивирует события об изменении контактов до отмены ctx.
func (a *App) runWorker(ctx context.Context) error {
	if a.consumer == nil || a.archive == nil {
		return errors.New("worker mode requires an event consumer and an archive")
	}

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.consumer.StartConsumingContactEvents(workerCtx, a.archiveEvent); err != nil {
		return fmt.Errorf("start consuming contact events: %w", err)
	}
	a.logger.Info("worker started, waiting for contact events")

	<-ctx.Done()
	a.logger.Info("worker stopping")
	return nil
}

// archiveEvent сохраняет событие в хранилище по ключу contact-events/YYYY/MM/DD/<id>.json.
// Ошибка возвращает сообщение в очередь.
func (a *App) archiveEvent(ctx context.Context, event payloads.ContactEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal contact event %s: %w", event.ID, err)
	}

	uploadCtx, cancel := context.WithTimeout(ctx, archiveTimeout)
	defer cancel()

	key := event.ArchiveKey()
	url, err := a.archive.UploadFile(uploadCtx, key, bytes.NewReader(body), "application/json")
	if err != nil {
		return fmt.Errorf("archive contact event %s: %w", event.ID, err)
	}

	a.logger.Info("contact event archived",
		"event_id", event.ID,
		"type", event.Type,
		"contact_id", event.Contact.ID,
		"url", url,
	)
	return nil
}
