// workers/participant_import_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/datahex-administration/ConnectionQuest/models"
	"github.com/datahex-administration/ConnectionQuest/utils"
)

// CRMContact matches the JSON the CRM contact feed returns.
type CRMContact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetContactChangesResponse is the top-level structure of the CRM response.
type GetContactChangesResponse struct {
	Contacts []CRMContact `json:"contacts"`
}

// ParticipantImportWorker mirrors CRM contacts into the participants table
// so venue staff can pre-register guests from the CRM side. Contacts map
// onto participants by external ID.
type ParticipantImportWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string // e.g., "http://localhost:8600"
	endpointPath string // e.g., "/api/v1/public/contacts"
	serviceToken string
	httpClient   *http.Client
}

func NewParticipantImportWorker(db *gorm.DB, crmBaseURL, endpointPath, serviceToken string) *ParticipantImportWorker {
	return &ParticipantImportWorker{
		db:           db,
		interval:     1 * time.Minute,
		baseURL:      crmBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient:   utils.HTTPClient,
	}
}

func (w *ParticipantImportWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Participant Import Worker (CRM → participants)…")
	go w.run(ctx)
}

func (w *ParticipantImportWorker) run(ctx context.Context) {
	// Initial sync (backfill if needed) - sync from the beginning of time
	if err := w.syncBatch(ctx, time.Time{}); err != nil {
		log.Printf("⚠️ Initial contact sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lastSyncTime := w.getLastSyncTime()
			if err := w.syncBatch(ctx, lastSyncTime); err != nil {
				log.Printf("❌ Contact sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Participant Import Worker stopped")
			return
		}
	}
}

// getLastSyncTime finds the most recent UpdatedAt among imported
// participants. Locally registered participants have no external ID and do
// not move the watermark.
func (w *ParticipantImportWorker) getLastSyncTime() time.Time {
	var lastTime time.Time
	err := w.db.Raw("SELECT MAX(updated_at) FROM participants WHERE external_id IS NOT NULL AND deleted_at IS NULL").Scan(&lastTime).Error
	if err != nil || lastTime.IsZero() {
		return time.Unix(0, 0)
	}
	return lastTime
}

// syncBatch fetches contact changes from the CRM and upserts them into the
// participants table.
func (w *ParticipantImportWorker) syncBatch(ctx context.Context, since time.Time) error {
	sinceStr := since.UTC().Format(time.RFC3339)
	log.Printf("[SYNC] 📡 Fetching contact changes from CRM since=%s", sinceStr)

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid CRM base URL '%s': %w", w.baseURL, err)
	}

	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", sinceStr)
	endpointURL.RawQuery = q.Encode()
	finalURL := endpointURL.String()

	req, err := http.NewRequestWithContext(ctx, "GET", finalURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		log.Printf("[SYNC] ❌ Request to %s failed: %v", finalURL, err)
		return fmt.Errorf("HTTP request to CRM failed: %w", err)
	}
	defer func() {
		// Always drain & close to prevent connection leaks
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if readErr != nil {
			log.Printf("[SYNC] ⚠️ Failed to read error body from %s: %v", finalURL, readErr)
		}
		errMsg := string(body)
		log.Printf("[SYNC] ❌ CRM returned %d for %s: %s", resp.StatusCode, finalURL, errMsg)
		return fmt.Errorf("CRM non-200 response: %d — %s", resp.StatusCode, errMsg)
	}

	var response GetContactChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		log.Printf("[SYNC] ❌ Failed to decode JSON response from %s: %v", finalURL, err)
		return fmt.Errorf("failed to decode CRM response: %w", err)
	}

	if len(response.Contacts) == 0 {
		log.Printf("[SYNC] ✅ No contact changes received since %s", sinceStr)
		return nil
	}

	log.Printf("[SYNC] 📥 Processing %d contact(s) from CRM…", len(response.Contacts))

	var upsertCount, errorCount int
	for _, contact := range response.Contacts {
		if contact.ID == "" {
			errorCount++
			log.Printf("[SYNC] ⚠️ Skipping contact with empty ID (name=%q)", contact.Name)
			continue
		}
		externalID := contact.ID
		participant := models.Participant{
			Name:       contact.Name,
			Email:      contact.Email,
			Phone:      contact.Phone,
			ExternalID: &externalID,
		}

		if err := w.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "email", "phone", "updated_at",
			}),
		}).Create(&participant).Error; err != nil {
			errorCount++
			log.Printf("[SYNC] ⚠️ Failed to upsert participant (external_id=%q, name=%q): %v",
				contact.ID, contact.Name, err)
		} else {
			upsertCount++
		}
	}

	var latestUpdate time.Time
	for _, contact := range response.Contacts {
		if contact.UpdatedAt.After(latestUpdate) {
			latestUpdate = contact.UpdatedAt
		}
	}

	log.Printf("[SYNC] ✅ Synced %d contact(s) (%d upserted, %d errors). Latest updated_at=%v",
		len(response.Contacts), upsertCount, errorCount, latestUpdate.Format(time.RFC3339))

	return nil
}
