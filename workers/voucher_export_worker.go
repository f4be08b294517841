// workers/voucher_export_worker.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/datahex-administration/ConnectionQuest/metrics"
	"github.com/datahex-administration/ConnectionQuest/models"
	"github.com/datahex-administration/ConnectionQuest/utils"
)

// exportBatchSize caps how many vouchers one push carries.
const exportBatchSize = 100

// ExportedVoucher is the shape the CRM import endpoint accepts.
type ExportedVoucher struct {
	VoucherID    string    `json:"voucher_id"`
	Code         string    `json:"code"`
	SessionCode  string    `json:"session_code"`
	RewardName   string    `json:"reward_name"`
	DiscountText string    `json:"discount_text"`
	ExpiresAt    time.Time `json:"expires_at"`
	Downloaded   bool      `json:"downloaded"`
	IssuedAt     time.Time `json:"issued_at"`
}

// VoucherExportWorker pushes freshly minted vouchers to the CRM so the
// marketing side sees them next to the guest. A voucher is exported once;
// failed batches stay unexported and are retried on the next tick.
type VoucherExportWorker struct {
	DB         *gorm.DB
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Interval   time.Duration
}

func NewVoucherExportWorker(db *gorm.DB) *VoucherExportWorker {
	baseURL := os.Getenv("CRM_BASE_URL")
	if baseURL == "" {
		log.Fatal("CRM_BASE_URL environment variable is required")
	}
	token := os.Getenv("CRM_SERVICE_TOKEN")
	if token == "" {
		log.Fatal("CRM_SERVICE_TOKEN environment variable is required for voucher export")
	}

	return &VoucherExportWorker{
		DB:         db,
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: utils.HTTPClient,
		Interval:   1 * time.Minute,
	}
}

func (w *VoucherExportWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Voucher Export Worker (vouchers → CRM)…")
	go w.run(ctx)
}

func (w *VoucherExportWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("⏹️ Voucher Export Worker stopped")
			return
		case <-ticker.C:
			if err := w.exportBatch(ctx); err != nil {
				log.Printf("❌ Voucher export failed: %v", err)
			}
		}
	}
}

func (w *VoucherExportWorker) exportBatch(ctx context.Context) error {
	type voucherWithSession struct {
		ID           string
		Code         string
		SessionCode  string
		RewardName   string
		DiscountText string
		ExpiresAt    time.Time
		Downloaded   bool
		CreatedAt    time.Time
	}

	var pending []voucherWithSession
	err := w.DB.Table("vouchers").
		Select(`vouchers.id, vouchers.code, quiz_sessions.code AS session_code,
			vouchers.reward_name, vouchers.discount_text, vouchers.expires_at,
			vouchers.downloaded, vouchers.created_at`).
		Joins("JOIN quiz_sessions ON quiz_sessions.id = vouchers.session_id").
		Where("vouchers.exported_at IS NULL AND vouchers.deleted_at IS NULL").
		Order("vouchers.created_at ASC").
		Limit(exportBatchSize).
		Scan(&pending).Error
	if err != nil {
		return fmt.Errorf("failed to load pending vouchers: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	log.Printf("[EXPORT] 📤 Pushing %d voucher(s) to CRM…", len(pending))

	payload := struct {
		Vouchers []ExportedVoucher `json:"vouchers"`
	}{Vouchers: make([]ExportedVoucher, 0, len(pending))}
	ids := make([]string, 0, len(pending))
	for _, v := range pending {
		ids = append(ids, v.ID)
		payload.Vouchers = append(payload.Vouchers, ExportedVoucher{
			VoucherID:    v.ID,
			Code:         v.Code,
			SessionCode:  v.SessionCode,
			RewardName:   v.RewardName,
			DiscountText: v.DiscountText,
			ExpiresAt:    v.ExpiresAt,
			Downloaded:   v.Downloaded,
			IssuedAt:     v.CreatedAt,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode voucher payload: %w", err)
	}

	base, err := url.Parse(w.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid CRM base URL '%s': %w", w.BaseURL, err)
	}
	endpointURL := base.JoinPath("/api/v1/vouchers/import").String()

	req, err := http.NewRequestWithContext(ctx, "POST", endpointURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request to %s: %w", endpointURL, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Service-Token", w.Token)

	resp, err := w.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request to CRM failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("CRM returned status %d: %s", resp.StatusCode, string(errBody))
	}

	// Only mark exported after the CRM accepted the batch
	now := time.Now().UTC()
	if err := w.DB.Model(&models.Voucher{}).
		Where("id IN ?", ids).
		Update("exported_at", now).Error; err != nil {
		return fmt.Errorf("failed to mark %d voucher(s) exported: %w", len(ids), err)
	}

	metrics.VouchersExported.Add(float64(len(ids)))
	log.Printf("[EXPORT] ✅ Exported %d voucher(s) to CRM", len(ids))
	return nil
}
