// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/datahex-administration/ConnectionQuest/models"
)

func (s *CouponService) StartCampaignScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: flip campaign templates on and off at their window edges
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			now := time.Now()

			var starting []models.CouponTemplate
			err := s.DB.Where("is_active = ? AND starts_at IS NOT NULL AND starts_at <= ?", false, now).
				Where("ends_at IS NULL OR ends_at > ?", now).
				Find(&starting).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}
			for _, t := range starting {
				t.IsActive = true
				if err := s.DB.Save(&t).Error; err != nil {
					log.Printf("[Scheduler] Failed to activate campaign %s: %v", t.ID, err)
				} else {
					log.Printf("✅ Campaign started: %s", t.Name)
				}
			}

			var ending []models.CouponTemplate
			err = s.DB.Where("is_active = ? AND ends_at IS NOT NULL AND ends_at <= ?", true, now).
				Find(&ending).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}
			for _, t := range ending {
				t.IsActive = false
				if err := s.DB.Save(&t).Error; err != nil {
					log.Printf("[Scheduler] Failed to deactivate campaign %s: %v", t.ID, err)
				} else {
					log.Printf("✅ Campaign ended: %s", t.Name)
				}
			}
		}),
	)
}
