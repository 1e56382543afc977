package services

import (
	"log"
	"time"

	"nexogeo-platform/models"

	"github.com/go-co-op/gocron/v2"
)

// StartPromotionScheduler flips campaign statuses on the clock: scheduled
// promotions go active when start_at passes, active ones end at end_at.
func (s *PromotionService) StartPromotionScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			now := time.Now()

			var toActivate []models.Promotion
			err := s.DB.Where("status = ? AND start_at <= ?", models.PromotionStatusScheduled, now).
				Find(&toActivate).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}
			for _, p := range toActivate {
				p.Status = models.PromotionStatusActive
				if err := s.DB.Save(&p).Error; err != nil {
					log.Printf("[Scheduler] Failed to activate promotion %s: %v", p.ID, err)
				} else {
					log.Printf("✅ Auto-activated promotion: %s", p.Name)
				}
			}

			var toEnd []models.Promotion
			err = s.DB.Where("status = ? AND end_at IS NOT NULL AND end_at <= ?", models.PromotionStatusActive, now).
				Find(&toEnd).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}
			for _, p := range toEnd {
				p.Status = models.PromotionStatusEnded
				if err := s.DB.Save(&p).Error; err != nil {
					log.Printf("[Scheduler] Failed to end promotion %s: %v", p.ID, err)
				} else {
					log.Printf("✅ Auto-ended promotion: %s", p.Name)
				}
			}
		}),
	)
}
