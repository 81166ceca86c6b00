package services

import (
	"context"
	"errors"
	"log"

	"github.com/selfmadecero/onevdr/internal/cache"
	"github.com/selfmadecero/onevdr/internal/domain"
	"gorm.io/gorm"
)

// DataRoomService serves read-only data room activity stats. Rows are
// written by the document pipeline out of band; this service only reads.
type DataRoomService struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewDataRoomService creates a new data room service
func NewDataRoomService(db *gorm.DB, c *cache.Cache) *DataRoomService {
	return &DataRoomService{db: db, cache: c}
}

// Stats implements the data room stats method. The investor must belong to
// the requesting user; an investor with no recorded activity reads as zeros.
func (s *DataRoomService) Stats(ctx context.Context, user *domain.User, investorID string) (*domain.DataRoomStats, error) {
	log.Printf("[DATAROOM] Stats request: id=%s, user=%d", investorID, user.ID)

	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.Investor{}).
		Where("id = ? AND user_id = ?", investorID, user.ID).
		Count(&count).Error; err != nil {
		log.Printf("[DATAROOM] Stats failed: database error: %v", err)
		return nil, NewInternalError("failed to load investor", err)
	}
	if count == 0 {
		log.Printf("[DATAROOM] Stats failed: investor not found: id=%s", investorID)
		return nil, NewNotFoundError("investor not found")
	}

	key := "onevdr:dataroom:" + investorID
	var cached domain.DataRoomStats
	if ok, err := s.cache.Get(ctx, key, &cached); err != nil {
		log.Printf("[DATAROOM] Cache read failed: %v", err)
	} else if ok {
		return &cached, nil
	}

	var stats domain.DataRoomStats
	if err := s.db.WithContext(ctx).Where("investor_id = ?", investorID).First(&stats).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			stats = domain.DataRoomStats{InvestorID: investorID}
		} else {
			log.Printf("[DATAROOM] Stats failed: database error: %v", err)
			return nil, NewInternalError("failed to load data room stats", err)
		}
	}

	if err := s.cache.Set(ctx, key, &stats); err != nil {
		log.Printf("[DATAROOM] Cache write failed: %v", err)
	}

	log.Printf("[DATAROOM] Stats successful: id=%s, documents=%d", investorID, stats.DocumentsViewed)
	return &stats, nil
}
