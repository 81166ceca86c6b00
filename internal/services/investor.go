package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/selfmadecero/onevdr/internal/domain"
	"github.com/selfmadecero/onevdr/internal/feed"
	"github.com/selfmadecero/onevdr/internal/metrics"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	directionAdvance = "advance"
	directionRetreat = "retreat"
)

// CreateInvestorPayload carries the fields accepted when adding an investor
type CreateInvestorPayload struct {
	Name             string           `json:"name"`
	Company          *string          `json:"company"`
	Email            *string          `json:"email"`
	Phone            *string          `json:"phone"`
	Website          *string          `json:"website"`
	InvestmentAmount *decimal.Decimal `json:"investment_amount"`
	FundSize         *decimal.Decimal `json:"fund_size"`
	Importance       *string          `json:"importance"`
	Notes            *string          `json:"notes"`
	AISummary        *string          `json:"ai_summary"`
}

// UpdateInvestorPayload is the whole edit draft. Every editable field is
// applied exactly as given; an omitted optional field clears its column.
// Stage, status and comments have their own operations and are never
// touched by an update.
type UpdateInvestorPayload struct {
	Name             string           `json:"name"`
	Company          *string          `json:"company"`
	Email            *string          `json:"email"`
	Phone            *string          `json:"phone"`
	Website          *string          `json:"website"`
	InvestmentAmount *decimal.Decimal `json:"investment_amount"`
	FundSize         *decimal.Decimal `json:"fund_size"`
	Importance       string           `json:"importance"`
	Notes            *string          `json:"notes"`
	AISummary        *string          `json:"ai_summary"`
}

// InvestorService implements the per-user investor collection. Every
// committed write publishes the owner's refreshed list to the feed hub.
type InvestorService struct {
	db       *gorm.DB
	hub      *feed.Hub
	insights InsightSource
	email    *EmailService
}

// NewInvestorService creates a new investor service
func NewInvestorService(db *gorm.DB, hub *feed.Hub, insights InsightSource, email *EmailService) *InvestorService {
	return &InvestorService{db: db, hub: hub, insights: insights, email: email}
}

// Create implements the create investor method
func (s *InvestorService) Create(ctx context.Context, user *domain.User, p *CreateInvestorPayload) (*domain.Investor, error) {
	name := strings.TrimSpace(p.Name)
	log.Printf("[INVESTOR] Create request: user=%d, name=%s", user.ID, name)

	if name == "" {
		return nil, NewBadRequestError("name is required")
	}

	investor := domain.Investor{
		UserID:           user.ID,
		Name:             name,
		Company:          p.Company,
		Email:            p.Email,
		Phone:            p.Phone,
		Website:          p.Website,
		InvestmentAmount: p.InvestmentAmount,
		FundSize:         p.FundSize,
		Notes:            p.Notes,
		AISummary:        p.AISummary,
	}
	if p.Importance != nil {
		if !domain.ValidImportance(*p.Importance) {
			return nil, NewBadRequestError("invalid importance")
		}
		investor.Importance = *p.Importance
	}

	if err := s.db.WithContext(ctx).Create(&investor).Error; err != nil {
		log.Printf("[INVESTOR] Create failed: database error: %v", err)
		return nil, NewInternalError("failed to create investor", err)
	}

	log.Printf("[INVESTOR] Create successful: id=%s, user=%d", investor.ID, user.ID)
	metrics.RecordInvestorCreated()
	s.publishSnapshot(ctx, user)
	return &investor, nil
}

// List implements the list investors method. The result is the same body
// feed subscribers receive: the user's entire collection, newest first.
func (s *InvestorService) List(ctx context.Context, user *domain.User) ([]domain.Investor, error) {
	log.Printf("[INVESTOR] List request: user=%d", user.ID)

	investors, err := s.listForUser(ctx, user.ID)
	if err != nil {
		log.Printf("[INVESTOR] List failed: database error: %v", err)
		return nil, NewInternalError("failed to list investors", err)
	}

	log.Printf("[INVESTOR] List successful: user=%d, returned %d investors", user.ID, len(investors))
	return investors, nil
}

// Get implements the get investor method
func (s *InvestorService) Get(ctx context.Context, user *domain.User, id string) (*domain.Investor, error) {
	log.Printf("[INVESTOR] Get request: id=%s, user=%d", id, user.ID)

	investor, err := s.findOwned(ctx, user, id)
	if err != nil {
		return nil, err
	}

	log.Printf("[INVESTOR] Get successful: id=%s", investor.ID)
	return investor, nil
}

// Update implements the whole-draft update method. After the draft is
// committed, the AI-derived fields are refreshed from the saved record in
// the background; a refresh failure never affects the committed write.
func (s *InvestorService) Update(ctx context.Context, user *domain.User, id string, p *UpdateInvestorPayload) (*domain.Investor, error) {
	log.Printf("[INVESTOR] Update request: id=%s, user=%d", id, user.ID)

	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, NewBadRequestError("name is required")
	}
	if p.Importance != "" && !domain.ValidImportance(p.Importance) {
		return nil, NewBadRequestError("invalid importance")
	}

	investor, err := s.findOwned(ctx, user, id)
	if err != nil {
		return nil, err
	}

	investor.Name = name
	investor.Company = p.Company
	investor.Email = p.Email
	investor.Phone = p.Phone
	investor.Website = p.Website
	investor.InvestmentAmount = p.InvestmentAmount
	investor.FundSize = p.FundSize
	investor.Notes = p.Notes
	investor.AISummary = p.AISummary
	if p.Importance != "" {
		investor.Importance = p.Importance
	}

	if err := s.db.WithContext(ctx).Save(investor).Error; err != nil {
		log.Printf("[INVESTOR] Update failed: save error: %v", err)
		return nil, NewInternalError("failed to update investor", err)
	}

	log.Printf("[INVESTOR] Update successful: id=%s", investor.ID)
	s.publishSnapshot(ctx, user)

	// Refresh derived fields from the saved draft asynchronously.
	go s.refreshInsights(user, *investor)

	return investor, nil
}

// Delete implements the delete investor method
func (s *InvestorService) Delete(ctx context.Context, user *domain.User, id string) error {
	log.Printf("[INVESTOR] Delete request: id=%s, user=%d", id, user.ID)

	investor, err := s.findOwned(ctx, user, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(investor).Error; err != nil {
		log.Printf("[INVESTOR] Delete failed: database error: %v", err)
		return NewInternalError("failed to delete investor", err)
	}

	log.Printf("[INVESTOR] Delete successful: id=%s", id)
	metrics.RecordInvestorDeleted()
	s.publishSnapshot(ctx, user)
	return nil
}

// Advance implements the advance stage method. Moves are exactly one stage
// at a time and rejected past the final stage.
func (s *InvestorService) Advance(ctx context.Context, user *domain.User, id string) (*domain.Investor, error) {
	log.Printf("[INVESTOR] Advance request: id=%s, user=%d", id, user.ID)

	investor, err := s.findOwned(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if investor.AtFinalStage() {
		log.Printf("[INVESTOR] Advance rejected: id=%s already at %s", id, domain.StageName(investor.CurrentStep))
		return nil, NewBadRequestError("investor is already at the final stage")
	}

	investor.CurrentStep++
	if err := s.db.WithContext(ctx).Save(investor).Error; err != nil {
		log.Printf("[INVESTOR] Advance failed: save error: %v", err)
		return nil, NewInternalError("failed to advance investor", err)
	}

	log.Printf("[INVESTOR] Advance successful: id=%s, stage=%s", id, domain.StageName(investor.CurrentStep))
	metrics.RecordStageTransition(directionAdvance)

	if investor.AtFinalStage() {
		metrics.RecordDealClosed()
		s.notifyClosing(user, *investor)
	}

	s.publishSnapshot(ctx, user)
	return investor, nil
}

// Retreat implements the retreat stage method
func (s *InvestorService) Retreat(ctx context.Context, user *domain.User, id string) (*domain.Investor, error) {
	log.Printf("[INVESTOR] Retreat request: id=%s, user=%d", id, user.ID)

	investor, err := s.findOwned(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if investor.CurrentStep == domain.FirstStage {
		log.Printf("[INVESTOR] Retreat rejected: id=%s already at %s", id, domain.StageName(investor.CurrentStep))
		return nil, NewBadRequestError("investor is already at the first stage")
	}

	investor.CurrentStep--
	if err := s.db.WithContext(ctx).Save(investor).Error; err != nil {
		log.Printf("[INVESTOR] Retreat failed: save error: %v", err)
		return nil, NewInternalError("failed to retreat investor", err)
	}

	log.Printf("[INVESTOR] Retreat successful: id=%s, stage=%s", id, domain.StageName(investor.CurrentStep))
	metrics.RecordStageTransition(directionRetreat)
	s.publishSnapshot(ctx, user)
	return investor, nil
}

// SetStatus implements the set status method
func (s *InvestorService) SetStatus(ctx context.Context, user *domain.User, id, status string) (*domain.Investor, error) {
	log.Printf("[INVESTOR] SetStatus request: id=%s, status=%s", id, status)

	if !domain.ValidStatus(status) {
		return nil, NewBadRequestError("invalid status")
	}

	investor, err := s.findOwned(ctx, user, id)
	if err != nil {
		return nil, err
	}

	investor.Status = status
	if err := s.db.WithContext(ctx).Save(investor).Error; err != nil {
		log.Printf("[INVESTOR] SetStatus failed: save error: %v", err)
		return nil, NewInternalError("failed to set status", err)
	}

	log.Printf("[INVESTOR] SetStatus successful: id=%s, status=%s", id, status)
	s.publishSnapshot(ctx, user)
	return investor, nil
}

// AddComment implements the add comment method. The append re-reads the
// record inside a transaction, so concurrent appends cannot drop each
// other. The id derives from the current time in unix milliseconds, bumped
// past any existing id.
func (s *InvestorService) AddComment(ctx context.Context, user *domain.User, id, text string) (*domain.Investor, error) {
	log.Printf("[INVESTOR] AddComment request: id=%s, user=%d", id, user.ID)

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, NewBadRequestError("comment text is required")
	}

	var investor domain.Investor
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, user.ID).First(&investor).Error; err != nil {
			return err
		}
		now := time.Now()
		investor.Comments = append(investor.Comments, domain.Comment{
			ID:        investor.Comments.NextID(now.UnixMilli()),
			Text:      text,
			CreatedAt: now,
		})
		return tx.Save(&investor).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[INVESTOR] AddComment failed: investor id=%s not found", id)
			return nil, NewNotFoundError("investor not found")
		}
		log.Printf("[INVESTOR] AddComment failed: database error: %v", err)
		return nil, NewInternalError("failed to add comment", err)
	}

	log.Printf("[INVESTOR] AddComment successful: id=%s, comments=%d", id, len(investor.Comments))
	metrics.RecordCommentAdded()
	s.publishSnapshot(ctx, user)
	return &investor, nil
}

// UpdateComment implements the update comment method. The whole comment
// array is rewritten from the record as read; the write is not conditioned
// on the stored row, so a concurrent comment change can be lost silently.
func (s *InvestorService) UpdateComment(ctx context.Context, user *domain.User, id string, commentID int64, text string) (*domain.Investor, error) {
	log.Printf("[INVESTOR] UpdateComment request: id=%s, comment=%d", id, commentID)

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, NewBadRequestError("comment text is required")
	}

	investor, err := s.findOwned(ctx, user, id)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range investor.Comments {
		if investor.Comments[i].ID == commentID {
			investor.Comments[i].Text = text
			found = true
			break
		}
	}
	if !found {
		log.Printf("[INVESTOR] UpdateComment failed: comment %d not found on id=%s", commentID, id)
		return nil, NewNotFoundError("comment not found")
	}

	if err := s.db.WithContext(ctx).Save(investor).Error; err != nil {
		log.Printf("[INVESTOR] UpdateComment failed: save error: %v", err)
		return nil, NewInternalError("failed to update comment", err)
	}

	log.Printf("[INVESTOR] UpdateComment successful: id=%s, comment=%d", id, commentID)
	s.publishSnapshot(ctx, user)
	return investor, nil
}

// DeleteComment implements the delete comment method. Same unconditioned
// read-modify-write as UpdateComment.
func (s *InvestorService) DeleteComment(ctx context.Context, user *domain.User, id string, commentID int64) (*domain.Investor, error) {
	log.Printf("[INVESTOR] DeleteComment request: id=%s, comment=%d", id, commentID)

	investor, err := s.findOwned(ctx, user, id)
	if err != nil {
		return nil, err
	}

	kept := make(domain.CommentList, 0, len(investor.Comments))
	for _, c := range investor.Comments {
		if c.ID != commentID {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(investor.Comments) {
		log.Printf("[INVESTOR] DeleteComment failed: comment %d not found on id=%s", commentID, id)
		return nil, NewNotFoundError("comment not found")
	}

	investor.Comments = kept
	if err := s.db.WithContext(ctx).Save(investor).Error; err != nil {
		log.Printf("[INVESTOR] DeleteComment failed: save error: %v", err)
		return nil, NewInternalError("failed to delete comment", err)
	}

	log.Printf("[INVESTOR] DeleteComment successful: id=%s, comment=%d", id, commentID)
	s.publishSnapshot(ctx, user)
	return investor, nil
}

// findOwned loads an investor owned by the user. Records owned by someone
// else read as not found.
func (s *InvestorService) findOwned(ctx context.Context, user *domain.User, id string) (*domain.Investor, error) {
	var investor domain.Investor
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, user.ID).First(&investor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[INVESTOR] Investor id=%s not found for user=%d", id, user.ID)
			return nil, NewNotFoundError("investor not found")
		}
		log.Printf("[INVESTOR] Lookup failed: database error: %v", err)
		return nil, NewInternalError("failed to load investor", err)
	}
	return &investor, nil
}

func (s *InvestorService) listForUser(ctx context.Context, userID uint) ([]domain.Investor, error) {
	var investors []domain.Investor
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&investors).Error
	return investors, err
}

// publishSnapshot pushes the user's full refreshed list to the feed hub.
// Subscribers always receive the entire collection, never a delta.
func (s *InvestorService) publishSnapshot(ctx context.Context, user *domain.User) {
	if s.hub == nil {
		return
	}
	investors, err := s.listForUser(ctx, user.ID)
	if err != nil {
		log.Printf("[INVESTOR] Snapshot refresh failed: user=%d: %v", user.ID, err)
		return
	}
	s.hub.Publish(user.ID, investors)
}

// refreshInsights recomputes the AI-derived fields for a freshly saved
// record. Runs detached from the originating request; each field tolerates
// failure independently and failures only log.
func (s *InvestorService) refreshInsights(user *domain.User, investor domain.Investor) {
	if s.insights == nil {
		return
	}
	ctx := context.Background()
	updates := map[string]interface{}{}

	if focus, err := s.insights.PortfolioFocus(ctx, &investor); err != nil {
		log.Printf("[INVESTOR] Portfolio focus refresh failed: id=%s: %v", investor.ID, err)
	} else {
		updates["portfolio_focus"] = domain.StringList(focus)
	}

	if likelihood, err := s.insights.Likelihood(ctx, &investor); err != nil {
		log.Printf("[INVESTOR] Likelihood refresh failed: id=%s: %v", investor.ID, err)
	} else {
		updates["likelihood"] = likelihood
	}

	if actions, err := s.insights.SuggestedActions(ctx, &investor); err != nil {
		log.Printf("[INVESTOR] Suggested actions refresh failed: id=%s: %v", investor.ID, err)
	} else {
		updates["suggested_actions"] = domain.StringList(actions)
	}

	if len(updates) == 0 {
		return
	}

	if err := s.db.Model(&domain.Investor{}).Where("id = ?", investor.ID).Updates(updates).Error; err != nil {
		log.Printf("[INVESTOR] Insight refresh save failed: id=%s: %v", investor.ID, err)
		return
	}

	log.Printf("[INVESTOR] Insight refresh successful: id=%s, fields=%d", investor.ID, len(updates))
	s.publishSnapshot(ctx, user)
}

// notifyClosing sends the closing notification asynchronously. Failure is
// never fatal to the stage move.
func (s *InvestorService) notifyClosing(user *domain.User, investor domain.Investor) {
	if s.email == nil {
		return
	}
	go func() {
		if err := s.email.SendClosingNotification(user, &investor); err != nil {
			log.Printf("[INVESTOR] Closing notification failed: id=%s: %v", investor.ID, err)
		}
	}()
}
