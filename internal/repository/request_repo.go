package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/vincula-api/internal/models"
)

// RequestDetails is a request joined with display names of its parties and match.
type RequestDetails struct {
	models.CollaborationRequest
	SenderName    *string
	RecipientName *string
	MatchTitle    *string
}

// RequestRepository persists collaboration requests.
type RequestRepository interface {
	Create(ctx context.Context, request *models.CollaborationRequest) error
	FindByID(ctx context.Context, id uint) (models.CollaborationRequest, error)
	FindBetween(ctx context.Context, a, b models.ProfileRef) (models.CollaborationRequest, error)
	Resolve(ctx context.Context, id uint, recipient models.ProfileRef, status models.RequestStatus, at time.Time) (int64, error)
	ListSent(ctx context.Context, sender models.ProfileRef) ([]RequestDetails, error)
	ListReceived(ctx context.Context, recipient models.ProfileRef) ([]RequestDetails, error)
	CountPendingReceived(ctx context.Context, recipient models.ProfileRef) (int64, error)
}

type requestRepository struct {
	db *gorm.DB
}

// NewRequestRepository constructs a request repository backed by GORM.
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, request *models.CollaborationRequest) error {
	request.PairKey = models.PairKeyFor(request.Sender(), request.Recipient())
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *requestRepository) FindByID(ctx context.Context, id uint) (models.CollaborationRequest, error) {
	var request models.CollaborationRequest
	if err := r.db.WithContext(ctx).First(&request, id).Error; err != nil {
		return models.CollaborationRequest{}, err
	}
	return request, nil
}

// FindBetween looks for any request between the two profiles in either direction,
// regardless of the match it was raised for.
func (r *requestRepository) FindBetween(ctx context.Context, a, b models.ProfileRef) (models.CollaborationRequest, error) {
	var request models.CollaborationRequest
	err := r.db.WithContext(ctx).
		Where("(sender_kind = ? AND sender_id = ? AND recipient_kind = ? AND recipient_id = ?)", a.Kind, a.ID, b.Kind, b.ID).
		Or("(sender_kind = ? AND sender_id = ? AND recipient_kind = ? AND recipient_id = ?)", b.Kind, b.ID, a.Kind, a.ID).
		Order("id ASC").
		First(&request).Error
	if err != nil {
		return models.CollaborationRequest{}, err
	}
	return request, nil
}

// Resolve flips a pending request addressed to recipient. The affected row count is the
// only signal: zero means missing, not addressed to recipient, or already resolved.
func (r *requestRepository) Resolve(ctx context.Context, id uint, recipient models.ProfileRef, status models.RequestStatus, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CollaborationRequest{}).
		Where("id = ? AND recipient_kind = ? AND recipient_id = ? AND status = ?", id, recipient.Kind, recipient.ID, models.RequestStatusPending).
		Updates(map[string]interface{}{
			"status":       status,
			"responded_at": at,
		})
	return result.RowsAffected, result.Error
}

const requestDetailsSelect = `
SELECT r.*,
       CASE WHEN r.{side}_kind = ? THEN ir.full_name
            WHEN r.{side}_kind = ? THEN ep.full_name
       END AS {side}_name,
       CASE WHEN r.match_kind = ? THEN c.description
            WHEN r.match_kind = ? THEN ch.title
       END AS match_title
FROM collaboration_requests r
LEFT JOIN internal_researchers ir ON r.{side}_kind = ? AND ir.id = r.{side}_id
LEFT JOIN external_participants ep ON r.{side}_kind = ? AND ep.id = r.{side}_id
LEFT JOIN capabilities c ON r.match_kind = ? AND c.id = r.match_id
LEFT JOIN challenges ch ON r.match_kind = ? AND ch.id = r.match_id`

// detailsQuery builds the joined select naming the counterpart side ("sender" or "recipient").
func detailsQuery(side string) (string, []interface{}) {
	query := strings.ReplaceAll(requestDetailsSelect, "{side}", side)
	args := []interface{}{
		models.ProfileKindInternal, models.ProfileKindExternal,
		models.MatchKindCapability, models.MatchKindChallenge,
		models.ProfileKindInternal, models.ProfileKindExternal,
		models.MatchKindCapability, models.MatchKindChallenge,
	}
	return query, args
}

func (r *requestRepository) ListSent(ctx context.Context, sender models.ProfileRef) ([]RequestDetails, error) {
	query, args := detailsQuery("recipient")
	query += `
WHERE r.sender_kind = ? AND r.sender_id = ?
ORDER BY r.created_at DESC, r.id DESC`
	args = append(args, sender.Kind, sender.ID)

	var rows []RequestDetails
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *requestRepository) ListReceived(ctx context.Context, recipient models.ProfileRef) ([]RequestDetails, error) {
	query, args := detailsQuery("sender")
	query += `
WHERE r.recipient_kind = ? AND r.recipient_id = ?
ORDER BY CASE r.status WHEN ? THEN 1 WHEN ? THEN 2 ELSE 3 END,
         r.created_at DESC, r.id DESC`
	args = append(args, recipient.Kind, recipient.ID, models.RequestStatusPending, models.RequestStatusAccepted)

	var rows []RequestDetails
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *requestRepository) CountPendingReceived(ctx context.Context, recipient models.ProfileRef) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.CollaborationRequest{}).
		Where("recipient_kind = ? AND recipient_id = ? AND status = ?", recipient.Kind, recipient.ID, models.RequestStatusPending).
		Count(&total).Error
	return total, err
}
