package checkin

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drbn-app/drbn-backend/internal/analysis"
	"github.com/drbn-app/drbn-backend/internal/lock"
	"github.com/drbn-app/drbn-backend/internal/models"
	"github.com/drbn-app/drbn-backend/internal/storage"
)

var (
	ErrMissingPhotos = errors.New("at least one photo is required")
	ErrInvalidPhoto  = errors.New("invalid photo payload")
	ErrNotFound      = errors.New("check-in not found")
)

var photoAngles = []string{"front", "left_profile", "right_profile"}

const signedURLTTL = time.Hour

// =============================================================================
// CheckInService
// =============================================================================

type CheckInService struct {
	db     *gorm.DB
	ai     analysis.Generator
	photos storage.Bucket
	locks  lock.Locker
}

func NewCheckInService(db *gorm.DB, ai analysis.Generator, photos storage.Bucket, locks lock.Locker) *CheckInService {
	return &CheckInService{db: db, ai: ai, photos: photos, locks: locks}
}

// Create runs the full check-in pipeline: persist the session, upload the
// supplied photos, run the AI analysis and persist its results. Any subset of
// the three angles may be supplied; at least one is required. Analysis failure
// is absorbed; the check-in survives with a NULL score. progress reaches 20
// once the row exists, 50 once the photos are stored, then 80 and 100.
func (s *CheckInService) Create(ctx context.Context, userID uuid.UUID, req CreateCheckInRequest, progress func(int)) (*CheckInResponse, error) {
	if progress == nil {
		progress = func(int) {}
	}
	supplied := make([]string, 0, len(photoAngles))
	for _, angle := range photoAngles {
		if strings.TrimSpace(req.Photos[angle]) != "" {
			supplied = append(supplied, angle)
		}
	}
	if len(supplied) == 0 {
		return nil, ErrMissingPhotos
	}

	release, err := s.locks.Acquire(ctx, "generation:"+userID.String(), 2*time.Minute)
	if err != nil {
		return nil, err
	}
	defer release()

	sessionDate := time.Now().UTC()
	if req.SessionDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.SessionDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid session_date", ErrInvalidPhoto)
		}
		sessionDate = parsed.UTC()
	}

	checkIn := &CheckIn{
		ID:          uuid.New(),
		UserID:      userID,
		SessionDate: sessionDate,
	}
	if strings.TrimSpace(req.Notes) != "" {
		notes := req.Notes
		checkIn.Notes = &notes
	}
	if err := s.db.WithContext(ctx).Create(checkIn).Error; err != nil {
		return nil, fmt.Errorf("failed to create check-in: %w", err)
	}
	progress(20)

	for i, angle := range supplied {
		data, contentType, err := decodeDataURL(req.Photos[angle])
		if err != nil {
			return nil, fmt.Errorf("%w: %s photo", ErrInvalidPhoto, angle)
		}
		key := fmt.Sprintf("%s/%s/%s_%d.jpg", userID, checkIn.ID, angle, time.Now().UnixMilli())
		if err := s.photos.Upload(ctx, key, data, contentType); err != nil {
			return nil, fmt.Errorf("failed to upload %s photo: %w", angle, err)
		}
		photo := &CheckInPhoto{
			ID:         uuid.New(),
			CheckInID:  checkIn.ID,
			Angle:      angle,
			StorageKey: key,
		}
		if err := s.db.WithContext(ctx).Create(photo).Error; err != nil {
			return nil, fmt.Errorf("failed to record %s photo: %w", angle, err)
		}
		checkIn.Photos = append(checkIn.Photos, *photo)
		progress(20 + (i+1)*30/len(supplied))
	}

	s.analyze(ctx, userID, checkIn, req, progress)
	progress(100)

	return s.response(checkIn), nil
}

// analyze runs the model and persists score, summary and derived features.
// Every failure here is logged and absorbed.
func (s *CheckInService) analyze(ctx context.Context, userID uuid.UUID, checkIn *CheckIn, req CreateCheckInRequest, progress func(int)) {
	var profile models.Profile
	profilePtr := &profile
	if err := s.db.WithContext(ctx).First(&profile, "id = ?", userID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			slog.Warn("failed to load profile for analysis, proceeding without it",
				"user_id", userID, "error", err)
		}
		profilePtr = nil
	}

	plan, err := s.ai.GeneratePlan(ctx, analysis.PlanRequest{
		Profile: profilePtr,
		History: s.historyContext(ctx, userID, checkIn.ID),
		Photos: analysis.PhotoSet{
			Front: req.Photos["front"],
			Left:  req.Photos["left_profile"],
			Right: req.Photos["right_profile"],
		},
		Language: req.Language,
	})
	progress(80)
	if err != nil {
		slog.Warn("check-in analysis failed, keeping session without score",
			"check_in_id", checkIn.ID, "user_id", userID, "error", err)
		return
	}

	score := plan.OverallScore
	summary := plan.Summary
	checkIn.OverallScore = &score
	if summary != "" {
		checkIn.AISummary = &summary
	}
	if err := s.db.WithContext(ctx).Model(&CheckIn{}).Where("id = ?", checkIn.ID).
		Updates(map[string]interface{}{"overall_score": score, "ai_summary": checkIn.AISummary}).Error; err != nil {
		slog.Error("failed to persist check-in score", "check_in_id", checkIn.ID, "error", err)
		checkIn.OverallScore = nil
		checkIn.AISummary = nil
		return
	}

	if plan.DerivedFeatures == nil {
		return
	}
	features := &DerivedFeatures{
		ID:                  uuid.New(),
		CheckInID:           checkIn.ID,
		UnevenToneScore:     plan.DerivedFeatures.UnevenToneScore,
		TextureScore:        plan.DerivedFeatures.TextureScore,
		OilinessScore:       plan.DerivedFeatures.OilinessScore,
		BarrierComfortScore: plan.DerivedFeatures.BarrierComfortScore,
		DetectedConcerns:    plan.DerivedFeatures.DetectedConcerns,
	}
	if plan.DerivedFeatures.AINotes != "" {
		notes := plan.DerivedFeatures.AINotes
		features.AINotes = &notes
	}
	if err := s.db.WithContext(ctx).Create(features).Error; err != nil {
		slog.Error("failed to persist derived features", "check_in_id", checkIn.ID, "error", err)
		return
	}
	checkIn.Features = features
}

// historyContext summarizes the latest scored check-in, excluding the one
// being created.
func (s *CheckInService) historyContext(ctx context.Context, userID, excludeID uuid.UUID) *analysis.CheckInContext {
	var previous CheckIn
	err := s.db.WithContext(ctx).Preload("Features").
		Where("user_id = ? AND id <> ? AND overall_score IS NOT NULL", userID, excludeID).
		Order("session_date DESC").
		First(&previous).Error
	if err != nil {
		return nil
	}
	history := &analysis.CheckInContext{PreviousScore: *previous.OverallScore}
	if previous.Features != nil {
		history.PreviousConcerns = previous.Features.DetectedConcerns
	}
	return history
}

func (s *CheckInService) List(ctx context.Context, userID uuid.UUID) ([]CheckInResponse, error) {
	var checkIns []CheckIn
	err := s.db.WithContext(ctx).
		Preload("Photos").Preload("Features").
		Where("user_id = ?", userID).
		Order("session_date DESC").
		Find(&checkIns).Error
	if err != nil {
		return nil, err
	}
	responses := make([]CheckInResponse, 0, len(checkIns))
	for i := range checkIns {
		responses = append(responses, *s.response(&checkIns[i]))
	}
	return responses, nil
}

func (s *CheckInService) Get(ctx context.Context, userID, id uuid.UUID) (*CheckInResponse, error) {
	checkIn, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.response(checkIn), nil
}

// Delete removes the check-in row and its bucket objects. Bucket failures are
// logged and do not block the row delete.
func (s *CheckInService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	checkIn, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	for _, photo := range checkIn.Photos {
		if err := s.photos.Delete(ctx, photo.StorageKey); err != nil {
			slog.Warn("failed to delete check-in photo object", "key", photo.StorageKey, "error", err)
		}
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("check_in_id = ?", id).Delete(&CheckInPhoto{}).Error; err != nil {
			return err
		}
		if err := tx.Where("check_in_id = ?", id).Delete(&DerivedFeatures{}).Error; err != nil {
			return err
		}
		return tx.Delete(&CheckIn{}, "id = ?", id).Error
	})
}

func (s *CheckInService) owned(ctx context.Context, userID, id uuid.UUID) (*CheckIn, error) {
	var checkIn CheckIn
	err := s.db.WithContext(ctx).
		Preload("Photos").Preload("Features").
		First(&checkIn, "id = ? AND user_id = ?", id, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &checkIn, nil
}

func (s *CheckInService) response(checkIn *CheckIn) *CheckInResponse {
	resp := &CheckInResponse{
		ID:           checkIn.ID,
		SessionDate:  checkIn.SessionDate,
		Notes:        checkIn.Notes,
		OverallScore: checkIn.OverallScore,
		AISummary:    checkIn.AISummary,
		Features:     checkIn.Features,
		CreatedAt:    checkIn.CreatedAt,
		Photos:       make([]PhotoResponse, 0, len(checkIn.Photos)),
	}
	for _, photo := range checkIn.Photos {
		url, err := s.photos.SignedURL(photo.StorageKey, signedURLTTL)
		if err != nil {
			slog.Warn("failed to sign photo URL", "key", photo.StorageKey, "error", err)
			continue
		}
		resp.Photos = append(resp.Photos, PhotoResponse{Angle: photo.Angle, URL: url})
	}
	return resp
}

// decodeDataURL accepts either a data-URL or bare base64 and returns the
// decoded bytes with a content type.
func decodeDataURL(payload string) ([]byte, string, error) {
	contentType := "image/jpeg"
	b64 := payload
	if strings.HasPrefix(payload, "data:") {
		header, rest, ok := strings.Cut(payload, ",")
		if !ok {
			return nil, "", errors.New("malformed data url")
		}
		b64 = rest
		if mime, _, ok := strings.Cut(strings.TrimPrefix(header, "data:"), ";"); ok && mime != "" {
			contentType = mime
		}
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", errors.New("empty photo")
	}
	return data, contentType, nil
}
