package verify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/presence/internal/models"
	"github.com/your-org/presence/internal/observability"
)

// SubmissionPrefix is the object-key prefix for submitted face images.
const SubmissionPrefix = "submissions/"

// ImageStore persists and resolves image blobs by key.
type ImageStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// TextExtractor reads printed text from the image stored under imageKey.
type TextExtractor interface {
	ExtractLines(ctx context.Context, imageKey string) ([]string, error)
}

// FaceComparator scores faces in the image under sourceKey against the face
// in the image under referenceKey. Scores are on a 0-100 similarity scale.
type FaceComparator interface {
	Similarities(ctx context.Context, sourceKey, referenceKey string) ([]float64, error)
}

// RecordStore upserts participation records keyed by (email, date).
type RecordStore interface {
	Upsert(ctx context.Context, rec models.ParticipationRecord) error
}

// EventPublisher announces durably recorded verdicts. Best-effort.
type EventPublisher interface {
	PublishVerification(ctx context.Context, evt models.VerificationEvent) error
}

// Request is one decoded verification submission.
type Request struct {
	Name  string
	Email string
	Date  string
	Image []byte
}

// Result is the computed verdict for one request.
type Result struct {
	NameMatch     bool
	FaceMatch     bool
	Participation bool
}

// Options are the tunables of the verification core.
type Options struct {
	NamesImageKey      string
	FacesImageKey      string
	FaceMatchThreshold float64
	Policy             Policy
	NameMatchMode      NameMatchMode
}

// Service orchestrates one verification request: store the submitted image,
// run both checks, fuse the signals, record the verdict.
type Service struct {
	images  ImageStore
	ocr     TextExtractor
	faces   FaceComparator
	records RecordStore
	events  EventPublisher
	opts    Options
}

// NewService wires the collaborators. events may be nil.
func NewService(images ImageStore, ocr TextExtractor, faces FaceComparator, records RecordStore, events EventPublisher, opts Options) *Service {
	return &Service{
		images:  images,
		ocr:     ocr,
		faces:   faces,
		records: records,
		events:  events,
		opts:    opts,
	}
}

// Verify runs the full pipeline. The returned Result is meaningful only when
// err is nil; when the record write fails the computed verdict is logged, not
// returned, so the caller cannot mistake an unrecorded verdict for a recorded
// one.
func (s *Service) Verify(ctx context.Context, req Request) (Result, error) {
	if req.Name == "" || req.Email == "" || req.Date == "" || len(req.Image) == 0 {
		return Result{}, &Error{Code: CodeInvalidRequest, Err: fmt.Errorf("name, email, date and image are all required")}
	}

	// The name check has no dependency on the uploaded image and starts
	// immediately; the face check waits for the stored image key.
	nameCh := make(chan bool, 1)
	go func() {
		nameCh <- s.CheckNameMatch(ctx, req.Name)
	}()

	imageKey := SubmissionPrefix + uuid.New().String() + ".jpg"
	if err := s.images.Put(ctx, imageKey, req.Image, "image/jpeg"); err != nil {
		return Result{}, &Error{Code: CodeStorageUnavailable, Err: fmt.Errorf("store submitted image: %w", err)}
	}

	faceMatch := s.CheckFaceMatch(ctx, imageKey)
	nameMatch := <-nameCh

	participation := s.opts.Policy.Decide(nameMatch, faceMatch)

	rec := models.ParticipationRecord{
		Email:        req.Email,
		Date:         req.Date,
		Name:         req.Name,
		Participated: participation,
	}
	if err := s.records.Upsert(ctx, rec); err != nil {
		slog.Error("participation record write failed",
			"email", req.Email,
			"date", req.Date,
			"participation", participation,
			"name_match", nameMatch,
			"face_match", faceMatch,
			"error", err,
		)
		return Result{}, &Error{Code: CodeRecordWriteFailed, Err: fmt.Errorf("write participation record: %w", err)}
	}

	observability.VerificationsTotal.WithLabelValues(strconv.FormatBool(participation)).Inc()

	if s.events != nil {
		evt := models.VerificationEvent{
			Email:         req.Email,
			Date:          req.Date,
			Name:          req.Name,
			NameMatch:     nameMatch,
			FaceMatch:     faceMatch,
			Participation: participation,
			ImageKey:      imageKey,
			Timestamp:     time.Now().UTC(),
		}
		if err := s.events.PublishVerification(ctx, evt); err != nil {
			slog.Warn("publish verification event", "email", req.Email, "error", err)
		}
	}

	return Result{
		NameMatch:     nameMatch,
		FaceMatch:     faceMatch,
		Participation: participation,
	}, nil
}

// CheckNameMatch asks the OCR collaborator for the lines of the reference
// names image and matches the claimed name against them. Fail-closed: any
// collaborator error resolves to false and is logged, never propagated.
func (s *Service) CheckNameMatch(ctx context.Context, claimedName string) bool {
	start := time.Now()
	defer func() {
		observability.CheckerDuration.WithLabelValues("name").Observe(time.Since(start).Seconds())
	}()

	lines, err := s.ocr.ExtractLines(ctx, s.opts.NamesImageKey)
	if err != nil {
		observability.CheckerFailures.WithLabelValues("name").Inc()
		slog.Error("name check: extract text", "image_key", s.opts.NamesImageKey, "error", err)
		return false
	}

	return s.opts.NameMatchMode.Matches(lines, claimedName)
}

// CheckFaceMatch compares the stored submitted image against the reference
// face image and reports whether any similarity score clears the threshold.
// Same fail-closed policy as the name check.
func (s *Service) CheckFaceMatch(ctx context.Context, imageKey string) bool {
	start := time.Now()
	defer func() {
		observability.CheckerDuration.WithLabelValues("face").Observe(time.Since(start).Seconds())
	}()

	scores, err := s.faces.Similarities(ctx, imageKey, s.opts.FacesImageKey)
	if err != nil {
		observability.CheckerFailures.WithLabelValues("face").Inc()
		slog.Error("face check: compare faces", "image_key", imageKey, "error", err)
		return false
	}

	for _, score := range scores {
		if score >= s.opts.FaceMatchThreshold {
			return true
		}
	}
	return false
}
