// Package prediction composes the classifier, the fact provider and
// the discovery ledger into the submit-photo use case.
package prediction

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"animaldex/internal/classifier"
	"animaldex/internal/gateway/entity"
	uploadrepo "animaldex/internal/gateway/repository/upload"
	"animaldex/internal/gateway/service/events"
	"animaldex/internal/gateway/service/facts"
	"animaldex/internal/gateway/service/ledger"
)

// Result is the combined outcome returned to the presentation layer.
// Label keeps the model's spelling, capitalized for display.
type Result struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Fact       string  `json:"fact"`
	Level      int     `json:"level"`
	Badge      string  `json:"badge"`
	IsNew      bool    `json:"is_new"`
	ImageURL   string  `json:"image_url,omitempty"`
}

type Service struct {
	classifier classifier.Classifier
	facts      *facts.Provider
	ledger     *ledger.Service
	uploads    uploadrepo.Store
	hub        *events.Hub
	log        *slog.Logger
}

func New(
	cls classifier.Classifier,
	factProvider *facts.Provider,
	ledgerSvc *ledger.Service,
	uploads uploadrepo.Store,
	hub *events.Hub,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		classifier: cls,
		facts:      factProvider,
		ledger:     ledgerSvc,
		uploads:    uploads,
		hub:        hub,
		log:        logger,
	}
}

// SubmitPhoto runs the full pipeline for one upload.
//
// Classification failures propagate unchanged and leave no side
// effects. The fact lookup always runs and never fails. The ledger
// update is idempotent per label, so a caller that sees a storage
// error may retry the whole call safely. Storing the photo itself is
// best-effort: a missing image URL never fails the request.
func (s *Service) SubmitPhoto(ctx context.Context, handle entity.Handle, image []byte, filename string) (Result, error) {
	pred, err := s.classifier.Classify(ctx, image)
	if err != nil {
		return Result{}, err
	}

	fact := s.facts.Get(ctx, pred.Label)

	profile, isNew, err := s.ledger.RecordDiscovery(ctx, handle, pred.Label)
	if err != nil {
		return Result{}, fmt.Errorf("record discovery: %w", err)
	}

	if isNew && s.hub != nil {
		s.hub.Publish(events.DiscoveryEvent{
			Handle: handle,
			Label:  pred.Label,
			Level:  profile.Level,
			Badge:  profile.Badge,
		})
	}

	return Result{
		Label:      displayLabel(pred.Label),
		Confidence: pred.Confidence,
		Fact:       fact,
		Level:      profile.Level,
		Badge:      profile.Badge,
		IsNew:      isNew,
		ImageURL:   s.storeUpload(ctx, handle, image, filename),
	}, nil
}

// storeUpload keeps the submitted photo for the result page. Object
// store trouble degrades to an empty URL.
func (s *Service) storeUpload(ctx context.Context, handle entity.Handle, image []byte, filename string) string {
	if s.uploads == nil {
		return ""
	}
	name := uuid.NewString() + strings.ToLower(path.Ext(filename))
	if err := s.uploads.Put(ctx, handle.String(), name, image, contentTypeFor(filename)); err != nil {
		s.log.Warn("upload store failed", "handle", handle, "error", err)
		return ""
	}
	url, err := s.uploads.URL(ctx, handle.String(), name)
	if err != nil {
		s.log.Warn("upload URL failed", "handle", handle, "error", err)
		return ""
	}
	return url
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}

func displayLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return label
	}
	return strings.ToUpper(label[:1]) + label[1:]
}
