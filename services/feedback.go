package services

import (
	"context"
	"strconv"
	"strings"

	"petopia-api/apperror"
	"petopia-api/metrics"
	"petopia-api/models"
	"petopia-api/store"
	"petopia-api/utils"

	"github.com/sirupsen/logrus"
)

// FeedbackInput is a feedback form submission
type FeedbackInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Feedback string `json:"feedback" validate:"required"`
	Rating   int    `json:"rating" validate:"min=1,max=5"`
}

type feedbackEvent struct {
	FeedbackID string `json:"feedbackId"`
	Rating     int    `json:"rating"`
}

// FeedbackService stores feedback and notifies the shop and the submitter
type FeedbackService struct {
	clock
	feedback store.Feedbacks
	emails   *utils.EmailService
	events   utils.EventPublisher
	log      *logrus.Logger
}

func NewFeedbackService(feedback store.Feedbacks, emails *utils.EmailService, events utils.EventPublisher, log *logrus.Logger) *FeedbackService {
	return &FeedbackService{feedback: feedback, emails: emails, events: events, log: log}
}

// Submit stores the feedback, then sends the admin notification and the
// thank-you mail. A mail failure is reported after the feedback is stored.
func (s *FeedbackService) Submit(ctx context.Context, in FeedbackInput) (*models.Feedback, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Feedback = strings.TrimSpace(in.Feedback)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	fb := &models.Feedback{
		Name:        in.Name,
		Email:       in.Email,
		Feedback:    in.Feedback,
		Rating:      in.Rating,
		SubmittedAt: s.Now(),
	}
	if err := s.feedback.CreateFeedback(ctx, fb); err != nil {
		return nil, apperror.Internal("Error saving feedback", err)
	}
	metrics.FeedbackSubmitted.WithLabelValues(strconv.Itoa(fb.Rating)).Inc()
	if err := s.events.Publish(ctx, utils.SubjectFeedbackSubmitted, feedbackEvent{FeedbackID: fb.ID.Hex(), Rating: fb.Rating}); err != nil {
		s.log.WithError(err).Warn("event publish failed")
	}

	if err := s.emails.SendFeedbackToAdmin(ctx, fb); err != nil {
		return fb, apperror.Internal("Error sending feedback email", err)
	}
	if err := s.emails.SendFeedbackThanks(ctx, fb); err != nil {
		return fb, apperror.Internal("Error sending feedback email", err)
	}
	return fb, nil
}
