package controllers

import (
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"petopia-api/apperror"
	"petopia-api/services"

	"github.com/sirupsen/logrus"
)

// FeedbackController accepts feedback from the site's form or from API clients
type FeedbackController struct {
	base
	feedback *services.FeedbackService
	redirect string
}

// NewFeedbackController creates a FeedbackController; form posts are redirected to redirect on success
func NewFeedbackController(feedback *services.FeedbackService, redirect string, log *logrus.Logger, timeout time.Duration) *FeedbackController {
	return &FeedbackController{base: newBase(log, timeout), feedback: feedback, redirect: redirect}
}

func mediaType(r *http.Request) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}

func isJSON(r *http.Request) bool {
	return mediaType(r) == "application/json"
}

func parseForm(r *http.Request) error {
	if mediaType(r) != "multipart/form-data" {
		return r.ParseForm()
	}
	if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
		return err
	}
	return r.MultipartForm.RemoveAll()
}

func (fc *FeedbackController) readForm(w http.ResponseWriter, r *http.Request) (services.FeedbackInput, error) {
	var in services.FeedbackInput
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := parseForm(r); err != nil {
		return in, apperror.BadRequest("Invalid input")
	}
	in.Name = r.PostFormValue("name")
	in.Email = r.PostFormValue("email")
	in.Feedback = r.PostFormValue("feedback")
	if raw := strings.TrimSpace(r.PostFormValue("rating")); raw != "" {
		rating, err := strconv.Atoi(raw)
		if err != nil {
			return in, apperror.BadRequest("rating must be a number")
		}
		in.Rating = rating
	}
	return in, nil
}

// SubmitFeedback stores the feedback and sends the notification emails.
// JSON callers get 201, form posts are redirected back to the site.
func (fc *FeedbackController) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var (
		in  services.FeedbackInput
		err error
	)
	jsonBody := isJSON(r)
	if jsonBody {
		err = decode(w, r, &in)
	} else {
		in, err = fc.readForm(w, r)
	}
	if err != nil {
		fc.fail(w, r, err)
		return
	}

	ctx, cancel := fc.requestContext(r)
	defer cancel()
	if _, err := fc.feedback.Submit(ctx, in); err != nil {
		fc.fail(w, r, err)
		return
	}

	if !jsonBody && fc.redirect != "" {
		http.Redirect(w, r, fc.redirect, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Feedback submitted successfully"})
}
