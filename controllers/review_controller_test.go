package controller_test

import (
	"fmt"
	"net/http"
	"testing"

	"skilllink/models"
)

func TestReviewRequiresCompletedProject(t *testing.T) {
	app, database := newTestApp(t)
	employer := createEmployer(t, database, "rv-employer@example.com")
	worker := createWorker(t, database, "rv-worker@example.com")
	project := createProject(t, database, employer.ID, worker.ID, models.ProjectStatusActive)

	response := doJSON(t, app, http.MethodPost, "/api/reviews/", bearerToken(t, employer),
		map[string]interface{}{"project_id": project.ID, "rating": 5})
	if response.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400 for active project, got %d", response.StatusCode)
	}
}

func TestReviewTargetsOtherParticipant(t *testing.T) {
	app, database := newTestApp(t)
	employer := createEmployer(t, database, "rv-employer2@example.com")
	worker := createWorker(t, database, "rv-worker2@example.com")
	project := createProject(t, database, employer.ID, worker.ID, models.ProjectStatusCompleted)

	response := doJSON(t, app, http.MethodPost, "/api/reviews/", bearerToken(t, employer),
		map[string]interface{}{
			"project_id":      project.ID,
			"rating":          4,
			"public_feedback": "Reliable and tidy work",
		})
	if response.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", response.StatusCode)
	}

	var review models.Review
	if err := database.Where("project_id = ?", project.ID).First(&review).Error; err != nil {
		t.Fatalf("load review: %v", err)
	}
	if review.ReviewerID != employer.ID || review.RevieweeID != worker.ID {
		t.Fatalf("reviewee must be the other participant, got reviewer=%d reviewee=%d",
			review.ReviewerID, review.RevieweeID)
	}
}

func TestDuplicateReviewIsRejected(t *testing.T) {
	app, database := newTestApp(t)
	employer := createEmployer(t, database, "rv-employer3@example.com")
	worker := createWorker(t, database, "rv-worker3@example.com")
	project := createProject(t, database, employer.ID, worker.ID, models.ProjectStatusCompleted)
	token := bearerToken(t, employer)

	first := doJSON(t, app, http.MethodPost, "/api/reviews/", token,
		map[string]interface{}{"project_id": project.ID, "rating": 5})
	if first.StatusCode != http.StatusCreated {
		t.Fatalf("first review failed with status %d", first.StatusCode)
	}

	second := doJSON(t, app, http.MethodPost, "/api/reviews/", token,
		map[string]interface{}{"project_id": project.ID, "rating": 1})
	if second.StatusCode != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", second.StatusCode)
	}
}

func TestReviewFromNonParticipantIsRejected(t *testing.T) {
	app, database := newTestApp(t)
	employer := createEmployer(t, database, "rv-employer4@example.com")
	worker := createWorker(t, database, "rv-worker4@example.com")
	outsider := createWorker(t, database, "rv-outsider4@example.com")
	project := createProject(t, database, employer.ID, worker.ID, models.ProjectStatusCompleted)

	response := doJSON(t, app, http.MethodPost, "/api/reviews/", bearerToken(t, outsider),
		map[string]interface{}{"project_id": project.ID, "rating": 3})
	if response.StatusCode != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", response.StatusCode)
	}
}

func TestPublicReviewListingAggregatesRating(t *testing.T) {
	app, database := newTestApp(t)
	employer := createEmployer(t, database, "rv-employer5@example.com")
	worker := createWorker(t, database, "rv-worker5@example.com")

	for i, rating := range []int{5, 3} {
		project := createProject(t, database, employer.ID, worker.ID, models.ProjectStatusCompleted)
		review := models.Review{
			ProjectID:  project.ID,
			ReviewerID: employer.ID,
			RevieweeID: worker.ID,
			Rating:     rating,
		}
		if err := database.Create(&review).Error; err != nil {
			t.Fatalf("seed review %d: %v", i, err)
		}
	}

	response := doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/api/reviews/worker/%d", worker.ID), "", nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", response.StatusCode)
	}

	body := decodeBody(t, response)
	if avg := body["average_rating"].(float64); avg != 4 {
		t.Fatalf("expected average rating 4, got %v", avg)
	}
	if count := body["review_count"].(float64); count != 2 {
		t.Fatalf("expected review count 2, got %v", count)
	}
}

func TestReviewUpdatesWorkerProfileRating(t *testing.T) {
	app, database := newTestApp(t)
	employer := createEmployer(t, database, "rv-employer6@example.com")
	worker := createWorker(t, database, "rv-worker6@example.com")
	project := createProject(t, database, employer.ID, worker.ID, models.ProjectStatusCompleted)

	response := doJSON(t, app, http.MethodPost, "/api/reviews/", bearerToken(t, employer),
		map[string]interface{}{"project_id": project.ID, "rating": 4})
	if response.StatusCode != http.StatusCreated {
		t.Fatalf("review failed with status %d", response.StatusCode)
	}

	var reloaded models.User
	if err := database.First(&reloaded, worker.ID).Error; err != nil {
		t.Fatalf("reload worker: %v", err)
	}
	if reloaded.SkilledWorker.Rating != 4 {
		t.Fatalf("expected profile rating 4, got %v", reloaded.SkilledWorker.Rating)
	}
}
