package controller_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"skilllink/models"
)

func TestMilestoneWorkerStatusGating(t *testing.T) {
	app, database := newTestApp(t)
	employer := createEmployer(t, database, "ms-employer@example.com")
	worker := createWorker(t, database, "ms-worker@example.com")
	project := createProject(t, database, employer.ID, worker.ID, models.ProjectStatusActive)

	milestone := models.Milestone{
		ProjectID: project.ID,
		Title:     "Demolition",
		Status:    models.MilestoneStatusNotStarted,
	}
	if err := database.Create(&milestone).Error; err != nil {
		t.Fatalf("create milestone: %v", err)
	}
	workerToken := bearerToken(t, worker)
	path := fmt.Sprintf("/api/projects/%d/milestones/%d", project.ID, milestone.ID)

	inProgress := doJSON(t, app, http.MethodPatch, path, workerToken,
		map[string]interface{}{"status": "in_progress"})
	if inProgress.StatusCode != http.StatusOK {
		t.Fatalf("worker must be able to start a milestone, got %d", inProgress.StatusCode)
	}

	approved := doJSON(t, app, http.MethodPatch, path, workerToken,
		map[string]interface{}{"status": "approved"})
	if approved.StatusCode != http.StatusForbidden {
		t.Fatalf("worker must not approve milestones, got %d", approved.StatusCode)
	}

	retitle := doJSON(t, app, http.MethodPatch, path, workerToken,
		map[string]interface{}{"title": "Renamed"})
	if retitle.StatusCode != http.StatusForbidden {
		t.Fatalf("worker must not edit milestone details, got %d", retitle.StatusCode)
	}

	ownerApproval := doJSON(t, app, http.MethodPatch, path, bearerToken(t, employer),
		map[string]interface{}{"status": "approved"})
	if ownerApproval.StatusCode != http.StatusOK {
		t.Fatalf("owner approval failed with status %d", ownerApproval.StatusCode)
	}

	var reloaded models.Milestone
	if err := database.First(&reloaded, milestone.ID).Error; err != nil {
		t.Fatalf("reload milestone: %v", err)
	}
	if reloaded.Status != models.MilestoneStatusApproved {
		t.Fatalf("expected approved milestone, got %q", reloaded.Status)
	}
}

func TestProjectMessagesAppendAndNotify(t *testing.T) {
	app, database := newTestApp(t)
	employer := createEmployer(t, database, "msg-employer@example.com")
	worker := createWorker(t, database, "msg-worker@example.com")
	outsider := createWorker(t, database, "msg-outsider@example.com")
	project := createProject(t, database, employer.ID, worker.ID, models.ProjectStatusActive)
	path := fmt.Sprintf("/api/projects/%d/messages", project.ID)

	post := doJSON(t, app, http.MethodPost, path, bearerToken(t, worker),
		map[string]interface{}{"text": "Started on the tiling today"})
	if post.StatusCode != http.StatusCreated {
		t.Fatalf("post message failed with status %d", post.StatusCode)
	}

	var notification models.Notification
	if err := database.Where("user_id = ?", employer.ID).First(&notification).Error; err != nil {
		t.Fatalf("expected the employer to be notified: %v", err)
	}

	list := doJSON(t, app, http.MethodGet, path, bearerToken(t, employer), nil)
	if list.StatusCode != http.StatusOK {
		t.Fatalf("list messages failed with status %d", list.StatusCode)
	}
	body := decodeBody(t, list)
	messages, ok := body["messages"].([]interface{})
	if !ok || len(messages) != 1 {
		t.Fatalf("expected one message, got %v", body["messages"])
	}

	forbidden := doJSON(t, app, http.MethodGet, path, bearerToken(t, outsider), nil)
	if forbidden.StatusCode != http.StatusForbidden {
		t.Fatalf("expected status 403 for non-participants, got %d", forbidden.StatusCode)
	}
}

func TestDeadlineExtensionApprovalFlow(t *testing.T) {
	app, database := newTestApp(t)
	employer := createEmployer(t, database, "dl-employer@example.com")
	worker := createWorker(t, database, "dl-worker@example.com")
	project := createProject(t, database, employer.ID, worker.ID, models.ProjectStatusActive)

	proposed := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	request := doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/projects/%d/request-deadline-extension", project.ID),
		bearerToken(t, worker),
		map[string]interface{}{
			"proposed_deadline": proposed.Format(time.RFC3339),
			"reason":            "Material delivery slipped a week",
		})
	if request.StatusCode != http.StatusCreated {
		t.Fatalf("request extension failed with status %d", request.StatusCode)
	}

	// The request alone must not move the deadline
	var unchanged models.Project
	if err := database.First(&unchanged, project.ID).Error; err != nil {
		t.Fatalf("reload project: %v", err)
	}
	if unchanged.Deadline != nil {
		t.Fatalf("deadline must not move before approval")
	}

	var requestEvent models.ProjectEvent
	if err := database.Where("project_id = ? AND type = ?", project.ID, models.EventDeadlineRequested).
		First(&requestEvent).Error; err != nil {
		t.Fatalf("load request event: %v", err)
	}

	approve := doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/projects/%d/approve-deadline-extension/%d", project.ID, requestEvent.ID),
		bearerToken(t, employer), nil)
	if approve.StatusCode != http.StatusOK {
		t.Fatalf("approve extension failed with status %d", approve.StatusCode)
	}

	var updated models.Project
	if err := database.First(&updated, project.ID).Error; err != nil {
		t.Fatalf("reload project: %v", err)
	}
	if updated.Deadline == nil || !updated.Deadline.Equal(proposed) {
		t.Fatalf("expected deadline %v, got %v", proposed, updated.Deadline)
	}

	var approval models.ProjectEvent
	if err := database.Where("project_id = ? AND type = ?", project.ID, models.EventDeadlineApproved).
		First(&approval).Error; err != nil {
		t.Fatalf("load approval event: %v", err)
	}
	if approval.RefEventID == nil || *approval.RefEventID != requestEvent.ID {
		t.Fatalf("approval must reference the request event")
	}

	again := doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/projects/%d/approve-deadline-extension/%d", project.ID, requestEvent.ID),
		bearerToken(t, employer), nil)
	if again.StatusCode != http.StatusConflict {
		t.Fatalf("expected second approval to return 409, got %d", again.StatusCode)
	}
}

func TestCompletingProjectDeactivatesLinkedJob(t *testing.T) {
	app, database := newTestApp(t)
	employer := createEmployer(t, database, "done-employer@example.com")
	worker := createWorker(t, database, "done-worker@example.com")
	job := createJob(t, database, employer.ID, "Fence repair")

	project := models.Project{
		Title:        job.Title,
		Budget:       500,
		Currency:     "NGN",
		CreatedByID:  employer.ID,
		AssignedToID: &worker.ID,
		JobID:        &job.ID,
		Status:       models.ProjectStatusActive,
	}
	if err := database.Create(&project).Error; err != nil {
		t.Fatalf("create project: %v", err)
	}

	application := models.Invite{
		EmployerID: employer.ID,
		WorkerID:   worker.ID,
		JobID:      job.ID,
		Type:       models.InviteTypeApplication,
		Status:     models.InviteStatusApplied,
	}
	if err := database.Create(&application).Error; err != nil {
		t.Fatalf("create application: %v", err)
	}

	patch := doJSON(t, app, http.MethodPatch,
		fmt.Sprintf("/api/projects/%d", project.ID), bearerToken(t, employer),
		map[string]interface{}{"status": "completed"})
	if patch.StatusCode != http.StatusOK {
		t.Fatalf("complete project failed with status %d", patch.StatusCode)
	}

	var reloadedJob models.Job
	if err := database.First(&reloadedJob, job.ID).Error; err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if reloadedJob.IsActive {
		t.Fatalf("completing the project must deactivate the linked job")
	}

	var reloadedApplication models.Invite
	if err := database.First(&reloadedApplication, application.ID).Error; err != nil {
		t.Fatalf("reload application: %v", err)
	}
	if reloadedApplication.Status != models.InviteStatusApproved {
		t.Fatalf("expected open application to be closed out, got %q", reloadedApplication.Status)
	}
}

func TestUpdateProjectCreatorOnly(t *testing.T) {
	app, database := newTestApp(t)
	employer := createEmployer(t, database, "patch-employer@example.com")
	worker := createWorker(t, database, "patch-worker@example.com")
	project := createProject(t, database, employer.ID, worker.ID, models.ProjectStatusActive)

	response := doJSON(t, app, http.MethodPatch,
		fmt.Sprintf("/api/projects/%d", project.ID), bearerToken(t, worker),
		map[string]interface{}{"title": "Hijacked"})
	if response.StatusCode != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", response.StatusCode)
	}
}

func TestRequestPaymentAssigneeOnly(t *testing.T) {
	app, database := newTestApp(t)
	employer := createEmployer(t, database, "rp-employer@example.com")
	worker := createWorker(t, database, "rp-worker@example.com")
	project := createProject(t, database, employer.ID, worker.ID, models.ProjectStatusActive)

	response := doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/projects/%d/request-payment", project.ID),
		bearerToken(t, employer),
		map[string]interface{}{"amount": 100})
	if response.StatusCode != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", response.StatusCode)
	}
}
