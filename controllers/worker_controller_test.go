package controller_test

import (
	"fmt"
	"net/http"
	"testing"

	"skilllink/models"
)

func TestWorkerSearchFiltersAndSorts(t *testing.T) {
	app, database := newTestApp(t)

	plumber := createWorker(t, database, "plumber@example.com")
	plumber.SkilledWorker = models.WorkerProfile{
		ProfessionalTitle: "Master Plumber",
		PrimarySkills:     []string{"plumbing", "piping"},
		Location:          "Lagos",
		HourlyRate:        50,
		Availability:      "full-time",
		Rating:            4.8,
	}
	if err := database.Save(plumber).Error; err != nil {
		t.Fatalf("save plumber: %v", err)
	}

	electrician := createWorker(t, database, "electrician@example.com")
	electrician.SkilledWorker = models.WorkerProfile{
		ProfessionalTitle: "Electrician",
		PrimarySkills:     []string{"wiring"},
		Location:          "Abuja",
		HourlyRate:        80,
		Availability:      "part-time",
		Rating:            3.5,
	}
	if err := database.Save(electrician).Error; err != nil {
		t.Fatalf("save electrician: %v", err)
	}

	response := doJSON(t, app, http.MethodGet, "/api/workers/?skills=plumbing", "", nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("search failed with status %d", response.StatusCode)
	}
	body := decodeBody(t, response)
	workers := body["workers"].([]interface{})
	if len(workers) != 1 {
		t.Fatalf("expected one plumbing result, got %d", len(workers))
	}

	all := doJSON(t, app, http.MethodGet, "/api/workers/", "", nil)
	allBody := decodeBody(t, all)
	allWorkers := allBody["workers"].([]interface{})
	if len(allWorkers) != 2 {
		t.Fatalf("expected two results, got %d", len(allWorkers))
	}
	first := allWorkers[0].(map[string]interface{})
	if first["email"] != "plumber@example.com" {
		t.Fatalf("expected rating sort to put the plumber first, got %v", first["email"])
	}
}

func TestWorkerSearchExcludesInactiveAndEmployers(t *testing.T) {
	app, database := newTestApp(t)
	createEmployer(t, database, "employer-hidden@example.com")
	inactive := createWorker(t, database, "inactive-hidden@example.com")
	if err := database.Model(inactive).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate worker: %v", err)
	}
	createWorker(t, database, "visible@example.com")

	response := doJSON(t, app, http.MethodGet, "/api/workers/", "", nil)
	body := decodeBody(t, response)
	workers := body["workers"].([]interface{})
	if len(workers) != 1 {
		t.Fatalf("expected only the active worker, got %d results", len(workers))
	}
}

func TestGetWorkerHidesInactiveProfiles(t *testing.T) {
	app, database := newTestApp(t)
	worker := createWorker(t, database, "profile@example.com")
	inactive := createWorker(t, database, "gone@example.com")
	if err := database.Model(inactive).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate worker: %v", err)
	}

	ok := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/workers/%d", worker.ID), "", nil)
	if ok.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200 for active worker, got %d", ok.StatusCode)
	}

	hidden := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/workers/%d", inactive.ID), "", nil)
	if hidden.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404 for inactive worker, got %d", hidden.StatusCode)
	}
}

func TestWorkersMetaCollectsVocabulary(t *testing.T) {
	app, database := newTestApp(t)

	worker := createWorker(t, database, "meta@example.com")
	worker.SkilledWorker = models.WorkerProfile{
		PrimarySkills: []string{"carpentry", "roofing"},
		Location:      "Ibadan",
		HourlyRate:    30,
		Availability:  "weekends",
	}
	if err := database.Save(worker).Error; err != nil {
		t.Fatalf("save worker: %v", err)
	}

	response := doJSON(t, app, http.MethodGet, "/api/workers/meta", "", nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("meta failed with status %d", response.StatusCode)
	}
	body := decodeBody(t, response)

	skills := body["skills"].([]interface{})
	if len(skills) != 2 {
		t.Fatalf("expected two distinct skills, got %v", skills)
	}
	locations := body["locations"].([]interface{})
	if len(locations) != 1 || locations[0] != "Ibadan" {
		t.Fatalf("expected Ibadan in locations, got %v", locations)
	}
}

func TestWorkerDashboardCountsProjects(t *testing.T) {
	app, database := newTestApp(t)
	employer := createEmployer(t, database, "dash-emp@example.com")
	worker := createWorker(t, database, "dash-wrk@example.com")
	createProject(t, database, employer.ID, worker.ID, models.ProjectStatusActive)
	createProject(t, database, employer.ID, worker.ID, models.ProjectStatusCompleted)
	createProject(t, database, employer.ID, worker.ID, models.ProjectStatusCompleted)

	response := doJSON(t, app, http.MethodGet, "/api/workers/dashboard",
		bearerToken(t, worker), nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("dashboard failed with status %d", response.StatusCode)
	}
	body := decodeBody(t, response)
	if active := body["active_projects"].(float64); active != 1 {
		t.Fatalf("expected 1 active project, got %v", active)
	}
	if completed := body["completed_projects"].(float64); completed != 2 {
		t.Fatalf("expected 2 completed projects, got %v", completed)
	}
}

func TestWorkerInvitationRoutesShareInviteSemantics(t *testing.T) {
	app, database := newTestApp(t)
	employer := createEmployer(t, database, "alias-emp@example.com")
	worker := createWorker(t, database, "alias-wrk@example.com")
	job := createJob(t, database, employer.ID, "Hang doors")

	invite := models.Invite{
		EmployerID: employer.ID,
		WorkerID:   worker.ID,
		JobID:      job.ID,
		Type:       models.InviteTypeInvite,
		Status:     models.InviteStatusPending,
	}
	if err := database.Create(&invite).Error; err != nil {
		t.Fatalf("create invite: %v", err)
	}

	response := doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/workers/invitations/%d/accept", invite.ID),
		bearerToken(t, worker), nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("accept via worker route failed with status %d", response.StatusCode)
	}

	var project models.Project
	if err := database.Where("job_id = ?", job.ID).First(&project).Error; err != nil {
		t.Fatalf("expected a project from the worker route too: %v", err)
	}
}
