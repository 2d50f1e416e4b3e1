package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/RezaEskandarii/gohire/internal/store"
	"github.com/RezaEskandarii/gohire/types"
	"golang.org/x/crypto/bcrypt"
)

type RecruitmentStore struct {
	mu           sync.RWMutex
	employers    map[int64]types.Employer
	applications map[int64]*types.Application
	order        []int64
	jobs         map[int64]string // job id -> status
	nextID       int64
}

func NewRecruitmentStore() *RecruitmentStore {
	return &RecruitmentStore{
		employers:    make(map[int64]types.Employer),
		applications: make(map[int64]*types.Application),
		jobs:         make(map[int64]string),
	}
}

var _ store.RecruitmentStore = (*RecruitmentStore)(nil)

// AddEmployer seeds an employer under its own id.
func (s *RecruitmentStore) AddEmployer(e types.Employer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employers[e.ID] = e
}

func (s *RecruitmentStore) FindEmployer(_ context.Context, id int64) (*types.Employer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.employers[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// AddApplication seeds an application and its job, returning the application id.
func (s *RecruitmentStore) AddApplication(a types.Application) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	a.ID = s.nextID
	if a.Status == "" {
		a.Status = "applied"
	}
	s.applications[a.ID] = &a
	s.order = append(s.order, a.ID)
	if _, ok := s.jobs[a.JobID]; !ok {
		s.jobs[a.JobID] = "open"
	}
	return a.ID
}

func (s *RecruitmentStore) AddJob(jobID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[jobID] = "open"
}

func (s *RecruitmentStore) JobStatus(jobID int64) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jobs[jobID]
}

// FindApplications keeps the order of candidateIDs. Each application is returned once.
func (s *RecruitmentStore) FindApplications(_ context.Context, employerID, jobID int64, candidateIDs []int64) ([]types.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var apps []types.Application
	seen := make(map[int64]bool, len(candidateIDs))
	for _, candidateID := range candidateIDs {
		if seen[candidateID] {
			continue
		}
		seen[candidateID] = true
		for _, id := range s.order {
			a := s.applications[id]
			if a.EmployerID == employerID && a.CandidateID == candidateID && (jobID == 0 || a.JobID == jobID) {
				apps = append(apps, *a)
			}
		}
	}
	return apps, nil
}

func (s *RecruitmentStore) FindApplication(_ context.Context, id int64) (*types.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.applications[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (s *RecruitmentStore) UpdateApplicationStatus(_ context.Context, id int64, status string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.applications[id]
	if !ok {
		return false, nil
	}
	a.Status = status
	return true, nil
}

func (s *RecruitmentStore) CloseJob(_ context.Context, jobID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, ok := s.jobs[jobID]
	if !ok || status == "closed" {
		return false, nil
	}
	s.jobs[jobID] = "closed"
	return true, nil
}

type UserStore struct {
	mu     sync.RWMutex
	users  map[string]*types.User
	nextID int64
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*types.User)}
}

var _ store.UserStore = (*UserStore)(nil)

func (s *UserStore) Create(_ context.Context, username, password string) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.users[username]; ok {
		existing.Password = string(hash)
		return existing.ID, nil
	}
	s.nextID++
	s.users[username] = &types.User{ID: s.nextID, Username: username, Password: string(hash)}
	return s.nextID, nil
}

func (s *UserStore) Find(_ context.Context, username, password string) (*types.User, error) {
	s.mu.RLock()
	u, ok := s.users[username]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, errors.New("invalid credentials")
	}
	return &types.User{ID: u.ID, Username: u.Username}, nil
}

func (s *UserStore) FindByUsername(_ context.Context, username string) (*types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return nil, nil
	}
	return &types.User{ID: u.ID, Username: u.Username}, nil
}

func (s *UserStore) Delete(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; !ok {
		return errors.New("no user found to delete")
	}
	delete(s.users, username)
	return nil
}
