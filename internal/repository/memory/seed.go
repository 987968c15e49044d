package memory

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// Seed is the on-disk shape of a directory seed file.
type Seed struct {
	Projects []struct {
		ID         string   `yaml:"id"`
		Name       string   `yaml:"name"`
		City       string   `yaml:"city"`
		AssignedHR []string `yaml:"assigned_hr"`
	} `yaml:"projects"`
	Supervisors []struct {
		PSN             string   `yaml:"psn"`
		Name            string   `yaml:"name"`
		Title           string   `yaml:"title"`
		FunctionalRole  string   `yaml:"functional_role"`
		BranchProjectID string   `yaml:"branch_project_id"`
		CityAccess      []string `yaml:"city_access"`
		Password        string   `yaml:"password"`
	} `yaml:"supervisors"`
	HR []struct {
		PSN             string   `yaml:"psn"`
		Name            string   `yaml:"name"`
		Role            string   `yaml:"role"`
		ProjectsHandled []string `yaml:"projects_handled"`
		Password        string   `yaml:"password"`
	} `yaml:"hr"`
	Employees []struct {
		PSN       string `yaml:"psn"`
		Name      string `yaml:"name"`
		Grade     string `yaml:"grade"`
		JobCode   string `yaml:"job_code"`
		ProjectID string `yaml:"project_id"`
		ISPSN     string `yaml:"is_psn"`
		NSPSN     string `yaml:"ns_psn"`
		DHPSN     string `yaml:"dh_psn"`
		Password  string `yaml:"password"`
	} `yaml:"employees"`
}

// LoadSeedFile parses a YAML directory seed.
func LoadSeedFile(path string) (*Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return &seed, nil
}

// Apply writes the seed into repos. Entries with a password also get a
// credential hashed at cost.
func (s *Seed) Apply(ctx context.Context, repos repository.Repositories, cost int) error {
	for _, p := range s.Projects {
		project := domain.Project{ID: p.ID, Name: p.Name, City: p.City}
		for _, psn := range p.AssignedHR {
			project.AssignedHR = append(project.AssignedHR, domain.PSN(psn))
		}
		if err := repos.Projects.Save(ctx, &project); err != nil {
			return fmt.Errorf("seed project %s: %w", p.ID, err)
		}
	}
	for _, sv := range s.Supervisors {
		supervisor := domain.Supervisor{
			PSN:             domain.PSN(sv.PSN),
			Name:            sv.Name,
			Title:           sv.Title,
			FunctionalRole:  domain.Role(sv.FunctionalRole),
			BranchProjectID: sv.BranchProjectID,
			CityAccess:      sv.CityAccess,
		}
		if err := repos.Supervisors.Save(ctx, &supervisor); err != nil {
			return fmt.Errorf("seed supervisor %s: %w", sv.PSN, err)
		}
		if err := seedCredential(ctx, repos, supervisor.PSN, domain.SubjectKindSupervisor, sv.Password, cost); err != nil {
			return err
		}
	}
	for _, h := range s.HR {
		member := domain.HRMember{
			PSN:             domain.PSN(h.PSN),
			Name:            h.Name,
			Role:            domain.Role(h.Role),
			ProjectsHandled: h.ProjectsHandled,
		}
		if err := repos.HR.Save(ctx, &member); err != nil {
			return fmt.Errorf("seed hr %s: %w", h.PSN, err)
		}
		if err := seedCredential(ctx, repos, member.PSN, domain.SubjectKindHR, h.Password, cost); err != nil {
			return err
		}
	}
	for _, e := range s.Employees {
		employee := domain.Employee{
			PSN:       domain.PSN(e.PSN),
			Name:      e.Name,
			Grade:     e.Grade,
			JobCode:   e.JobCode,
			ProjectID: e.ProjectID,
			ISPSN:     domain.PSN(e.ISPSN),
			NSPSN:     domain.PSN(e.NSPSN),
			DHPSN:     domain.PSN(e.DHPSN),
		}
		if err := repos.Employees.Save(ctx, &employee); err != nil {
			return fmt.Errorf("seed employee %s: %w", e.PSN, err)
		}
		if err := seedCredential(ctx, repos, employee.PSN, domain.SubjectKindEmployee, e.Password, cost); err != nil {
			return err
		}
	}
	return nil
}

func seedCredential(ctx context.Context, repos repository.Repositories, psn domain.PSN, kind domain.SubjectKind, password string, cost int) error {
	if password == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return fmt.Errorf("hash seed password for %s: %w", psn, err)
	}
	cred := domain.Credential{PSN: psn, Kind: kind, PasswordHash: string(hash)}
	if err := repos.Credentials.Save(ctx, &cred); err != nil {
		return fmt.Errorf("seed credential %s: %w", psn, err)
	}
	return nil
}
