package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// ActorResolver turns token claims into a directory-backed actor.
type ActorResolver interface {
	Resolve(ctx context.Context, psn domain.PSN, kind domain.SubjectKind) (domain.Actor, error)
}

// DirectoryResolver resolves actors against the directory repositories so
// role changes take effect on the next request.
type DirectoryResolver struct {
	employees   repository.EmployeeRepository
	supervisors repository.SupervisorRepository
	hr          repository.HRRepository
	credentials repository.CredentialRepository
}

// NewDirectoryResolver builds a resolver over repos.
func NewDirectoryResolver(repos repository.Repositories) *DirectoryResolver {
	return &DirectoryResolver{
		employees:   repos.Employees,
		supervisors: repos.Supervisors,
		hr:          repos.HR,
		credentials: repos.Credentials,
	}
}

// Resolve loads the record matching kind.
func (r *DirectoryResolver) Resolve(ctx context.Context, psn domain.PSN, kind domain.SubjectKind) (domain.Actor, error) {
	switch kind {
	case domain.SubjectKindEmployee:
		e, err := r.employees.GetByPSN(ctx, psn)
		if err != nil {
			return domain.Actor{}, notFoundAsUnauthorized(err, "employee")
		}
		return domain.EmployeeActor(e), nil
	case domain.SubjectKindSupervisor:
		s, err := r.supervisors.GetByPSN(ctx, psn)
		if err != nil {
			return domain.Actor{}, notFoundAsUnauthorized(err, "supervisor")
		}
		return domain.SupervisorActor(s), nil
	case domain.SubjectKindHR:
		h, err := r.hr.GetByPSN(ctx, psn)
		if err != nil {
			return domain.Actor{}, notFoundAsUnauthorized(err, "hr member")
		}
		return domain.HRActor(h), nil
	case domain.SubjectKindAdmin:
		c, err := r.credentials.GetByPSN(ctx, psn)
		if err != nil {
			return domain.Actor{}, notFoundAsUnauthorized(err, "admin")
		}
		if c.Kind != domain.SubjectKindAdmin {
			return domain.Actor{}, apperrors.NewUnauthorized("admin not found")
		}
		return domain.AdminActor(psn, string(psn)), nil
	default:
		return domain.Actor{}, apperrors.NewUnauthorized("unknown subject")
	}
}

func notFoundAsUnauthorized(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NewUnauthorized(what + " not found")
	}
	return apperrors.StorageError(what, err)
}
