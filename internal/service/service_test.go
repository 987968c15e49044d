package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/lifecycle"
	"github.com/spec-kit/helpdesk-service/internal/locking"
	"github.com/spec-kit/helpdesk-service/internal/query"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/repository/memory"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

type fixture struct {
	repos   repository.Repositories
	tickets *TicketService
	events  *eventLog
	clock   *stepClock
}

type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func (l *eventLog) handle(_ context.Context, e events.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	return nil
}

func (l *eventLog) types() []events.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]events.EventType, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Type)
	}
	return out
}

// stepClock advances one minute per reading.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

type stubSuggester struct {
	steps []string
	got   string
}

func (s *stubSuggester) SuggestResolutionSteps(_ context.Context, q string) ([]string, error) {
	s.got = q
	return s.steps, nil
}

func seedDirectory(t *testing.T, repos repository.Repositories) {
	t.Helper()
	ctx := context.Background()
	for _, p := range []domain.Project{
		{ID: "P1", Name: "Pune Campus", City: "Pune", AssignedHR: []domain.PSN{"700"}},
		{ID: "P2", Name: "Chennai Plant", City: "Chennai", AssignedHR: []domain.PSN{"701"}},
	} {
		p := p
		require.NoError(t, repos.Projects.Save(ctx, &p))
	}
	for _, s := range []domain.Supervisor{
		{PSN: "100", Name: "Imran Khan", FunctionalRole: domain.RoleIS},
		{PSN: "200", Name: "Nisha Menon", FunctionalRole: domain.RoleNS},
		{PSN: "300", Name: "Dev Patel", FunctionalRole: domain.RoleDH},
		{PSN: "900", Name: "Kavya Rao", FunctionalRole: domain.RoleICHead},
	} {
		s := s
		require.NoError(t, repos.Supervisors.Save(ctx, &s))
	}
	for _, h := range []domain.HRMember{
		{PSN: "700", Name: "Anil Joshi", Role: domain.RoleHR, ProjectsHandled: []string{"P1"}},
		{PSN: "701", Name: "Sara Thomas", Role: domain.RoleHR, ProjectsHandled: []string{"P2"}},
		{PSN: "800", Name: "Leela Nair", Role: domain.RoleHeadHR},
	} {
		h := h
		require.NoError(t, repos.HR.Save(ctx, &h))
	}
	for _, e := range []domain.Employee{
		{PSN: "EMP00001", Name: "Asha Rao", ProjectID: "P1", ISPSN: "100", NSPSN: "200", DHPSN: "300"},
		{PSN: "EMP00002", Name: "Vikram Shah", ProjectID: "P2"},
	} {
		e := e
		require.NoError(t, repos.Employees.Save(ctx, &e))
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithRepos(t, memory.New())
}

func newFixtureWithRepos(t *testing.T, repos repository.Repositories) *fixture {
	t.Helper()
	seedDirectory(t, repos)

	log := &eventLog{}
	dispatcher := events.NewInMemoryDispatcher()
	for _, et := range events.AllEventTypes {
		dispatcher.Subscribe(et, log.handle)
	}
	clock := &stepClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	var seq int
	var seqMu sync.Mutex
	svc := NewTicketService(TicketDependencies{
		Repos:          repos,
		Locker:         locking.NewLocalLocker(),
		Dispatcher:     dispatcher,
		StorageTimeout: time.Second,
		Now:            clock.Now,
		NewID: func() string {
			seqMu.Lock()
			defer seqMu.Unlock()
			seq++
			return fmt.Sprintf("TKT%03d", seq)
		},
	})
	return &fixture{repos: repos, tickets: svc, events: log, clock: clock}
}

func (f *fixture) employee(t *testing.T, psn domain.PSN) domain.Actor {
	t.Helper()
	e, err := f.repos.Employees.GetByPSN(context.Background(), psn)
	require.NoError(t, err)
	return domain.EmployeeActor(e)
}

func (f *fixture) hr(t *testing.T, psn domain.PSN) domain.Actor {
	t.Helper()
	h, err := f.repos.HR.GetByPSN(context.Background(), psn)
	require.NoError(t, err)
	return domain.HRActor(h)
}

func (f *fixture) supervisor(t *testing.T, psn domain.PSN) domain.Actor {
	t.Helper()
	s, err := f.repos.Supervisors.GetByPSN(context.Background(), psn)
	require.NoError(t, err)
	return domain.SupervisorActor(s)
}

func (f *fixture) submit(t *testing.T, psn domain.PSN, q string) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.Submit(context.Background(), f.employee(t, psn), lifecycle.SubmitInput{
		Query:    q,
		Priority: domain.TicketPriorityMedium,
	}, nil)
	require.NoError(t, err)
	return ticket
}

func TestSubmitRoutesToDefaultAssignee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	withIS := f.submit(t, "EMP00001", "VPN drops every ten minutes")
	assert.Equal(t, domain.PSN("100"), withIS.CurrentAssigneePSN)
	assert.Equal(t, "P1", withIS.ProjectID)
	assert.Equal(t, 1, withIS.Version)

	withoutIS := f.submit(t, "EMP00002", "Salary slip for February missing")
	assert.Equal(t, domain.PSN("701"), withoutIS.CurrentAssigneePSN)

	history, err := f.repos.History.ListByTicket(ctx, withIS.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.ChangeTypeCreated, history[0].ChangeType)
	assert.Equal(t, []events.EventType{events.EventTicketSubmitted, events.EventTicketSubmitted}, f.events.types())
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tickets.Submit(ctx, f.employee(t, "EMP00001"), lifecycle.SubmitInput{
		Query:    "<b>not too short</b>",
		Priority: domain.TicketPriorityLow,
	}, nil)
	require.NoError(t, err)

	_, err = f.tickets.Submit(ctx, f.employee(t, "EMP00001"), lifecycle.SubmitInput{
		Query:    "<i>123456789</i>",
		Priority: domain.TicketPriorityLow,
	}, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = f.tickets.Submit(ctx, f.hr(t, "700"), lifecycle.SubmitInput{
		Query:    "HR cannot raise tickets here",
		Priority: domain.TicketPriorityLow,
	}, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = f.tickets.Submit(ctx, f.employee(t, "EMP00001"), lifecycle.SubmitInput{
		Query:    "Monitor flickers on startup",
		Priority: domain.TicketPriorityLow,
	}, []AttachmentInput{{FileName: "photo.jpg"}})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestEmployeeToHeadHREscalation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hr := f.hr(t, "701")
	headHR := f.hr(t, "800")

	ticket := f.submit(t, "EMP00002", "Relocation allowance not credited")

	_, err := f.tickets.RecordResponse(ctx, hr, ticket.ID, lifecycle.Response{
		Text:      "Checking with payroll",
		NewStatus: domain.TicketStatusInProgress,
	})
	require.NoError(t, err)

	page, err := f.tickets.ListStaffTickets(ctx, headHR, query.Filter{}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total, "Head HR sees every ticket")

	escalated, err := f.tickets.Escalate(ctx, hr, ticket.ID, "", "payroll exception needs approval")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusEscalated, escalated.Status)
	assert.Equal(t, domain.PSN("800"), escalated.EscalatedToPSN)
	assert.Equal(t, domain.PSN("800"), escalated.CurrentAssigneePSN)
	require.Len(t, escalated.ActionPerformed, 2)
	assert.Equal(t, "Checking with payroll", escalated.ActionPerformed[0].Text)

	page, err = f.tickets.ListStaffTickets(ctx, headHR, query.Filter{Status: string(domain.TicketStatusEscalated)}, 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, ticket.ID, page.Items[0].ID)

	_, err = f.tickets.Escalate(ctx, hr, ticket.ID, "", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "second HR escalation is refused")

	resolved, err := f.tickets.RecordResponse(ctx, headHR, ticket.ID, lifecycle.Response{
		Text:      "Approved",
		NewStatus: domain.TicketStatusResolved,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, resolved.Status)

	stored, history, err := f.tickets.GetTicketForStaff(ctx, headHR, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, stored.ActionPerformed, 3)
	var changeTypes []domain.TicketChangeType
	for _, h := range history {
		changeTypes = append(changeTypes, h.ChangeType)
	}
	assert.Equal(t, []domain.TicketChangeType{
		domain.ChangeTypeCreated,
		domain.ChangeTypeStatus,
		domain.ChangeTypeEscalation,
		domain.ChangeTypeStatus,
		domain.ChangeTypeStatus,
	}, changeTypes)
	assert.Contains(t, f.events.types(), events.EventTicketEscalated)
}

func TestRecordResponseScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.submit(t, "EMP00002", "Laptop charger stopped working")

	_, err := f.tickets.RecordResponse(ctx, f.hr(t, "700"), ticket.ID, lifecycle.Response{Text: "Looking"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = f.tickets.RecordResponse(ctx, f.employee(t, "EMP00002"), ticket.ID, lifecycle.Response{Text: "Looking"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = f.tickets.RecordResponse(ctx, f.hr(t, "701"), "TKT999", lifecycle.Response{Text: "Looking"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestSupervisorEscalationChain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.submit(t, "EMP00001", "Access card blocked at gate 2")

	_, err := f.tickets.Escalate(ctx, f.supervisor(t, "100"), ticket.ID, "300", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeRouting), "IS cannot skip NS")

	got, err := f.tickets.Escalate(ctx, f.supervisor(t, "100"), ticket.ID, "200", "")
	require.NoError(t, err)
	assert.Equal(t, domain.PSN("200"), got.EscalatedToPSN)

	got, err = f.tickets.Escalate(ctx, f.supervisor(t, "200"), ticket.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, domain.PSN("300"), got.EscalatedToPSN)

	_, err = f.tickets.Escalate(ctx, f.supervisor(t, "100"), ticket.ID, "", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "only the holder climbs further")

	got, err = f.tickets.Escalate(ctx, f.supervisor(t, "300"), ticket.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, domain.PSN("900"), got.EscalatedToPSN)

	_, err = f.tickets.Escalate(ctx, f.supervisor(t, "900"), ticket.ID, "", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeRouting))
}

func TestFollowUpAndAttachments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.employee(t, "EMP00002")
	ticket := f.submit(t, "EMP00002", "Desk phone has no dial tone")

	updated, err := f.tickets.AddFollowUp(ctx, owner, ticket.ID, "Also the headset")
	require.NoError(t, err)
	assert.True(t, updated.HasFollowUp)
	assert.Equal(t, "Also the headset", updated.FollowUpQuery)

	_, err = f.tickets.AddFollowUp(ctx, f.employee(t, "EMP00001"), ticket.ID, "me too")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	stored, err := f.tickets.AddAttachments(ctx, owner, ticket.ID, []AttachmentInput{
		{FileName: "phone.jpg", FileType: "image/jpeg", ContentRef: "s3://helpdesk/phone.jpg"},
	})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.NotEmpty(t, stored[0].ID)

	_, err = f.tickets.AddAttachments(ctx, f.employee(t, "EMP00001"), ticket.ID, []AttachmentInput{
		{FileName: "x.txt", ContentRef: "s3://x"},
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	got, err := f.tickets.GetTicketForEmployee(ctx, owner, ticket.ID)
	require.NoError(t, err)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, "phone.jpg", got.Attachments[0].FileName)

	_, err = f.tickets.GetTicketForEmployee(ctx, f.employee(t, "EMP00001"), ticket.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestListTickets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.submit(t, "EMP00001", "Printer on floor 3 jammed")
	second := f.submit(t, "EMP00001", "Need a second monitor")
	f.submit(t, "EMP00002", "Medical claim pending since May")

	mine, err := f.tickets.ListEmployeeTickets(ctx, f.employee(t, "EMP00001"), query.Filter{Search: "monitor"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, second.ID, mine[0].ID)

	page, err := f.tickets.ListStaffTickets(ctx, f.supervisor(t, "100"), query.Filter{Status: query.All}, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "TKT001", page.Items[0].ID)

	page, err = f.tickets.ListStaffTickets(ctx, f.hr(t, "701"), query.Filter{}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	_, err = f.tickets.ListStaffTickets(ctx, f.employee(t, "EMP00001"), query.Filter{}, 1, 20)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestConcurrentResponsesKeepEveryEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hr := f.hr(t, "701")
	ticket := f.submit(t, "EMP00002", "Shift allowance calculation wrong")

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.tickets.RecordResponse(ctx, hr, ticket.ID, lifecycle.Response{Text: fmt.Sprintf("note %d", i)})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := f.repos.Tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, got.ActionPerformed, writers)
	assert.Equal(t, writers+1, got.Version)
	for i, entry := range got.ActionPerformed {
		assert.Equal(t, i+1, entry.Seq)
	}
}

// slowTickets blocks List until the deadline passes.
type slowTickets struct {
	repository.TicketRepository
}

func (slowTickets) List(ctx context.Context) ([]domain.Ticket, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestStorageTimeoutIsUnavailable(t *testing.T) {
	repos := memory.New()
	seedDirectory(t, repos)
	repos.Tickets = slowTickets{repos.Tickets}
	svc := NewTicketService(TicketDependencies{Repos: repos, StorageTimeout: 10 * time.Millisecond})

	h, err := repos.HR.GetByPSN(context.Background(), "800")
	require.NoError(t, err)
	_, err = svc.ListStaffTickets(context.Background(), domain.HRActor(h), query.Filter{}, 1, 20)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeStorageUnavailable))
}

func TestSuggestForTicket(t *testing.T) {
	f := newFixture(t)
	stub := &stubSuggester{steps: []string{"Restart the router"}}
	f.tickets.suggester = stub
	ticket := f.submit(t, "EMP00001", "Wifi keeps disconnecting")

	steps, err := f.tickets.SuggestForTicket(context.Background(), f.supervisor(t, "100"), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Restart the router"}, steps)
	assert.Equal(t, "Wifi keeps disconnecting", stub.got)

	_, err = f.tickets.SuggestForTicket(context.Background(), f.hr(t, "701"), ticket.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	assert.Empty(t, NewTicketService(TicketDependencies{Repos: f.repos}).SuggestForQuery(context.Background(), "anything"))
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.submit(t, "EMP00001", "Printer on floor 3 jammed")
	f.submit(t, "EMP00001", "Need a second monitor")

	_, err := f.tickets.RecordResponse(ctx, f.supervisor(t, "100"), first.ID, lifecycle.Response{NewStatus: domain.TicketStatusInProgress})
	require.NoError(t, err)
	_, err = f.tickets.RecordResponse(ctx, f.supervisor(t, "100"), first.ID, lifecycle.Response{NewStatus: domain.TicketStatusResolved})
	require.NoError(t, err)

	d, err := f.tickets.Dashboard(ctx, f.supervisor(t, "200"))
	require.NoError(t, err)
	assert.Equal(t, []domain.Role{domain.RoleNS}, d.ActingRoles)
	assert.Equal(t, 2, d.Workload.Total)
	assert.Equal(t, 1, d.Workload.Resolved)
	assert.Equal(t, 1, d.Workload.Pending)
}

func TestDirectoryServiceIntegrity(t *testing.T) {
	repos := memory.New()
	seedDirectory(t, repos)
	svc := NewDirectoryService(DirectoryDependencies{Repos: repos, BcryptCost: bcrypt.MinCost, StorageTimeout: time.Second})
	ctx := context.Background()
	admin := domain.AdminActor("1", "admin")

	tests := []struct {
		name string
		in   EmployeeInput
		code string
	}{
		{"bad psn", EmployeeInput{Employee: domain.Employee{PSN: "emp-1", Name: "X"}}, apperrors.CodeValidation},
		{"missing name", EmployeeInput{Employee: domain.Employee{PSN: "EMP00009"}}, apperrors.CodeValidation},
		{"unknown project", EmployeeInput{Employee: domain.Employee{PSN: "EMP00009", Name: "X", ProjectID: "P9"}}, apperrors.CodeValidation},
		{"link to wrong tier", EmployeeInput{Employee: domain.Employee{PSN: "EMP00009", Name: "X", ISPSN: "200"}}, apperrors.CodeValidation},
		{"unknown link", EmployeeInput{Employee: domain.Employee{PSN: "EMP00009", Name: "X", NSPSN: "555"}}, apperrors.CodeValidation},
		{"short password", EmployeeInput{Employee: domain.Employee{PSN: "EMP00009", Name: "X"}, Password: "short"}, apperrors.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SaveEmployee(ctx, admin, tt.in)
			assert.True(t, apperrors.HasCode(err, tt.code), "got %v", err)
		})
	}

	_, err := svc.SaveEmployee(ctx, domain.Actor{PSN: "100", Role: domain.RoleIS}, EmployeeInput{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	saved, err := svc.SaveEmployee(ctx, admin, EmployeeInput{
		Employee: domain.Employee{PSN: "EMP00009", Name: " Ravi Kumar ", ProjectID: "P1", ISPSN: "100"},
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ravi Kumar", saved.Name)
	assert.False(t, saved.CreatedAt.IsZero())
	cred, err := repos.Credentials.GetByPSN(ctx, "EMP00009")
	require.NoError(t, err)
	assert.Equal(t, domain.SubjectKindEmployee, cred.Kind)

	_, err = svc.SaveHR(ctx, admin, HRInput{HRMember: domain.HRMember{PSN: "EMP00009", Name: "Ravi", Role: domain.RoleHR}, Password: "correct-horse"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	_, err = svc.SaveSupervisor(ctx, admin, SupervisorInput{Supervisor: domain.Supervisor{PSN: "400", Name: "Z", FunctionalRole: domain.RoleHR}})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = svc.SaveProject(ctx, admin, domain.Project{ID: "P3", Name: "Delhi", AssignedHR: []domain.PSN{"800"}})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "Head HR is not project HR")

	_, err = svc.SaveProject(ctx, admin, domain.Project{ID: "P3", Name: "Delhi", AssignedHR: []domain.PSN{"700"}})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "700 does not handle P3")

	_, err = svc.SaveProject(ctx, admin, domain.Project{ID: "P3", Name: "Delhi"})
	require.NoError(t, err)
	_, err = svc.SaveHR(ctx, admin, HRInput{HRMember: domain.HRMember{PSN: "700", Name: "Anil Joshi", Role: domain.RoleHR, ProjectsHandled: []string{"P1", "P3"}}})
	require.NoError(t, err)
	_, err = svc.SaveProject(ctx, admin, domain.Project{ID: "P3", Name: "Delhi", AssignedHR: []domain.PSN{"700"}})
	require.NoError(t, err)
	projects, err := svc.ListProjects(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, projects, 3)

	_, err = svc.SaveHR(ctx, admin, HRInput{HRMember: domain.HRMember{PSN: "700", Name: "Anil Joshi", Role: domain.RoleHR, ProjectsHandled: []string{"P1"}}})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "700 is still assigned to P3")
	_, err = svc.SaveHR(ctx, admin, HRInput{HRMember: domain.HRMember{PSN: "700", Name: "Anil Joshi", Role: domain.RoleHeadHR, ProjectsHandled: []string{"P1", "P3"}}})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "project HR cannot become Head HR while assigned")
}

func TestProjectHRAssigneeCanWorkTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// Written straight to storage, so the directory checks are bypassed.
	p3 := domain.Project{ID: "P3", Name: "Delhi", AssignedHR: []domain.PSN{"700"}}
	require.NoError(t, f.repos.Projects.Save(ctx, &p3))
	orphan := domain.Employee{PSN: "EMP00003", Name: "Meera Iyer", ProjectID: "P3"}
	require.NoError(t, f.repos.Employees.Save(ctx, &orphan))

	ticket := f.submit(t, "EMP00003", "Badge access missing for Delhi site")
	require.Equal(t, domain.PSN("700"), ticket.CurrentAssigneePSN)

	hr := f.hr(t, "700")
	queue, err := f.tickets.ListStaffTickets(ctx, hr, query.Filter{}, 1, 20)
	require.NoError(t, err)
	var queued []string
	for _, tk := range queue.Items {
		queued = append(queued, tk.ID)
	}
	assert.Contains(t, queued, ticket.ID)

	_, _, err = f.tickets.GetTicketForStaff(ctx, hr, ticket.ID)
	require.NoError(t, err)
	updated, err := f.tickets.RecordResponse(ctx, hr, ticket.ID, lifecycle.Response{Text: "Raised with facilities", NewStatus: domain.TicketStatusInProgress})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)

	_, err = f.tickets.RecordResponse(ctx, f.hr(t, "701"), ticket.ID, lifecycle.Response{Text: "not mine"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestListSupervisorsComputesCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.submit(t, "EMP00001", "Printer on floor 3 jammed")
	f.submit(t, "EMP00001", "Need a second monitor")
	_, err := f.tickets.RecordResponse(ctx, f.supervisor(t, "100"), first.ID, lifecycle.Response{NewStatus: domain.TicketStatusInProgress})
	require.NoError(t, err)
	_, err = f.tickets.RecordResponse(ctx, f.supervisor(t, "100"), first.ID, lifecycle.Response{NewStatus: domain.TicketStatusResolved})
	require.NoError(t, err)

	svc := NewDirectoryService(DirectoryDependencies{Repos: f.repos})
	supervisors, err := svc.ListSupervisors(ctx, domain.AdminActor("1", "admin"))
	require.NoError(t, err)
	counts := map[domain.PSN][2]int{}
	for _, s := range supervisors {
		counts[s.PSN] = [2]int{s.TicketsResolved, s.TicketsPending}
	}
	assert.Equal(t, [2]int{1, 1}, counts["100"])
	assert.Equal(t, [2]int{1, 1}, counts["900"], "IC Head sees everything")
}

func TestAuthServiceLogin(t *testing.T) {
	ctx := context.Background()
	repos := memory.New()
	seedDirectory(t, repos)
	oldHash, err := auth.HashPassword("asha-secret", bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, repos.Credentials.Save(ctx, &domain.Credential{
		PSN: "EMP00001", Kind: domain.SubjectKindEmployee, PasswordHash: oldHash,
	}))

	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "k", AccessTokenTTLMinutes: 5, BcryptCost: bcrypt.MinCost + 1}}
	svc := NewAuthService(cfg, AuthDependencies{Credentials: repos.Credentials, Resolver: auth.NewDirectoryResolver(repos)})

	_, err = svc.Login(ctx, "EMP00001", "wrong-secret")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	_, err = svc.Login(ctx, "EMP09999", "asha-secret")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	_, err = svc.Login(ctx, "", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	result, err := svc.Login(ctx, " EMP00001 ", "asha-secret")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployee, result.Actor.Role)
	claims, err := svc.Tokens().ParseToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.PSN("EMP00001"), claims.PSN())

	cred, err := repos.Credentials.GetByPSN(ctx, "EMP00001")
	require.NoError(t, err)
	assert.False(t, auth.NeedsRehash(cred.PasswordHash, bcrypt.MinCost+1), "login upgrades the hash cost")

	require.NoError(t, svc.BootstrapAdmin(ctx, "ADM1", "admin-secret"))
	admin, err := svc.Login(ctx, "ADM1", "admin-secret")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Actor.Role)
}

// flakyAttachments accepts okWrites attachments and then fails.
type flakyAttachments struct {
	*memory.AttachmentRepository
	okWrites int
}

func (a *flakyAttachments) Create(ctx context.Context, att *domain.Attachment) error {
	if a.okWrites == 0 {
		return errors.New("disk down")
	}
	a.okWrites--
	return a.AttachmentRepository.Create(ctx, att)
}

func TestSubmitStoresNothingWhenAttachmentWriteFails(t *testing.T) {
	repos := memory.New()
	store := &flakyAttachments{AttachmentRepository: memory.NewAttachmentRepository(), okWrites: 1}
	repos.Attachments = store
	repos.Tickets = memory.NewTicketRepository(store)
	f := newFixtureWithRepos(t, repos)
	ctx := context.Background()

	files := []AttachmentInput{
		{FileName: "screen.png", FileType: "image/png", ContentRef: "blob://1"},
		{FileName: "log.txt", FileType: "text/plain", ContentRef: "blob://2"},
	}
	in := lifecycle.SubmitInput{Query: "Laptop will not boot after update", Priority: domain.TicketPriorityHigh}
	_, err := f.tickets.Submit(ctx, f.employee(t, "EMP00001"), in, files)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeStorageUnavailable), "got %v", err)

	stored, err := repos.Tickets.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
	orphans, err := store.ListByTicket(ctx, "TKT001")
	require.NoError(t, err)
	assert.Empty(t, orphans)
	history, err := repos.History.ListByTicket(ctx, "TKT001")
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Empty(t, f.events.types())

	store.okWrites = len(files)
	ticket, err := f.tickets.Submit(ctx, f.employee(t, "EMP00001"), in, files)
	require.NoError(t, err)
	got, err := repos.Tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, got.Attachments, 2)
	stored, err = repos.Tickets.List(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
	assert.Equal(t, []events.EventType{events.EventTicketSubmitted}, f.events.types())
}
