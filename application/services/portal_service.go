package services

import (
	"context"
	"sync"
	"time"

	"eternals-backend/application/ports"
	"eternals-backend/domain/core/entities"
	"eternals-backend/domain/core/valueobjects"
	"eternals-backend/domain/events"
	"eternals-backend/pkg/auth"
	pkgerrors "eternals-backend/pkg/errors"

	"go.uber.org/zap"
)

// CreateProjectInput carries a new project request
type CreateProjectInput struct {
	Title       string
	Description string
	ClientID    string
	DueDate     *time.Time
}

// CreateInvoiceInput carries a new invoice request
type CreateInvoiceInput struct {
	ProjectID   string
	Amount      valueobjects.Money
	Description string
	DueDate     *time.Time
}

// PortalService serves the client portal: projects, their invoices and the
// message thread on each project.
type PortalService struct {
	projects  ports.ProjectRepository
	invoices  ports.InvoiceRepository
	messages  ports.MessageRepository
	users     ports.UserRepository
	publisher ports.EventPublisher
	logger    *zap.Logger

	// billing guards the read-check-save of a project's invoice lock
	billing sync.Mutex
}

// NewPortalService creates a new portal service
func NewPortalService(
	projects ports.ProjectRepository,
	invoices ports.InvoiceRepository,
	messages ports.MessageRepository,
	users ports.UserRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *PortalService {
	return &PortalService{
		projects:  projects,
		invoices:  invoices,
		messages:  messages,
		users:     users,
		publisher: publisher,
		logger:    logger,
	}
}

func callerAsUser(caller *auth.UserContext) *entities.User {
	return &entities.User{ID: caller.UserID, Email: caller.Email, Role: entities.Role(caller.Role)}
}

func requireAdmin(caller *auth.UserContext, action string) error {
	if caller == nil {
		return pkgerrors.NewUnauthorizedError("authentication required")
	}
	if !entities.Role(caller.Role).IsAdmin() {
		return pkgerrors.NewForbiddenError("not authorized to " + action)
	}
	return nil
}

// CreateProject opens a project for an existing client (admin only)
func (s *PortalService) CreateProject(ctx context.Context, caller *auth.UserContext, in CreateProjectInput) (*entities.Project, error) {
	if err := requireAdmin(caller, "create projects"); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, in.ClientID); err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, pkgerrors.NewValidationError("client does not exist").WithDetail("client_id", in.ClientID)
		}
		return nil, err
	}

	project, err := entities.NewProject(in.Title, in.Description, in.ClientID, in.DueDate)
	if err != nil {
		return nil, err
	}
	project.AssignedAdminID = caller.UserID
	if err := s.projects.Save(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("Project created",
		zap.String("project_id", project.ID),
		zap.String("client_id", project.ClientID),
	)
	return project, nil
}

// ListProjects returns every project for staff and only their own for clients
func (s *PortalService) ListProjects(ctx context.Context, caller *auth.UserContext) ([]*entities.Project, error) {
	clientID := ""
	if entities.Role(caller.Role) == entities.RoleClient {
		clientID = caller.UserID
	}
	return s.projects.List(ctx, clientID)
}

// GetProject returns a project the caller is allowed to see
func (s *PortalService) GetProject(ctx context.Context, caller *auth.UserContext, projectID string) (*entities.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.VisibleTo(callerAsUser(caller)) {
		return nil, pkgerrors.NewForbiddenError("not authorized to view this project")
	}
	return project, nil
}

// CreateInvoice bills a project and locks it until payment (admin only)
func (s *PortalService) CreateInvoice(ctx context.Context, caller *auth.UserContext, in CreateInvoiceInput) (*entities.Invoice, error) {
	if err := requireAdmin(caller, "create invoices"); err != nil {
		return nil, err
	}

	s.billing.Lock()
	defer s.billing.Unlock()

	project, err := s.projects.GetByID(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.IsLocked {
		return nil, pkgerrors.NewConflictError("project already has an unpaid invoice").
			WithDetail("invoice_id", project.InvoiceID)
	}

	invoice, err := entities.NewInvoice(project.ID, in.Amount, in.Description, in.DueDate)
	if err != nil {
		return nil, err
	}
	if err := s.invoices.Save(ctx, invoice); err != nil {
		return nil, err
	}

	project.LockForInvoice(invoice.ID)
	if err := s.projects.Save(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("Invoice created",
		zap.String("invoice_id", invoice.ID),
		zap.String("project_id", project.ID),
		zap.String("amount", invoice.Amount.String()),
	)
	s.publish(ctx, events.NewInvoiceCreated(invoice.ID, project.ID, invoice.Amount.String(), invoice.CreatedAt))
	return invoice, nil
}

// ListInvoices returns every invoice for staff and the invoices of their own
// projects for clients
func (s *PortalService) ListInvoices(ctx context.Context, caller *auth.UserContext) ([]*entities.Invoice, error) {
	if entities.Role(caller.Role) != entities.RoleClient {
		return s.invoices.List(ctx, nil)
	}

	projects, err := s.projects.List(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	return s.invoices.List(ctx, ids)
}

// PayInvoice marks an invoice paid and unlocks the project it locked
func (s *PortalService) PayInvoice(ctx context.Context, caller *auth.UserContext, invoiceID string) (*entities.Invoice, error) {
	s.billing.Lock()
	defer s.billing.Unlock()

	invoice, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	project, err := s.projects.GetByInvoiceID(ctx, invoiceID)
	if err != nil && !pkgerrors.IsNotFound(err) {
		return nil, err
	}
	if project != nil && !project.VisibleTo(callerAsUser(caller)) {
		return nil, pkgerrors.NewForbiddenError("not authorized to pay this invoice")
	}

	if err := invoice.Pay(time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.invoices.Save(ctx, invoice); err != nil {
		return nil, err
	}

	if project != nil {
		project.Unlock()
		if err := s.projects.Save(ctx, project); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Invoice paid", zap.String("invoice_id", invoice.ID), zap.String("paid_by", caller.UserID))
	s.publish(ctx, events.NewInvoicePaid(invoice.ID, invoice.ProjectID, invoice.Amount.String(), *invoice.PaidAt))
	return invoice, nil
}

// PostMessage adds a message to a project thread the caller can see
func (s *PortalService) PostMessage(ctx context.Context, caller *auth.UserContext, projectID, content string) (*entities.Message, error) {
	if _, err := s.GetProject(ctx, caller, projectID); err != nil {
		return nil, err
	}

	message, err := entities.NewMessage(projectID, caller.UserID, content)
	if err != nil {
		return nil, err
	}
	if err := s.messages.Save(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

// ListMessages returns a project's thread, oldest first
func (s *PortalService) ListMessages(ctx context.Context, caller *auth.UserContext, projectID string) ([]*entities.Message, error) {
	if _, err := s.GetProject(ctx, caller, projectID); err != nil {
		return nil, err
	}
	return s.messages.ListByProject(ctx, projectID)
}

func (s *PortalService) publish(ctx context.Context, event events.DomainEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish portal event",
			zap.String("event_type", event.GetEventType()),
			zap.Error(err),
		)
	}
}
