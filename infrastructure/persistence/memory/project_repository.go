package memory

import (
	"context"
	"sort"
	"sync"

	"eternals-backend/domain/core/entities"
	pkgerrors "eternals-backend/pkg/errors"
)

// ProjectRepository is an in-memory implementation of ports.ProjectRepository
type ProjectRepository struct {
	mu       sync.RWMutex
	projects map[string]entities.Project
}

func NewProjectRepository() *ProjectRepository {
	return &ProjectRepository{projects: make(map[string]entities.Project)}
}

func (r *ProjectRepository) Save(ctx context.Context, project *entities.Project) error {
	if project == nil || project.ID == "" {
		return pkgerrors.NewValidationError("project id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[project.ID] = *project
	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*entities.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.projects[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("project")
	}
	return &p, nil
}

func (r *ProjectRepository) GetByInvoiceID(ctx context.Context, invoiceID string) (*entities.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.projects {
		if p.InvoiceID == invoiceID {
			return &p, nil
		}
	}
	return nil, pkgerrors.NewNotFoundError("project")
}

func (r *ProjectRepository) List(ctx context.Context, clientID string) ([]*entities.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entities.Project, 0, len(r.projects))
	for _, p := range r.projects {
		if clientID != "" && p.ClientID != clientID {
			continue
		}
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// InvoiceRepository is an in-memory implementation of ports.InvoiceRepository
type InvoiceRepository struct {
	mu       sync.RWMutex
	invoices map[string]entities.Invoice
}

func NewInvoiceRepository() *InvoiceRepository {
	return &InvoiceRepository{invoices: make(map[string]entities.Invoice)}
}

func (r *InvoiceRepository) Save(ctx context.Context, invoice *entities.Invoice) error {
	if invoice == nil || invoice.ID == "" {
		return pkgerrors.NewValidationError("invoice id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invoices[invoice.ID] = *invoice
	return nil
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*entities.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inv, ok := r.invoices[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("invoice")
	}
	return &inv, nil
}

func (r *InvoiceRepository) List(ctx context.Context, projectIDs []string) ([]*entities.Invoice, error) {
	var allowed map[string]bool
	if projectIDs != nil {
		allowed = make(map[string]bool, len(projectIDs))
		for _, id := range projectIDs {
			allowed[id] = true
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entities.Invoice, 0, len(r.invoices))
	for _, inv := range r.invoices {
		if allowed != nil && !allowed[inv.ProjectID] {
			continue
		}
		inv := inv
		out = append(out, &inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// MessageRepository is an in-memory implementation of ports.MessageRepository
type MessageRepository struct {
	mu        sync.RWMutex
	byProject map[string][]entities.Message
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{byProject: make(map[string][]entities.Message)}
}

func (r *MessageRepository) Save(ctx context.Context, message *entities.Message) error {
	if message == nil || message.ProjectID == "" {
		return pkgerrors.NewValidationError("message project is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byProject[message.ProjectID] = append(r.byProject[message.ProjectID], *message)
	return nil
}

// ListByProject returns the thread in posting order
func (r *MessageRepository) ListByProject(ctx context.Context, projectID string) ([]*entities.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	thread := r.byProject[projectID]
	out := make([]*entities.Message, len(thread))
	for i := range thread {
		m := thread[i]
		out[i] = &m
	}
	return out, nil
}
