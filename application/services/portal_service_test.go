package services_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"eternals-backend/application/services"
	"eternals-backend/domain/core/entities"
	"eternals-backend/domain/core/valueobjects"
	"eternals-backend/domain/events"
	"eternals-backend/infrastructure/messaging"
	"eternals-backend/infrastructure/persistence/memory"
	"eternals-backend/pkg/auth"
	pkgerrors "eternals-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type portalFixture struct {
	svc       *services.PortalService
	publisher *messaging.RecordingPublisher
	admin     *auth.UserContext
	alice     *auth.UserContext
	bob       *auth.UserContext
}

func newPortalFixture(t *testing.T) portalFixture {
	t.Helper()
	ctx := context.Background()
	users := memory.NewUserRepository()

	mk := func(email string, role entities.Role) *auth.UserContext {
		u, err := entities.NewUser(email, email, role)
		require.NoError(t, err)
		require.NoError(t, users.Save(ctx, u))
		return &auth.UserContext{UserID: u.ID, Email: u.Email, Role: string(u.Role)}
	}

	f := portalFixture{
		publisher: messaging.NewRecordingPublisher(),
		admin:     mk("admin@example.com", entities.RoleAdmin),
		alice:     mk("alice@example.com", entities.RoleClient),
		bob:       mk("bob@example.com", entities.RoleClient),
	}
	f.svc = services.NewPortalService(memory.NewProjectRepository(), memory.NewInvoiceRepository(),
		memory.NewMessageRepository(), users, f.publisher, zaptest.NewLogger(t))
	return f
}

func (f portalFixture) project(t *testing.T, client *auth.UserContext, title string) *entities.Project {
	t.Helper()
	p, err := f.svc.CreateProject(context.Background(), f.admin, services.CreateProjectInput{Title: title, ClientID: client.UserID})
	require.NoError(t, err)
	return p
}

func TestPortalService_ProjectAccess(t *testing.T) {
	f := newPortalFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateProject(ctx, f.alice, services.CreateProjectInput{Title: "x", ClientID: f.alice.UserID})
	assert.True(t, pkgerrors.IsForbidden(err))
	_, err = f.svc.CreateProject(ctx, f.admin, services.CreateProjectInput{Title: "x", ClientID: "missing"})
	assert.True(t, pkgerrors.IsValidation(err))

	pa := f.project(t, f.alice, "Alice logo")
	f.project(t, f.bob, "Bob overlay")
	assert.Equal(t, entities.ProjectPending, pa.Status)
	assert.Equal(t, f.admin.UserID, pa.AssignedAdminID)

	mine, err := f.svc.ListProjects(ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, pa.ID, mine[0].ID)

	all, err := f.svc.ListProjects(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.svc.GetProject(ctx, f.bob, pa.ID)
	assert.True(t, pkgerrors.IsForbidden(err))
	got, err := f.svc.GetProject(ctx, f.alice, pa.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice logo", got.Title)

	_, err = f.svc.GetProject(ctx, f.admin, "nope")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestPortalService_InvoiceLocksUntilPaid(t *testing.T) {
	f := newPortalFixture(t)
	ctx := context.Background()
	pa := f.project(t, f.alice, "Alice logo")
	f.project(t, f.bob, "Bob overlay")

	_, err := f.svc.CreateInvoice(ctx, f.alice, services.CreateInvoiceInput{ProjectID: pa.ID, Amount: valueobjects.MustParsePrice("100")})
	assert.True(t, pkgerrors.IsForbidden(err))

	inv, err := f.svc.CreateInvoice(ctx, f.admin, services.CreateInvoiceInput{
		ProjectID: pa.ID, Amount: valueobjects.MustParsePrice("$1,250.005"), Description: "Logo",
	})
	require.NoError(t, err)
	assert.Equal(t, "1250.01", inv.Amount.String())

	locked, err := f.svc.GetProject(ctx, f.alice, pa.ID)
	require.NoError(t, err)
	assert.True(t, locked.IsLocked)
	assert.Equal(t, entities.ProjectLocked, locked.Status)
	assert.Equal(t, inv.ID, locked.InvoiceID)

	_, err = f.svc.CreateInvoice(ctx, f.admin, services.CreateInvoiceInput{ProjectID: pa.ID, Amount: valueobjects.MustParsePrice("5")})
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeConflict))

	bobs, err := f.svc.ListInvoices(ctx, f.bob)
	require.NoError(t, err)
	assert.Empty(t, bobs)
	alices, err := f.svc.ListInvoices(ctx, f.alice)
	require.NoError(t, err)
	assert.Len(t, alices, 1)

	_, err = f.svc.PayInvoice(ctx, f.bob, inv.ID)
	assert.True(t, pkgerrors.IsForbidden(err))

	paid, err := f.svc.PayInvoice(ctx, f.alice, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.InvoicePaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	unlocked, err := f.svc.GetProject(ctx, f.alice, pa.ID)
	require.NoError(t, err)
	assert.False(t, unlocked.IsLocked)
	assert.Equal(t, entities.ProjectInProgress, unlocked.Status)

	_, err = f.svc.PayInvoice(ctx, f.alice, inv.ID)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeConflict))

	assert.Equal(t, []string{events.TypeInvoiceCreated, events.TypeInvoicePaid}, f.publisher.Types())
}

func TestPortalService_ConcurrentBillingLocksOnce(t *testing.T) {
	f := newPortalFixture(t)
	ctx := context.Background()
	pa := f.project(t, f.alice, "Alice logo")

	const callers = 8
	var (
		wg        sync.WaitGroup
		created   atomic.Int32
		conflicts atomic.Int32
		invoiceID atomic.Value
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inv, err := f.svc.CreateInvoice(ctx, f.admin, services.CreateInvoiceInput{ProjectID: pa.ID, Amount: valueobjects.MustParsePrice("40")})
			switch {
			case err == nil:
				created.Add(1)
				invoiceID.Store(inv.ID)
			case pkgerrors.IsType(err, pkgerrors.ErrorTypeConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), created.Load())
	assert.Equal(t, int32(callers-1), conflicts.Load())

	id := invoiceID.Load().(string)
	locked, err := f.svc.GetProject(ctx, f.alice, pa.ID)
	require.NoError(t, err)
	assert.Equal(t, id, locked.InvoiceID)

	var paid atomic.Int32
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.PayInvoice(ctx, f.alice, id); err == nil {
				paid.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), paid.Load())

	unlocked, err := f.svc.GetProject(ctx, f.alice, pa.ID)
	require.NoError(t, err)
	assert.False(t, unlocked.IsLocked)
	assert.Equal(t, []string{events.TypeInvoiceCreated, events.TypeInvoicePaid}, f.publisher.Types())
}

func TestPortalService_Messages(t *testing.T) {
	f := newPortalFixture(t)
	ctx := context.Background()
	pa := f.project(t, f.alice, "Alice logo")

	_, err := f.svc.PostMessage(ctx, f.alice, pa.ID, "First draft?")
	require.NoError(t, err)
	_, err = f.svc.PostMessage(ctx, f.admin, pa.ID, "Tomorrow")
	require.NoError(t, err)

	_, err = f.svc.PostMessage(ctx, f.bob, pa.ID, "hi")
	assert.True(t, pkgerrors.IsForbidden(err))
	_, err = f.svc.PostMessage(ctx, f.alice, pa.ID, "   ")
	assert.True(t, pkgerrors.IsValidation(err))

	thread, err := f.svc.ListMessages(ctx, f.alice, pa.ID)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, "First draft?", thread[0].Content)
	assert.Equal(t, f.admin.UserID, thread[1].SenderID)

	_, err = f.svc.ListMessages(ctx, f.bob, pa.ID)
	assert.True(t, pkgerrors.IsForbidden(err))
}
