package v1_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/trail/internal/domain"
	"github.com/gosuda/trail/internal/server/middleware"
	"github.com/gosuda/trail/internal/summarizer"
)

// ---------------------------------------------------------------------------
// Context helpers — inject tenant/user/role into context for DoCtx
// ---------------------------------------------------------------------------

func tenantCtx(tenantID uuid.UUID) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, middleware.ContextKeyTenantID, tenantID)
	return ctx
}

func userCtx(tenantID, userID uuid.UUID) context.Context {
	ctx := tenantCtx(tenantID)
	ctx = context.WithValue(ctx, middleware.ContextKeyUserID, userID)
	return ctx
}

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	users         domain.UserRepository
	conversations domain.ConversationRepository
	events        domain.EventRepository
	summaries     domain.SummaryRepository
}

func (m *mockDataStore) Users() domain.UserRepository                 { return m.users }
func (m *mockDataStore) Conversations() domain.ConversationRepository { return m.conversations }
func (m *mockDataStore) Events() domain.EventRepository               { return m.events }
func (m *mockDataStore) Summaries() domain.SummaryRepository          { return m.summaries }

// ---------------------------------------------------------------------------
// Mock ConversationRepository
// ---------------------------------------------------------------------------

type mockConversationRepo struct {
	createFunc                  func(ctx context.Context, c *domain.Conversation) error
	getByIDFunc                 func(ctx context.Context, tenantID, id uuid.UUID) (*domain.Conversation, error)
	listFunc                    func(ctx context.Context, tenantID uuid.UUID) ([]*domain.Conversation, error)
	setAwaitingConfirmationFunc func(ctx context.Context, tenantID, id uuid.UUID, awaiting bool) error
	deleteFunc                  func(ctx context.Context, tenantID, id uuid.UUID) error
}

func (m *mockConversationRepo) Create(ctx context.Context, c *domain.Conversation) error {
	return m.createFunc(ctx, c)
}

func (m *mockConversationRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Conversation, error) {
	return m.getByIDFunc(ctx, tenantID, id)
}

func (m *mockConversationRepo) List(ctx context.Context, tenantID uuid.UUID) ([]*domain.Conversation, error) {
	return m.listFunc(ctx, tenantID)
}

func (m *mockConversationRepo) SetAwaitingConfirmation(ctx context.Context, tenantID, id uuid.UUID, awaiting bool) error {
	return m.setAwaitingConfirmationFunc(ctx, tenantID, id, awaiting)
}

func (m *mockConversationRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.deleteFunc(ctx, tenantID, id)
}

// ---------------------------------------------------------------------------
// Mock EventRepository
// ---------------------------------------------------------------------------

type mockEventRepo struct {
	appendFunc              func(ctx context.Context, tenantID uuid.UUID, e *domain.Event) error
	listByConversationFunc  func(ctx context.Context, tenantID, conversationID uuid.UUID) ([]*domain.Event, error)
	countByConversationFunc func(ctx context.Context, tenantID, conversationID uuid.UUID) (int64, error)
}

func (m *mockEventRepo) Append(ctx context.Context, tenantID uuid.UUID, e *domain.Event) error {
	return m.appendFunc(ctx, tenantID, e)
}

func (m *mockEventRepo) ListByConversation(ctx context.Context, tenantID, conversationID uuid.UUID) ([]*domain.Event, error) {
	return m.listByConversationFunc(ctx, tenantID, conversationID)
}

func (m *mockEventRepo) CountByConversation(ctx context.Context, tenantID, conversationID uuid.UUID) (int64, error) {
	return m.countByConversationFunc(ctx, tenantID, conversationID)
}

// ---------------------------------------------------------------------------
// Mock SummaryRepository
// ---------------------------------------------------------------------------

type mockSummaryRepo struct {
	upsertFunc               func(ctx context.Context, s *domain.ConversationSummary) error
	getByConversationFunc    func(ctx context.Context, tenantID, conversationID uuid.UUID) (*domain.ConversationSummary, error)
	deleteByConversationFunc func(ctx context.Context, tenantID, conversationID uuid.UUID) error
}

func (m *mockSummaryRepo) Upsert(ctx context.Context, s *domain.ConversationSummary) error {
	return m.upsertFunc(ctx, s)
}

func (m *mockSummaryRepo) GetByConversation(ctx context.Context, tenantID, conversationID uuid.UUID) (*domain.ConversationSummary, error) {
	return m.getByConversationFunc(ctx, tenantID, conversationID)
}

func (m *mockSummaryRepo) DeleteByConversation(ctx context.Context, tenantID, conversationID uuid.UUID) error {
	return m.deleteByConversationFunc(ctx, tenantID, conversationID)
}

// ---------------------------------------------------------------------------
// Mock UserRepository
// ---------------------------------------------------------------------------

type mockUserRepo struct {
	listAPIKeysFunc  func(ctx context.Context, tenantID, userID uuid.UUID) ([]*domain.APIKey, error)
	deleteAPIKeyFunc func(ctx context.Context, id uuid.UUID) error
}

func (m *mockUserRepo) Create(context.Context, *domain.User) error { panic("not implemented") }
func (m *mockUserRepo) GetByID(context.Context, uuid.UUID, uuid.UUID) (*domain.User, error) {
	panic("not implemented")
}
func (m *mockUserRepo) GetByEmail(context.Context, uuid.UUID, string) (*domain.User, error) {
	panic("not implemented")
}
func (m *mockUserRepo) CreateAPIKey(context.Context, *domain.APIKey) error {
	panic("not implemented")
}
func (m *mockUserRepo) GetAPIKeyByPrefix(context.Context, uuid.UUID, string) (*domain.APIKey, error) {
	panic("not implemented")
}
func (m *mockUserRepo) ListAPIKeys(ctx context.Context, tenantID, userID uuid.UUID) ([]*domain.APIKey, error) {
	return m.listAPIKeysFunc(ctx, tenantID, userID)
}
func (m *mockUserRepo) DeleteAPIKey(ctx context.Context, id uuid.UUID) error {
	return m.deleteAPIKeyFunc(ctx, id)
}
func (m *mockUserRepo) UpdateAPIKeyLastUsed(context.Context, uuid.UUID) error {
	panic("not implemented")
}

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuthService struct {
	registerFunc       func(ctx context.Context, email, password, name string) (*domain.User, error)
	loginFunc          func(ctx context.Context, tenantID uuid.UUID, email, password string) (string, string, error)
	refreshTokenFunc   func(ctx context.Context, refreshToken string) (string, error)
	generateAPIKeyFunc func(ctx context.Context, tenantID, userID uuid.UUID, name string) (string, *domain.APIKey, error)
}

func (m *mockAuthService) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	return m.registerFunc(ctx, email, password, name)
}

func (m *mockAuthService) Login(ctx context.Context, tenantID uuid.UUID, email, password string) (accessToken, refreshToken string, err error) {
	return m.loginFunc(ctx, tenantID, email, password)
}

func (m *mockAuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	return m.refreshTokenFunc(ctx, refreshToken)
}

func (m *mockAuthService) GenerateAPIKey(ctx context.Context, tenantID, userID uuid.UUID, name string) (string, *domain.APIKey, error) {
	return m.generateAPIKeyFunc(ctx, tenantID, userID, name)
}

// ---------------------------------------------------------------------------
// Mock Summarizer
// ---------------------------------------------------------------------------

type mockSummarizer struct {
	configured    bool
	summarizeFunc func(ctx context.Context, events []*domain.Event) (*summarizer.Summary, error)
}

func (m *mockSummarizer) Configured() bool { return m.configured }

func (m *mockSummarizer) Summarize(ctx context.Context, events []*domain.Event) (*summarizer.Summary, error) {
	return m.summarizeFunc(ctx, events)
}

// ---------------------------------------------------------------------------
// Mock EventPublisher
// ---------------------------------------------------------------------------

type publishedMessage struct {
	channel string
	payload []byte
}

type mockPublisher struct {
	publishErr error
	published  []publishedMessage
}

func (m *mockPublisher) Publish(_ context.Context, channel string, payload []byte) error {
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, publishedMessage{channel: channel, payload: payload})
	return nil
}

// ---------------------------------------------------------------------------
// Mock ConfirmationNotifier
// ---------------------------------------------------------------------------

type notifiedPrompt struct {
	conversationID uuid.UUID
	title          string
}

type mockNotifier struct {
	notifyErr error
	notified  []notifiedPrompt
}

func (m *mockNotifier) ConfirmationPending(_ context.Context, conversationID uuid.UUID, title string) error {
	if m.notifyErr != nil {
		return m.notifyErr
	}
	m.notified = append(m.notified, notifiedPrompt{conversationID: conversationID, title: title})
	return nil
}

// ---------------------------------------------------------------------------
// Event builders
// ---------------------------------------------------------------------------

func seq(n int64) *int64 { return &n }

func messageEvent(n int64, source domain.EventSource, content string) *domain.Event {
	return &domain.Event{
		Seq:     seq(n),
		Source:  source,
		Kind:    domain.KindMessage,
		Content: content,
	}
}
