package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"docboard/api/internal/auth"
	"docboard/api/internal/authpw"
	"docboard/api/internal/config"
	"docboard/api/internal/dashboard"
	"docboard/api/internal/email"
	"docboard/api/internal/inbox"
	"docboard/api/internal/rbac"
	"docboard/api/internal/realtime"
	"docboard/api/internal/search"
	"docboard/api/internal/store"
	"docboard/api/internal/util"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Session is the signed-in user resolved from an access token. It is passed
// explicitly to every operation that acts on behalf of a user.
type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	Email        string
	AvatarURL    string
	JTI          string
	ExpiresAt    time.Time
}

type dataStore interface {
	GetUserByID(context.Context, string) (store.User, error)
	ListDocumentsForUser(context.Context, string) ([]store.Document, error)
	GetDocument(context.Context, string) (store.Document, error)
	CreateDocument(context.Context, store.Document, string) (store.Document, error)
	RenameDocument(context.Context, string, string) error
	DeleteDocument(context.Context, string) ([]string, error)
	GetDocumentAccess(context.Context, string, string) (string, error)
	UpsertDocumentAccess(context.Context, store.DocumentAccess) error
	RemoveDocumentAccess(context.Context, string, string) error
	ListCollaborators(context.Context, string) ([]store.Collaborator, error)
	DocumentCollaboratorEmails(context.Context, string) ([]string, error)
	InsertInboxNotification(context.Context, inbox.InboxNotification) error
	ListInboxNotifications(context.Context, string, int) ([]inbox.InboxNotification, error)
	CountUnreadInboxNotifications(context.Context, string) (int, error)
	MarkInboxNotificationRead(context.Context, string, string, time.Time) error
	MarkAllInboxNotificationsRead(context.Context, string, time.Time) error
	Ping(ctx context.Context) error
}

// sessionStore keeps refresh sessions and revoked access tokens. Postgres and
// Redis both implement it.
type sessionStore interface {
	SaveRefreshSession(context.Context, string, string, time.Time) error
	LookupRefreshSession(context.Context, string) (store.User, error)
	RevokeRefreshSession(context.Context, string) error
	RevokeAccessToken(context.Context, string, time.Time) error
	IsAccessTokenRevoked(context.Context, string) (bool, error)
}

type searchService interface {
	Search(context.Context, search.Query) search.Response
	IndexDocument(search.DocumentRecord)
	DeleteDocument(string)
}

type inboxHub interface {
	Publish(ctx context.Context, email string, message []byte) error
	Subscribe(email string) (<-chan []byte, func())
}

type identityExchanger interface {
	IdentifyUser(context.Context, realtime.Identity) (int, []byte, error)
}

type mailer interface {
	IsConfigured() bool
	SendVerificationEmail(to, userName, verificationURL string) error
	SendPasswordResetEmail(to, userName, resetURL string) error
	SendDocumentSharedEmail(to string, data email.DocumentSharedData) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the optional collaborators of the service. Nil members disable the
// matching feature.
type Deps struct {
	Sessions sessionStore
	Search   searchService
	Hub      inboxHub
	Realtime identityExchanger
	Mailer   mailer
	Redis    pinger
}

const (
	inboxPageSize   = 50
	defaultDocTitle = "Untitled"
	maxTitleLength  = 200
)

type Service struct {
	cfg       config.Config
	store     dataStore
	sessions  sessionStore
	authpw    *authpw.Service
	search    searchService
	hub       inboxHub
	realtime  identityExchanger
	mailer    mailer
	redis     pinger
	snapshots *cache.Cache
	logger    *zap.Logger
	now       func() time.Time
}

func New(cfg config.Config, pg *store.PostgresStore, logger *zap.Logger, deps Deps) *Service {
	svc := newService(cfg, pg, logger, deps)
	svc.authpw = authpw.NewService(pg)
	return svc
}

func newService(cfg config.Config, data dataStore, logger *zap.Logger, deps Deps) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	sessions := deps.Sessions
	if sessions == nil {
		if fallback, ok := data.(sessionStore); ok {
			sessions = fallback
		}
	}
	ttl := cfg.SnapshotTTL
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Service{
		cfg:       cfg,
		store:     data,
		sessions:  sessions,
		search:    deps.Search,
		hub:       deps.Hub,
		realtime:  deps.Realtime,
		mailer:    deps.Mailer,
		redis:     deps.Redis,
		snapshots: cache.New(ttl, 2*ttl),
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) AuthPasswordService() *authpw.Service {
	return s.authpw
}

func (s *Service) SMTPConfigured() bool {
	return s.mailer != nil && s.mailer.IsConfigured()
}

func (s *Service) WebhookToken() string {
	return s.cfg.WebhookToken
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// PingRedis reports false when Redis is not in use.
func (s *Service) PingRedis(ctx context.Context) (bool, error) {
	if s.redis == nil {
		return false, nil
	}
	return true, s.redis.Ping(ctx)
}

// SendVerificationEmail is best effort; failures are logged.
func (s *Service) SendVerificationEmail(to, userName, token string) {
	if !s.SMTPConfigured() {
		return
	}
	link := s.cfg.PublicURL + "/verify-email?token=" + token
	if err := s.mailer.SendVerificationEmail(to, userName, link); err != nil {
		s.logger.Warn("send verification email", zap.String("email", to), zap.Error(err))
	}
}

func (s *Service) SendPasswordResetEmail(to, token string) {
	if !s.SMTPConfigured() || token == "" {
		return
	}
	link := s.cfg.PublicURL + "/reset-password?token=" + token
	if err := s.mailer.SendPasswordResetEmail(to, to, link); err != nil {
		s.logger.Warn("send password reset email", zap.String("email", to), zap.Error(err))
	}
}

func (s *Service) CreateSession(ctx context.Context, userID string) (Session, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return Session{}, auth.ErrInvalidToken
	}
	tokenHash := auth.HashToken(refreshToken)
	found, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, auth.ErrInvalidToken
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	user, err := s.store.GetUserByID(ctx, found.ID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:    user.ID,
		Name:   user.DisplayName,
		Email:  user.Email,
		Avatar: user.AvatarURL,
		JTI:    jti,
		Exp:    expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user.ID, now.Add(s.cfg.RefreshTTL)); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		Email:        user.Email,
		AvatarURL:    user.AvatarURL,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.sessions.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	return Session{
		Token:     token,
		UserID:    claims.Sub,
		UserName:  claims.Name,
		Email:     claims.Email,
		AvatarURL: claims.Avatar,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) {
	if session.JTI != "" {
		if err := s.sessions.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt); err != nil {
			s.logger.Warn("revoke access token", zap.Error(err))
		}
	}
	if refreshToken != "" {
		if err := s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken)); err != nil {
			s.logger.Warn("revoke refresh session", zap.Error(err))
		}
	}
}

func userPayload(session Session) map[string]any {
	return map[string]any{
		"id":     session.UserID,
		"name":   session.UserName,
		"email":  session.Email,
		"avatar": session.AvatarURL,
		"color":  realtime.UserColor(session.UserID),
	}
}

// snapshot returns the user's documents, newest first. Results are cached for
// the snapshot TTL and dropped on every mutation that touches the user.
func (s *Service) snapshot(ctx context.Context, email string) ([]dashboard.Document, error) {
	key := strings.ToLower(email)
	if cached, ok := s.snapshots.Get(key); ok {
		return cached.([]dashboard.Document), nil
	}
	items, err := s.store.ListDocumentsForUser(ctx, email)
	if err != nil {
		return nil, err
	}
	docs := make([]dashboard.Document, 0, len(items))
	for _, item := range items {
		docs = append(docs, dashboard.Document{ID: item.ID, Title: item.Title, CreatedAt: item.CreatedAt})
	}
	s.snapshots.SetDefault(key, docs)
	return docs, nil
}

func (s *Service) invalidateSnapshots(emails ...string) {
	for _, email := range emails {
		s.snapshots.Delete(strings.ToLower(email))
	}
}

// Dashboard is the home screen: the document list for query and whether the
// inbox badge is lit.
func (s *Service) Dashboard(ctx context.Context, session Session, query string) (map[string]any, error) {
	docs, err := s.snapshot(ctx, session.Email)
	if err != nil {
		return nil, err
	}
	unread, err := s.store.CountUnreadInboxNotifications(ctx, session.Email)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"user":  userPayload(session),
		"list":  dashboard.BuildListView(docs, query, s.now()),
		"inbox": map[string]any{"showBadge": unread > 0},
	}, nil
}

func (s *Service) ListDocuments(ctx context.Context, session Session, query string) ([]dashboard.Document, error) {
	docs, err := s.snapshot(ctx, session.Email)
	if err != nil {
		return nil, err
	}
	return dashboard.FilterDocuments(docs, query), nil
}

func (s *Service) CreateDocument(ctx context.Context, session Session, title string) (map[string]any, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultDocTitle
	}
	if len(title) > maxTitleLength {
		return nil, validationError("title is too long")
	}

	created, err := s.store.CreateDocument(ctx, store.Document{
		ID:      util.NewDocumentID(),
		Title:   title,
		OwnerID: session.UserID,
	}, session.Email)
	if err != nil {
		return nil, err
	}
	s.invalidateSnapshots(session.Email)
	s.indexDocument(ctx, created)

	return documentPayload(created, store.AccessCreator), nil
}

func documentPayload(doc store.Document, access string) map[string]any {
	return map[string]any{
		"id":        doc.ID,
		"title":     doc.Title,
		"createdAt": doc.CreatedAt,
		"updatedAt": doc.UpdatedAt,
		"href":      dashboard.DocumentHref(doc.ID),
		"access":    access,
	}
}

// authorize loads the document and checks the caller's access. Documents the
// caller cannot read are reported as not found.
func (s *Service) authorize(ctx context.Context, session Session, documentID string, action rbac.Action) (store.Document, string, error) {
	access, err := s.store.GetDocumentAccess(ctx, documentID, session.Email)
	if err != nil {
		if store.IsNotFound(err) {
			return store.Document{}, "", documentNotFound(true)
		}
		return store.Document{}, "", err
	}
	role := rbac.Normalize(access)
	if !rbac.Can(role, rbac.ActionRead) {
		return store.Document{}, "", documentNotFound(true)
	}
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		if store.IsNotFound(err) {
			return store.Document{}, "", documentNotFound(true)
		}
		return store.Document{}, "", err
	}
	if !rbac.Can(role, action) {
		return store.Document{}, "", forbidden()
	}
	return doc, access, nil
}

func (s *Service) GetDocument(ctx context.Context, session Session, documentID string) (map[string]any, error) {
	doc, access, err := s.authorize(ctx, session, documentID, rbac.ActionRead)
	if err != nil {
		return nil, err
	}
	return documentPayload(doc, access), nil
}

func (s *Service) RenameDocument(ctx context.Context, session Session, documentID, title string) (map[string]any, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, validationError("title is required")
	}
	if len(title) > maxTitleLength {
		return nil, validationError("title is too long")
	}
	doc, access, err := s.authorize(ctx, session, documentID, rbac.ActionWrite)
	if err != nil {
		return nil, err
	}
	if err := s.store.RenameDocument(ctx, documentID, title); err != nil {
		return nil, err
	}
	doc.Title = title
	doc.UpdatedAt = s.now()

	emails, err := s.store.DocumentCollaboratorEmails(ctx, documentID)
	if err != nil {
		return nil, err
	}
	s.invalidateSnapshots(emails...)
	s.indexDocument(ctx, doc)
	return documentPayload(doc, access), nil
}

// DeleteDocument is limited to the creator.
func (s *Service) DeleteDocument(ctx context.Context, session Session, documentID string) error {
	if _, _, err := s.authorize(ctx, session, documentID, rbac.ActionDelete); err != nil {
		return err
	}
	emails, err := s.store.DeleteDocument(ctx, documentID)
	if err != nil {
		if store.IsNotFound(err) {
			return documentNotFound(true)
		}
		return err
	}
	s.invalidateSnapshots(emails...)
	if s.search != nil {
		s.search.DeleteDocument(documentID)
	}
	return nil
}

func (s *Service) indexDocument(ctx context.Context, doc store.Document) {
	if s.search == nil {
		return
	}
	emails, err := s.store.DocumentCollaboratorEmails(ctx, doc.ID)
	if err != nil {
		s.logger.Warn("load collaborators for indexing", zap.String("document_id", doc.ID), zap.Error(err))
		return
	}
	s.search.IndexDocument(search.DocumentRecord{
		ID:            doc.ID,
		Title:         doc.Title,
		Collaborators: emails,
		CreatedAt:     doc.CreatedAt.Unix(),
	})
}

func (s *Service) Collaborators(ctx context.Context, session Session, documentID string) ([]map[string]any, error) {
	if _, _, err := s.authorize(ctx, session, documentID, rbac.ActionRead); err != nil {
		return nil, err
	}
	collaborators, err := s.store.ListCollaborators(ctx, documentID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(collaborators))
	for _, collaborator := range collaborators {
		items = append(items, map[string]any{
			"email":  collaborator.Email,
			"access": collaborator.Access,
			"name":   collaborator.Name,
			"avatar": collaborator.AvatarURL,
		})
	}
	return items, nil
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// ShareDocument grants access and tells the collaborator through the inbox
// and, when SMTP is configured, by email.
func (s *Service) ShareDocument(ctx context.Context, session Session, documentID, collaboratorEmail, access string) (map[string]any, error) {
	collaboratorEmail = normalizeEmail(collaboratorEmail)
	if collaboratorEmail == "" || !strings.Contains(collaboratorEmail, "@") {
		return nil, validationError("a valid email is required")
	}
	if !rbac.Grantable(access) {
		return nil, validationError("access must be editor or viewer")
	}
	if collaboratorEmail == normalizeEmail(session.Email) {
		return nil, validationError("you already have access to this document")
	}
	doc, _, err := s.authorize(ctx, session, documentID, rbac.ActionShare)
	if err != nil {
		return nil, err
	}
	if existing, err := s.store.GetDocumentAccess(ctx, documentID, collaboratorEmail); err == nil && existing == store.AccessCreator {
		return nil, validationError("the creator's access cannot be changed")
	}

	if err := s.store.UpsertDocumentAccess(ctx, store.DocumentAccess{
		DocumentID: documentID,
		Email:      collaboratorEmail,
		Access:     access,
		GrantedBy:  session.UserID,
	}); err != nil {
		return nil, err
	}
	s.invalidateSnapshots(collaboratorEmail)
	s.indexDocument(ctx, doc)

	roomID := documentID
	s.notify(ctx, inbox.InboxNotification{
		UserEmail: collaboratorEmail,
		Kind:      inbox.KindDocumentAccess,
		RoomID:    &roomID,
		Actor:     &inbox.Actor{ID: session.UserID, Name: session.UserName, Avatar: session.AvatarURL},
		Activities: []inbox.Activity{{
			CreatedAt: s.now(),
			Data: map[string]any{
				"title":  "You have been granted " + access + " access to the document by " + session.UserName,
				"avatar": session.AvatarURL,
				"email":  session.Email,
			},
		}},
	})

	if s.SMTPConfigured() {
		go func() {
			err := s.mailer.SendDocumentSharedEmail(collaboratorEmail, email.DocumentSharedData{
				SharedBy:    session.UserName,
				Title:       doc.Title,
				Access:      access,
				DocumentURL: s.cfg.PublicURL + dashboard.DocumentHref(documentID),
			})
			if err != nil {
				s.logger.Warn("send share email", zap.String("email", collaboratorEmail), zap.Error(err))
			}
		}()
	}

	return map[string]any{"email": collaboratorEmail, "access": access}, nil
}

// RemoveAccess revokes a collaborator. The notice carries no room: the
// document is no longer reachable for them.
func (s *Service) RemoveAccess(ctx context.Context, session Session, documentID, collaboratorEmail string) error {
	collaboratorEmail = normalizeEmail(collaboratorEmail)
	doc, _, err := s.authorize(ctx, session, documentID, rbac.ActionShare)
	if err != nil {
		return err
	}
	if err := s.store.RemoveDocumentAccess(ctx, documentID, collaboratorEmail); err != nil {
		if store.IsNotFound(err) {
			return domainError(http.StatusNotFound, "NOT_FOUND", "Collaborator not found", nil)
		}
		return err
	}
	s.invalidateSnapshots(collaboratorEmail)
	s.indexDocument(ctx, doc)

	s.notify(ctx, inbox.InboxNotification{
		UserEmail: collaboratorEmail,
		Kind:      inbox.KindDocumentAccess,
		Actor:     &inbox.Actor{ID: session.UserID, Name: session.UserName, Avatar: session.AvatarURL},
		Activities: []inbox.Activity{{
			CreatedAt: s.now(),
			Data: map[string]any{
				"title":  "You have been removed from the document by " + session.UserName,
				"avatar": session.AvatarURL,
				"email":  session.Email,
			},
		}},
	})
	return nil
}

// InboxFeed renders the unread notifications of email.
func (s *Service) InboxFeed(ctx context.Context, email string) (map[string]any, error) {
	notifications, err := s.store.ListInboxNotifications(ctx, email, inboxPageSize)
	if err != nil {
		return nil, err
	}
	unread, err := s.store.CountUnreadInboxNotifications(ctx, email)
	if err != nil {
		return nil, err
	}
	feed, skipped := inbox.BuildFeed(notifications, unread)
	for _, skip := range skipped {
		s.logger.Warn("skipping inbox notification", zap.String("email", email), zap.Error(skip))
	}
	return map[string]any{
		"showBadge":   feed.ShowBadge,
		"items":       feed.Items,
		"placeholder": feed.Placeholder,
		"unreadCount": unread,
	}, nil
}

func (s *Service) MarkNotificationRead(ctx context.Context, session Session, notificationID string) error {
	if err := s.store.MarkInboxNotificationRead(ctx, session.Email, notificationID, s.now()); err != nil {
		if store.IsNotFound(err) {
			return domainError(http.StatusNotFound, "NOT_FOUND", "Notification not found", nil)
		}
		return err
	}
	s.publishFeed(ctx, session.Email)
	return nil
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context, session Session) error {
	if err := s.store.MarkAllInboxNotificationsRead(ctx, session.Email, s.now()); err != nil {
		return err
	}
	s.publishFeed(ctx, session.Email)
	return nil
}

// NotificationInput is what the realtime provider posts to the webhook.
type NotificationInput struct {
	UserEmail  string           `json:"userEmail"`
	Kind       inbox.Kind       `json:"kind"`
	RoomID     *string          `json:"roomId"`
	ThreadID   *string          `json:"threadId"`
	Actor      *inbox.Actor     `json:"actor"`
	Activities []inbox.Activity `json:"activities"`
}

func (s *Service) IngestNotification(ctx context.Context, input NotificationInput) (map[string]any, error) {
	recipient := normalizeEmail(input.UserEmail)
	if recipient == "" {
		return nil, validationError("userEmail is required")
	}
	switch input.Kind {
	case inbox.KindThread, inbox.KindTextMention, inbox.KindDocumentAccess:
	default:
		return nil, validationError("unknown notification kind")
	}
	notification := inbox.InboxNotification{
		UserEmail:  recipient,
		Kind:       input.Kind,
		RoomID:     input.RoomID,
		ThreadID:   input.ThreadID,
		Actor:      input.Actor,
		Activities: input.Activities,
	}
	id, err := s.storeNotification(ctx, notification)
	if err != nil {
		return nil, err
	}
	s.publishFeed(ctx, recipient)
	return map[string]any{"id": id}, nil
}

func (s *Service) storeNotification(ctx context.Context, notification inbox.InboxNotification) (string, error) {
	now := s.now()
	notification.ID = util.NewNotificationID(now)
	notification.NotifiedAt = now
	if notification.Activities == nil {
		notification.Activities = []inbox.Activity{}
	}
	if err := s.store.InsertInboxNotification(ctx, notification); err != nil {
		return "", err
	}
	return notification.ID, nil
}

// notify stores and publishes a notification produced by a user action. The
// action has already happened, so failures are only logged.
func (s *Service) notify(ctx context.Context, notification inbox.InboxNotification) {
	if _, err := s.storeNotification(ctx, notification); err != nil {
		s.logger.Error("store inbox notification", zap.String("email", notification.UserEmail), zap.Error(err))
		return
	}
	s.publishFeed(ctx, notification.UserEmail)
}

func (s *Service) publishFeed(ctx context.Context, email string) {
	if s.hub == nil {
		return
	}
	feed, err := s.InboxFeed(ctx, email)
	if err != nil {
		s.logger.Warn("build inbox feed for publish", zap.String("email", email), zap.Error(err))
		return
	}
	message, err := encodeEvent(feed)
	if err != nil {
		s.logger.Warn("encode inbox feed", zap.Error(err))
		return
	}
	if err := s.hub.Publish(ctx, email, message); err != nil {
		s.logger.Warn("publish inbox feed", zap.String("email", email), zap.Error(err))
	}
}

// SubscribeInbox opens a stream of feed updates for the session's user.
func (s *Service) SubscribeInbox(session Session) (<-chan []byte, func(), bool) {
	if s.hub == nil {
		return nil, func() {}, false
	}
	ch, cancel := s.hub.Subscribe(session.Email)
	return ch, cancel, true
}

var errRealtimeUnavailable = domainError(http.StatusServiceUnavailable, "REALTIME_UNAVAILABLE", "Realtime collaboration is not configured", nil)

// RealtimeAuth exchanges the session's identity with the realtime provider and
// returns the provider's status and body untouched.
func (s *Service) RealtimeAuth(ctx context.Context, session Session) (int, []byte, error) {
	if s.realtime == nil {
		return 0, nil, errRealtimeUnavailable
	}
	identity := realtime.NewIdentity(session.UserID, session.UserName, session.Email, session.AvatarURL)
	status, body, err := s.realtime.IdentifyUser(ctx, identity)
	if err != nil {
		if errors.Is(err, realtime.ErrNotConfigured) {
			return 0, nil, errRealtimeUnavailable
		}
		return 0, nil, err
	}
	return status, body, nil
}

func (s *Service) Search(ctx context.Context, session Session, text string, limit, offset int) (search.Response, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return search.Response{Results: []search.Result{}, Query: text}, nil
	}
	if s.search == nil {
		return search.Response{}, domainError(http.StatusServiceUnavailable, "SEARCH_UNAVAILABLE", "Search is not configured", nil)
	}
	return s.search.Search(ctx, search.Query{
		Text:   text,
		Email:  session.Email,
		Limit:  limit,
		Offset: offset,
	}), nil
}
