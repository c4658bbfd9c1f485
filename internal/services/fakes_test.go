package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/DanzelOng/MarkDownMate/internal/models"
	"github.com/DanzelOng/MarkDownMate/internal/repositories"
	"github.com/DanzelOng/MarkDownMate/internal/utils"
)

// memUserRepo is an in-memory stand-in for the Mongo-backed user repository.
// It enforces the same unique username/email constraints.
type memUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[primitive.ObjectID]*models.User)}
}

func (r *memUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return nil, repositories.ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	cp := *user
	r.users[user.ID] = &cp
	return user, nil
}

func (r *memUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *memUserRepo) FindConflicts(ctx context.Context, username, email string) (bool, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var usernameTaken, emailTaken bool
	for _, u := range r.users {
		if u.Username == username {
			usernameTaken = true
		}
		if u.Email == email {
			emailTaken = true
		}
	}
	return usernameTaken, emailTaken, nil
}

func (r *memUserRepo) MarkVerified(ctx context.Context, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	u.IsVerified = true
	u.ExpiresAt = nil
	u.UpdatedAt = time.Now()
	return nil
}

func (r *memUserRepo) Update(ctx context.Context, userID primitive.ObjectID, updateFields bson.M) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	if username, ok := updateFields["username"].(string); ok {
		for id, other := range r.users {
			if id != userID && other.Username == username {
				return repositories.ErrDuplicate
			}
		}
		u.Username = username
	}
	if password, ok := updateFields["password"].(string); ok {
		u.Password = password
	}
	u.UpdatedAt = time.Now()
	return nil
}

// memOTPRepo keeps at most one live OTP per email, like the unique index.
type memOTPRepo struct {
	mu   sync.Mutex
	otps map[string]*models.OTP
	now  func() time.Time
}

func newMemOTPRepo() *memOTPRepo {
	return &memOTPRepo{otps: make(map[string]*models.OTP), now: time.Now}
}

func (r *memOTPRepo) FindOrCreate(ctx context.Context, email string) (*models.OTP, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if otp, ok := r.otps[email]; ok && !otp.Expired(r.now()) {
		cp := *otp
		return &cp, false, nil
	}
	code, err := utils.GenerateSecureOTP(6)
	if err != nil {
		return nil, false, err
	}
	now := r.now()
	otp := &models.OTP{
		Email:     email,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(models.OTPTTL),
	}
	r.otps[email] = otp
	cp := *otp
	return &cp, true, nil
}

func (r *memOTPRepo) FindByEmail(ctx context.Context, email string) (*models.OTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if otp, ok := r.otps[email]; ok && !otp.Expired(r.now()) {
		cp := *otp
		return &cp, nil
	}
	return nil, nil
}

func (r *memOTPRepo) ConsumeByCode(ctx context.Context, code string) (*models.OTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for email, otp := range r.otps {
		if otp.Code == code && !otp.Expired(r.now()) {
			delete(r.otps, email)
			cp := *otp
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memOTPRepo) DeleteExpired(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for email, otp := range r.otps {
		if otp.Expired(r.now()) {
			delete(r.otps, email)
		}
	}
	return nil
}

// memTokenRepo keeps at most one live reset token per account.
type memTokenRepo struct {
	mu     sync.Mutex
	tokens map[primitive.ObjectID]*models.ResetToken
	now    func() time.Time
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{tokens: make(map[primitive.ObjectID]*models.ResetToken), now: time.Now}
}

func (r *memTokenRepo) FindOrCreate(ctx context.Context, userID primitive.ObjectID, email string) (*models.ResetToken, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rt, ok := r.tokens[userID]; ok && !rt.Expired(r.now()) {
		cp := *rt
		return &cp, false, nil
	}
	token, err := utils.GenerateResetToken()
	if err != nil {
		return nil, false, err
	}
	now := r.now()
	rt := &models.ResetToken{
		UserID:    userID,
		Email:     email,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(models.ResetTokenTTL),
	}
	r.tokens[userID] = rt
	cp := *rt
	return &cp, true, nil
}

func (r *memTokenRepo) FindByToken(ctx context.Context, token string) (*models.ResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rt := range r.tokens {
		if rt.Token == token && !rt.Expired(r.now()) {
			cp := *rt
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memTokenRepo) Consume(ctx context.Context, token string, userID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt, ok := r.tokens[userID]
	if !ok || rt.Token != token || rt.Expired(r.now()) {
		return false, nil
	}
	delete(r.tokens, userID)
	return true, nil
}

func (r *memTokenRepo) DeleteExpired(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, rt := range r.tokens {
		if rt.Expired(r.now()) {
			delete(r.tokens, id)
		}
	}
	return nil
}

type sentMail struct {
	to       string
	username string
	code     string
	userID   string
	token    string
}

// recordingMailer captures outgoing mail instead of dialing SMTP.
type recordingMailer struct {
	mu         sync.Mutex
	otpMails   []sentMail
	resetMails []sentMail
	err        error
}

func (m *recordingMailer) SendOTPVerification(to, username, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.otpMails = append(m.otpMails, sentMail{to: to, username: username, code: code})
	return nil
}

func (m *recordingMailer) SendPasswordReset(to, username, userID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.resetMails = append(m.resetMails, sentMail{to: to, username: username, userID: userID, token: token})
	return nil
}

func (m *recordingMailer) lastOTP() (sentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.otpMails) == 0 {
		return sentMail{}, false
	}
	return m.otpMails[len(m.otpMails)-1], true
}

func (m *recordingMailer) lastReset() (sentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.resetMails) == 0 {
		return sentMail{}, false
	}
	return m.resetMails[len(m.resetMails)-1], true
}

// memMarkdownRepo enforces the per-user unique file name constraint.
type memMarkdownRepo struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]*models.Markdown
}

func newMemMarkdownRepo() *memMarkdownRepo {
	return &memMarkdownRepo{docs: make(map[primitive.ObjectID]*models.Markdown)}
}

func (r *memMarkdownRepo) FindAllByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Markdown, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	docs := []models.Markdown{}
	for _, doc := range r.docs {
		if doc.UserID == userID {
			docs = append(docs, *doc)
		}
	}
	return docs, nil
}

func (r *memMarkdownRepo) FindByID(ctx context.Context, userID, docID primitive.ObjectID) (*models.Markdown, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if doc, ok := r.docs[docID]; ok && doc.UserID == userID {
		cp := *doc
		return &cp, nil
	}
	return nil, nil
}

func (r *memMarkdownRepo) Create(ctx context.Context, doc *models.Markdown) (*models.Markdown, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.docs {
		if existing.UserID == doc.UserID && existing.FileName == doc.FileName {
			return nil, repositories.ErrDuplicate
		}
	}
	doc.ID = primitive.NewObjectID()
	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	cp := *doc
	r.docs[doc.ID] = &cp
	return doc, nil
}

func (r *memMarkdownRepo) Rename(ctx context.Context, userID, docID primitive.ObjectID, fileName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[docID]
	if !ok || doc.UserID != userID {
		return mongo.ErrNoDocuments
	}
	for id, existing := range r.docs {
		if id != docID && existing.UserID == userID && existing.FileName == fileName {
			return repositories.ErrDuplicate
		}
	}
	doc.FileName = fileName
	doc.UpdatedAt = time.Now()
	return nil
}

func (r *memMarkdownRepo) Save(ctx context.Context, userID, docID primitive.ObjectID, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[docID]
	if !ok || doc.UserID != userID {
		return mongo.ErrNoDocuments
	}
	doc.Content = content
	doc.UpdatedAt = time.Now()
	return nil
}

func (r *memMarkdownRepo) Delete(ctx context.Context, userID, docID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[docID]
	if !ok || doc.UserID != userID {
		return mongo.ErrNoDocuments
	}
	delete(r.docs, docID)
	return nil
}

var _ repositories.UserRepository = (*memUserRepo)(nil)
var _ repositories.OTPRepository = (*memOTPRepo)(nil)
var _ repositories.TokenRepository = (*memTokenRepo)(nil)
var _ repositories.MarkdownRepository = (*memMarkdownRepo)(nil)
var _ EmailService = (*recordingMailer)(nil)

var errSMTPDown = fmt.Errorf("smtp connection refused")
