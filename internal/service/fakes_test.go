package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"course-enrollment-service/internal/client"
	"course-enrollment-service/internal/config"
	"course-enrollment-service/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := client.InitDBClient(config.Database{Driver: "sqlite", URL: "file::memory:"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedCourse(t *testing.T, db *gorm.DB, id, price string) *model.Course {
	t.Helper()
	course := &model.Course{
		ID:          id,
		Title:       "Course " + id,
		Description: "About " + id,
		Price:       decimal.RequireFromString(price),
		MentorID:    "mentor-1",
	}
	require.NoError(t, db.Create(course).Error)
	return course
}

func courseTotal(t *testing.T, db *gorm.DB, id string) int64 {
	t.Helper()
	var course model.Course
	require.NoError(t, db.Where("id = ?", id).First(&course).Error)
	return course.TotalEnrollments
}

func enrollmentCount(t *testing.T, db *gorm.DB, studentID, courseID string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&model.Enrollment{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Count(&count).Error)
	return count
}

// fakeProvider stores sessions and intents in memory.
type fakeProvider struct {
	mu       sync.Mutex
	seq      int
	sessions map[string]*client.CheckoutSession
	intents  map[string]*client.PaymentIntent

	lastSession *client.CreateSessionRequest
	lastIntent  *client.CreateIntentRequest

	retrieveErr error
	createErr   error
	event       *client.WebhookEvent
	eventErr    error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		sessions: map[string]*client.CheckoutSession{},
		intents:  map[string]*client.PaymentIntent{},
	}
}

func (p *fakeProvider) CreateSession(ctx context.Context, req *client.CreateSessionRequest) (*client.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.seq++
	p.lastSession = req
	s := &client.CheckoutSession{
		ID:            fmt.Sprintf("cs_test_%d", p.seq),
		URL:           fmt.Sprintf("https://checkout.example.com/cs_test_%d", p.seq),
		PaymentStatus: "unpaid",
		Metadata:      req.Metadata,
	}
	p.sessions[s.ID] = s
	return s, nil
}

func (p *fakeProvider) CreateIntent(ctx context.Context, req *client.CreateIntentRequest) (*client.PaymentIntent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.seq++
	p.lastIntent = req
	pi := &client.PaymentIntent{
		ID:           fmt.Sprintf("pi_test_%d", p.seq),
		Status:       "requires_payment_method",
		ClientSecret: fmt.Sprintf("pi_test_%d_secret", p.seq),
		Metadata:     req.Metadata,
	}
	p.intents[pi.ID] = pi
	return pi, nil
}

func (p *fakeProvider) RetrieveSession(ctx context.Context, id string) (*client.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.retrieveErr != nil {
		return nil, p.retrieveErr
	}
	s, ok := p.sessions[id]
	if !ok {
		return nil, errors.New("no such session")
	}
	out := *s
	return &out, nil
}

func (p *fakeProvider) RetrieveIntent(ctx context.Context, id string) (*client.PaymentIntent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.retrieveErr != nil {
		return nil, p.retrieveErr
	}
	pi, ok := p.intents[id]
	if !ok {
		return nil, errors.New("no such payment intent")
	}
	out := *pi
	return &out, nil
}

func (p *fakeProvider) ParseWebhookEvent(payload []byte, signature string) (*client.WebhookEvent, error) {
	if p.eventErr != nil {
		return nil, p.eventErr
	}
	return p.event, nil
}

func (p *fakeProvider) putIntent(id, status string, meta PurchaseMetadata) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.intents[id] = &client.PaymentIntent{ID: id, Status: status, Metadata: meta.ToMap()}
}

func (p *fakeProvider) putSession(id, paymentStatus, intentID string, meta PurchaseMetadata) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[id] = &client.CheckoutSession{
		ID:              id,
		PaymentStatus:   paymentStatus,
		PaymentIntentID: intentID,
		Metadata:        meta.ToMap(),
	}
}

type notifyCall struct {
	Email       string
	Name        string
	CourseTitle string
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
	panic bool
}

func (n *recordingNotifier) NotifyPurchase(email, name, courseTitle string) {
	if n.panic {
		panic("notifier exploded")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifyCall{Email: email, Name: name, CourseTitle: courseTitle})
}

func (n *recordingNotifier) Calls() []notifyCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notifyCall(nil), n.calls...)
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type recordingMailer struct {
	mu       sync.Mutex
	sent     []sentMail
	attempts int
	failN    int // fail the first failN attempts
	fail     bool
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	if m.fail || m.attempts <= m.failN {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (m *recordingMailer) Sent() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

func (m *recordingMailer) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}
