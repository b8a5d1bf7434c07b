package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Sergio-AB-dev/Freya-App/backend/config"
	"github.com/Sergio-AB-dev/Freya-App/backend/internal/model"
	"github.com/Sergio-AB-dev/Freya-App/backend/internal/repository"
	pkgerrors "github.com/Sergio-AB-dev/Freya-App/backend/pkg/errors"
	"github.com/Sergio-AB-dev/Freya-App/backend/pkg/jwt"
	"github.com/Sergio-AB-dev/Freya-App/backend/pkg/memstore"
)

// mock 仓储均返回副本，避免调用方修改内部状态绕过版本校验

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id
	// createErr 非空时 Create 直接返回该错误
	createErr error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if user.UserID == "" {
		user.UserID = "user-" + user.Email
	}
	user.CreatedAt = time.Now()
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock SubjectRepository ──

type mockSubjectRepo struct {
	subjects map[string]*model.Subject
	seq      int

	updateCalls int
	// conflicts 大于 0 时，UpdateGrades 先模拟并发写入再返回冲突
	conflicts int
}

func newMockSubjectRepo() *mockSubjectRepo {
	return &mockSubjectRepo{subjects: make(map[string]*model.Subject)}
}

func cloneSubject(s *model.Subject) *model.Subject {
	cp := *s
	cp.Grades = append(model.GradeList{}, s.Grades...)
	return &cp
}

func (m *mockSubjectRepo) Create(_ context.Context, subject *model.Subject) error {
	m.seq++
	if subject.SubjectID == "" {
		subject.SubjectID = "subj-" + subject.Name
	}
	if subject.Grades == nil {
		subject.Grades = model.GradeList{}
	}
	subject.Version = 1
	subject.CreatedAt = time.Unix(int64(m.seq), 0)
	m.subjects[subject.SubjectID] = cloneSubject(subject)
	return nil
}

func (m *mockSubjectRepo) GetByID(_ context.Context, id string) (*model.Subject, error) {
	if s, ok := m.subjects[id]; ok {
		return cloneSubject(s), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSubjectRepo) List(_ context.Context) ([]model.Subject, error) {
	result := make([]model.Subject, 0, len(m.subjects))
	for _, s := range m.subjects {
		result = append(result, *cloneSubject(s))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *mockSubjectRepo) UpdateGrades(_ context.Context, subject *model.Subject) error {
	m.updateCalls++
	stored, ok := m.subjects[subject.SubjectID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if m.conflicts > 0 {
		m.conflicts--
		stored.Version++
	}
	if stored.Version != subject.Version {
		return pkgerrors.ErrOptimisticLock
	}
	subject.Version++
	m.subjects[subject.SubjectID] = cloneSubject(subject)
	return nil
}

func (m *mockSubjectRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.subjects, id)
	return nil
}

// ── Mock ReminderRepository ──

type mockReminderRepo struct {
	reminders map[string]*model.Reminder
	seq       int

	createCalls int
	updateCalls int
	deleteCalls int
}

func newMockReminderRepo() *mockReminderRepo {
	return &mockReminderRepo{reminders: make(map[string]*model.Reminder)}
}

func (m *mockReminderRepo) Create(_ context.Context, reminder *model.Reminder) error {
	m.createCalls++
	m.seq++
	if reminder.ReminderID == "" {
		reminder.ReminderID = "rem-" + reminder.Title
	}
	reminder.Version = 1
	reminder.CreatedAt = time.Unix(int64(m.seq), 0)
	cp := *reminder
	m.reminders[reminder.ReminderID] = &cp
	return nil
}

func (m *mockReminderRepo) GetByID(_ context.Context, id string) (*model.Reminder, error) {
	if r, ok := m.reminders[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReminderRepo) List(_ context.Context) ([]model.Reminder, error) {
	result := make([]model.Reminder, 0, len(m.reminders))
	for _, r := range m.reminders {
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *mockReminderRepo) ListDueOn(ctx context.Context, date string) ([]model.Reminder, error) {
	all, _ := m.List(ctx)
	var result []model.Reminder
	for _, r := range all {
		if r.Date == date && !r.Completed {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockReminderRepo) Update(_ context.Context, reminder *model.Reminder) error {
	m.updateCalls++
	stored, ok := m.reminders[reminder.ReminderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != reminder.Version {
		return pkgerrors.ErrOptimisticLock
	}
	reminder.Version++
	cp := *reminder
	m.reminders[reminder.ReminderID] = &cp
	return nil
}

func (m *mockReminderRepo) Delete(_ context.Context, id string, _ string) error {
	m.deleteCalls++
	delete(m.reminders, id)
	return nil
}

// ── Mock NoteRepository ──

type mockNoteRepo struct {
	notes map[string]*model.Note
	seq   int
	calls int
}

func newMockNoteRepo() *mockNoteRepo {
	return &mockNoteRepo{notes: make(map[string]*model.Note)}
}

func (m *mockNoteRepo) Create(_ context.Context, note *model.Note) error {
	m.calls++
	m.seq++
	if note.NoteID == "" {
		note.NoteID = "note-" + note.Title
	}
	note.CreatedAt = time.Unix(int64(m.seq), 0)
	cp := *note
	m.notes[note.NoteID] = &cp
	return nil
}

func (m *mockNoteRepo) GetByID(_ context.Context, ownerID, id string) (*model.Note, error) {
	m.calls++
	if n, ok := m.notes[id]; ok && n.OwnerID == ownerID {
		cp := *n
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockNoteRepo) ListByOwner(_ context.Context, ownerID string) ([]model.Note, error) {
	m.calls++
	var result []model.Note
	for _, n := range m.notes {
		if n.OwnerID == ownerID {
			result = append(result, *n)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *mockNoteRepo) Update(_ context.Context, note *model.Note) error {
	m.calls++
	if n, ok := m.notes[note.NoteID]; !ok || n.OwnerID != note.OwnerID {
		return gorm.ErrRecordNotFound
	}
	cp := *note
	m.notes[note.NoteID] = &cp
	return nil
}

func (m *mockNoteRepo) Delete(_ context.Context, ownerID, id string) error {
	m.calls++
	if n, ok := m.notes[id]; ok && n.OwnerID == ownerID {
		delete(m.notes, id)
	}
	return nil
}

// ── 测试环境 ──

type testEnv struct {
	cfg       *config.Config
	repo      *repository.Repository
	users     *mockUserRepo
	subjects  *mockSubjectRepo
	reminders *mockReminderRepo
	notes     *mockNoteRepo
	store     *memstore.Store
	jwtMgr    *jwt.Manager
	svc       *Service
}

func newTestEnv() *testEnv {
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret-key-for-unit-testing-2026",
			AccessTokenTTL:          15 * time.Minute,
			RefreshTokenTTLDefault:  24 * time.Hour,
			RefreshTokenTTLRemember: 7 * 24 * time.Hour,
			NoteEditTTL:             30 * time.Minute,
		},
	}

	env := &testEnv{
		cfg:       cfg,
		users:     newMockUserRepo(),
		subjects:  newMockSubjectRepo(),
		reminders: newMockReminderRepo(),
		notes:     newMockNoteRepo(),
		store:     memstore.New(),
		jwtMgr:    jwt.NewManager(&cfg.Auth),
	}
	env.repo = &repository.Repository{
		User:     env.users,
		Subject:  env.subjects,
		Reminder: env.reminders,
		Note:     env.notes,
	}
	env.svc = NewService(cfg, env.repo, env.jwtMgr, env.store, zap.NewNop())
	return env
}
