package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Sergio-AB-dev/Freya-App/backend/internal/dto"
	pkgerrors "github.com/Sergio-AB-dev/Freya-App/backend/pkg/errors"
)

func floatPtr(v float64) *float64 { return &v }

func createSubjectWithGrades(t *testing.T, env *testEnv, name string, values ...float64) *dto.SubjectResponse {
	t.Helper()
	ctx := context.Background()
	subj, err := env.svc.Subject.Create(ctx, &dto.CreateSubjectRequest{Name: name}, "user-1")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	for _, v := range values {
		subj, err = env.svc.Subject.AddGrade(ctx, subj.ID, &dto.GradeRequest{Label: "Examen", Value: floatPtr(v)}, "user-1")
		if err != nil {
			t.Fatalf("AddGrade 应成功: %v", err)
		}
	}
	return subj
}

// ── Create 测试 ──

func TestSubjectService_Create_Success(t *testing.T) {
	env := newTestEnv()

	result, err := env.svc.Subject.Create(context.Background(), &dto.CreateSubjectRequest{Name: "  Matemáticas "}, "user-1")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.Name != "Matemáticas" {
		t.Errorf("期望名称去除空白，实际=%q", result.Name)
	}
	if len(result.Grades) != 0 || result.Average != 0 {
		t.Errorf("新科目应无成绩且均值为 0，实际 grades=%d average=%v", len(result.Grades), result.Average)
	}
}

func TestSubjectService_Create_BlankName(t *testing.T) {
	env := newTestEnv()

	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := env.svc.Subject.Create(context.Background(), &dto.CreateSubjectRequest{Name: name}, "user-1")
		if !errors.Is(err, ErrSubjectNameRequired) {
			t.Errorf("名称 %q 期望 ErrSubjectNameRequired，实际: %v", name, err)
		}
	}
	if len(env.subjects.subjects) != 0 {
		t.Error("空名称不应写入存储")
	}
}

// ── 成绩测试 ──

func TestSubjectService_AddGrade_RecomputesAverage(t *testing.T) {
	env := newTestEnv()

	subj := createSubjectWithGrades(t, env, "Física", 4.0, 5.0, 3.5)
	if len(subj.Grades) != 3 {
		t.Fatalf("期望 3 条成绩，实际=%d", len(subj.Grades))
	}
	if subj.Average != 4.17 {
		t.Errorf("期望均值 4.17，实际=%v", subj.Average)
	}
	for _, g := range subj.Grades {
		if g.ID == "" {
			t.Error("每条成绩都应有 ID")
		}
	}
}

func TestSubjectService_AddGrade_MissingFields(t *testing.T) {
	env := newTestEnv()
	subj := createSubjectWithGrades(t, env, "Química")

	cases := []*dto.GradeRequest{
		{Label: "", Value: floatPtr(3)},
		{Label: "Taller", Value: nil},
		{Label: "  ", Value: nil},
	}
	for _, req := range cases {
		_, err := env.svc.Subject.AddGrade(context.Background(), subj.ID, req, "user-1")
		if !errors.Is(err, ErrGradeFieldsRequired) {
			t.Errorf("期望 ErrGradeFieldsRequired，实际: %v", err)
		}
	}
	if env.subjects.updateCalls != 0 {
		t.Errorf("校验失败不应写入，实际写入 %d 次", env.subjects.updateCalls)
	}
}

func TestSubjectService_AddGrade_ValueOutOfRange(t *testing.T) {
	env := newTestEnv()
	subj := createSubjectWithGrades(t, env, "Estadística", 4.0)
	calls := env.subjects.updateCalls

	for _, v := range []float64{-1, 5.5, 1e307, math.Inf(1), math.NaN()} {
		_, err := env.svc.Subject.AddGrade(context.Background(), subj.ID, &dto.GradeRequest{Label: "Quiz", Value: floatPtr(v)}, "user-1")
		if !errors.Is(err, ErrGradeValueRange) {
			t.Errorf("value=%v 期望 ErrGradeValueRange，实际: %v", v, err)
		}
		_, err = env.svc.Subject.UpdateGrade(context.Background(), subj.ID, subj.Grades[0].ID, &dto.GradeRequest{Label: "Quiz", Value: floatPtr(v)}, "user-1")
		if !errors.Is(err, ErrGradeValueRange) {
			t.Errorf("UpdateGrade value=%v 期望 ErrGradeValueRange，实际: %v", v, err)
		}
	}
	if env.subjects.updateCalls != calls {
		t.Errorf("越界分值不应写入，实际多写入 %d 次", env.subjects.updateCalls-calls)
	}

	got, _ := env.svc.Subject.Get(context.Background(), subj.ID)
	if got.Average != 4.0 {
		t.Errorf("均值不应变化，实际=%v", got.Average)
	}
}

func TestSubjectService_AddGrade_SubjectMissing(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.Subject.AddGrade(context.Background(), "nonexistent", &dto.GradeRequest{Label: "Quiz", Value: floatPtr(3)}, "user-1")
	if !errors.Is(err, ErrSubjectNotFound) {
		t.Errorf("期望 ErrSubjectNotFound，实际: %v", err)
	}
}

func TestSubjectService_UpdateGrade(t *testing.T) {
	env := newTestEnv()
	subj := createSubjectWithGrades(t, env, "Historia", 2.0, 4.0)
	target := subj.Grades[0]

	result, err := env.svc.Subject.UpdateGrade(context.Background(), subj.ID, target.ID,
		&dto.GradeRequest{Label: "Quiz", Value: floatPtr(5.0)}, "user-1")
	if err != nil {
		t.Fatalf("UpdateGrade 应成功: %v", err)
	}
	if result.Grades[0].ID != target.ID || result.Grades[0].Label != "Quiz" || result.Grades[0].Value != 5.0 {
		t.Errorf("成绩未按 ID 原位替换: %+v", result.Grades[0])
	}
	if result.Average != 4.5 {
		t.Errorf("期望均值 4.5，实际=%v", result.Average)
	}

	_, err = env.svc.Subject.UpdateGrade(context.Background(), subj.ID, "missing",
		&dto.GradeRequest{Label: "Quiz", Value: floatPtr(1)}, "user-1")
	if !errors.Is(err, ErrGradeNotFound) {
		t.Errorf("期望 ErrGradeNotFound，实际: %v", err)
	}
}

func TestSubjectService_DeleteGrade_EachPosition(t *testing.T) {
	values := []float64{4.0, 5.0, 3.5, 1.0}

	for i := range values {
		env := newTestEnv()
		subj := createSubjectWithGrades(t, env, "Arte", values...)

		result, err := env.svc.Subject.DeleteGrade(context.Background(), subj.ID, subj.Grades[i].ID, "user-1")
		if err != nil {
			t.Fatalf("DeleteGrade[%d] 应成功: %v", i, err)
		}
		if len(result.Grades) != len(values)-1 {
			t.Fatalf("删除后期望 %d 条，实际=%d", len(values)-1, len(result.Grades))
		}

		var sum float64
		for j, v := range values {
			if j != i {
				sum += v
			}
		}
		want := float64(int(sum/float64(len(values)-1)*100+0.5)) / 100
		if result.Average != want {
			t.Errorf("删除第 %d 条后期望均值 %v，实际=%v", i, want, result.Average)
		}
		for _, g := range result.Grades {
			if g.ID == subj.Grades[i].ID {
				t.Errorf("已删除的成绩 %s 仍存在", g.ID)
			}
		}
	}
}

func TestSubjectService_DeleteLastGrade_AverageZero(t *testing.T) {
	env := newTestEnv()
	subj := createSubjectWithGrades(t, env, "Música", 3.0)

	result, err := env.svc.Subject.DeleteGrade(context.Background(), subj.ID, subj.Grades[0].ID, "user-1")
	if err != nil {
		t.Fatalf("DeleteGrade 应成功: %v", err)
	}
	if len(result.Grades) != 0 || result.Average != 0 {
		t.Errorf("期望空列表且均值 0，实际 grades=%d average=%v", len(result.Grades), result.Average)
	}
}

// ── 乐观锁测试 ──

func TestSubjectService_AddGrade_RetriesOnConflict(t *testing.T) {
	env := newTestEnv()
	subj := createSubjectWithGrades(t, env, "Inglés")
	env.subjects.conflicts = 2

	result, err := env.svc.Subject.AddGrade(context.Background(), subj.ID,
		&dto.GradeRequest{Label: "Oral", Value: floatPtr(4)}, "user-1")
	if err != nil {
		t.Fatalf("两次冲突后应重试成功: %v", err)
	}
	if len(result.Grades) != 1 {
		t.Errorf("期望 1 条成绩，实际=%d", len(result.Grades))
	}
	if env.subjects.updateCalls != 3 {
		t.Errorf("期望写入 3 次，实际=%d", env.subjects.updateCalls)
	}
}

func TestSubjectService_AddGrade_ConflictExhausted(t *testing.T) {
	env := newTestEnv()
	subj := createSubjectWithGrades(t, env, "Biología")
	env.subjects.conflicts = gradeWriteAttempts

	_, err := env.svc.Subject.AddGrade(context.Background(), subj.ID,
		&dto.GradeRequest{Label: "Lab", Value: floatPtr(4)}, "user-1")
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，实际: %v", err)
	}
}

// ── Delete / 订阅测试 ──

func TestSubjectService_Delete(t *testing.T) {
	env := newTestEnv()
	subj := createSubjectWithGrades(t, env, "Filosofía", 3.0)

	if err := env.svc.Subject.Delete(context.Background(), subj.ID, "user-1"); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if _, err := env.svc.Subject.Get(context.Background(), subj.ID); !errors.Is(err, ErrSubjectNotFound) {
		t.Errorf("删除后期望 ErrSubjectNotFound，实际: %v", err)
	}
	if err := env.svc.Subject.Delete(context.Background(), subj.ID, "user-1"); !errors.Is(err, ErrSubjectNotFound) {
		t.Errorf("重复删除期望 ErrSubjectNotFound，实际: %v", err)
	}
}

func TestSubjectService_PublishesFullSnapshot(t *testing.T) {
	env := newTestEnv()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, unsubscribe, err := env.svc.Subject.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe 应成功: %v", err)
	}
	defer unsubscribe()

	createSubjectWithGrades(t, env, "Álgebra")
	createSubjectWithGrades(t, env, "Cálculo")

	var last []dto.SubjectResponse
	for i := 0; i < 2; i++ {
		select {
		case payload := <-ch:
			if err := json.Unmarshal(payload, &last); err != nil {
				t.Fatalf("快照应为 JSON 数组: %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("等待快照超时")
		}
	}
	if len(last) != 2 || last[0].Name != "Álgebra" || last[1].Name != "Cálculo" {
		t.Errorf("期望按创建顺序的完整快照，实际=%+v", last)
	}
}
