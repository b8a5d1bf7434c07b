package grading

import (
	"math"
	"math/rand"
	"testing"

	"github.com/Sergio-AB-dev/Freya-App/backend/internal/model"
)

func grades(values ...float64) []model.Grade {
	out := make([]model.Grade, 0, len(values))
	for i, v := range values {
		out = append(out, model.Grade{GradeID: string(rune('a' + i)), Label: "Parcial", Value: v})
	}
	return out
}

func TestAverage(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"空列表", nil, 0},
		{"单条", []float64{3.2}, 3.2},
		{"三条取两位", []float64{4.0, 5.0, 3.5}, 4.17},
		{"整除", []float64{2, 4}, 3},
		{"向上进位", []float64{1, 2, 2}, 1.67},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Average(grades(tt.values...)); got != tt.want {
				t.Errorf("Average(%v)=%v，期望 %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestAverage_MatchesRoundedMean(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		n := 1 + r.Intn(20)
		values := make([]float64, n)
		var sum float64
		for j := range values {
			values[j] = math.Round(r.Float64()*50) / 10 // 0.0 – 5.0
			sum += values[j]
		}
		want := math.Round(sum/float64(n)*100) / 100
		if got := Average(grades(values...)); got != want {
			t.Fatalf("Average(%v)=%v，期望 %v", values, got, want)
		}
	}
}

func TestAverage_NaNPropagates(t *testing.T) {
	if got := Average(grades(4, math.NaN())); !math.IsNaN(got) {
		t.Errorf("期望 NaN，实际=%v", got)
	}
}

func TestAppend_AssignsIDWithoutMutatingInput(t *testing.T) {
	in := grades(4)
	out, g := Append(in, "Taller", 3)

	if len(in) != 1 {
		t.Errorf("入参不应被修改，len=%d", len(in))
	}
	if len(out) != 2 || out[1].GradeID != g.GradeID {
		t.Errorf("追加结果不符: %+v", out)
	}
	if g.GradeID == "" {
		t.Error("新成绩应分配 GradeID")
	}
}

func TestRemove_RecomputesAverage(t *testing.T) {
	in := grades(4.0, 5.0, 3.5)

	for i := range in {
		out, ok := Remove(in, in[i].GradeID)
		if !ok {
			t.Fatalf("删除 %s 应成功", in[i].GradeID)
		}
		if len(out) != len(in)-1 {
			t.Fatalf("期望 %d 条，实际 %d 条", len(in)-1, len(out))
		}
		if IndexOf(out, in[i].GradeID) != -1 {
			t.Errorf("删除后不应再包含 %s", in[i].GradeID)
		}

		var sum float64
		for j, g := range in {
			if j != i {
				sum += g.Value
			}
		}
		want := Round2(sum / float64(len(in)-1))
		if got := Average(out); got != want {
			t.Errorf("删除第 %d 条后均值=%v，期望 %v", i, got, want)
		}
	}
}

func TestRemove_Unknown(t *testing.T) {
	in := grades(4)
	if _, ok := Remove(in, "missing"); ok {
		t.Error("未知 GradeID 不应删除成功")
	}
}

func TestReplace(t *testing.T) {
	in := grades(4.0, 5.0)
	out, ok := Replace(in, in[1].GradeID, "Final", 3.0)
	if !ok {
		t.Fatal("Replace 应成功")
	}
	if out[1].Label != "Final" || out[1].Value != 3.0 || out[1].GradeID != in[1].GradeID {
		t.Errorf("替换结果不符: %+v", out[1])
	}
	if in[1].Value != 5.0 {
		t.Error("入参不应被修改")
	}
	if Average(out) != 3.5 {
		t.Errorf("替换后均值期望 3.5，实际=%v", Average(out))
	}

	if _, ok := Replace(in, "missing", "x", 1); ok {
		t.Error("未知 GradeID 不应替换成功")
	}
}

func TestEnsureIDs(t *testing.T) {
	in := []model.Grade{{Label: "Quiz", Value: 4}, {GradeID: "keep", Label: "Final", Value: 5}}
	out, changed := EnsureIDs(in)
	if !changed {
		t.Error("存在缺失 GradeID 时 changed 应为 true")
	}
	if out[0].GradeID == "" || out[1].GradeID != "keep" {
		t.Errorf("补齐结果不符: %+v", out)
	}

	if _, changed := EnsureIDs(out); changed {
		t.Error("全部已有 GradeID 时 changed 应为 false")
	}
}

func TestRound2_HugeValuesDoNotOverflow(t *testing.T) {
	for _, v := range []float64{1e307, -1e307, math.MaxFloat64} {
		got := Round2(v)
		if math.IsInf(got, 0) {
			t.Errorf("Round2(%v) 不应溢出为 Inf", v)
		}
		if got != v {
			t.Errorf("Round2(%v)=%v，期望原样返回", v, got)
		}
	}
	if got := Average(grades(1e307)); math.IsInf(got, 0) {
		t.Errorf("Average 不应溢出为 Inf，实际=%v", got)
	}
}

func TestValidValue(t *testing.T) {
	tests := []struct {
		v    float64
		want bool
	}{
		{0, true},
		{2.5, true},
		{5, true},
		{-0.1, false},
		{5.01, false},
		{1e307, false},
		{math.Inf(1), false},
		{math.NaN(), false},
	}
	for _, tt := range tests {
		if got := ValidValue(tt.v); got != tt.want {
			t.Errorf("ValidValue(%v)=%v，期望 %v", tt.v, got, tt.want)
		}
	}
}
