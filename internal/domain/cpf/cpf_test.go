package cpf

import (
	"fmt"
	"math/rand"
	"testing"
)

// TestValid_KnownValues — известные валидные и невалидные номера.
func TestValid_KnownValues(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"валидный", "52998224725", true},
		{"валидный 2", "11144477735", true},
		{"неверная первая контрольная", "52998224715", false},
		{"неверная вторая контрольная", "52998224726", false},
		{"короткий", "5299822472", false},
		{"длинный", "529982247250", false},
		{"буквы", "5299822472a", false},
		{"пустой", "", false},
		{"все единицы", "11111111111", false},
		{"все нули", "00000000000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Valid(tt.input); got != tt.want {
				t.Errorf("Valid(%q) = %v, хотели %v", tt.input, got, tt.want)
			}
		})
	}
}

// TestValid_ConstantSequencesAlwaysRejected — последовательности из одной цифры
// отклоняются, даже если контрольные цифры формально сходятся.
func TestValid_ConstantSequencesAlwaysRejected(t *testing.T) {
	for d := 0; d <= 9; d++ {
		s := ""
		for i := 0; i < Length; i++ {
			s += fmt.Sprint(d)
		}
		if Valid(s) {
			t.Errorf("Valid(%q) = true, ожидали false", s)
		}
	}
}

// TestValid_OnlyMatchingCheckDigitsAccepted — для случайных префиксов
// принимается ровно одна пара контрольных цифр из 100 возможных.
func TestValid_OnlyMatchingCheckDigitsAccepted(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for n := 0; n < 200; n++ {
		prefix := fmt.Sprintf("%09d", rng.Intn(1_000_000_000))
		expected := CheckDigits(prefix)
		if expected == "" {
			t.Fatalf("CheckDigits(%q) вернул пустую строку", prefix)
		}

		accepted := 0
		for suffix := 0; suffix < 100; suffix++ {
			candidate := prefix + fmt.Sprintf("%02d", suffix)
			if Valid(candidate) {
				accepted++
				if candidate[9:] != expected {
					t.Errorf("принят %q, ожидались контрольные %q", candidate, expected)
				}
			}
		}

		if isConstant(prefix + expected) {
			if accepted != 0 {
				t.Errorf("префикс %q: константная последовательность принята", prefix)
			}
			continue
		}
		if accepted != 1 {
			t.Errorf("префикс %q: принято %d вариантов, ожидали 1", prefix, accepted)
		}
	}
}

func TestOnlyDigits(t *testing.T) {
	if got := OnlyDigits("529.982.247-25"); got != "52998224725" {
		t.Errorf("OnlyDigits = %q", got)
	}
	if got := OnlyDigits("(11) 99999-8888"); got != "11999998888" {
		t.Errorf("OnlyDigits = %q", got)
	}
	if got := OnlyDigits("абв"); got != "" {
		t.Errorf("OnlyDigits = %q, ожидали пустую строку", got)
	}
}

func TestFormat(t *testing.T) {
	if got := Format("52998224725"); got != "529.982.247-25" {
		t.Errorf("Format = %q", got)
	}
	if got := Format("123"); got != "123" {
		t.Errorf("Format короткой строки = %q", got)
	}
}
